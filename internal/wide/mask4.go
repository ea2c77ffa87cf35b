package wide

// Mask4 holds one boolean per lane of an F64x4.
type Mask4 [Lanes]bool

// Or performs element-wise logical or.
func (m Mask4) Or(other Mask4) Mask4 {
	var result Mask4
	for i := range m {
		result[i] = m[i] || other[i]
	}
	return result
}

// AndNot returns lanes set in m but not in other.
func (m Mask4) AndNot(other Mask4) Mask4 {
	var result Mask4
	for i := range m {
		result[i] = m[i] && !other[i]
	}
	return result
}

// Any reports whether at least one lane is set.
func (m Mask4) Any() bool {
	for _, b := range m {
		if b {
			return true
		}
	}
	return false
}

// All reports whether every lane is set.
func (m Mask4) All() bool {
	for _, b := range m {
		if !b {
			return false
		}
	}
	return true
}
