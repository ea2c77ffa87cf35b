package wide

// Lanes is the number of lanes in F64x4 and Mask4.
const Lanes = 4

// F64x4 represents 4 float64 values for SIMD-style operations.
type F64x4 [Lanes]float64

// SplatF64 creates F64x4 with all elements set to n.
func SplatF64(n float64) F64x4 {
	var result F64x4
	for i := range result {
		result[i] = n
	}
	return result
}

// Add performs element-wise addition.
func (v F64x4) Add(other F64x4) F64x4 {
	var result F64x4
	for i := range v {
		result[i] = v[i] + other[i]
	}
	return result
}

// Sub performs element-wise subtraction.
func (v F64x4) Sub(other F64x4) F64x4 {
	var result F64x4
	for i := range v {
		result[i] = v[i] - other[i]
	}
	return result
}

// Mul performs element-wise multiplication. Each product is rounded to
// float64 so it can never be fused into a following addition.
func (v F64x4) Mul(other F64x4) F64x4 {
	var result F64x4
	for i := range v {
		result[i] = float64(v[i] * other[i])
	}
	return result
}

// Scale multiplies every element by s, rounding each product.
func (v F64x4) Scale(s float64) F64x4 {
	var result F64x4
	for i := range v {
		result[i] = float64(v[i] * s)
	}
	return result
}

// GreaterEqual compares element-wise and returns v[i] >= other[i] per lane.
func (v F64x4) GreaterEqual(other F64x4) Mask4 {
	var result Mask4
	for i := range v {
		result[i] = v[i] >= other[i]
	}
	return result
}
