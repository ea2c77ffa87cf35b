// Package colorize maps escape-time iteration counts to packed colours.
//
// Counts equal to the iteration cap belong to the set and are painted black
// under every policy. Other counts are painted according to the Policy.
// Output pixels are packed 0xAARRGGBB with full alpha.
package colorize

import (
	"errors"
	"fmt"
	"strings"
)

// Policy selects how escaped pixels are coloured.
type Policy uint8

const (
	// Binary paints every escaped pixel white.
	Binary Policy = iota

	// Ramp paints escaped pixels along a lightness/saturation ramp of a
	// single hue, proportional to count/cap.
	Ramp
)

// DefaultHue is the ramp hue in degrees.
const DefaultHue = 100

// Packed colours shared by all policies.
const (
	Black uint32 = 0xFF000000
	White uint32 = 0xFFFFFFFF
)

// maxPalette bounds the lookup table built per Apply call. Larger caps
// convert each pixel directly.
const maxPalette = 1 << 16

// ErrUnknownPolicy is returned by ParsePolicy for unrecognised names.
var ErrUnknownPolicy = errors.New("colorize: unknown policy")

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case Binary:
		return "binary"
	case Ramp:
		return "ramp"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// ParsePolicy parses a policy name as produced by String. Matching is
// case-insensitive; "hsl" and "bw" are accepted as aliases.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "binary", "bw", "black_white":
		return Binary, nil
	case "ramp", "hsl":
		return Ramp, nil
	default:
		return Binary, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Color returns the packed colour for one count.
func Color(count uint32, limit int, policy Policy, hue int) uint32 {
	if limit <= 0 || int64(count) >= int64(limit) {
		return Black
	}
	if policy != Ramp {
		return White
	}

	ratio := float64(count) / float64(limit)
	pct := uint8(ratio * 100)
	return HSL{
		Hue:        hue,
		Saturation: pct,
		Lightness:  min(max(pct, 20), 80),
	}.RGB().Packed()
}

// Apply replaces every iteration count in pix with its packed colour.
// A non-positive limit paints everything black.
func Apply(pix []uint32, limit int, policy Policy, hue int) {
	if limit <= 0 {
		for i := range pix {
			pix[i] = Black
		}
		return
	}

	if policy == Binary || limit > maxPalette {
		for i, c := range pix {
			pix[i] = Color(c, limit, policy, hue)
		}
		return
	}

	lut := Palette(limit, policy, hue)
	for i, c := range pix {
		if int64(c) >= int64(limit) {
			pix[i] = Black
			continue
		}
		pix[i] = lut[c]
	}
}

// Palette returns the packed colour of every count in [0, limit].
func Palette(limit int, policy Policy, hue int) []uint32 {
	if limit < 0 {
		limit = 0
	}
	lut := make([]uint32, limit+1)
	for i := range lut {
		lut[i] = Color(uint32(i), limit, policy, hue) //nolint:gosec // i <= limit
	}
	return lut
}
