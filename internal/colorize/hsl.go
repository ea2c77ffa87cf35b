package colorize

import "math"

// RGB is an opaque 8-bit colour.
type RGB struct {
	R, G, B uint8
}

// Packed returns the colour as 0xAARRGGBB with full alpha.
func (c RGB) Packed() uint32 {
	return 0xFF000000 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// HSL is a colour in hue/saturation/lightness form.
// Hue is in degrees [0,359]; saturation and lightness are percentages [0,100].
// Out-of-range components are clamped on conversion.
type HSL struct {
	Hue        int
	Saturation uint8
	Lightness  uint8
}

// RGB converts c using the chroma/hue-sector formula. Channels are
// truncated, not rounded.
func (c HSL) RGB() RGB {
	h := float64(min(max(c.Hue, 0), 359))
	s := float64(min(c.Saturation, 100)) / 100
	l := float64(min(c.Lightness, 100)) / 100

	chroma := (1 - math.Abs(2*l-1)) * s
	h1 := h / 60
	x := chroma * (1 - math.Abs(math.Mod(h1, 2)-1))

	var r1, g1, b1 float64
	switch int(h1) {
	case 0:
		r1, g1 = chroma, x
	case 1:
		r1, g1 = x, chroma
	case 2:
		g1, b1 = chroma, x
	case 3:
		g1, b1 = x, chroma
	case 4:
		r1, b1 = x, chroma
	default:
		r1, b1 = chroma, x
	}

	m := l - chroma/2
	return RGB{
		R: toByte(r1 + m),
		G: toByte(g1 + m),
		B: toByte(b1 + m),
	}
}

// toByte scales v in [0,1] to [0,255] with truncation.
func toByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v * 255)
}
