package mandel

import "image/color"

// Color is a packed 0xAARRGGBB pixel. Channels are not premultiplied.
type Color uint32

// Common colours.
const (
	Black Color = 0xFF000000
	White Color = 0xFFFFFFFF

	// DefaultPlaceholder is drawn where a tile is not ready yet.
	DefaultPlaceholder Color = 0xFF646464
)

// Pack builds a colour from 8-bit channels.
func Pack(r, g, b, a uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// RGB builds an opaque colour.
func RGB(r, g, b uint8) Color {
	return Pack(r, g, b, 0xFF)
}

// Unpack returns the 8-bit channels.
func (c Color) Unpack() (r, g, b, a uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c), uint8(c >> 24)
}

// RGBA implements color.Color. The result is alpha-premultiplied.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: uint8(c >> 24)}.RGBA()
}

// FromColor converts any color.Color to a packed colour.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Pack(n.R, n.G, n.B, n.A)
}
