package mandel

import (
	"image"
	"image/color"
)

// Framebuffer is a caller-owned destination of packed 0xAARRGGBB pixels,
// row-major with no padding.
type Framebuffer struct {
	width  int
	height int
	pix    []uint32
}

// NewFramebuffer creates a framebuffer with the given dimensions.
// Negative dimensions are treated as zero.
func NewFramebuffer(width, height int) *Framebuffer {
	width, height = max(width, 0), max(height, 0)
	return &Framebuffer{
		width:  width,
		height: height,
		pix:    make([]uint32, width*height),
	}
}

// Resize changes the dimensions, reusing the backing array when it is large
// enough. Pixel contents are unspecified afterwards.
func (f *Framebuffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	n := width * height
	if cap(f.pix) < n {
		f.pix = make([]uint32, n)
	}
	f.pix = f.pix[:n]
	f.width, f.height = width, height
}

// Width returns the width in pixels.
func (f *Framebuffer) Width() int {
	return f.width
}

// Height returns the height in pixels.
func (f *Framebuffer) Height() int {
	return f.height
}

// Pix returns the packed pixels.
func (f *Framebuffer) Pix() []uint32 {
	return f.pix
}

// Fill sets every pixel to c.
func (f *Framebuffer) Fill(c Color) {
	for i := range f.pix {
		f.pix[i] = uint32(c)
	}
}

// Set sets one pixel. Out-of-bounds coordinates are ignored.
func (f *Framebuffer) Set(x, y int, c Color) {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return
	}
	f.pix[y*f.width+x] = uint32(c)
}

// Pixel returns one pixel, or zero outside the buffer.
func (f *Framebuffer) Pixel(x, y int) Color {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return 0
	}
	return Color(f.pix[y*f.width+x])
}

// Blit copies a square edge×edge block of packed pixels so that its
// top-left corner lands at (x, y). Parts outside the buffer are clipped on
// all four sides.
func (f *Framebuffer) Blit(src []uint32, edge int, x, y int) {
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+edge, f.width), min(y+edge, f.height)
	if x0 >= x1 || y0 >= y1 {
		return
	}

	sx := x0 - x
	w := x1 - x0
	for dy := y0; dy < y1; dy++ {
		sy := dy - y
		srow := src[sy*edge+sx : sy*edge+sx+w]
		copy(f.pix[dy*f.width+x0:dy*f.width+x1], srow)
	}
}

// CopyRGBA writes the pixels as 8-bit R, G, B, A bytes into dst, which must
// hold at least Width*Height*4 bytes. It returns the number of bytes written.
func (f *Framebuffer) CopyRGBA(dst []byte) int {
	n := len(f.pix) * 4
	_ = dst[:n]
	for i, p := range f.pix {
		j := i * 4
		dst[j+0] = uint8(p >> 16)
		dst[j+1] = uint8(p >> 8)
		dst[j+2] = uint8(p)
		dst[j+3] = uint8(p >> 24)
	}
	return n
}

// ToImage converts the framebuffer to an image.RGBA. Translucent pixels,
// which only Set and Fill can produce, are premultiplied on the way.
func (f *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	f.CopyRGBA(img.Pix)
	for i, p := range f.pix {
		if p>>24 == 0xFF {
			continue
		}
		r, g, b, a := Color(p).RGBA()
		j := i * 4
		img.Pix[j+0] = uint8(r >> 8)
		img.Pix[j+1] = uint8(g >> 8)
		img.Pix[j+2] = uint8(b >> 8)
		img.Pix[j+3] = uint8(a >> 8)
	}
	return img
}

// At implements the image.Image interface.
func (f *Framebuffer) At(x, y int) color.Color {
	return f.Pixel(x, y)
}

// Bounds implements the image.Image interface.
func (f *Framebuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.width, f.height)
}

// ColorModel implements the image.Image interface.
func (f *Framebuffer) ColorModel() color.Model {
	return color.NRGBAModel
}
