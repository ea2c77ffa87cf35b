package export

import (
	"image"

	"golang.org/x/image/draw"
)

// Thumbnail scales img down so that its longer side is at most maxEdge
// pixels, keeping the aspect ratio. Images that already fit are copied
// unscaled.
func Thumbnail(img image.Image, maxEdge int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if maxEdge > 0 && (w > maxEdge || h > maxEdge) {
		if w >= h {
			h = max(1, h*maxEdge/w)
			w = maxEdge
		} else {
			w = max(1, w*maxEdge/h)
			h = maxEdge
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Rect, img, b, draw.Src, nil)
	return dst
}
