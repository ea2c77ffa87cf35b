package mandel

import "github.com/gogpu/mandel/internal/coord"

// ScreenPosition is a pixel position in the global screen space of a zoom
// level. Cell (0,0) of the tile grid starts at the global origin.
type ScreenPosition = coord.ScreenPosition

// FractalPoint is a point of the complex plane.
type FractalPoint = coord.FractalPoint

// Viewport is the visible window: the global screen position of the
// framebuffer's top-left pixel and the zoom level.
type Viewport struct {
	Offset ScreenPosition
	Zoom   int
}

// DefaultViewport puts the origin of the plane slightly inside the window
// at the first zoom level.
func DefaultViewport() Viewport {
	return Viewport{
		Offset: ScreenPosition{X: -100, Y: -100},
		Zoom:   coord.MinZoom,
	}
}

