package server

import (
	"fmt"

	"github.com/gogpu/mandel"
	"github.com/gogpu/mandel/export"
)

// view is a requested window: the global screen offset of its top-left
// pixel, the zoom level, the size and an optional iteration cap.
type view struct {
	X    int64 `form:"x" json:"x"`
	Y    int64 `form:"y" json:"y"`
	Zoom int   `form:"zoom" json:"zoom"`
	W    int   `form:"w" json:"w"`
	H    int   `form:"h" json:"h"`
	Cap  int   `form:"cap" json:"cap"`
}

func (v view) viewport() mandel.Viewport {
	return mandel.Viewport{
		Offset: mandel.ScreenPosition{X: v.X, Y: v.Y},
		Zoom:   v.Zoom,
	}
}

// validate checks v against the frame size and zoom limits. Zoom levels
// below 1 select the first level.
func (v view) validate(maxEdge, maxZoom int) error {
	if v.Zoom > maxZoom {
		return fmt.Errorf("zoom %d above maximum %d", v.Zoom, maxZoom)
	}
	if v.W <= 0 || v.H <= 0 || v.W > maxEdge || v.H > maxEdge {
		return fmt.Errorf("frame size %dx%d outside 1..%d", v.W, v.H, maxEdge)
	}
	if v.Cap < 0 {
		return fmt.Errorf("negative iteration cap %d", v.Cap)
	}
	return nil
}

// cacheKey identifies an encoded frame. The zoom is clamped so that
// equivalent requests share an entry.
func (v view) cacheKey(f export.Format) string {
	return fmt.Sprintf("%d|%d|%d|%d|%d|%d|%s", v.X, v.Y, max(v.Zoom, 1), v.W, v.H, v.Cap, f)
}
