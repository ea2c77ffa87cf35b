// Package coord maps between integer screen pixels and the continuous
// fractal plane.
//
// The plane is covered by a square tile grid anchored at 0+0i. One tile is
// Edge pixels wide on screen and Resolution(zoom) units wide in the plane, so
// a single scale factor (Resolution/Edge) converts in both directions.
//
// All functions are pure and safe for concurrent use.
package coord

import "math"

// Default mapping parameters.
const (
	// DefaultEdge is the tile edge length in pixels.
	DefaultEdge = 256

	// DefaultBase is the tile edge length in plane units at zoom 0.
	DefaultBase = 2.0

	// DefaultDecay is the per-zoom-level shrink factor of the tile edge.
	DefaultDecay = 0.9

	// MinZoom is the smallest accepted zoom level.
	MinZoom = 1

	// MinPixelScale is the smallest plane distance between neighbouring
	// pixels. At this scale a point within 4 units of the origin lies at most
	// 2^53 pixels away, so offsets convert exactly between int64 and float64.
	MinPixelScale = 0x1p-51

	// maxZoomLimit bounds MaxZoom for decay factors very close to 1.
	maxZoomLimit = 1 << 20

	// maxOffset bounds the pixel coordinates produced by FractalToScreen.
	maxOffset = 1 << 62
)

// ScreenPosition is an integer pixel position relative to a fixed screen origin.
type ScreenPosition struct {
	X, Y int64
}

// Add returns p translated by d.
func (p ScreenPosition) Add(d ScreenPosition) ScreenPosition {
	return ScreenPosition{X: p.X + d.X, Y: p.Y + d.Y}
}

// Sub returns p - d.
func (p ScreenPosition) Sub(d ScreenPosition) ScreenPosition {
	return ScreenPosition{X: p.X - d.X, Y: p.Y - d.Y}
}

// FractalPoint is a point of the fractal plane.
type FractalPoint struct {
	Real, Imag float64
}

// GridPos identifies one cell of the tile grid.
type GridPos struct {
	X, Y int64
}

// Mapper converts between screen and fractal space for a fixed tile edge
// and zoom curve.
type Mapper struct {
	// Edge is the tile edge length in pixels.
	Edge int

	// Base is the tile edge length in plane units at zoom 0.
	Base float64

	// Decay is the factor applied per zoom level, in (0, 1).
	Decay float64
}

// DefaultMapper returns the mapper used when nothing is configured.
func DefaultMapper() Mapper {
	return Mapper{Edge: DefaultEdge, Base: DefaultBase, Decay: DefaultDecay}
}

// MaxZoom returns the deepest zoom level at which Resolution/Edge is still
// at least MinPixelScale. Mappers whose first level is already finer than
// that, or whose parameters are out of range, return MinZoom.
func (m Mapper) MaxZoom() int {
	if m.Edge <= 0 || !(m.Base > 0) || !(m.Decay > 0 && m.Decay < 1) {
		return MinZoom
	}
	limit := MinPixelScale * float64(m.Edge)
	if m.resolution(MinZoom) < limit {
		return MinZoom
	}

	// The logarithm gets within a level or two; the loops settle rounding.
	z := int(min(math.Log(limit/m.Base)/math.Log(m.Decay), maxZoomLimit))
	z = max(z, MinZoom)
	for z > MinZoom && m.resolution(z) < limit {
		z--
	}
	for z < maxZoomLimit && m.resolution(z+1) >= limit {
		z++
	}
	return z
}

// ClampZoom returns zoom limited to [MinZoom, MaxZoom].
func (m Mapper) ClampZoom(zoom int) int {
	return min(max(zoom, MinZoom), m.MaxZoom())
}

// Resolution returns the tile edge length in plane units at the given zoom.
// Zoom is clamped first, so the result is positive, at most Base*Decay and
// strictly decreasing between MinZoom and MaxZoom.
func (m Mapper) Resolution(zoom int) float64 {
	return m.resolution(m.ClampZoom(zoom))
}

func (m Mapper) resolution(zoom int) float64 {
	return m.Base * math.Pow(m.Decay, float64(zoom))
}

// ScreenToFractal converts a screen position to plane coordinates.
func (m Mapper) ScreenToFractal(pos ScreenPosition, res float64) FractalPoint {
	scale := res / float64(m.Edge)
	return FractalPoint{
		Real: scale * float64(pos.X),
		Imag: scale * float64(pos.Y),
	}
}

// FractalToScreen converts plane coordinates to a screen position,
// truncating toward zero. Results saturate at ±2^62; NaN maps to 0.
func (m Mapper) FractalToScreen(pt FractalPoint, res float64) ScreenPosition {
	scale := float64(m.Edge) / res
	return ScreenPosition{
		X: toPixel(scale * pt.Real),
		Y: toPixel(scale * pt.Imag),
	}
}

func toPixel(v float64) int64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= maxOffset:
		return maxOffset
	case v <= -maxOffset:
		return -maxOffset
	}
	return int64(v)
}

// CellAt returns the grid cell containing pt.
func CellAt(pt FractalPoint, res float64) GridPos {
	return GridPos{
		X: int64(math.Floor(pt.Real / res)),
		Y: int64(math.Floor(pt.Imag / res)),
	}
}

// CellOrigin returns the top-left corner of a grid cell in plane coordinates.
func CellOrigin(cell GridPos, res float64) FractalPoint {
	return FractalPoint{
		Real: float64(cell.X) * res,
		Imag: float64(cell.Y) * res,
	}
}

// CellScreenOrigin returns the global screen position of a cell's top-left
// pixel. It does not depend on the resolution because one cell is always
// exactly one tile edge wide on screen.
func (m Mapper) CellScreenOrigin(cell GridPos) ScreenPosition {
	edge := int64(m.Edge)
	return ScreenPosition{X: cell.X * edge, Y: cell.Y * edge}
}

// TilesToCover returns how many tiles along one axis are needed to cover
// extent pixels, including one margin tile for partial overlap at the edges.
func (m Mapper) TilesToCover(extent int) int {
	if extent <= 0 {
		return 0
	}
	return (extent+m.Edge-1)/m.Edge + 1
}

// CellAtScreen returns the grid cell containing the global screen pixel pos.
// Integer floor division keeps cell boundaries exact for negative positions.
func (m Mapper) CellAtScreen(pos ScreenPosition) GridPos {
	edge := int64(m.Edge)
	return GridPos{X: floorDiv(pos.X, edge), Y: floorDiv(pos.Y, edge)}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
