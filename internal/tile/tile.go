// Package tile defines the cached unit of the engine: one square block of the
// fractal plane at one zoom level and iteration cap.
//
// A tile is created pending by the cache, filled by exactly one worker and
// then published with MarkReady. After publication its pixels are never
// written again, so any goroutine that observes Ready() == true may read Pix
// without further synchronisation.
package tile

import (
	"cmp"
	"sync/atomic"

	"github.com/gogpu/mandel/internal/colorize"
	"github.com/gogpu/mandel/internal/coord"
	"github.com/gogpu/mandel/internal/kernel"
)

// BytesPerPixel is the storage cost of one packed pixel.
const BytesPerPixel = 4

// Key identifies a tile. Keys that differ in any field name independent
// tiles.
type Key struct {
	// Zoom is the discrete zoom level; the resolution is derived from it.
	Zoom int

	// Cell is the grid cell at that zoom.
	Cell coord.GridPos

	// Cap is the iteration cap the tile is computed with.
	Cap int
}

// Compare orders keys by zoom, cap, row and column.
func (k Key) Compare(o Key) int {
	if c := cmp.Compare(k.Zoom, o.Zoom); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Cap, o.Cap); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Cell.Y, o.Cell.Y); c != 0 {
		return c
	}
	return cmp.Compare(k.Cell.X, o.Cell.X)
}

// Tile holds the pixels of one grid cell.
type Tile struct {
	// Key is the identity of the tile.
	Key Key

	// Origin is the top-left corner in the plane.
	Origin coord.FractalPoint

	// Size is the edge length in plane units.
	Size float64

	// Edge is the edge length in pixels.
	Edge int

	// Pix holds Edge*Edge row-major pixels. It carries iteration counts
	// while the tile is computed and packed 0xAARRGGBB colours once ready.
	Pix []uint32

	ready      atomic.Bool
	lastAccess uint64
}

// New allocates a pending tile.
func New(key Key, origin coord.FractalPoint, size float64, edge int) *Tile {
	return &Tile{
		Key:    key,
		Origin: origin,
		Size:   size,
		Edge:   edge,
		Pix:    make([]uint32, edge*edge),
	}
}

// NewPlaceholder returns a ready tile filled with one colour. It is meant
// to be shared and must not be modified.
func NewPlaceholder(edge int, color uint32) *Tile {
	t := &Tile{Edge: edge, Pix: make([]uint32, edge*edge)}
	for i := range t.Pix {
		t.Pix[i] = color
	}
	t.ready.Store(true)
	return t
}

// Ready reports whether the pixels have been published.
func (t *Tile) Ready() bool {
	return t.ready.Load()
}

// MarkReady publishes the pixels. Writes to Pix made before the call are
// visible to every goroutine that later observes Ready() == true.
func (t *Tile) MarkReady() {
	t.ready.Store(true)
}

// Touch records the frame on which the tile was last used.
// Only the render goroutine may call it.
func (t *Tile) Touch(frame uint64) {
	t.lastAccess = frame
}

// LastAccess returns the frame recorded by Touch.
func (t *Tile) LastAccess() uint64 {
	return t.lastAccess
}

// ByteSize returns the pixel storage size in bytes.
func (t *Tile) ByteSize() int64 {
	return Bytes(t.Edge)
}

// Bytes returns the pixel storage size of a tile with the given edge.
func Bytes(edge int) int64 {
	return int64(edge) * int64(edge) * BytesPerPixel
}

// PixelOffset returns the index into Pix for tile-local pixel (px, py),
// or -1 if it lies outside the tile.
func (t *Tile) PixelOffset(px, py int) int {
	if px < 0 || px >= t.Edge || py < 0 || py >= t.Edge {
		return -1
	}
	return py*t.Edge + px
}

// Row returns row py of the tile.
func (t *Tile) Row(py int) []uint32 {
	return t.Pix[py*t.Edge : (py+1)*t.Edge]
}

// Shader turns a pending tile into a ready one.
type Shader struct {
	// Vectorized selects the lane-parallel kernel.
	Vectorized bool

	// Policy and Hue configure colourisation.
	Policy colorize.Policy
	Hue    int
}

// Shade computes the iteration counts for t, colourises them and publishes
// the result. It must run on the single goroutine that owns t while pending.
func (s Shader) Shade(t *Tile) {
	kernel.Compute(t.Pix, kernel.Params{
		Origin: t.Origin,
		Size:   t.Size,
		Edge:   t.Edge,
		Cap:    t.Key.Cap,
	}, s.Vectorized)
	colorize.Apply(t.Pix, t.Key.Cap, s.Policy, s.Hue)
	t.MarkReady()
}
