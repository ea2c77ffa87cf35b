// Package kernel computes escape-time iteration counts for one square tile of
// the Mandelbrot plane.
//
// Two forms are provided. Scalar walks one pixel at a time. Vector walks
// wide.Lanes horizontally adjacent pixels at a time using internal/wide and
// freezes each lane at the iteration its escape is first observed. Both forms
// produce bit-identical counts for every pixel; the tests enforce it.
package kernel

import (
	"github.com/gogpu/mandel/internal/coord"
	"github.com/gogpu/mandel/internal/wide"
)

// EscapeRadiusSq is the squared escape radius. |z|^2 equal to it counts as
// escaped.
const EscapeRadiusSq = 4.0

// Params describes one tile to compute.
type Params struct {
	// Origin is the top-left corner of the tile in the plane.
	Origin coord.FractalPoint

	// Size is the tile edge length in plane units.
	Size float64

	// Edge is the tile edge length in pixels.
	Edge int

	// Cap is the iteration cap. Values <= 0 classify every pixel as capped.
	Cap int
}

// delta returns the plane distance between adjacent pixels.
func (p Params) delta() float64 {
	return p.Size / float64(p.Edge)
}

// pointAt returns c for pixel (px, py). Both kernel forms derive c through
// this expression so the inputs are identical.
func (p Params) pointAt(px, py int, delta float64) (float64, float64) {
	return p.Origin.Real + float64(float64(px)*delta), p.Origin.Imag + float64(float64(py)*delta)
}

// Compute fills dst with iteration counts using the selected form.
func Compute(dst []uint32, p Params, vectorized bool) {
	if vectorized {
		Vector(dst, p)
		return
	}
	Scalar(dst, p)
}

// Scalar fills dst (Edge*Edge entries, row-major) one pixel at a time.
func Scalar(dst []uint32, p Params) {
	checkDst(dst, p)
	if fillCapped(dst, p) {
		return
	}

	delta := p.delta()
	for py := 0; py < p.Edge; py++ {
		row := dst[py*p.Edge : (py+1)*p.Edge]
		for px := range row {
			cr, ci := p.pointAt(px, py, delta)
			row[px] = escape(cr, ci, p.Cap)
		}
	}
}

// escape returns how many steps of z <- z^2 + c run before |z|^2 >= 4,
// or limit if that never happens.
func escape(cr, ci float64, limit int) uint32 {
	var zr, zi float64
	it := 0
	for ; it < limit; it++ {
		zr2 := float64(zr * zr)
		zi2 := float64(zi * zi)
		if zr2+zi2 >= EscapeRadiusSq {
			break
		}
		nzr := zr2 - zi2 + cr
		zi = float64(float64(zr*zi)*2) + ci
		zr = nzr
	}
	return uint32(it) //nolint:gosec // it is in [0, limit]
}

// Vector fills dst (Edge*Edge entries, row-major) processing wide.Lanes
// pixels of a row per step. A row tail shorter than a full group falls back
// to the scalar loop.
func Vector(dst []uint32, p Params) {
	checkDst(dst, p)
	if fillCapped(dst, p) {
		return
	}

	delta := p.delta()
	groups := p.Edge / wide.Lanes * wide.Lanes

	for py := 0; py < p.Edge; py++ {
		row := dst[py*p.Edge : (py+1)*p.Edge]

		for px := 0; px < groups; px += wide.Lanes {
			var cr, ci wide.F64x4
			for lane := range wide.Lanes {
				cr[lane], ci[lane] = p.pointAt(px+lane, py, delta)
			}
			counts := escapeLanes(cr, ci, p.Cap)
			copy(row[px:px+wide.Lanes], counts[:])
		}

		for px := groups; px < p.Edge; px++ {
			cr, ci := p.pointAt(px, py, delta)
			row[px] = escape(cr, ci, p.Cap)
		}
	}
}

var (
	escapeSq = wide.SplatF64(EscapeRadiusSq)
)

// escapeLanes runs the recurrence on four points at once. Lanes that escape
// keep iterating (their values are discarded) until every lane has escaped
// or the cap is reached.
func escapeLanes(cr, ci wide.F64x4, limit int) [wide.Lanes]uint32 {
	var counts [wide.Lanes]uint32
	for i := range counts {
		counts[i] = uint32(limit) //nolint:gosec // limit > 0 here
	}

	var zr, zi wide.F64x4
	var done wide.Mask4

	for it := 0; it < limit; it++ {
		zr2 := zr.Mul(zr)
		zi2 := zi.Mul(zi)

		escaped := zr2.Add(zi2).GreaterEqual(escapeSq)
		if escaped.Any() {
			fresh := escaped.AndNot(done)
			for lane, hit := range fresh {
				if hit {
					counts[lane] = uint32(it) //nolint:gosec // it < limit
				}
			}
			done = done.Or(escaped)
			if done.All() {
				break
			}
		}

		nzr := zr2.Sub(zi2).Add(cr)
		zi = zr.Mul(zi).Scale(2).Add(ci)
		zr = nzr
	}

	return counts
}

// fillCapped handles Cap <= 0: every pixel is classified as capped without
// iterating. It reports whether it did so.
func fillCapped(dst []uint32, p Params) bool {
	if p.Cap > 0 {
		return false
	}
	v := uint32(max(p.Cap, 0)) //nolint:gosec // non-negative
	for i := range dst[:p.Edge*p.Edge] {
		dst[i] = v
	}
	return true
}

func checkDst(dst []uint32, p Params) {
	if p.Edge <= 0 {
		panic("kernel: tile edge must be positive")
	}
	if len(dst) < p.Edge*p.Edge {
		panic("kernel: destination shorter than edge*edge")
	}
}
