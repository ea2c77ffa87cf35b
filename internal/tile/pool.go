package tile

import (
	"sync"

	"github.com/gogpu/mandel/internal/coord"
)

// Pool reuses the pixel buffers of evicted tiles.
//
// The pool reduces GC pressure while the user pans: every eviction frees a
// buffer of exactly the size the next admitted tile needs.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	edge int
	bufs sync.Pool
}

// NewPool creates a pool for tiles of the given edge.
func NewPool(edge int) *Pool {
	p := &Pool{edge: edge}
	p.bufs.New = func() any {
		buf := make([]uint32, edge*edge)
		return &buf
	}
	return p
}

// Get returns a pending tile backed by a pooled buffer. The pixel contents
// are unspecified; the kernel overwrites every entry.
func (p *Pool) Get(key Key, origin coord.FractalPoint, size float64) *Tile {
	buf := p.bufs.Get().(*[]uint32)
	return &Tile{
		Key:    key,
		Origin: origin,
		Size:   size,
		Edge:   p.edge,
		Pix:    *buf,
	}
}

// Put hands the buffer of an evicted tile back to the pool. Pending tiles
// and tiles of a different edge are ignored, as is nil.
// The caller must not use t afterwards.
func (p *Pool) Put(t *Tile) {
	if t == nil || !t.Ready() || t.Edge != p.edge || len(t.Pix) != p.edge*p.edge {
		return
	}
	buf := t.Pix
	t.Pix = nil
	p.bufs.Put(&buf)
}
