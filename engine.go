package mandel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/gogpu/mandel/internal/cache"
	"github.com/gogpu/mandel/internal/coord"
	"github.com/gogpu/mandel/internal/parallel"
	"github.com/gogpu/mandel/internal/tile"
)

// ErrShutdown is returned by RenderUntilReady after Shutdown.
var ErrShutdown = errors.New("mandel: engine shut down")

// pollInterval is how long RenderUntilReady waits between frames.
const pollInterval = 2 * time.Millisecond

// Engine composes frames from cached tiles and schedules missing tiles on
// its worker pool.
//
// Engine is not safe for concurrent use; see the package documentation.
type Engine struct {
	mapper      coord.Mapper
	cache       *cache.Cache
	queue       *parallel.Queue[*tile.Tile]
	pool        *parallel.WorkerPool[*tile.Tile]
	tiles       *tile.Pool
	placeholder *tile.Tile

	budget    int64
	tileBytes int64

	viewport     Viewport
	maxZoom      int
	iterationCap int

	frames uint64
	last   FrameStats
	closed bool

	log *slog.Logger
}

// FrameStats describes one rendered frame.
type FrameStats struct {
	// Frame is the frame counter passed to Render.
	Frame uint64
	// Tiles is the number of grid cells drawn.
	Tiles int
	// Ready is the number of cells drawn from computed tiles.
	Ready int
	// Placeholders is the number of cells drawn with the placeholder.
	Placeholders int
	// Evicted is the number of tiles evicted after drawing.
	Evicted int
}

// Complete reports whether every visible cell was drawn from a computed tile.
func (s FrameStats) Complete() bool {
	return s.Placeholders == 0
}

// New creates an engine and starts its workers.
// Call Shutdown to stop them.
func New(opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := o.validate(); err != nil {
		return nil, err
	}

	log := o.logger
	if log == nil {
		log = Logger()
	}

	workers := o.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueCapacity := o.queueCapacity
	if queueCapacity == 0 {
		queueCapacity = workers
	}

	mapper := coord.Mapper{Edge: o.edge, Base: o.base, Decay: o.decay}
	e := &Engine{
		mapper:       mapper,
		tiles:        tile.NewPool(o.edge),
		placeholder:  tile.NewPlaceholder(o.edge, uint32(o.placeholder)),
		budget:       o.budget,
		tileBytes:    tile.Bytes(o.edge),
		maxZoom:      mapper.MaxZoom(),
		iterationCap: max(o.iterationCap, 1),
		log:          log,
	}
	e.viewport = e.clampViewport(o.viewport)

	// A budget below one tile would evict every tile right after it is
	// drawn; up to one tile of overage is tolerated instead.
	if e.budget < e.tileBytes {
		log.Warn("mandel: memory budget raised to one tile", "requested", o.budget, "budget", e.tileBytes)
		e.budget = e.tileBytes
	}

	shader := tile.Shader{Vectorized: o.vectorized, Policy: o.policy, Hue: o.hue}
	e.queue = parallel.NewQueue[*tile.Tile](queueCapacity)
	e.pool = parallel.NewWorkerPool(workers, e.queue, shader.Shade)
	e.cache = cache.New(e.queue, e.newTile)
	e.cache.OnEvict(e.tiles.Put)

	log.Info("mandel: engine started",
		"workers", workers,
		"queue", queueCapacity,
		"edge", o.edge,
		"budget", e.budget,
		"maxZoom", e.maxZoom,
		"policy", o.policy.String(),
		"vectorized", o.vectorized)

	return e, nil
}

// validate checks the options for values New cannot work with.
func (o *options) validate() error {
	if o.edge <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTileEdge, o.edge)
	}
	if !(o.base > 0) || !(o.decay > 0 && o.decay < 1) {
		return fmt.Errorf("%w: base %g, decay %g", ErrInvalidResolution, o.base, o.decay)
	}
	if o.workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, o.workers)
	}
	if o.queueCapacity < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQueueCapacity, o.queueCapacity)
	}
	return nil
}

// newTile allocates the pending tile for key.
func (e *Engine) newTile(key tile.Key) *tile.Tile {
	res := e.mapper.Resolution(key.Zoom)
	return e.tiles.Get(key, coord.CellOrigin(key.Cell, res), res)
}

// Render draws the current viewport into dst and then enforces the memory
// budget. frame must increase between calls; it orders tiles for eviction.
// Render never waits for a tile to be computed.
func (e *Engine) Render(dst *Framebuffer, frame uint64) FrameStats {
	return e.RenderViewport(e.viewport, dst, frame)
}

// RenderViewport is Render for an explicit viewport. The engine's own
// viewport is left unchanged.
func (e *Engine) RenderViewport(vp Viewport, dst *Framebuffer, frame uint64) FrameStats {
	vp = e.clampViewport(vp)
	edge := e.mapper.Edge

	cols := e.mapper.TilesToCover(dst.Width())
	rows := e.mapper.TilesToCover(dst.Height())
	first := e.mapper.CellAtScreen(vp.Offset)

	stats := FrameStats{Frame: frame, Tiles: cols * rows}
	for row := range rows {
		for col := range cols {
			cell := coord.GridPos{X: first.X + int64(col), Y: first.Y + int64(row)}
			key := tile.Key{Zoom: vp.Zoom, Cell: cell, Cap: e.iterationCap}

			t, ok := e.cache.GetOrCreate(key, frame)
			if ok {
				stats.Ready++
			} else {
				t = e.placeholder
				stats.Placeholders++
			}

			at := e.mapper.CellScreenOrigin(cell).Sub(vp.Offset)
			dst.Blit(t.Pix, edge, int(at.X), int(at.Y))
		}
	}

	stats.Evicted = e.cache.Invalidate(e.budget, e.tileBytes)

	e.frames++
	e.last = stats
	if stats.Evicted > 0 {
		e.log.Debug("mandel: evicted tiles", "frame", frame, "count", stats.Evicted)
	}
	return stats
}

// RenderUntilReady renders frames starting at frame until no placeholder is
// drawn or ctx is done. It returns the frame number to use next.
func (e *Engine) RenderUntilReady(ctx context.Context, dst *Framebuffer, frame uint64) (uint64, error) {
	if e.closed {
		return frame, ErrShutdown
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		stats := e.Render(dst, frame)
		frame++
		if stats.Complete() {
			return frame, nil
		}

		select {
		case <-ctx.Done():
			return frame, fmt.Errorf("mandel: render incomplete (%d of %d tiles): %w",
				stats.Ready, stats.Tiles, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Viewport returns the current viewport.
func (e *Engine) Viewport() Viewport {
	return e.viewport
}

// SetViewport replaces the viewport. The zoom is clamped to the minimum.
func (e *Engine) SetViewport(vp Viewport) {
	e.SetZoom(vp.Zoom)
	e.viewport.Offset = vp.Offset
}

// SetZoom sets the zoom level, clamped to [1, MaxZoom]. The offset is left
// unchanged; see ZoomAt to zoom around a point.
func (e *Engine) SetZoom(level int) {
	if clamped := e.clampZoom(level); clamped != level {
		e.log.Warn("mandel: zoom clamped", "requested", level, "zoom", clamped, "maxZoom", e.maxZoom)
		level = clamped
	}
	e.viewport.Zoom = level
}

// MaxZoom returns the deepest zoom level. Beyond it neighbouring pixels
// would be closer than float64 coordinates can resolve.
func (e *Engine) MaxZoom() int {
	return e.maxZoom
}

func (e *Engine) clampZoom(level int) int {
	return min(max(level, coord.MinZoom), e.maxZoom)
}

func (e *Engine) clampViewport(vp Viewport) Viewport {
	vp.Zoom = e.clampZoom(vp.Zoom)
	return vp
}

// Pan moves the viewport by delta screen pixels.
func (e *Engine) Pan(delta ScreenPosition) {
	e.viewport.Offset = e.viewport.Offset.Add(delta)
}

// ZoomAt changes the zoom level by delta (positive zooms in) while keeping
// the plane point under cursor, a position relative to the framebuffer's
// top-left pixel, at the same place on screen.
func (e *Engine) ZoomAt(cursor ScreenPosition, delta int) {
	global := e.viewport.Offset.Add(cursor)
	pt := e.mapper.ScreenToFractal(global, e.Resolution())

	level := e.viewport.Zoom
	if delta > 0 {
		level += min(delta, e.maxZoom)
	} else {
		level += max(delta, -e.maxZoom)
	}
	e.SetZoom(level)

	moved := e.mapper.FractalToScreen(pt, e.Resolution())
	e.viewport.Offset = moved.Sub(cursor)
}

// IterationCap returns the cap used for newly requested tiles.
func (e *Engine) IterationCap() int {
	return e.iterationCap
}

// SetIterationCap changes the cap used for newly requested tiles, clamped
// to at least 1. Tiles computed with other caps stay cached and are reused
// if the cap is set back.
func (e *Engine) SetIterationCap(n int) {
	if n < 1 {
		e.log.Warn("mandel: iteration cap clamped", "requested", n, "cap", 1)
		n = 1
	}
	e.iterationCap = n
}

// Resolution returns the plane extent of one tile at the current zoom.
func (e *Engine) Resolution() float64 {
	return e.mapper.Resolution(e.viewport.Zoom)
}

// TopLeft returns the plane coordinates of the viewport's top-left pixel.
func (e *Engine) TopLeft() FractalPoint {
	return e.mapper.ScreenToFractal(e.viewport.Offset, e.Resolution())
}

// TileEdge returns the tile edge length in pixels.
func (e *Engine) TileEdge() int {
	return e.mapper.Edge
}

// Shutdown stops the workers after the tiles they are computing finish.
// Queued tiles are abandoned. Shutdown is safe to call multiple times.
func (e *Engine) Shutdown() {
	if e.closed {
		return
	}
	e.closed = true
	e.pool.Close()
	e.log.Info("mandel: engine stopped", "frames", e.frames)
}
