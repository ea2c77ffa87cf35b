package mandel

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Stats is a snapshot of engine state and cache counters.
type Stats struct {
	Frames        uint64  `json:"frames"`
	Zoom          int     `json:"zoom"`
	MaxZoom       int     `json:"max_zoom"`
	IterationCap  int     `json:"iteration_cap"`
	Resolution    float64 `json:"resolution"`
	Workers       int     `json:"workers"`
	QueueCapacity int     `json:"queue_capacity"`
	QueuePending  int     `json:"queue_pending"`

	ReadyTiles   int     `json:"ready_tiles"`
	PendingTiles int     `json:"pending_tiles"`
	ReadyBytes   int64   `json:"ready_bytes"`
	Budget       int64   `json:"budget"`
	Hits         uint64  `json:"hits"`
	Misses       uint64  `json:"misses"`
	HitRate      float64 `json:"hit_rate"`
	Enqueued     uint64  `json:"enqueued"`
	Rejected     uint64  `json:"rejected"`
	Evictions    uint64  `json:"evictions"`

	LastFrame FrameStats `json:"last_frame"`
}

// statsPrinter formats numbers with digit grouping.
var statsPrinter = message.NewPrinter(language.English)

// String returns a one-line human-readable summary.
func (s Stats) String() string {
	return statsPrinter.Sprintf(
		"frames %d, zoom %d, cap %d, tiles %d ready / %d pending, %d of %d bytes, hit rate %.1f%%, evictions %d",
		s.Frames, s.Zoom, s.IterationCap, s.ReadyTiles, s.PendingTiles,
		s.ReadyBytes, s.Budget, s.HitRate*100, s.Evictions)
}

// Stats returns a snapshot of engine state.
func (e *Engine) Stats() Stats {
	cs := e.cache.Stats()
	return Stats{
		Frames:        e.frames,
		Zoom:          e.viewport.Zoom,
		MaxZoom:       e.maxZoom,
		IterationCap:  e.iterationCap,
		Resolution:    e.Resolution(),
		Workers:       e.pool.Workers(),
		QueueCapacity: e.queue.Capacity(),
		QueuePending:  e.queue.Pending(),
		ReadyTiles:    cs.Ready,
		PendingTiles:  cs.Pending,
		ReadyBytes:    int64(cs.Ready) * e.tileBytes,
		Budget:        e.budget,
		Hits:          cs.Hits,
		Misses:        cs.Misses,
		HitRate:       cs.HitRate,
		Enqueued:      cs.Enqueued,
		Rejected:      cs.Rejected,
		Evictions:     cs.Evictions,
		LastFrame:     e.last,
	}
}
