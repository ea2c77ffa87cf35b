package cache

import (
	"slices"

	"github.com/gogpu/mandel/internal/tile"
)

// Enqueuer accepts pending tiles for computation. TryPush reports whether
// the tile was accepted. Full lets the cache skip allocating a tile the
// queue would refuse.
type Enqueuer interface {
	Full() bool
	TryPush(t *tile.Tile) bool
}

// Factory allocates the pending tile for a key.
type Factory func(key tile.Key) *tile.Tile

// Cache maps tile keys to tiles.
//
// Cache must be used from a single goroutine.
type Cache struct {
	entries map[tile.Key]*tile.Tile
	queue   Enqueuer
	factory Factory
	onEvict func(*tile.Tile)
	stats   Stats
}

// New creates an empty cache that submits new tiles to queue.
func New(queue Enqueuer, factory Factory) *Cache {
	return &Cache{
		entries: make(map[tile.Key]*tile.Tile),
		queue:   queue,
		factory: factory,
	}
}

// GetOrCreate returns the ready tile for key and records frame as its last
// access. If the tile is pending, or absent, it returns (nil, false).
// An absent key is inserted as pending only when the queue accepts it; its
// last access starts at frame so it is not evicted ahead of older tiles the
// moment it becomes ready.
func (c *Cache) GetOrCreate(key tile.Key, frame uint64) (*tile.Tile, bool) {
	if t, ok := c.entries[key]; ok {
		if !t.Ready() {
			c.stats.Misses++
			return nil, false
		}
		c.stats.Hits++
		t.Touch(frame)
		return t, true
	}

	c.stats.Misses++
	if c.queue.Full() {
		c.stats.Rejected++
		return nil, false
	}
	t := c.factory(key)
	t.Touch(frame)
	if !c.queue.TryPush(t) {
		c.stats.Rejected++
		return nil, false
	}
	c.stats.Enqueued++
	c.entries[key] = t
	return nil, false
}

// OnEvict registers fn to receive every tile removed by Invalidate, after
// it has left the map.
func (c *Cache) OnEvict(fn func(*tile.Tile)) {
	c.onEvict = fn
}

// Peek returns the entry for key without touching it.
func (c *Cache) Peek(key tile.Key) (*tile.Tile, bool) {
	t, ok := c.entries[key]
	return t, ok
}

// Invalidate evicts ready tiles until their total size is within budget and
// returns the number evicted. Each tile costs tileBytes.
func (c *Cache) Invalidate(budget, tileBytes int64) int {
	if tileBytes <= 0 {
		return 0
	}

	ready := make([]*tile.Tile, 0, len(c.entries))
	for _, t := range c.entries {
		if t.Ready() {
			ready = append(ready, t)
		}
	}

	total := int64(len(ready)) * tileBytes
	if total <= budget {
		return 0
	}

	toRemove := int((total - budget + tileBytes - 1) / tileBytes)
	toRemove = min(toRemove, len(ready))

	slices.SortFunc(ready, func(a, b *tile.Tile) int {
		if a.LastAccess() != b.LastAccess() {
			if a.LastAccess() < b.LastAccess() {
				return -1
			}
			return 1
		}
		return a.Key.Compare(b.Key)
	})

	for _, t := range ready[:toRemove] {
		delete(c.entries, t.Key)
		if c.onEvict != nil {
			c.onEvict(t)
		}
	}
	c.stats.Evictions += uint64(toRemove) //nolint:gosec // non-negative
	return toRemove
}

// Counts returns the number of ready and pending tiles.
func (c *Cache) Counts() (ready, pending int) {
	for _, t := range c.entries {
		if t.Ready() {
			ready++
		} else {
			pending++
		}
	}
	return ready, pending
}

// Len returns the number of entries, ready or pending.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Stats returns cache statistics.
func (c *Cache) Stats() Stats {
	s := c.stats
	s.Ready, s.Pending = c.Counts()
	if lookups := s.Hits + s.Misses; lookups > 0 {
		s.HitRate = float64(s.Hits) / float64(lookups)
	}
	return s
}

// Stats contains cache statistics.
type Stats struct {
	// Ready is the number of ready tiles.
	Ready int
	// Pending is the number of admitted tiles still being computed.
	Pending int
	// Hits is the number of lookups that returned a ready tile.
	Hits uint64
	// Misses is the number of lookups that did not.
	Misses uint64
	// HitRate is Hits / (Hits + Misses), 0.0 to 1.0.
	HitRate float64
	// Enqueued is the number of tiles the queue accepted.
	Enqueued uint64
	// Rejected is the number of tiles refused because the queue was full.
	Rejected uint64
	// Evictions is the number of tiles removed by Invalidate.
	Evictions uint64
}
