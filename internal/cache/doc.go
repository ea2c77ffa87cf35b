// Package cache holds the computed tiles of an engine, keyed by zoom level,
// grid cell and iteration cap.
//
// # Lifecycle
//
// A key that is not present is admitted by GetOrCreate only if the work
// queue accepts the new tile; otherwise nothing is stored and the caller
// retries on a later frame. An admitted tile stays pending until a worker
// publishes it, after which GetOrCreate returns it and records the frame as
// its last access.
//
//	t, ok := c.GetOrCreate(key, frame)
//	if !ok {
//		// draw the placeholder
//	}
//
// # Eviction
//
// Invalidate enforces a byte budget over ready tiles only. The least
// recently accessed tiles go first; ties are broken by key order. Pending
// tiles are never evicted, so a worker never writes into a tile the cache
// has dropped.
//
// # Thread Safety
//
// Cache is not safe for concurrent use. It is owned by the render
// goroutine; workers touch only the tiles they dequeued.
package cache
