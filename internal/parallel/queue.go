package parallel

import "sync/atomic"

// Queue is a bounded FIFO of work items with pending-count admission.
type Queue[T any] struct {
	items    chan T
	pending  atomic.Int64
	capacity int64
}

// NewQueue creates a queue admitting at most capacity pending items.
// A capacity below 1 is raised to 1.
func NewQueue[T any](capacity int) *Queue[T] {
	capacity = max(capacity, 1)
	return &Queue[T]{
		items:    make(chan T, capacity),
		capacity: int64(capacity),
	}
}

// TryPush appends item if fewer than Capacity items are pending and reports
// whether it did. It never blocks.
func (q *Queue[T]) TryPush(item T) bool {
	for {
		n := q.pending.Load()
		if n >= q.capacity {
			return false
		}
		if q.pending.CompareAndSwap(n, n+1) {
			break
		}
	}
	// At most capacity items are pending, so the buffered send cannot block.
	q.items <- item
	return true
}

// Done releases the pending slot of one processed item.
func (q *Queue[T]) Done() {
	q.pending.Add(-1)
}

// Full reports whether TryPush would currently refuse an item.
func (q *Queue[T]) Full() bool {
	return q.pending.Load() >= q.capacity
}

// Pending returns the number of items queued or being processed.
func (q *Queue[T]) Pending() int {
	return int(q.pending.Load())
}

// Len returns the number of items waiting to be dequeued.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Capacity returns the maximum number of pending items.
func (q *Queue[T]) Capacity() int {
	return int(q.capacity)
}
