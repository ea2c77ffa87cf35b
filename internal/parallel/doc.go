// Package parallel runs tile computation off the render goroutine.
//
// A Queue is a bounded FIFO that counts an item as pending from TryPush
// until the worker that processed it calls Done. Admission is refused while
// the pending count is at capacity, so the number of items queued or being
// computed never exceeds the capacity. A refused push is not an error; the
// producer simply tries again later.
//
// A WorkerPool starts a fixed number of goroutines at construction. Each
// goroutine takes the next item from the queue, runs the process function
// with no lock held and then releases the item's pending slot.
//
// Thread safety: Queue and WorkerPool are safe for concurrent use.
package parallel
