package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed set of goroutines draining one Queue.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool[T any] struct {
	// workers is the number of worker goroutines.
	workers int

	queue   *Queue[T]
	process func(T)

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running indicates whether the pool is still processing.
	running atomic.Bool
}

// NewWorkerPool starts workers goroutines that call process for every item
// taken from queue. If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool[T any](workers int, queue *Queue[T], process func(T)) *WorkerPool[T] {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &WorkerPool[T]{
		workers: workers,
		queue:   queue,
		process: process,
		done:    make(chan struct{}),
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}

	return p
}

// worker is the main loop for each worker goroutine.
func (p *WorkerPool[T]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return

		case item := <-p.queue.items:
			// Both cases may be ready at once; never start new work after
			// shutdown was requested.
			select {
			case <-p.done:
				return
			default:
			}

			p.process(item)
			p.queue.Done()
		}
	}
}

// Close stops the workers and waits for them to exit. Items being processed
// are finished; items still queued are abandoned and stay pending.
// Close is safe to call multiple times.
func (p *WorkerPool[T]) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}

	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool[T]) Workers() int {
	return p.workers
}

// IsRunning returns true until Close is called.
func (p *WorkerPool[T]) IsRunning() bool {
	return p.running.Load()
}
