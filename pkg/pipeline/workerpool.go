package pipeline

import (
	"context"
	"sync"
)

// Job is one unit of pool work. The pool ignores the returned error; jobs
// report failures through their own channels.
type Job func(ctx context.Context) error

// Pool abstracts the worker pool so tests can inject failing implementations.
type Pool interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx is Submit that gives up when ctx is done.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// WorkerPool runs jobs on a fixed set of goroutines fed by a buffered queue.
type WorkerPool struct {
	jobs    chan Job
	quit    chan struct{}
	wg      sync.WaitGroup
	workers int

	// closeMu is held for reading by submitters and for writing while the
	// job channel is closed, so no send can race the close.
	closeMu   sync.RWMutex
	closeOnce sync.Once
	closed    bool
}

var _ Pool = (*WorkerPool)(nil)

// NewWorkerPool returns a stopped pool; call Start before submitting.
func NewWorkerPool(workers, queue int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if queue <= 0 {
		queue = workers * 2
	}
	return &WorkerPool{
		jobs:    make(chan Job, queue),
		quit:    make(chan struct{}),
		workers: workers,
	}
}

// Start launches the workers. They exit when ctx is done or the pool is closed.
func (p *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-p.jobs:
					if !ok {
						return
					}
					// Job errors are reported through the caller's own channels.
					_ = job(ctx)
				}
			}
		}()
	}
}

// Submit enqueues a job for processing, blocking while the queue is full.
// It returns ErrPoolClosed if the pool is closed before the job is queued.
func (p *WorkerPool) Submit(job Job) error {
	return p.SubmitCtx(context.Background(), job)
}

// SubmitCtx is Submit that also gives up when ctx is done, returning ctx.Err().
func (p *WorkerPool) SubmitCtx(ctx context.Context, job Job) error {
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case <-p.quit:
		return ErrPoolClosed
	default:
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.quit:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new jobs and waits for workers to finish queued ones.
func (p *WorkerPool) Close() {
	p.closeOnce.Do(func() {
		close(p.quit)
		p.closeMu.Lock()
		p.closed = true
		close(p.jobs)
		p.closeMu.Unlock()
	})
	p.wg.Wait()
}

// ErrPoolClosed is returned by submits after Close.
var ErrPoolClosed = &PoolError{"worker pool closed"}

// PoolError is the error type of pool failures.
type PoolError struct{ msg string }

func (e *PoolError) Error() string { return e.msg }
