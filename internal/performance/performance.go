// Package performance provides the worker pool used to spread grid
// evaluation across goroutines.
package performance

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs submitted tasks on a fixed set of goroutines.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup

	// mu guards running against concurrent Submit and Stop so that a task is
	// never sent on a closed queue.
	mu      sync.RWMutex
	running bool

	tasksTotal atomic.Uint64
	tasksDone  atomic.Uint64
}

// NewWorkerPool creates a pool with the given number of workers.
// If workers is 0, it defaults to runtime.NumCPU().
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*64),
	}
}

// Workers returns the configured worker count.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// Start launches the workers. Calling Start on a running pool is a no-op.
func (p *WorkerPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for task := range p.taskQueue {
		task()
		p.tasksDone.Add(1)
	}
}

// Submit queues a task. It returns false if the pool is not running or the
// queue is full; the caller then owns running the task.
func (p *WorkerPool) Submit(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running {
		return false
	}

	select {
	case p.taskQueue <- task:
		p.tasksTotal.Add(1)
		return true
	default:
		return false
	}
}

// SubmitWait submits a task and blocks until it has run.
func (p *WorkerPool) SubmitWait(task func()) bool {
	done := make(chan struct{})
	if !p.Submit(func() {
		defer close(done)
		task()
	}) {
		return false
	}
	<-done
	return true
}

// Stop closes the queue and waits for the workers to drain it. A stopped
// pool cannot be restarted.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.taskQueue)
	p.mu.Unlock()

	p.wg.Wait()
}

// Stats returns pool statistics.
func (p *WorkerPool) Stats() PoolStats {
	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()

	return PoolStats{
		Workers:    p.workers,
		Running:    running,
		TasksTotal: p.tasksTotal.Load(),
		TasksDone:  p.tasksDone.Load(),
		QueueLen:   len(p.taskQueue),
	}
}

// PoolStats contains worker pool statistics.
type PoolStats struct {
	Workers    int    `json:"workers"`
	Running    bool   `json:"running"`
	TasksTotal uint64 `json:"tasks_total"`
	TasksDone  uint64 `json:"tasks_done"`
	QueueLen   int    `json:"queue_len"`
}
