package worker

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

// Job runs on the worker goroutine.
type Job func(ctx context.Context)

// Pool is a single worker that accepts at most one job at a time: a job is
// refused while another is queued or running (strict back-pressure).
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
	busy atomic.Bool

	// mu orders sends on jobs against close(jobs).
	mu     sync.Mutex
	closed bool
}

type job struct {
	ctx context.Context
	run Job
}

func New() *Pool {
	p := &Pool{jobs: make(chan job, 1)}
	p.start()
	return p
}

func (p *Pool) start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for j := range p.jobs {
			p.runOne(j)
		}
	}()
}

func (p *Pool) runOne(j job) {
	defer p.busy.Store(false)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in worker job: %v", r)
		}
	}()
	log.Printf("Worker: starting job")
	j.run(j.ctx)
	log.Printf("Worker: job returned")
}

// Submit enqueues fn unless a job is already in flight. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, fn Job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	if !p.busy.CompareAndSwap(false, true) {
		return false
	}
	// busy guarantees the one-slot buffer is free, so this never blocks.
	p.jobs <- job{ctx: ctx, run: fn}
	return true
}

// Busy reports whether a job is queued or running.
func (p *Pool) Busy() bool { return p.busy.Load() }

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
