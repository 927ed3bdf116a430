// Package worker runs queued audits on a fixed pool of goroutines. Each
// audit executes on exactly one worker; the pool applies backpressure by
// rejecting enqueues once the bounded queue is full instead of blocking
// webhook handlers.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/auditops/auditops-backend/internal/pkg/metrics"
)

// ErrQueueFull is returned by Enqueue when the queue is at capacity.
var ErrQueueFull = errors.New("audit queue is full")

// ErrShutdown is returned by Enqueue after Shutdown has begun.
var ErrShutdown = errors.New("worker pool is shut down")

// RunFunc executes one audit to a terminal status.
type RunFunc func(ctx context.Context, auditID string) error

// Pool dispatches queued audit IDs to workers.
type Pool struct {
	run    RunFunc
	queue  chan string
	logger *slog.Logger

	g      *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewPool builds a pool with the given worker count and queue depth.
func NewPool(workers, depth int, run RunFunc, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if depth < 1 {
		depth = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	p := &Pool{
		run:    run,
		queue:  make(chan string, depth),
		logger: logger,
		g:      g,
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		p.g.Go(p.work)
	}
	return p
}

func (p *Pool) work() error {
	for auditID := range p.queue {
		metrics.WorkerQueueDepth.Dec()
		if err := p.run(p.ctx, auditID); err != nil {
			// The orchestrator already persisted the FAILED status; the
			// pool only logs so one bad audit never stops the workers.
			p.logger.Error("audit run failed", "audit_id", auditID, "error", err)
		}
	}
	return nil
}

// Enqueue queues an audit for execution.
func (p *Pool) Enqueue(auditID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrShutdown
	}
	select {
	case p.queue <- auditID:
		metrics.WorkerQueueDepth.Inc()
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting work and waits for in-flight audits, bounded
// by ctx. Queued audits still drain before the workers exit.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- p.g.Wait() }()

	select {
	case err := <-done:
		p.cancel()
		return err
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}
