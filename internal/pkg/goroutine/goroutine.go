// Package goroutine runs fire-and-forget work, such as security event publishing,
// outside the request that triggered it.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/shandysiswandi/twofa/internal/pkg/stacktrace"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxGoroutine is multiplied by NumCPU when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// ErrPanic wraps a recovered panic in the error list returned by Wait.
var ErrPanic = errors.New("goroutine: task panicked")

// Manager runs named tasks with a bounded number of goroutines.
//
// Tasks are detached from the caller's cancellation so a finished HTTP request
// does not abort the event it queued. Task failures are logged as they happen
// and are also returned from Wait.
type Manager struct {
	sema    *semaphore.Weighted
	wg      sync.WaitGroup
	closed  atomic.Bool
	dropped atomic.Int64

	mu   sync.Mutex
	errs []error
}

// NewManager creates a Manager running at most maxGoroutine tasks at a time.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{sema: semaphore.NewWeighted(int64(maxGoroutine))}
}

// Go runs f in its own goroutine. When the manager is closed or saturated the
// task is dropped and a warning is logged.
func (g *Manager) Go(ctx context.Context, task string, f func(ctx context.Context) error) {
	if g == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)
	if g.closed.Load() {
		slog.WarnContext(ctx, "goroutine manager is closed, task dropped", "task", task)
		return
	}
	if !g.sema.TryAcquire(1) {
		g.dropped.Add(1)
		slog.WarnContext(ctx, "goroutine limit reached, task dropped", "task", task)
		return
	}

	g.wg.Go(func() {
		defer g.sema.Release(1)
		defer func() {
			if rvr := recover(); rvr != nil {
				slog.ErrorContext(ctx, "task panicked", "task", task, "because", rvr, "stack", stacktrace.Capture())
				g.record(errors.Join(ErrPanic, errors.New(task)))
			}
		}()

		if err := f(ctx); err != nil {
			slog.ErrorContext(ctx, "task failed", "task", task, "error", err)
			g.record(err)
		}
	})
}

// Dropped reports how many tasks were rejected because the limit was reached.
func (g *Manager) Dropped() int64 {
	if g == nil {
		return 0
	}
	return g.dropped.Load()
}

// Wait stops accepting tasks, blocks until the running ones finish and returns
// their joined errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.closed.Store(true)
	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

func (g *Manager) record(err error) {
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}
