// Package loop provides the single serialized event loop that owns all
// session state, plus a manual scheduler for deterministic tests.
package loop

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Timer is a pending callback scheduled with AfterFunc.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer before it fired.
	Stop() bool
}

// Scheduler runs callbacks one at a time on a single logical thread.
type Scheduler interface {
	// Post queues fn to run on the loop. Safe to call from any goroutine.
	Post(fn func())

	// AfterFunc runs fn on the loop after d. Must be called from the loop.
	AfterFunc(d time.Duration, fn func()) Timer

	// Now returns the scheduler's current time.
	Now() time.Time
}

// Loop is the production Scheduler, driven by Run.
type Loop struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	done    chan struct{}
}

// New creates a Loop. Call Run to start processing.
func New(logger *slog.Logger) *Loop {
	return &Loop{
		logger: logger.With("component", "loop"),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Run processes posted callbacks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		}
		for {
			fn := l.next()
			if fn == nil {
				break
			}
			l.exec(fn)
			if ctx.Err() != nil {
				return nil
			}
		}
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return nil
	}
	fn := l.pending[0]
	l.pending[0] = nil
	l.pending = l.pending[1:]
	return fn
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("callback panicked", "panic", r)
		}
	}()
	fn()
}

// Post implements Scheduler.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call posts fn and waits for it to finish, or for ctx or the loop to end.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	l.Post(func() {
		defer close(ran)
		fn()
	})
	select {
	case <-ran:
		return nil
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Now implements Scheduler.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// AfterFunc implements Scheduler. The stopped flag is only touched on the
// loop, so a timer stopped after its wall-clock fire but before its posted
// callback runs still never calls fn.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped {
				return
			}
			t.stopped = true
			fn()
		})
	})
	return t
}

type loopTimer struct {
	timer   *time.Timer
	stopped bool
}

func (t *loopTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	t.timer.Stop()
	return true
}
