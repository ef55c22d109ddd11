package idle

import (
	"github.com/phinze/inviscam/internal/loop"
	"github.com/phinze/inviscam/internal/reactive"
)

// Input is everything the evaluator looks at. Held counts the active
// reasons to stay awake (capture in progress, keep-awake holds, touches).
type Input struct {
	Timeout Timeout
	Held    int
}

// Policy turns a stream of Inputs into an idle flag. Each evaluation cancels
// the pending timer; a held or Never input clears the flag, Immediately sets
// it, and any other timeout clears it and schedules it to be set.
type Policy struct {
	sched loop.Scheduler
	idle  *reactive.Cell[bool]
	timer loop.Timer
	armed int
}

// NewPolicy creates a Policy that starts awake.
func NewPolicy(sched loop.Scheduler) *Policy {
	return &Policy{
		sched: sched,
		idle:  reactive.NewCell(false),
	}
}

// Idle is the observable idle flag.
func (p *Policy) Idle() reactive.Observable[bool] {
	return p.idle
}

// IsIdle returns the current idle flag.
func (p *Policy) IsIdle() bool {
	return p.idle.Get()
}

// Evaluate applies in.
func (p *Policy) Evaluate(in Input) {
	p.Cancel()
	switch {
	case in.Timeout == Never || in.Held > 0:
		p.idle.Set(false)
	case in.Timeout == Immediately:
		p.idle.Set(true)
	default:
		p.idle.Set(false)
		p.armed++
		p.timer = p.sched.AfterFunc(in.Timeout.Duration(), func() {
			p.timer = nil
			p.idle.Set(true)
		})
	}
}

// Force sets the flag directly, cancelling any pending timer.
func (p *Policy) Force(idle bool) {
	p.Cancel()
	p.idle.Set(idle)
}

// Cancel stops the pending timer, if any.
func (p *Policy) Cancel() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// Watch evaluates in now and whenever it changes. Identical inputs are not
// re-evaluated, so they never re-arm the timer.
func (p *Policy) Watch(s *reactive.Scope, in reactive.Observable[Input]) {
	reactive.Bind(s, in, p.Evaluate)
	s.Add(p.Cancel)
}
