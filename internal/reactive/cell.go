// Package reactive provides observable value cells and combinators used to wire
// settings, camera state and overlay layout together.
//
// Nothing in this package is safe for concurrent use. Every cell is owned by a
// single event loop and must only be touched from it.
package reactive

import "slices"

// Observable is a readable value whose changes can be watched.
type Observable[T any] interface {
	// Get returns the current value.
	Get() T

	// Observe registers fn and calls it immediately with the current value,
	// then again after every change. The returned function removes fn.
	Observe(fn func(T)) (cancel func())
}

type observer[T any] struct {
	fn      func(T)
	version uint64
	active  bool
}

// Cell is a mutable Observable. Setting a value equal to the current one does
// not notify observers.
type Cell[T comparable] struct {
	value     T
	version   uint64
	observers []*observer[T]
}

// NewCell creates a cell holding v.
func NewCell[T comparable](v T) *Cell[T] {
	return &Cell[T]{value: v}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	return c.value
}

// Set stores v and notifies observers if it differs from the current value.
func (c *Cell[T]) Set(v T) {
	if v == c.value {
		return
	}
	c.value = v
	c.version++
	for _, o := range slices.Clone(c.observers) {
		c.dispatch(o)
	}
}

// Update applies f to the current value and stores the result.
func (c *Cell[T]) Update(f func(T) T) {
	c.Set(f(c.value))
}

// Observe implements Observable.
func (c *Cell[T]) Observe(fn func(T)) func() {
	o := &observer[T]{fn: fn, version: c.version, active: true}
	c.observers = append(c.observers, o)
	fn(c.value)
	return func() {
		if !o.active {
			return
		}
		o.active = false
		c.observers = slices.DeleteFunc(c.observers, func(x *observer[T]) bool { return x == o })
	}
}

// HasObservers reports whether any observer is registered.
func (c *Cell[T]) HasObservers() bool {
	return len(c.observers) > 0
}

// dispatch delivers the latest value to o unless o already saw it. A Set made
// from inside an observer delivers the newer value to everyone first, so the
// outer pass skips observers that are already current.
func (c *Cell[T]) dispatch(o *observer[T]) {
	if !o.active || o.version >= c.version {
		return
	}
	o.version = c.version
	o.fn(c.value)
}

type constant[T any] struct {
	value T
}

// Const returns an Observable that never changes.
func Const[T any](v T) Observable[T] {
	return constant[T]{value: v}
}

func (c constant[T]) Get() T { return c.value }

func (c constant[T]) Observe(fn func(T)) func() {
	fn(c.value)
	return func() {}
}

// ObserveOnce calls fn with the first value (current or future) that satisfies
// cond, then stops observing. Cancelling before that abandons the wait.
func ObserveOnce[T any](o Observable[T], cond func(T) bool, fn func(T)) (cancel func()) {
	done := false
	var stop func()
	stop = o.Observe(func(v T) {
		if done || !cond(v) {
			return
		}
		done = true
		if stop != nil {
			stop()
		}
		fn(v)
	})
	if done {
		stop()
	}
	return func() {
		done = true
		stop()
	}
}
