package reactive

// Pair holds two values produced by Combine2.
type Pair[A, B comparable] struct {
	A A
	B B
}

// Triple holds three values produced by Combine3.
type Triple[A, B, C comparable] struct {
	A A
	B B
	C C
}

// derived is an Observable computed from other observables. It only watches
// its sources while it has observers of its own; otherwise Get recomputes.
type derived[T comparable] struct {
	compute func() T
	sources []func(func()) func()

	out      *Cell[T]
	watchers int
	cancels  []func()
}

func newDerived[T comparable](compute func() T, sources ...func(func()) func()) *derived[T] {
	return &derived[T]{compute: compute, sources: sources}
}

func watch[A any](o Observable[A]) func(func()) func() {
	return func(fn func()) func() {
		return o.Observe(func(A) { fn() })
	}
}

func (d *derived[T]) Get() T {
	if d.watchers > 0 {
		return d.out.Get()
	}
	return d.compute()
}

func (d *derived[T]) Observe(fn func(T)) func() {
	if d.watchers == 0 {
		d.activate()
	}
	d.watchers++
	cancel := d.out.Observe(fn)
	released := false
	return func() {
		if released {
			return
		}
		released = true
		cancel()
		d.watchers--
		if d.watchers == 0 {
			d.deactivate()
		}
	}
}

func (d *derived[T]) activate() {
	if d.out == nil {
		d.out = NewCell(d.compute())
	} else {
		d.out.Set(d.compute())
	}
	for _, src := range d.sources {
		d.cancels = append(d.cancels, src(d.refresh))
	}
}

func (d *derived[T]) deactivate() {
	for i := len(d.cancels) - 1; i >= 0; i-- {
		d.cancels[i]()
	}
	d.cancels = nil
}

func (d *derived[T]) refresh() {
	d.out.Set(d.compute())
}

// Map derives a value from src.
func Map[A any, T comparable](src Observable[A], f func(A) T) Observable[T] {
	return newDerived(func() T { return f(src.Get()) }, watch(src))
}

// Combine2 derives a Pair from two observables.
func Combine2[A, B comparable](a Observable[A], b Observable[B]) Observable[Pair[A, B]] {
	return newDerived(func() Pair[A, B] {
		return Pair[A, B]{A: a.Get(), B: b.Get()}
	}, watch(a), watch(b))
}

// Combine3 derives a Triple from three observables.
func Combine3[A, B, C comparable](a Observable[A], b Observable[B], c Observable[C]) Observable[Triple[A, B, C]] {
	return newDerived(func() Triple[A, B, C] {
		return Triple[A, B, C]{A: a.Get(), B: b.Get(), C: c.Get()}
	}, watch(a), watch(b), watch(c))
}

// Derive computes a value from arbitrary observables. compute must only read
// from the listed dependencies.
func Derive[T comparable](compute func() T, deps ...Dependency) Observable[T] {
	sources := make([]func(func()) func(), len(deps))
	for i, dep := range deps {
		sources[i] = dep.subscribe
	}
	return newDerived(compute, sources...)
}

// Dependency is a type-erased observable used by Derive.
type Dependency struct {
	subscribe func(func()) func()
}

// On wraps o as a Dependency.
func On[T any](o Observable[T]) Dependency {
	return Dependency{subscribe: watch(o)}
}

type switchMapped[A any, T comparable] struct {
	src Observable[A]
	f   func(A) Observable[T]

	out       *Cell[T]
	watchers  int
	srcCancel func()
	inner     func()
}

// SwitchMap follows the observable that f returns for the latest value of src,
// dropping the previous one each time src changes.
func SwitchMap[A any, T comparable](src Observable[A], f func(A) Observable[T]) Observable[T] {
	return &switchMapped[A, T]{src: src, f: f}
}

func (s *switchMapped[A, T]) Get() T {
	if s.watchers > 0 {
		return s.out.Get()
	}
	return s.f(s.src.Get()).Get()
}

func (s *switchMapped[A, T]) Observe(fn func(T)) func() {
	if s.watchers == 0 {
		s.activate()
	}
	s.watchers++
	cancel := s.out.Observe(fn)
	released := false
	return func() {
		if released {
			return
		}
		released = true
		cancel()
		s.watchers--
		if s.watchers == 0 {
			s.deactivate()
		}
	}
}

func (s *switchMapped[A, T]) activate() {
	if s.out == nil {
		s.out = NewCell(s.f(s.src.Get()).Get())
	}
	s.srcCancel = s.src.Observe(func(a A) {
		if s.inner != nil {
			s.inner()
		}
		s.inner = s.f(a).Observe(s.out.Set)
	})
}

func (s *switchMapped[A, T]) deactivate() {
	if s.inner != nil {
		s.inner()
		s.inner = nil
	}
	s.srcCancel()
	s.srcCancel = nil
}
