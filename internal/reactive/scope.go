package reactive

// Scope collects observer registrations so they can be released together,
// typically when a module stops.
type Scope struct {
	cancels []func()
	closed  bool
}

// Add registers a cancel function. Adding to a closed scope cancels at once.
func (s *Scope) Add(cancel func()) {
	if s.closed {
		cancel()
		return
	}
	s.cancels = append(s.cancels, cancel)
}

// Close cancels every registration in reverse order.
func (s *Scope) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for i := len(s.cancels) - 1; i >= 0; i-- {
		s.cancels[i]()
	}
	s.cancels = nil
}

// Closed reports whether Close has been called.
func (s *Scope) Closed() bool {
	return s.closed
}

// Bind observes o for the lifetime of s.
func Bind[T any](s *Scope, o Observable[T], fn func(T)) {
	s.Add(o.Observe(fn))
}
