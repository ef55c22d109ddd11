package gesture

import (
	"math"
	"time"
)

// Action is the kind of touch event.
type Action uint8

const (
	// ActionDown starts a sequence with the first pointer.
	ActionDown Action = iota + 1
	// ActionMove reports new pointer positions.
	ActionMove
	// ActionUp ends a sequence when the last pointer lifts.
	ActionUp
	// ActionCancel aborts a sequence.
	ActionCancel
	// ActionPointerDown adds a pointer to a running sequence.
	ActionPointerDown
	// ActionPointerUp removes a pointer from a running sequence.
	ActionPointerUp
)

// Pointer is one finger (or mouse) position in screen pixels.
type Pointer struct {
	ID int
	X  float64
	Y  float64
}

// TouchEvent is a snapshot of all pointers. Index names the pointer that
// went down or up for ActionPointerDown and ActionPointerUp.
type TouchEvent struct {
	Action   Action
	Index    int
	Pointers []Pointer
	Time     time.Time
}

// X returns the first pointer's screen x.
func (e TouchEvent) X() float64 {
	if len(e.Pointers) == 0 {
		return 0
	}
	return e.Pointers[0].X
}

// Y returns the first pointer's screen y.
func (e TouchEvent) Y() float64 {
	if len(e.Pointers) == 0 {
		return 0
	}
	return e.Pointers[0].Y
}

// focus returns the average position of all pointers, leaving out the one
// lifting on ActionPointerUp.
func (e TouchEvent) focus() (float64, float64) {
	skip := -1
	if e.Action == ActionPointerUp {
		skip = e.Index
	}
	var sumX, sumY float64
	n := 0
	for i, p := range e.Pointers {
		if i == skip {
			continue
		}
		sumX += p.X
		sumY += p.Y
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sumX / float64(n), sumY / float64(n)
}

// span is the pinch span around the focus point.
func (e TouchEvent) span() float64 {
	fx, fy := e.focus()
	skip := -1
	if e.Action == ActionPointerUp {
		skip = e.Index
	}
	var devX, devY float64
	n := 0
	for i, p := range e.Pointers {
		if i == skip {
			continue
		}
		devX += math.Abs(p.X - fx)
		devY += math.Abs(p.Y - fy)
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Hypot(2*devX/float64(n), 2*devY/float64(n))
}
