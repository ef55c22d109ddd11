// Package gesture turns raw touch streams into the semantic gestures the
// overlay reacts to: taps, double taps, long presses and their releases,
// plus continuous drag and pinch updates.
package gesture

import "fmt"

// Gesture is a classified, discrete gesture.
type Gesture uint8

const (
	// SingleTap is a tap not followed by a second one in time.
	SingleTap Gesture = iota + 1
	// DoubleTap is two quick taps.
	DoubleTap
	// LongPress fires while the pointer is still held.
	LongPress
	// LongPressUp is the release that ends a LongPress.
	LongPressUp
	// DoubleLongPress is a tap followed by a long press.
	DoubleLongPress
	// DoubleLongPressUp is the release that ends a DoubleLongPress.
	DoubleLongPressUp
)

var gestureNames = map[Gesture]string{
	SingleTap:         "single_tap",
	DoubleTap:         "double_tap",
	LongPress:         "long_press",
	LongPressUp:       "long_press_up",
	DoubleLongPress:   "double_long_press",
	DoubleLongPressUp: "double_long_press_up",
}

// All lists every gesture in display order.
func All() []Gesture {
	return []Gesture{SingleTap, DoubleTap, LongPress, LongPressUp, DoubleLongPress, DoubleLongPressUp}
}

func (g Gesture) String() string {
	if s, ok := gestureNames[g]; ok {
		return s
	}
	return fmt.Sprintf("gesture(%d)", uint8(g))
}

// MarshalText implements encoding.TextMarshaler.
func (g Gesture) MarshalText() ([]byte, error) {
	s, ok := gestureNames[g]
	if !ok {
		return nil, fmt.Errorf("invalid gesture %d", uint8(g))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Gesture) UnmarshalText(b []byte) error {
	for k, v := range gestureNames {
		if v == string(b) {
			*g = k
			return nil
		}
	}
	return fmt.Errorf("unknown gesture %q", b)
}

// Target is an overlay element that can be dragged, scaled and gestured at.
type Target interface {
	// EnableMove reports whether drags should move the target.
	EnableMove() bool
	// EnableScale reports whether pinches should scale the target.
	EnableScale() bool
	// Position returns the target's current absolute position.
	Position() (x, y int)
	// Scale returns the target's current scale, the starting point of a pinch.
	Scale() float64

	// OnDown is called when a touch sequence starts.
	OnDown()
	// OnUpOrCancel is called exactly once when a touch sequence ends.
	OnUpOrCancel()
	// OnGesture reports a classified gesture.
	OnGesture(g Gesture)
	// OnMove reports a new absolute position from a drag.
	OnMove(x, y int)
	// OnScale reports the accumulated scale during a pinch.
	OnScale(scale float64)
}
