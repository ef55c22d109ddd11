package gesture

import "time"

// Config holds the thresholds used to classify gestures. Distances are in
// screen pixels.
type Config struct {
	// TouchSlop is how far a pointer may travel before a tap becomes a drag.
	TouchSlop float64
	// DoubleTapTouchSlop is how far the first tap may travel and still start
	// a double tap.
	DoubleTapTouchSlop float64
	// DoubleTapSlop is the maximum distance between the two taps.
	DoubleTapSlop float64
	// DoubleTapTimeout is the maximum gap between the first release and the
	// second press, and the delay before a single tap is confirmed.
	DoubleTapTimeout time.Duration
	// DoubleTapMinTime rejects second presses that come too fast.
	DoubleTapMinTime time.Duration
	// LongPressTimeout is how long a press must be held to become a long press.
	LongPressTimeout time.Duration
	// SpanSlop is the span change needed before a pinch starts.
	SpanSlop float64
	// MinSpan is the smallest span treated as a pinch.
	MinSpan float64
}

// DefaultConfig returns thresholds tuned for a desktop pointer.
func DefaultConfig() Config {
	return Config{
		TouchSlop:          8,
		DoubleTapTouchSlop: 8,
		DoubleTapSlop:      100,
		DoubleTapTimeout:   300 * time.Millisecond,
		DoubleTapMinTime:   40 * time.Millisecond,
		LongPressTimeout:   500 * time.Millisecond,
		SpanSlop:           16,
		MinSpan:            64,
	}
}
