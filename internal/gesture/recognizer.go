package gesture

import (
	"math"

	"github.com/phinze/inviscam/internal/loop"
)

// Recognizer classifies touch sequences on one Target at a time. It runs the
// tap detector first and the pinch detector second, the latter only when the
// target allows scaling.
type Recognizer struct {
	taps  *tapDetector
	pinch *scaleDetector

	target Target

	offsetX, offsetY float64
	scale            float64

	canScroll       bool
	isDoubleTapping bool
	isLongPressing  bool
}

// NewRecognizer creates a Recognizer whose timers run on sched.
func NewRecognizer(sched loop.Scheduler, cfg Config) *Recognizer {
	r := &Recognizer{scale: 1, canScroll: true}
	r.taps = newTapDetector(cfg, sched, r)
	r.pinch = newScaleDetector(cfg, r)
	return r
}

// OnTouchEvent feeds one event for target.
func (r *Recognizer) OnTouchEvent(target Target, ev TouchEvent) {
	switch ev.Action {
	case ActionDown:
		r.target = target
		target.OnDown()
	case ActionPointerDown:
		r.canScroll = false
	case ActionUp, ActionCancel:
		switch {
		case r.isDoubleTapping && r.isLongPressing:
			target.OnGesture(DoubleLongPressUp)
		case r.isDoubleTapping:
			target.OnGesture(DoubleTap)
		case r.isLongPressing:
			target.OnGesture(LongPressUp)
		}
		target.OnUpOrCancel()
		r.isDoubleTapping = false
		r.isLongPressing = false
		r.canScroll = true
	}
	if r.target == nil {
		r.target = target
	}

	r.taps.onTouchEvent(ev)
	if target.EnableScale() {
		r.pinch.onTouchEvent(ev)
	}
}

// Reset abandons the current sequence and any pending tap or long press.
func (r *Recognizer) Reset() {
	r.taps.cancel()
	r.target = nil
	r.isDoubleTapping = false
	r.isLongPressing = false
	r.canScroll = true
}

func (r *Recognizer) onDown(ev TouchEvent) {
	x, y := r.target.Position()
	r.offsetX = float64(x) - ev.X()
	r.offsetY = float64(y) - ev.Y()
}

func (r *Recognizer) onScroll(ev TouchEvent) {
	if !r.canScroll || r.isDoubleTapping || r.isLongPressing {
		return
	}
	if !r.target.EnableMove() {
		return
	}
	r.target.OnMove(
		int(math.Round(r.offsetX+ev.X())),
		int(math.Round(r.offsetY+ev.Y())),
	)
}

func (r *Recognizer) onLongPress() {
	if r.target == nil {
		return
	}
	r.isLongPressing = true
	if r.isDoubleTapping {
		r.target.OnGesture(DoubleLongPress)
	} else {
		r.target.OnGesture(LongPress)
	}
}

func (r *Recognizer) onSingleTapConfirmed() {
	if r.target == nil {
		return
	}
	r.target.OnGesture(SingleTap)
}

func (r *Recognizer) onDoubleTap() {
	r.isDoubleTapping = true
}

func (r *Recognizer) onScaleBegin() bool {
	if r.isDoubleTapping || r.isLongPressing {
		return false
	}
	r.scale = r.target.Scale()
	return true
}

func (r *Recognizer) onScale(factor float64) {
	r.scale *= factor
	r.target.OnScale(r.scale)
}
