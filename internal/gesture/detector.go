package gesture

import (
	"math"

	"github.com/phinze/inviscam/internal/loop"
)

// tapListener receives the primitive callbacks of tapDetector.
type tapListener interface {
	onDown(ev TouchEvent)
	onScroll(ev TouchEvent)
	onLongPress()
	onSingleTapConfirmed()
	onDoubleTap()
}

// tapDetector classifies taps, double taps, long presses and scrolls. A
// single tap is only confirmed once the double tap window has passed.
type tapDetector struct {
	cfg   Config
	sched loop.Scheduler
	l     tapListener

	tapTimer       loop.Timer
	longPressTimer loop.Timer

	stillDown               bool
	inLongPress             bool
	deferConfirm            bool
	isDoubleTapping         bool
	alwaysInTapRegion       bool
	alwaysInBiggerTapRegion bool

	hasCurrentDown bool
	currentDown    TouchEvent
	hasPreviousUp  bool
	previousUp     TouchEvent

	downFocusX, downFocusY float64
	lastFocusX, lastFocusY float64
}

func newTapDetector(cfg Config, sched loop.Scheduler, l tapListener) *tapDetector {
	return &tapDetector{cfg: cfg, sched: sched, l: l}
}

func (d *tapDetector) onTouchEvent(ev TouchEvent) {
	fx, fy := ev.focus()

	switch ev.Action {
	case ActionPointerDown:
		d.downFocusX, d.lastFocusX = fx, fx
		d.downFocusY, d.lastFocusY = fy, fy
		d.cancelTaps()

	case ActionPointerUp:
		d.downFocusX, d.lastFocusX = fx, fx
		d.downFocusY, d.lastFocusY = fy, fy

	case ActionDown:
		hadTap := d.stopTap()
		if d.hasCurrentDown && d.hasPreviousUp && hadTap && d.isConsideredDoubleTap(ev) {
			d.isDoubleTapping = true
			d.l.onDoubleTap()
		} else {
			d.tapTimer = d.sched.AfterFunc(d.cfg.DoubleTapTimeout, d.fireTap)
		}

		d.downFocusX, d.lastFocusX = fx, fx
		d.downFocusY, d.lastFocusY = fy, fy
		d.currentDown = ev
		d.hasCurrentDown = true
		d.alwaysInTapRegion = true
		d.alwaysInBiggerTapRegion = true
		d.stillDown = true
		d.inLongPress = false
		d.deferConfirm = false

		d.stopLongPress()
		d.longPressTimer = d.sched.AfterFunc(d.cfg.LongPressTimeout, d.fireLongPress)
		d.l.onDown(ev)

	case ActionMove:
		if d.inLongPress || d.isDoubleTapping {
			return
		}
		scrollX := d.lastFocusX - fx
		scrollY := d.lastFocusY - fy
		if d.alwaysInTapRegion {
			dx := fx - d.downFocusX
			dy := fy - d.downFocusY
			dist := dx*dx + dy*dy
			if dist > d.cfg.TouchSlop*d.cfg.TouchSlop {
				d.l.onScroll(ev)
				d.lastFocusX, d.lastFocusY = fx, fy
				d.alwaysInTapRegion = false
				d.stopTap()
				d.stopLongPress()
			}
			if dist > d.cfg.DoubleTapTouchSlop*d.cfg.DoubleTapTouchSlop {
				d.alwaysInBiggerTapRegion = false
			}
		} else if math.Abs(scrollX) >= 1 || math.Abs(scrollY) >= 1 {
			d.l.onScroll(ev)
			d.lastFocusX, d.lastFocusY = fx, fy
		}

	case ActionUp:
		d.stillDown = false
		switch {
		case d.isDoubleTapping:
		case d.inLongPress:
			d.stopTap()
			d.inLongPress = false
		case d.alwaysInTapRegion && d.deferConfirm:
			d.l.onSingleTapConfirmed()
		}
		d.previousUp = ev
		d.hasPreviousUp = true
		d.isDoubleTapping = false
		d.deferConfirm = false
		d.stopLongPress()

	case ActionCancel:
		d.cancel()
	}
}

func (d *tapDetector) isConsideredDoubleTap(secondDown TouchEvent) bool {
	if !d.alwaysInBiggerTapRegion {
		return false
	}
	delta := secondDown.Time.Sub(d.previousUp.Time)
	if delta > d.cfg.DoubleTapTimeout || delta < d.cfg.DoubleTapMinTime {
		return false
	}
	dx := d.currentDown.X() - secondDown.X()
	dy := d.currentDown.Y() - secondDown.Y()
	return dx*dx+dy*dy < d.cfg.DoubleTapSlop*d.cfg.DoubleTapSlop
}

func (d *tapDetector) fireTap() {
	d.tapTimer = nil
	if !d.stillDown {
		d.l.onSingleTapConfirmed()
	} else {
		d.deferConfirm = true
	}
}

func (d *tapDetector) fireLongPress() {
	d.longPressTimer = nil
	d.stopTap()
	d.deferConfirm = false
	d.inLongPress = true
	d.l.onLongPress()
}

// stopTap cancels the pending single tap and reports whether one was pending.
func (d *tapDetector) stopTap() bool {
	if d.tapTimer == nil {
		return false
	}
	d.tapTimer.Stop()
	d.tapTimer = nil
	return true
}

func (d *tapDetector) stopLongPress() {
	if d.longPressTimer != nil {
		d.longPressTimer.Stop()
		d.longPressTimer = nil
	}
}

func (d *tapDetector) cancelTaps() {
	d.stopLongPress()
	d.stopTap()
	d.isDoubleTapping = false
	d.alwaysInTapRegion = false
	d.alwaysInBiggerTapRegion = false
	d.deferConfirm = false
	d.inLongPress = false
}

func (d *tapDetector) cancel() {
	d.cancelTaps()
	d.stillDown = false
}
