package gesture

import "math"

// scaleListener receives pinch callbacks. Returning false from onScaleBegin
// declines the pinch; it is offered again on the next move.
type scaleListener interface {
	onScaleBegin() bool
	onScale(factor float64)
}

// scaleDetector tracks the span between pointers and reports its relative
// change while a pinch is in progress.
type scaleDetector struct {
	cfg Config
	l   scaleListener

	inProgress  bool
	initialSpan float64
	prevSpan    float64
	currSpan    float64
}

func newScaleDetector(cfg Config, l scaleListener) *scaleDetector {
	return &scaleDetector{cfg: cfg, l: l}
}

func (d *scaleDetector) onTouchEvent(ev TouchEvent) {
	streamComplete := ev.Action == ActionUp || ev.Action == ActionCancel
	if ev.Action == ActionDown || streamComplete {
		if d.inProgress {
			d.inProgress = false
			d.initialSpan = 0
		}
		if streamComplete {
			return
		}
	}

	configChanged := ev.Action == ActionDown || ev.Action == ActionPointerUp || ev.Action == ActionPointerDown
	span := ev.span()
	wasInProgress := d.inProgress

	if d.inProgress && (span < d.cfg.MinSpan || configChanged) {
		d.inProgress = false
		d.initialSpan = span
	}
	if configChanged {
		d.prevSpan, d.currSpan, d.initialSpan = span, span, span
	}
	if !d.inProgress && span >= d.cfg.MinSpan && (wasInProgress || math.Abs(span-d.initialSpan) > d.cfg.SpanSlop) {
		d.prevSpan, d.currSpan = span, span
		d.inProgress = d.l.onScaleBegin()
	}
	if ev.Action == ActionMove {
		d.currSpan = span
		if d.inProgress && d.prevSpan > 0 {
			d.l.onScale(d.currSpan / d.prevSpan)
		}
		d.prevSpan = d.currSpan
	}
}
