// Package window tracks display rotation and window dimensions as a
// reactive value.
package window

import (
	"github.com/phinze/inviscam/internal/loop"
	"github.com/phinze/inviscam/internal/reactive"
)

// Rotation is the display rotation in quarter turns.
type Rotation int

// Display rotations.
const (
	Rotation0 Rotation = iota
	Rotation90
	Rotation180
	Rotation270
)

// Degrees returns the rotation in degrees.
func (r Rotation) Degrees() int {
	return int(r) * 90
}

// RotationFromDegrees snaps a degree value to the nearest quarter turn.
func RotationFromDegrees(deg int) Rotation {
	deg = ((deg % 360) + 360) % 360
	return Rotation(((deg + 45) / 90) % 4)
}

// Metrics is a snapshot of the display. Outer is the full display bounds;
// Inner is the usable area, which may be smaller because of insets.
type Metrics struct {
	Rotation    Rotation
	OuterWidth  int
	OuterHeight int
	InnerWidth  int
	InnerHeight int
}

// Landscape reports whether the outer bounds are wider than tall.
func (m Metrics) Landscape() bool {
	return m.OuterWidth > m.OuterHeight
}

// Window returns the width and height to lay out against, outer when the
// surface may extend past the usable area.
func (m Metrics) Window(outer bool) (int, int) {
	if outer {
		return m.OuterWidth, m.OuterHeight
	}
	return m.InnerWidth, m.InnerHeight
}

// Normalize fills an empty inner area from the outer bounds and clamps the
// inner area to the outer one.
func (m Metrics) Normalize() Metrics {
	m.Rotation = Rotation(((int(m.Rotation) % 4) + 4) % 4)
	if m.InnerWidth <= 0 || m.InnerWidth > m.OuterWidth {
		m.InnerWidth = m.OuterWidth
	}
	if m.InnerHeight <= 0 || m.InnerHeight > m.OuterHeight {
		m.InnerHeight = m.OuterHeight
	}
	return m
}

// Source is a host that knows the window geometry.
type Source interface {
	// Metrics returns the current geometry.
	Metrics() Metrics

	// WatchMetrics calls fn from any goroutine when the geometry changes.
	WatchMetrics(fn func(Metrics)) (stop func())
}

// Provider republishes a Source's geometry on the event loop.
type Provider struct {
	sched   loop.Scheduler
	metrics *reactive.Cell[Metrics]
}

// NewProvider creates a Provider with an empty snapshot.
func NewProvider(sched loop.Scheduler) *Provider {
	return &Provider{
		sched:   sched,
		metrics: reactive.NewCell(Metrics{}),
	}
}

// Metrics is the observable snapshot. Identical snapshots are not
// re-emitted.
func (p *Provider) Metrics() reactive.Observable[Metrics] {
	return p.metrics
}

// Rotation is the observable display rotation.
func (p *Provider) Rotation() reactive.Observable[Rotation] {
	return reactive.Map(reactive.Observable[Metrics](p.metrics), func(m Metrics) Rotation { return m.Rotation })
}

// Update publishes m. Must be called on the loop.
func (p *Provider) Update(m Metrics) {
	p.metrics.Set(m.Normalize())
}

// Attach reads src now and follows its changes until the returned function
// is called.
func (p *Provider) Attach(src Source) (detach func()) {
	p.Update(src.Metrics())
	detached := false
	stop := src.WatchMetrics(func(m Metrics) {
		p.sched.Post(func() {
			if detached {
				return
			}
			p.Update(m)
		})
	})
	return func() {
		detached = true
		stop()
	}
}
