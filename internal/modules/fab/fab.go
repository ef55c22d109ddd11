// Package fab floats the action button: it shows camera activity, fades when
// idle, runs the profile's gesture actions and opens the session menu.
package fab

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/phinze/inviscam/internal/gesture"
	"github.com/phinze/inviscam/internal/idle"
	"github.com/phinze/inviscam/internal/module"
	"github.com/phinze/inviscam/internal/overlay"
	"github.com/phinze/inviscam/internal/profile"
	"github.com/phinze/inviscam/internal/reactive"
	"github.com/phinze/inviscam/internal/render"
	"github.com/phinze/inviscam/internal/window"
)

const (
	// SurfaceName is the host name of the button surface.
	SurfaceName = "fab"
	// Size is the button's width and height in pixels.
	Size = 88
)

type face struct {
	color color.RGBA
	label string
}

// Module implements the floating button. It is the gesture target of its
// surface.
type Module struct {
	module.BaseModule

	renderer *render.Renderer
	surface  overlay.Surface
	params   overlay.Params

	policy   *idle.Policy
	touching *reactive.Cell[bool]
	hidden   *reactive.Cell[bool]
}

var _ gesture.Target = (*Module)(nil)

// New creates a button module drawing with r.
func New(r *render.Renderer) *Module {
	return &Module{
		BaseModule: module.NewBaseModule("fab"),
		renderer:   r,
	}
}

// Init adds the surface and wires layout, idle fading and the face.
func (m *Module) Init(ctx context.Context, s *module.Session) error {
	if err := m.BaseModule.Init(ctx, s); err != nil {
		return err
	}
	fab := s.Fab
	cam := s.Camera

	m.touching = reactive.NewCell(false)
	m.hidden = reactive.NewCell(false)
	m.policy = idle.NewPolicy(s.Sched)
	s.HideFab = m.hidden.Set

	m.surface = s.Host.AddSurface(SurfaceName, overlay.Params{
		Width: Size, Height: Size, Alpha: 1, Touchable: true, Visible: true,
	}, s.TouchHandler(m))

	m.policy.Watch(m.Scope(), reactive.Derive(func() idle.Input {
		in := idle.Input{Timeout: fab.IdleTimeout.Get()}
		if m.touching.Get() {
			in.Held = 1
		}
		return in
	}, reactive.On[idle.Timeout](fab.IdleTimeout), reactive.On[bool](m.touching)))

	layout := reactive.Derive(m.layout,
		reactive.On(s.Metrics.Metrics()),
		reactive.On(fab.X.Value()),
		reactive.On(fab.Y.Value()),
		reactive.On(m.policy.Idle()),
		reactive.On(fab.IdleAlpha.Value()),
		reactive.On[bool](m.hidden),
	)
	reactive.Bind(m.Scope(), layout, func(p overlay.Params) {
		m.params = p
		m.surface.Update(p)
	})

	faces := reactive.Derive(func() face {
		return face{
			color: IconColor(cam.IsTakingPicture().Get(), cam.IsRecording().Get(), cam.IsPreviewing().Get()),
			label: m.label(),
		}
	},
		reactive.On(cam.IsTakingPicture()),
		reactive.On(cam.IsRecording()),
		reactive.On(cam.IsPreviewing()),
		reactive.On(cam.RecordedDuration()),
	)
	icon := render.ProfileIcon(s.Profile.String())
	reactive.Bind(m.Scope(), faces, func(f face) {
		m.surface.SetImage(m.renderer.Fab(Size, icon, f.color, f.label))
	})
	return nil
}

// Stop removes the surface.
func (m *Module) Stop() error {
	err := m.BaseModule.Stop()
	m.surface.Remove()
	m.Session().HideFab = nil
	return err
}

func (m *Module) inner() window.Metrics {
	return m.Session().Metrics.Metrics().Get()
}

func (m *Module) layout() overlay.Params {
	fab := m.Session().Fab
	met := m.inner()
	alpha := 1.0
	switch {
	case m.hidden.Get():
		alpha = 0
	case m.policy.IsIdle():
		alpha = fab.IdleAlpha.Fraction()
	}
	return overlay.Params{
		X:         int(math.Round(float64(met.InnerWidth-Size) * fab.X.Fraction())),
		Y:         int(math.Round(float64(met.InnerHeight-Size) * fab.Y.Fraction())),
		Width:     Size,
		Height:    Size,
		Alpha:     alpha,
		Touchable: true,
		Visible:   true,
	}
}

func (m *Module) label() string {
	cam := m.Session().Camera
	if !cam.IsRecording().Get() {
		return ""
	}
	return DurationLabel(cam.RecordedDuration().Get())
}

// IconColor picks the tint for the camera's current activity.
func IconColor(takingPicture, recording, previewing bool) color.RGBA {
	switch {
	case takingPicture:
		return render.ColorRed
	case recording:
		return render.ColorGreen
	case previewing:
		return render.ColorIndigo
	}
	return render.ColorWhite
}

// DurationLabel formats a recording duration as minutes and seconds,
// saturating at 99:59.
func DurationLabel(d time.Duration) string {
	minutes := int(d / time.Minute)
	seconds := int(d/time.Second) % 60
	if minutes > 99 {
		minutes, seconds = 99, 59
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// EnableMove implements gesture.Target.
func (m *Module) EnableMove() bool { return true }

// EnableScale implements gesture.Target.
func (m *Module) EnableScale() bool { return false }

// Position implements gesture.Target.
func (m *Module) Position() (int, int) { return m.params.X, m.params.Y }

// Scale implements gesture.Target.
func (m *Module) Scale() float64 { return 1 }

// OnDown keeps the button awake while touched.
func (m *Module) OnDown() { m.touching.Set(true) }

// OnUpOrCancel lets the idle timer run again.
func (m *Module) OnUpOrCancel() { m.touching.Set(false) }

// OnMove stores the new position as fractions of the usable area.
func (m *Module) OnMove(x, y int) {
	fab := m.Session().Fab
	met := m.inner()
	if w := met.InnerWidth - Size; w > 0 {
		fab.X.SetFraction(float64(x) / float64(w))
	}
	if h := met.InnerHeight - Size; h > 0 {
		fab.Y.SetFraction(float64(y) / float64(h))
	}
}

// OnScale implements gesture.Target.
func (m *Module) OnScale(float64) {}

// OnGesture runs the extra action down, then the gesture's action or the
// menu, then the extra action up.
func (m *Module) OnGesture(g gesture.Gesture) {
	s := m.Session()
	st := s.Settings
	ctx := s.Actions()

	switch g {
	case gesture.LongPress:
		st.FabLongPressExtraAction.Get().Down(ctx)
	case gesture.DoubleLongPress:
		st.FabDoubleLongPressExtraAction.Get().Down(ctx)
	}

	switch g {
	case gesture.SingleTap, gesture.DoubleTap:
		if g == s.Fab.OpenMenuGesture.Get() {
			m.OpenMenu()
		} else {
			st.FabSingleOrDoubleTapAction.Get().Execute(ctx)
		}
	case gesture.LongPress:
		st.FabLongPressAction.Get().Execute(ctx)
	case gesture.LongPressUp:
		st.FabLongPressUpAction.Get().Execute(ctx)
	case gesture.DoubleLongPress:
		st.FabDoubleLongPressAction.Get().Execute(ctx)
	case gesture.DoubleLongPressUp:
		st.FabDoubleLongPressUpAction.Get().Execute(ctx)
	}

	switch g {
	case gesture.LongPressUp:
		st.FabLongPressExtraAction.Get().Up(ctx)
	case gesture.DoubleLongPressUp:
		st.FabDoubleLongPressExtraAction.Get().Up(ctx)
	}
}

// OpenMenu shows the session menu at the button's center: one entry per
// profile, then toggle sleep mode, then stop.
func (m *Module) OpenMenu() {
	s := m.Session()
	items := make([]overlay.MenuItem, 0, len(profile.IDs())+2)
	for _, id := range profile.IDs() {
		items = append(items, overlay.MenuItem{
			Label:   id.Title(),
			Checked: id == s.Profile,
			Do:      func() { m.Post(func() { s.Start(id, module.StartFabMenu) }) },
		})
	}
	items = append(items,
		overlay.MenuItem{
			Label: "Toggle sleep mode",
			Do: func() {
				m.Post(func() {
					s.Camera.ToggleSleepMode()
					s.Analytics.FabMenuToggleSleepMode(s.Profile.String())
				})
			},
		},
		overlay.MenuItem{
			Label:  "Stop",
			Danger: true,
			Do:     func() { m.Post(func() { s.Stop(module.StopFabMenu) }) },
		},
	)
	s.Host.ShowMenu(m.params.X+Size/2, m.params.Y+Size/2, items)
	s.Analytics.OpenFabMenu(s.Profile.String())
}

