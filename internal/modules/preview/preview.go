// Package preview floats the camera preview surface and turns gestures on it
// into profile actions, moves, and resizes or zooms.
package preview

import (
	"context"
	"image"

	"github.com/phinze/inviscam/internal/camera"
	"github.com/phinze/inviscam/internal/gesture"
	"github.com/phinze/inviscam/internal/module"
	"github.com/phinze/inviscam/internal/overlay"
	"github.com/phinze/inviscam/internal/position"
	"github.com/phinze/inviscam/internal/profile"
	"github.com/phinze/inviscam/internal/reactive"
)

// SurfaceName is the host name of the preview surface.
const SurfaceName = "preview"

// Module implements the preview module. It is the gesture target of its
// surface.
type Module struct {
	module.BaseModule

	surface overlay.Surface
	params  overlay.Params
}

var _ gesture.Target = (*Module)(nil)

// New creates a preview module.
func New() *Module {
	return &Module{BaseModule: module.NewBaseModule("preview")}
}

// Init adds the surface and keeps it laid out.
func (m *Module) Init(ctx context.Context, s *module.Session) error {
	if err := m.BaseModule.Init(ctx, s); err != nil {
		return err
	}
	st := s.Settings

	m.surface = s.Host.AddSurface(SurfaceName, overlay.Params{}, s.TouchHandler(m))
	s.Preview = sink{surface: m.surface, extra: s.Frames}

	layout := reactive.Derive(m.layout,
		reactive.On(s.Metrics.Metrics()),
		reactive.On[position.Ratio](st.PreviewRatio),
		reactive.On[bool](st.PreviewEnableOut),
		reactive.On(st.PreviewSize.Value()),
		reactive.On(st.PreviewX.Value()),
		reactive.On(st.PreviewY.Value()),
		reactive.On(st.PreviewAlpha.Value()),
		reactive.On[bool](st.PreviewEnableTouch),
		reactive.On(s.Camera.IsPreviewing()),
	)
	reactive.Bind(m.Scope(), layout, func(p overlay.Params) {
		m.params = p
		m.surface.Update(p)
	})
	return nil
}

// Stop removes the surface.
func (m *Module) Stop() error {
	err := m.BaseModule.Stop()
	m.surface.Remove()
	m.Session().Preview = nil
	return err
}

func (m *Module) window() (int, int) {
	s := m.Session()
	return s.Metrics.Metrics().Get().Window(s.Settings.PreviewEnableOut.Get())
}

func (m *Module) layout() overlay.Params {
	s := m.Session()
	st := s.Settings
	w, h := m.window()
	size := position.PreviewSize(st.PreviewRatio.Get(), w, h, st.PreviewSize.Fraction())
	return overlay.Params{
		X:         position.PixelFromCoordinate(st.PreviewX.Fraction(), size.Width, w),
		Y:         position.PixelFromCoordinate(st.PreviewY.Fraction(), size.Height, h),
		Width:     size.Width,
		Height:    size.Height,
		Alpha:     st.PreviewAlpha.Fraction(),
		Touchable: st.PreviewEnableTouch.Get(),
		NoLimits:  st.PreviewEnableOut.Get(),
		Visible:   s.Camera.IsPreviewing().Get(),
	}
}

// EnableMove implements gesture.Target.
func (m *Module) EnableMove() bool {
	return m.Session().Settings.PreviewEnableMove.Get()
}

// EnableScale implements gesture.Target.
func (m *Module) EnableScale() bool {
	return m.Session().Settings.PreviewScaleAction.Get() != profile.ScaleNone
}

// Position implements gesture.Target.
func (m *Module) Position() (int, int) {
	return m.params.X, m.params.Y
}

// Scale implements gesture.Target.
func (m *Module) Scale() float64 {
	s := m.Session()
	switch s.Settings.PreviewScaleAction.Get() {
	case profile.ScaleWindowSize:
		return s.Settings.PreviewSize.Fraction()
	case profile.ScaleCameraZoom:
		return s.Camera.ZoomRatio()
	}
	return 0
}

// OnDown implements gesture.Target.
func (m *Module) OnDown() {}

// OnUpOrCancel implements gesture.Target.
func (m *Module) OnUpOrCancel() {}

// OnGesture runs the action the profile binds to g.
func (m *Module) OnGesture(g gesture.Gesture) {
	s := m.Session()
	s.Settings.PreviewAction(g).Execute(s.Actions())
}

// OnMove stores the new position as normalized coordinates.
func (m *Module) OnMove(x, y int) {
	st := m.Session().Settings
	w, h := m.window()
	st.PreviewX.SetFraction(position.CoordinateFromPixel(x, m.params.Width, w, st.PreviewX.Fraction()))
	st.PreviewY.SetFraction(position.CoordinateFromPixel(y, m.params.Height, h, st.PreviewY.Fraction()))
}

// OnScale resizes the preview or zooms the camera.
func (m *Module) OnScale(scale float64) {
	s := m.Session()
	switch s.Settings.PreviewScaleAction.Get() {
	case profile.ScaleWindowSize:
		s.Settings.PreviewSize.SetFraction(scale)
	case profile.ScaleCameraZoom:
		s.Camera.SetZoomRatio(scale)
	}
}

// sink shows frames on the surface and forwards them to extra.
type sink struct {
	surface overlay.Surface
	extra   camera.PreviewSink
}

func (s sink) PublishFrame(img image.Image) {
	s.surface.SetImage(img)
	if s.extra != nil {
		s.extra.PublishFrame(img)
	}
}
