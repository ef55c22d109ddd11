package module

import (
	"log/slog"
	"time"

	"github.com/phinze/inviscam/internal/action"
	"github.com/phinze/inviscam/internal/analytics"
	"github.com/phinze/inviscam/internal/camera"
	"github.com/phinze/inviscam/internal/gesture"
	"github.com/phinze/inviscam/internal/loop"
	"github.com/phinze/inviscam/internal/overlay"
	"github.com/phinze/inviscam/internal/profile"
	"github.com/phinze/inviscam/internal/reactive"
	"github.com/phinze/inviscam/internal/window"
)

// Session is everything one running profile shares between its modules.
// It is confined to the session loop.
type Session struct {
	ID       string
	Profile  profile.ID
	Settings *profile.Settings
	Fab      *profile.Fab
	Started  time.Time

	Sched     loop.Scheduler
	Logger    *slog.Logger
	Host      overlay.Host
	Camera    *camera.Controller
	Analytics *analytics.Recorder

	// Frames, when set, receives every preview frame next to the preview
	// surface.
	Frames camera.PreviewSink

	// Set by the modules that own them, in start order.
	Metrics  *window.Provider
	Gestures *gesture.Recognizer
	Preview  camera.PreviewSink
	HideFab  func(hidden bool)

	// Scope is closed when the session ends.
	Scope reactive.Scope

	// Start and Stop reach back into the service.
	Start func(id profile.ID, where StartWhere)
	Stop  func(where StopWhere)
}

// Actions returns the context gesture actions run against.
func (s *Session) Actions() action.Context {
	return action.Context{
		Profile:     s.Profile.String(),
		Camera:      s.Camera,
		PreviewMode: s.Settings.PreviewMode,
		CaptureMode: s.Settings.CaptureMode,
		Events:      s.Analytics,
		OpenApp:     s.Host.OpenApp,
		StopService: func() { s.Stop(StopAction) },
		HideFab: func(hidden bool) {
			if s.HideFab != nil {
				s.HideFab(hidden)
			}
		},
	}
}

// TouchHandler returns a host callback feeding t's touches to the gesture
// recognizer on the loop.
func (s *Session) TouchHandler(t gesture.Target) func(gesture.TouchEvent) {
	return func(ev gesture.TouchEvent) {
		s.Sched.Post(func() {
			if s.Scope.Closed() || s.Gestures == nil {
				return
			}
			s.Gestures.OnTouchEvent(t, ev)
		})
	}
}
