// Package lifecycle is the first module of a session and the last to stop.
// It owns the session scope and reports how long the profile ran.
package lifecycle

import (
	"context"
	"time"

	"github.com/phinze/inviscam/internal/module"
)

// Module implements the session lifecycle module.
type Module struct {
	module.BaseModule

	started time.Time
}

// New creates a lifecycle module.
func New() *Module {
	return &Module{BaseModule: module.NewBaseModule("lifecycle")}
}

// Init records the start time.
func (m *Module) Init(ctx context.Context, s *module.Session) error {
	if err := m.BaseModule.Init(ctx, s); err != nil {
		return err
	}
	m.started = s.Sched.Now()
	m.Logger().Debug("session started", "profile", s.Profile, "session", s.ID)
	return nil
}

// Stop closes the session scope and reports the profile duration.
func (m *Module) Stop() error {
	s := m.Session()
	s.Scope.Close()
	d := s.Sched.Now().Sub(m.started)
	s.Analytics.Profile(s.Profile.String(), d)
	m.Logger().Debug("session ended", "profile", s.Profile, "duration", d)
	return m.BaseModule.Stop()
}
