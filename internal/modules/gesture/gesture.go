// Package gesture owns the session's gesture recognizer.
package gesture

import (
	"context"

	"github.com/phinze/inviscam/internal/gesture"
	"github.com/phinze/inviscam/internal/module"
)

// Module implements the gesture module.
type Module struct {
	module.BaseModule

	cfg        gesture.Config
	recognizer *gesture.Recognizer
}

// New creates a gesture module using cfg for timings and slop.
func New(cfg gesture.Config) *Module {
	return &Module{
		BaseModule: module.NewBaseModule("gesture"),
		cfg:        cfg,
	}
}

// Init publishes a recognizer on the session.
func (m *Module) Init(ctx context.Context, s *module.Session) error {
	if err := m.BaseModule.Init(ctx, s); err != nil {
		return err
	}
	m.recognizer = gesture.NewRecognizer(s.Sched, m.cfg)
	s.Gestures = m.recognizer
	return nil
}

// Stop drops any sequence in flight.
func (m *Module) Stop() error {
	m.recognizer.Reset()
	m.Session().Gestures = nil
	return m.BaseModule.Stop()
}
