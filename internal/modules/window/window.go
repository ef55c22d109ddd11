// Package window follows the host's display geometry for the session.
package window

import (
	"context"

	"github.com/phinze/inviscam/internal/module"
	"github.com/phinze/inviscam/internal/window"
)

// Module implements the window module.
type Module struct {
	module.BaseModule

	provider *window.Provider
	detach   func()
}

// New creates a window module.
func New() *Module {
	return &Module{BaseModule: module.NewBaseModule("window")}
}

// Init publishes the metrics provider on the session.
func (m *Module) Init(ctx context.Context, s *module.Session) error {
	if err := m.BaseModule.Init(ctx, s); err != nil {
		return err
	}
	m.provider = window.NewProvider(s.Sched)
	m.detach = m.provider.Attach(s.Host)
	s.Metrics = m.provider

	m.Scope().Add(m.provider.Metrics().Observe(func(wm window.Metrics) {
		m.Logger().Debug("window metrics", "rotation", wm.Rotation.Degrees(),
			"outer", [2]int{wm.OuterWidth, wm.OuterHeight}, "inner", [2]int{wm.InnerWidth, wm.InnerHeight})
	}))
	return nil
}

// Stop stops following the host.
func (m *Module) Stop() error {
	if m.detach != nil {
		m.detach()
	}
	return m.BaseModule.Stop()
}
