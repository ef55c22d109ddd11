// Package foreground keeps the host's "running" indicator up for the
// session. Stopping from the indicator stops the service.
package foreground

import (
	"context"
	"fmt"

	"github.com/phinze/inviscam/internal/module"
)

// Module implements the foreground module.
type Module struct {
	module.BaseModule
}

// New creates a foreground module.
func New() *Module {
	return &Module{BaseModule: module.NewBaseModule("foreground")}
}

// Init shows the indicator.
func (m *Module) Init(ctx context.Context, s *module.Session) error {
	if err := m.BaseModule.Init(ctx, s); err != nil {
		return err
	}
	err := s.Host.StartForeground(func() {
		m.Post(func() { s.Stop(module.StopNotification) })
	})
	if err != nil {
		return fmt.Errorf("start foreground: %w", err)
	}
	return nil
}

// Stop hides the indicator.
func (m *Module) Stop() error {
	m.Session().Host.StopForeground()
	return m.BaseModule.Stop()
}
