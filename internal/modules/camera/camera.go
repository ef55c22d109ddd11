// Package camera starts the session's camera controller once the preview
// surface exists, and shuts it down first on stop.
package camera

import (
	"context"
	"errors"
	"image"

	"github.com/phinze/inviscam/internal/module"
)

// Module implements the camera module.
type Module struct {
	module.BaseModule
}

// New creates a camera module.
func New() *Module {
	return &Module{BaseModule: module.NewBaseModule("camera")}
}

// Init sets the controller up against the preview sink and the display
// rotation.
func (m *Module) Init(ctx context.Context, s *module.Session) error {
	if err := m.BaseModule.Init(ctx, s); err != nil {
		return err
	}
	if s.Camera == nil {
		return errors.New("session has no camera controller")
	}
	preview := s.Preview
	if preview == nil {
		preview = s.Frames
	}
	if preview == nil {
		preview = discard{}
	}
	s.Camera.Setup(preview, s.Metrics.Rotation())
	return nil
}

// Stop releases the camera.
func (m *Module) Stop() error {
	m.Session().Camera.Shutdown()
	return m.BaseModule.Stop()
}

type discard struct{}

func (discard) PublishFrame(image.Image) {}
