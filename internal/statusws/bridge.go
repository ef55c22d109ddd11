package statusws

import (
	"context"
	"errors"
	"fmt"

	"github.com/phinze/inviscam/internal/action"
	"github.com/phinze/inviscam/internal/coordinator"
	"github.com/phinze/inviscam/internal/module"
	"github.com/phinze/inviscam/internal/profile"
)

// ErrNotRunning is returned for actions while no session runs.
var ErrNotRunning = errors.New("service not running")

// Caller runs a function on the service loop and waits for it.
type Caller interface {
	Call(ctx context.Context, fn func()) error
}

// Bridge adapts a coordinator to Service, running commands on its loop.
type Bridge struct {
	Coordinator *coordinator.Coordinator
	Loop        Caller
}

var _ Service = Bridge{}

// Snapshot implements Service.
func (b Bridge) Snapshot() coordinator.Status { return b.Coordinator.Snapshot() }

// Subscribe implements Service.
func (b Bridge) Subscribe(fn func(coordinator.Status)) func() { return b.Coordinator.Subscribe(fn) }

// Command implements Service.
func (b Bridge) Command(ctx context.Context, cmd Command) error {
	var run func() error
	switch cmd.Type {
	case "action":
		var a action.GestureAction
		if err := a.UnmarshalText([]byte(cmd.Action)); err != nil {
			return err
		}
		run = func() error {
			if !b.Coordinator.Do(a) {
				return ErrNotRunning
			}
			return nil
		}
	case "start":
		id, err := profile.ParseID(cmd.Profile)
		if err != nil {
			return err
		}
		run = func() error { return b.Coordinator.Start(id, cmd.Force, module.StartStatusAPI) }
	case "stop":
		run = func() error {
			b.Coordinator.Stop(module.StopStatusAPI)
			return nil
		}
	default:
		return fmt.Errorf("unknown command %q", cmd.Type)
	}

	done := make(chan error, 1)
	if err := b.Loop.Call(ctx, func() { done <- run() }); err != nil {
		return err
	}
	return <-done
}
