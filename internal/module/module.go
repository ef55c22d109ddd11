// Package module defines the session feature modules and what they share.
package module

import (
	"context"
)

// Module is one feature of a running session. Modules start in a fixed
// order and stop in reverse.
type Module interface {
	// ID returns a unique identifier for this module.
	ID() string

	// Init starts the module for session s. The context is cancelled when
	// the session ends.
	Init(ctx context.Context, s *Session) error

	// Stop tears the module down, releasing everything Init acquired.
	Stop() error
}
