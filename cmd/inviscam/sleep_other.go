//go:build !darwin

package main

import (
	"context"
	"log/slog"
)

// watchPower reports nothing: sleep notifications are only wired on macOS.
func watchPower(ctx context.Context, logger *slog.Logger) (asleep, awake <-chan struct{}) {
	return nil, nil
}
