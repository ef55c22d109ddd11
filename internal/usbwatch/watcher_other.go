//go:build !darwin

package usbwatch

import (
	"context"
	"log/slog"
)

func watch(_ context.Context, _ uint16, logger *slog.Logger) <-chan struct{} {
	logger.Debug("USB hotplug not supported, relying on polling")
	return make(chan struct{})
}
