//go:build !darwin

package usbwatch

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestWatchWithoutHotplug(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := Watch(ctx, ElgatoVendorID, slog.New(slog.NewTextHandler(io.Discard, nil)))
	select {
	case <-ch:
		t.Fatal("got an arrival without hotplug support")
	case <-time.After(20 * time.Millisecond):
	}
}
