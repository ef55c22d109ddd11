// Package usbwatch signals when a USB HID device from a given vendor is
// plugged in, so a disconnected remote can be reopened without polling.
package usbwatch

import (
	"context"
	"log/slog"
)

// ElgatoVendorID is the USB vendor of Stream Deck devices.
const ElgatoVendorID uint16 = 0x0fd9

// Watch returns a channel that receives a signal each time a device from
// vendorID appears. The watch ends with ctx. Platforms without hotplug
// support return a channel that never fires.
func Watch(ctx context.Context, vendorID uint16, logger *slog.Logger) <-chan struct{} {
	return watch(ctx, vendorID, logger.With("component", "usbwatch"))
}
