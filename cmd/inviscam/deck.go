package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/phinze/inviscam/internal/device"
	"github.com/phinze/inviscam/internal/remote"
	"github.com/phinze/inviscam/internal/usbwatch"
)

const (
	deviceTimeout = 5 * time.Second
	pollInterval  = 2 * time.Second
	wakeRetries   = 10
	wakeBackoff   = 500 * time.Millisecond
)

type openFunc func() (device.Deck, error)

func openHardware() (device.Deck, error) {
	h, err := device.Open(deviceTimeout)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// superviseDeck keeps the remote attached to a Stream Deck: it waits for one,
// runs the remote until it disconnects or the system wakes, then starts over.
func superviseDeck(ctx context.Context, rem *remote.Remote, open openFunc, wake <-chan struct{}, logger *slog.Logger) {
	plugged := usbwatch.Watch(ctx, usbwatch.ElgatoVendorID, logger)
	for {
		deck := waitForDeck(ctx, open, plugged, wake, logger)
		if deck == nil {
			return
		}

		// A wake from before the device enumerated would tear it down at once.
	drain:
		for {
			select {
			case <-wake:
				logger.Debug("Draining stale wake signal")
			default:
				break drain
			}
		}

		// USB enumeration may still be settling after a successful open.
		select {
		case <-ctx.Done():
			deck.Close()
			return
		case <-time.After(wakeBackoff):
		}

		runDeck(ctx, rem, deck, wake, logger)
		if ctx.Err() != nil {
			return
		}
		logger.Info("Waiting for device reconnect...")
	}
}

// waitForDeck polls until a deck opens. Wake and hotplug signals trigger an
// immediate burst of retries. It returns nil when ctx ends.
func waitForDeck(ctx context.Context, open openFunc, plugged, wake <-chan struct{}, logger *slog.Logger) device.Deck {
	if deck, err := open(); err == nil {
		return deck
	}
	logger.Info("Waiting for device...")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-wake:
			logger.Info("Wake signal received, probing for device...")
			if deck := retryOpen(ctx, open); deck != nil {
				logger.Info("Device connected!")
				return deck
			}
			logger.Info("Device not found after wake, resuming polling...")
			continue
		case <-plugged:
			logger.Info("USB device attached, probing...")
			if deck := retryOpen(ctx, open); deck != nil {
				logger.Info("Device connected!")
				return deck
			}
			continue
		case <-time.After(pollInterval):
		}

		if deck, err := open(); err == nil {
			logger.Info("Device connected!")
			return deck
		}
	}
}

// retryOpen tries a few times, since devices take a while to enumerate.
func retryOpen(ctx context.Context, open openFunc) device.Deck {
	for range wakeRetries {
		if deck, err := open(); err == nil {
			return deck
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wakeBackoff):
		}
	}
	return nil
}

// runDeck runs the remote on deck until ctx ends, the deck fails, or the
// system wakes. The deck is closed before it returns.
func runDeck(ctx context.Context, rem *remote.Remote, deck device.Deck, wake <-chan struct{}, logger *slog.Logger) {
	logger.Info("Connected", "model", deck.ModelName())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- rem.Run(runCtx, deck) }()

	exited := false
	select {
	case <-ctx.Done():
	case err := <-errCh:
		exited = true
		if err != nil {
			logger.Warn("Device disconnected", "error", err)
		}
	case <-wake:
		logger.Info("Reconnecting device after wake...")
	}

	cancel()
	if !exited {
		select {
		case <-errCh:
		case <-time.After(cleanupTimeout):
			logger.Warn("Remote cleanup timed out")
		}
	}

	// USB callbacks may still fire briefly after the listener stops.
	time.Sleep(200 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		deck.Close()
		close(closed)
	}()
	select {
	case <-ctx.Done():
		// Close can block forever on a wedged device; don't hold up shutdown.
	case <-closed:
	case <-time.After(3 * time.Second):
		logger.Warn("Device close timed out")
	}
}
