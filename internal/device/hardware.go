package device

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"rafaelmartins.com/p/streamdeck"
)

// ErrOpenTimeout is returned when the USB subsystem does not answer in time.
var ErrOpenTimeout = errors.New("device detection timed out")

// Hardware is a Deck backed by a USB Stream Deck.
type Hardware struct {
	dev *streamdeck.Device
}

// Open finds and opens the first connected Stream Deck. The timeout keeps a
// wedged USB subsystem from blocking the caller forever.
func Open(timeout time.Duration) (*Hardware, error) {
	type result struct {
		dev *streamdeck.Device
		err error
	}
	ch := make(chan result, 1)

	go func() {
		dev, err := streamdeck.GetDevice("")
		if err != nil {
			ch <- result{nil, err}
			return
		}
		if err := dev.Open(); err != nil {
			ch <- result{nil, err}
			return
		}
		ch <- result{dev, nil}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("open stream deck: %w", r.err)
		}
		return &Hardware{dev: r.dev}, nil
	case <-time.After(timeout):
		return nil, ErrOpenTimeout
	}
}

// ModelName implements Deck.
func (h *Hardware) ModelName() string {
	return h.dev.GetModelName()
}

// KeyRect implements Deck.
func (h *Hardware) KeyRect() (image.Rectangle, error) {
	return h.dev.GetKeyImageRectangle()
}

// StripRect implements Deck.
func (h *Hardware) StripRect() (image.Rectangle, error) {
	return h.dev.GetTouchStripImageRectangle()
}

// SetBrightness implements Deck.
func (h *Hardware) SetBrightness(perc byte) error {
	return h.dev.SetBrightness(perc)
}

// SetKeyImage implements Deck.
func (h *Hardware) SetKeyImage(key KeyID, img image.Image) error {
	return h.dev.SetKeyImage(streamdeck.KeyID(key), img)
}

// SetStripImage implements Deck.
func (h *Hardware) SetStripImage(img image.Image) error {
	return h.dev.SetTouchStripImage(img)
}

// Close implements Deck.
func (h *Hardware) Close() error {
	return h.dev.Close()
}

// Listen implements Deck. Handlers run on the library's goroutines; each
// blocks on release before its event is sent.
func (h *Hardware) Listen(ctx context.Context, events chan<- Event) error {
	send := func(ev Event) error {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
		return nil
	}

	err := h.dev.ForEachKey(func(id streamdeck.KeyID) error {
		return h.dev.AddKeyHandler(id, func(_ *streamdeck.Device, k *streamdeck.Key) error {
			held := k.WaitForRelease()
			return send(Event{Kind: EventKey, Key: KeyID(k.GetID()), Held: held})
		})
	})
	if err != nil {
		return fmt.Errorf("add key handlers: %w", err)
	}

	err = h.dev.ForEachDial(func(id streamdeck.DialID) error {
		if err := h.dev.AddDialRotateHandler(id, func(_ *streamdeck.Device, di *streamdeck.Dial, delta int8) error {
			return send(Event{Kind: EventDialRotate, Dial: DialID(di.GetID()), Delta: delta})
		}); err != nil {
			return err
		}
		return h.dev.AddDialSwitchHandler(id, func(_ *streamdeck.Device, di *streamdeck.Dial) error {
			held := di.WaitForRelease()
			return send(Event{Kind: EventDialPress, Dial: DialID(di.GetID()), Held: held})
		})
	})
	if err != nil {
		return fmt.Errorf("add dial handlers: %w", err)
	}

	if err := h.dev.AddTouchStripTouchHandler(func(_ *streamdeck.Device, t streamdeck.TouchStripTouchType, p image.Point) error {
		return send(Event{Kind: EventStripTouch, Touch: TouchType(t), Point: p})
	}); err != nil {
		return fmt.Errorf("add strip touch handler: %w", err)
	}
	if err := h.dev.AddTouchStripSwipeHandler(func(_ *streamdeck.Device, origin, destination image.Point) error {
		return send(Event{Kind: EventStripSwipe, Point: origin, To: destination})
	}); err != nil {
		return fmt.Errorf("add strip swipe handler: %w", err)
	}

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- h.dev.Listen(nil)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-listenErr:
		if err == nil {
			err = errors.New("device disconnected")
		}
		return err
	}
}
