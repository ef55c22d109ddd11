package emulator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/phinze/inviscam/internal/device"
)

// Native Stream Deck Plus image sizes.
const (
	KeySize     = 72
	StripWidth  = 800
	StripHeight = 100

	// LongTouch is how long a strip press must last to count as long.
	LongTouch = 500 * time.Millisecond
)

// ErrClosed is returned when using a closed Deck.
var ErrClosed = errors.New("emulator: deck is closed")

// Deck is a device.Deck whose input is injected by the caller.
type Deck struct {
	mu         sync.Mutex
	brightness byte
	keys       [device.KeyCount]*image.RGBA
	strip      *image.RGBA
	events     chan<- device.Event
	done       <-chan struct{}

	closed    chan struct{}
	closeOnce sync.Once
}

// NewDeck creates a deck with blank keys and strip.
func NewDeck() *Deck {
	d := &Deck{
		brightness: 80,
		strip:      image.NewRGBA(image.Rect(0, 0, StripWidth, StripHeight)),
		closed:     make(chan struct{}),
	}
	for i := range d.keys {
		d.keys[i] = image.NewRGBA(image.Rect(0, 0, KeySize, KeySize))
	}
	return d
}

// ModelName implements device.Deck.
func (d *Deck) ModelName() string {
	return "Stream Deck Plus (Emulator)"
}

// KeyRect implements device.Deck.
func (d *Deck) KeyRect() (image.Rectangle, error) {
	return image.Rect(0, 0, KeySize, KeySize), nil
}

// StripRect implements device.Deck.
func (d *Deck) StripRect() (image.Rectangle, error) {
	return image.Rect(0, 0, StripWidth, StripHeight), nil
}

// SetBrightness implements device.Deck.
func (d *Deck) SetBrightness(perc byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.brightness = perc
	return nil
}

// SetKeyImage implements device.Deck.
func (d *Deck) SetKeyImage(key device.KeyID, img image.Image) error {
	idx := int(key) - 1
	if idx < 0 || idx >= device.KeyCount {
		return fmt.Errorf("emulator: invalid key ID: %d", key)
	}
	rgba := image.NewRGBA(image.Rect(0, 0, KeySize, KeySize))
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys[idx] = rgba
	return nil
}

// SetStripImage implements device.Deck.
func (d *Deck) SetStripImage(img image.Image) error {
	rgba := image.NewRGBA(image.Rect(0, 0, StripWidth, StripHeight))
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.strip = rgba
	return nil
}

// Listen implements device.Deck. It returns ErrClosed once Close is called.
func (d *Deck) Listen(ctx context.Context, events chan<- device.Event) error {
	d.mu.Lock()
	d.events = events
	d.done = ctx.Done()
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.events = nil
		d.done = nil
		d.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return nil
	case <-d.closed:
		return ErrClosed
	}
}

// Close implements device.Deck.
func (d *Deck) Close() error {
	d.closeOnce.Do(func() { close(d.closed) })
	return nil
}

// View returns what the deck shows. The images must not be modified.
func (d *Deck) View() (brightness byte, keys [device.KeyCount]*image.RGBA, strip *image.RGBA) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.brightness, d.keys, d.strip
}

// PressKey reports a key held for held.
func (d *Deck) PressKey(key device.KeyID, held time.Duration) bool {
	return d.emit(device.Event{Kind: device.EventKey, Key: key, Held: held})
}

// PressDial reports a dial pushed for held.
func (d *Deck) PressDial(dial device.DialID, held time.Duration) bool {
	return d.emit(device.Event{Kind: device.EventDialPress, Dial: dial, Held: held})
}

// RotateDial reports a dial turned by delta detents.
func (d *Deck) RotateDial(dial device.DialID, delta int8) bool {
	return d.emit(device.Event{Kind: device.EventDialRotate, Dial: dial, Delta: delta})
}

// TouchStrip reports a strip press at p that lasted held.
func (d *Deck) TouchStrip(p image.Point, held time.Duration) bool {
	t := device.TouchShort
	if held > LongTouch {
		t = device.TouchLong
	}
	return d.emit(device.Event{Kind: device.EventStripTouch, Touch: t, Point: p})
}

// SwipeStrip reports a swipe from one strip point to another.
func (d *Deck) SwipeStrip(from, to image.Point) bool {
	return d.emit(device.Event{Kind: device.EventStripSwipe, Point: from, To: to})
}

// emit hands ev to the current listener. It reports false when nobody is
// listening.
func (d *Deck) emit(ev device.Event) bool {
	d.mu.Lock()
	events, done := d.events, d.done
	d.mu.Unlock()
	if events == nil {
		return false
	}
	select {
	case events <- ev:
		return true
	case <-done:
		return false
	case <-d.closed:
		return false
	}
}
