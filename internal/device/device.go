// Package device abstracts the Stream Deck Plus used as a remote: eight
// keys, four dials and a touch strip. The real hardware and the emulator
// both implement Deck.
package device

import (
	"context"
	"fmt"
	"image"
	"time"
)

// Deck is a connected control surface.
type Deck interface {
	ModelName() string
	KeyRect() (image.Rectangle, error)
	StripRect() (image.Rectangle, error)

	SetBrightness(perc byte) error
	SetKeyImage(key KeyID, img image.Image) error
	SetStripImage(img image.Image) error

	// Listen sends input to events until ctx ends or the deck goes away.
	// It returns nil when ctx ends.
	Listen(ctx context.Context, events chan<- Event) error
	Close() error
}

// KeyID identifies a key, numbered from the top left.
type KeyID byte

// Stream Deck Plus keys.
const (
	Key1 KeyID = iota + 1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
)

// KeyCount is the number of keys on a Stream Deck Plus.
const KeyCount = 8

// DialID identifies a dial, numbered from the left.
type DialID byte

// Stream Deck Plus dials.
const (
	Dial1 DialID = iota + 1
	Dial2
	Dial3
	Dial4
)

// DialCount is the number of dials on a Stream Deck Plus.
const DialCount = 4

// TouchType is the kind of strip touch.
type TouchType byte

// Strip touch types.
const (
	TouchShort TouchType = iota + 1
	TouchLong
)

// EventKind tells which fields of an Event are set.
type EventKind uint8

const (
	// EventKey is a key press, sent once the key is released.
	EventKey EventKind = iota + 1
	// EventDialPress is a dial press, sent once the dial is released.
	EventDialPress
	// EventDialRotate is a dial turned by Delta detents.
	EventDialRotate
	// EventStripTouch is a tap on the strip at Point.
	EventStripTouch
	// EventStripSwipe is a swipe along the strip from Point to To.
	EventStripSwipe
)

func (k EventKind) String() string {
	switch k {
	case EventKey:
		return "key"
	case EventDialPress:
		return "dial_press"
	case EventDialRotate:
		return "dial_rotate"
	case EventStripTouch:
		return "strip_touch"
	case EventStripSwipe:
		return "strip_swipe"
	default:
		return fmt.Sprintf("event(%d)", uint8(k))
	}
}

// Event is one input from a deck.
type Event struct {
	Kind  EventKind
	Key   KeyID
	Dial  DialID
	Delta int8
	// Held is how long a key or dial was down.
	Held  time.Duration
	Touch TouchType
	Point image.Point
	To    image.Point
}
