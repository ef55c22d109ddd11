package emulator

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/phinze/inviscam/internal/device"
)

var _ device.Deck = (*Deck)(nil)

// TestDeckDeliversInput verifies injected input reaches the listener with
// strip presses classified by length.
func TestDeckDeliversInput(t *testing.T) {
	d := NewDeck()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if d.PressKey(device.Key1, 0) {
		t.Fatal("PressKey() = true with no listener")
	}

	events := make(chan device.Event, 8)
	done := make(chan error, 1)
	go func() { done <- d.Listen(ctx, events) }()

	deadline := time.Now().Add(2 * time.Second)
	for !d.RotateDial(device.Dial2, -3) {
		if time.Now().After(deadline) {
			t.Fatal("listener never attached")
		}
		time.Sleep(time.Millisecond)
	}
	d.PressKey(device.Key7, 80*time.Millisecond)
	d.TouchStrip(image.Pt(10, 20), time.Second)
	d.SwipeStrip(image.Pt(10, 50), image.Pt(400, 50))

	want := []device.Event{
		{Kind: device.EventDialRotate, Dial: device.Dial2, Delta: -3},
		{Kind: device.EventKey, Key: device.Key7, Held: 80 * time.Millisecond},
		{Kind: device.EventStripTouch, Touch: device.TouchLong, Point: image.Pt(10, 20)},
		{Kind: device.EventStripSwipe, Point: image.Pt(10, 50), To: image.Pt(400, 50)},
	}
	for i, w := range want {
		if got := <-events; got != w {
			t.Errorf("event %d = %+v, want %+v", i, got, w)
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Listen() = %v after cancel, want nil", err)
	}
}

func TestDeckClose(t *testing.T) {
	d := NewDeck()
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close() = %v", err)
	}
	err := d.Listen(context.Background(), make(chan device.Event))
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Listen() after Close = %v, want ErrClosed", err)
	}
}

func TestDeckImages(t *testing.T) {
	d := NewDeck()
	red := image.NewUniform(color.RGBA{255, 0, 0, 255})

	if err := d.SetKeyImage(device.Key3, red); err != nil {
		t.Fatal(err)
	}
	if err := d.SetKeyImage(device.KeyID(9), red); err == nil {
		t.Error("SetKeyImage(9) = nil, want error")
	}
	if err := d.SetStripImage(red); err != nil {
		t.Fatal(err)
	}
	if err := d.SetBrightness(40); err != nil {
		t.Fatal(err)
	}

	brightness, keys, strip := d.View()
	if brightness != 40 {
		t.Errorf("brightness = %d, want 40", brightness)
	}
	if got := keys[2].RGBAAt(5, 5); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("key 3 pixel = %v, want red", got)
	}
	if got := strip.RGBAAt(799, 99); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("strip pixel = %v, want red", got)
	}
}
