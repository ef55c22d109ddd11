package remote

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/phinze/inviscam/internal/analytics"
	"github.com/phinze/inviscam/internal/camera"
	"github.com/phinze/inviscam/internal/camera/sim"
	"github.com/phinze/inviscam/internal/coordinator"
	"github.com/phinze/inviscam/internal/device"
	"github.com/phinze/inviscam/internal/emulator"
	"github.com/phinze/inviscam/internal/gesture"
	"github.com/phinze/inviscam/internal/loop"
	"github.com/phinze/inviscam/internal/mediastore"
	"github.com/phinze/inviscam/internal/overlay"
	"github.com/phinze/inviscam/internal/profile"
	"github.com/phinze/inviscam/internal/render"
	"github.com/phinze/inviscam/internal/window"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var screen = window.Metrics{
	Rotation:   window.Rotation0,
	OuterWidth: 1080, OuterHeight: 1920,
	InnerWidth: 1080, InnerHeight: 1800,
}

// manualCaller runs calls on a manual scheduler.
type manualCaller struct{ sched *loop.Manual }

func (c manualCaller) Call(_ context.Context, fn func()) error {
	c.sched.Post(fn)
	c.sched.Flush()
	return nil
}

type harness struct {
	remote *Remote
	coord  *coordinator.Coordinator
	store  *profile.Store
	sched  *loop.Manual
	events *analytics.MemorySink
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := discardLogger()
	sched := loop.NewManual(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC))
	r, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	h := &harness{
		sched:  sched,
		store:  profile.NewStore(filepath.Join(t.TempDir(), "profiles.yaml"), sched, logger),
		events: analytics.NewMemorySink(100),
	}
	h.coord = coordinator.New(context.Background(), coordinator.Options{
		Scheduler: sched,
		Store:     h.store,
		Host:      overlay.NewHeadless(screen, logger),
		Provider:  sim.NewProvider(sched, sim.Config{}, logger),
		Media:     mediastore.New(t.TempDir()),
		Analytics: analytics.NewRecorder(h.events),
		Renderer:  r,
		Gestures:  gesture.DefaultConfig(),
		Logger:    logger,
	})
	h.remote = New(h.coord, h.store, manualCaller{sched}, r, 60, logger)
	t.Cleanup(func() {
		h.coord.Close()
		sched.Flush()
	})
	return h
}

func (h *harness) handle(t *testing.T, ev device.Event) error {
	t.Helper()
	err := h.remote.handle(context.Background(), ev)
	h.sched.Advance(time.Second)
	return err
}

func (h *harness) running() profile.ID {
	id, ok := h.coord.Registry().Profile()
	if !ok {
		return 0
	}
	return id
}

func (h *harness) where(name string) []string {
	var out []string
	for _, ev := range h.events.Events() {
		if ev.Name == name {
			w, _ := ev.Params["where"].(string)
			out = append(out, w)
		}
	}
	return out
}

// TestProfileKeys verifies the top keys start profiles and a long hold
// restarts the running one.
func TestProfileKeys(t *testing.T) {
	h := newHarness(t)

	if err := h.handle(t, device.Event{Kind: device.EventKey, Key: device.Key3}); err != nil {
		t.Fatalf("Key3: %v", err)
	}
	if got := h.running(); got != profile.Mirror {
		t.Fatalf("running = %v, want mirror", got)
	}
	first := h.coord.Snapshot().Session

	h.handle(t, device.Event{Kind: device.EventKey, Key: device.Key3, Held: 100 * time.Millisecond})
	if got := h.coord.Snapshot().Session; got != first {
		t.Errorf("short press restarted the session")
	}

	h.handle(t, device.Event{Kind: device.EventKey, Key: device.Key3, Held: LongHold})
	if got := h.coord.Snapshot().Session; got == first || got == "" {
		t.Errorf("long press did not restart: session %q", got)
	}

	if got := h.where("start_service"); len(got) != 3 || got[0] != "remote" {
		t.Errorf("start_service where = %v, want 3x remote", got)
	}
}

func TestStopControls(t *testing.T) {
	for _, ev := range []device.Event{
		{Kind: device.EventDialPress, Dial: device.Dial2},
		{Kind: device.EventKey, Key: device.Key8, Held: 2 * LongHold},
	} {
		t.Run(ev.Kind.String(), func(t *testing.T) {
			h := newHarness(t)
			h.handle(t, device.Event{Kind: device.EventKey, Key: device.Key1})
			if h.running() != profile.PictureInPicture {
				t.Fatal("picture in picture did not start")
			}

			if err := h.handle(t, ev); err != nil {
				t.Fatalf("stop: %v", err)
			}
			if h.coord.Registry().IsRunning() {
				t.Error("still running after stop")
			}
			if got := h.where("stop_service"); len(got) != 1 || got[0] != "remote" {
				t.Errorf("stop_service where = %v, want [remote]", got)
			}
		})
	}
}

func TestSessionActionsNeedSession(t *testing.T) {
	h := newHarness(t)
	for _, ev := range []device.Event{
		{Kind: device.EventKey, Key: device.Key7},
		{Kind: device.EventKey, Key: device.Key8},
		{Kind: device.EventDialRotate, Dial: device.Dial1, Delta: 1},
		{Kind: device.EventDialRotate, Dial: device.Dial2, Delta: 1},
		{Kind: device.EventStripTouch, Touch: device.TouchShort},
	} {
		if err := h.handle(t, ev); !errors.Is(err, ErrNotRunning) {
			t.Errorf("%v while stopped = %v, want ErrNotRunning", ev.Kind, err)
		}
	}
}

// TestDials verifies the dials edit the running profile's settings.
func TestDials(t *testing.T) {
	h := newHarness(t)
	h.handle(t, device.Event{Kind: device.EventKey, Key: device.Key1})
	st := h.store.Profile(profile.PictureInPicture)

	h.handle(t, device.Event{Kind: device.EventDialRotate, Dial: device.Dial1, Delta: 2})
	if got := st.Zoom.Get(); got != 10 {
		t.Errorf("zoom = %d%%, want 10%%", got)
	}

	h.handle(t, device.Event{Kind: device.EventDialPress, Dial: device.Dial1})
	if got := st.Lens.Get(); got != camera.LensFront {
		t.Errorf("lens = %v, want front", got)
	}
	if got := h.coord.Snapshot().Lens; got != "front" {
		t.Errorf("status lens = %q, want front", got)
	}

	h.handle(t, device.Event{Kind: device.EventDialRotate, Dial: device.Dial2, Delta: -4})
	if got := st.PreviewSize.Get(); got != 30 {
		t.Errorf("preview size = %d%%, want 30%%", got)
	}
	h.handle(t, device.Event{Kind: device.EventDialRotate, Dial: device.Dial3, Delta: -2})
	if got := st.PreviewAlpha.Get(); got != 90 {
		t.Errorf("preview alpha = %d%%, want 90%%", got)
	}

	h.handle(t, device.Event{Kind: device.EventDialPress, Dial: device.Dial3})
	if got := st.CaptureMode.Get(); got == camera.CaptureVideo {
		t.Error("capture mode not toggled")
	}
}

func TestSwipeCyclesProfiles(t *testing.T) {
	h := newHarness(t)
	h.handle(t, device.Event{Kind: device.EventKey, Key: device.Key1})

	h.handle(t, device.Event{Kind: device.EventStripSwipe, Point: image.Pt(100, 50), To: image.Pt(150, 50)})
	if got := h.running(); got != profile.PictureInPicture {
		t.Fatalf("short swipe switched to %v", got)
	}

	h.handle(t, device.Event{Kind: device.EventStripSwipe, Point: image.Pt(100, 50), To: image.Pt(500, 50)})
	if got := h.running(); got != profile.Wallpaper {
		t.Errorf("swipe right = %v, want wallpaper", got)
	}

	h.handle(t, device.Event{Kind: device.EventStripSwipe, Point: image.Pt(500, 50), To: image.Pt(100, 50)})
	h.handle(t, device.Event{Kind: device.EventStripSwipe, Point: image.Pt(500, 50), To: image.Pt(100, 50)})
	if got := h.running(); got != profile.Custom {
		t.Errorf("two swipes left = %v, want custom", got)
	}
}

func TestKeyFaces(t *testing.T) {
	stopped := keyFaces(coordinator.Status{Phase: "unbound"})
	for key, face := range stopped {
		if face.active {
			t.Errorf("key %d active while stopped", key)
		}
	}

	rec := keyFaces(coordinator.Status{
		Running: true, Profile: "mirror", Phase: "bound",
		CaptureMode: "video", Recording: true, RecordedMs: 75_000,
	})
	if !rec[device.Key3].active || rec[device.Key1].active {
		t.Error("only the mirror key should be active")
	}
	if got := rec[device.Key7]; got.caption != "1:15" || got.col != render.ColorRed {
		t.Errorf("capture key = %+v, want red 1:15", got)
	}
}

func TestStripFace(t *testing.T) {
	tests := []struct {
		name   string
		st     coordinator.Status
		title  string
		detail string
	}{
		{
			name:   "stopped",
			st:     coordinator.Status{Phase: "unbound"},
			title:  "InvisCam",
			detail: "Stopped. Press a profile key to start.",
		},
		{
			name:   "bound",
			st:     coordinator.Status{Running: true, Profile: "picture_in_picture", Phase: "bound", Lens: "back", ZoomRatio: 2},
			title:  "Picture in picture",
			detail: "bound | back | 2.0x",
		},
		{
			name:   "recording",
			st:     coordinator.Status{Running: true, Profile: "candid", Phase: "bound", Lens: "front", ZoomRatio: 1, Recording: true, RecordedMs: 9_500},
			title:  "Candid",
			detail: "bound | front | 1.0x | REC 0:09",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripFaceOf(tt.st)
			if got.title != tt.title || got.detail != tt.detail {
				t.Errorf("stripFaceOf() = %q / %q, want %q / %q", got.title, got.detail, tt.title, tt.detail)
			}
		})
	}
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// TestRunMirrorsStatus drives a deck end to end on a real loop: a key press
// starts a profile and the deck follows the session.
func TestRunMirrorsStatus(t *testing.T) {
	logger := discardLogger()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := loop.New(logger)
	go l.Run(ctx)

	r, err := render.New()
	if err != nil {
		t.Fatal(err)
	}
	store := profile.NewStore(filepath.Join(t.TempDir(), "profiles.yaml"), l, logger)
	coord := coordinator.New(ctx, coordinator.Options{
		Scheduler: l,
		Store:     store,
		Host:      overlay.NewHeadless(screen, logger),
		Provider:  sim.NewProvider(l, sim.Config{OpenDelay: time.Millisecond}, logger),
		Media:     mediastore.New(t.TempDir()),
		Analytics: analytics.NewRecorder(analytics.NewMemorySink(10)),
		Renderer:  r,
		Gestures:  gesture.DefaultConfig(),
		Logger:    logger,
	})
	defer l.Call(context.Background(), coord.Close)

	deck := emulator.NewDeck()
	done := make(chan error, 1)
	go func() { done <- New(coord, store, l, r, 55, logger).Run(ctx, deck) }()

	waitUntil(t, 2*time.Second, func() bool { return deck.PressKey(device.Key1, 0) })
	waitUntil(t, 5*time.Second, func() bool {
		return coord.Snapshot().Phase == "bound"
	})

	green := render.ColorGreen
	waitUntil(t, 5*time.Second, func() bool {
		_, _, strip := deck.View()
		return strip.RGBAAt(2, 50) == green
	})
	if b, _, _ := deck.View(); b != 55 {
		t.Errorf("brightness = %d, want 55", b)
	}

	deck.Close()
	select {
	case err := <-done:
		if !errors.Is(err, emulator.ErrClosed) {
			t.Errorf("Run() = %v, want ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the deck closed")
	}
}
