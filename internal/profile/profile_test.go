package profile

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/phinze/inviscam/internal/action"
	"github.com/phinze/inviscam/internal/camera"
	"github.com/phinze/inviscam/internal/gesture"
	"github.com/phinze/inviscam/internal/idle"
	"github.com/phinze/inviscam/internal/loop"
	"github.com/phinze/inviscam/internal/position"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "profiles.yaml"), nil, discard())
}

func TestEveryProfileHasDefaults(t *testing.T) {
	s := newTestStore(t)
	for _, id := range IDs() {
		p := s.Profile(id)
		if p == nil {
			t.Fatalf("no settings for %v", id)
		}
		if got := len(p.Entries()); got != 27 {
			t.Errorf("%v has %d fields, want 27", id, got)
		}
		seen := map[string]bool{}
		for _, e := range p.Entries() {
			if seen[e.Key()] {
				t.Errorf("%v: duplicate key %q", id, e.Key())
			}
			seen[e.Key()] = true
		}
	}
	if s.Current().ID != PictureInPicture {
		t.Errorf("default profile = %v, want picture_in_picture", s.Current().ID)
	}
}

func TestProfileDefaults(t *testing.T) {
	s := newTestStore(t)

	pip := s.Profile(PictureInPicture)
	if pip.CaptureMode.Get() != camera.CaptureVideo || pip.PreviewRatio.Get() != position.Ratio4x3 {
		t.Errorf("pip capture/ratio = %v/%v", pip.CaptureMode.Get(), pip.PreviewRatio.Get())
	}
	if pip.FabLongPressAction.Get() != action.ToggleRecordingVideo {
		t.Errorf("pip long press = %v", pip.FabLongPressAction.Get())
	}

	mirror := s.Profile(Mirror)
	if mirror.Lens.Get() != camera.LensFront || mirror.SleepTimeout.Get() != idle.Immediately {
		t.Errorf("mirror lens/timeout = %v/%v", mirror.Lens.Get(), mirror.SleepTimeout.Get())
	}
	if mirror.FabLongPressExtraAction.Get() != action.HideFabAndKeepAwake {
		t.Errorf("mirror extra action = %v", mirror.FabLongPressExtraAction.Get())
	}

	wallpaper := s.Profile(Wallpaper)
	if got := wallpaper.PreviewAlpha.Fraction(); got != 0.2 {
		t.Errorf("wallpaper alpha = %v, want 0.2", got)
	}
	if got := wallpaper.Zoom.Fraction(); got != -1 {
		t.Errorf("wallpaper zoom = %v, want -1", got)
	}

	if got := s.Profile(Magnifier).PreviewScaleAction.Get(); got != ScaleCameraZoom {
		t.Errorf("magnifier scale action = %v", got)
	}
}

func TestLockedFieldIgnoresSet(t *testing.T) {
	s := newTestStore(t)
	mirror := s.Profile(Mirror)

	mirror.Lens.Set(camera.LensBack)
	if mirror.Lens.Get() != camera.LensFront {
		t.Error("locked lens changed")
	}
	if err := mirror.Lens.SetString("back"); !errors.Is(err, ErrLocked) {
		t.Errorf("SetString on locked field = %v, want ErrLocked", err)
	}

	var seen []camera.LensFacing
	cancel := mirror.Lens.Observe(func(l camera.LensFacing) { seen = append(seen, l) })
	defer cancel()
	mirror.Lens.Set(camera.LensBack)
	if len(seen) != 1 || seen[0] != camera.LensFront {
		t.Errorf("observed %v, want [front]", seen)
	}

	mirror.SleepTimeout.Set(idle.Second10)
	if mirror.SleepTimeout.Get() != idle.Second10 {
		t.Error("unlocked timeout did not change")
	}
}

func TestPercentBounds(t *testing.T) {
	s := newTestStore(t)
	p := s.Profile(Custom)

	p.Zoom.SetFraction(2)
	if got := p.Zoom.Get(); got != 100 {
		t.Errorf("zoom stored %d, want 100", got)
	}
	p.PreviewSize.SetFraction(0.01)
	if got := p.PreviewSize.Fraction(); got != 0.1 {
		t.Errorf("preview size = %v, want 0.1", got)
	}

	// Positions may leave the screen only while slide-out is enabled.
	p.PreviewX.SetFraction(1.5)
	if got := p.PreviewX.Fraction(); got != 1 {
		t.Errorf("x without slide-out = %v, want 1", got)
	}
	p.PreviewEnableOut.Set(true)
	p.PreviewX.SetFraction(1.5)
	if got := p.PreviewX.Fraction(); got != 1.5 {
		t.Errorf("x with slide-out = %v, want 1.5", got)
	}

	var xs []float64
	cancel := p.PreviewX.Value().Observe(func(f float64) { xs = append(xs, f) })
	defer cancel()
	p.PreviewEnableOut.Set(false)
	if len(xs) != 2 || xs[1] != 1 {
		t.Errorf("observed x %v, want [1.5 1]", xs)
	}

	p.PreviewEnableTouch.Set(false)
	p.PreviewAlpha.SetFraction(1)
	if got := p.PreviewAlpha.Fraction(); got != 0.8 {
		t.Errorf("untouchable alpha = %v, want 0.8", got)
	}
}

func TestSetString(t *testing.T) {
	s := newTestStore(t)
	p := s.Profile(Custom)
	tests := []struct {
		key, value, want string
	}{
		{"capture_mode", "photo_and_video", "photo_and_video"},
		{"sleep_mode_timeout", "second_30", "second_30"},
		{"sleep_mode_timeout", "5000", "second_5"},
		{"preview_enable_touch", "false", "false"},
		{"zoom", "40", "40"},
		{"preview_single_tap_action", "take_picture", "take_picture"},
		{"preview_ratio", "ratio_16_9", "ratio_16_9"},
		{"preview_scale_action", "window_size", "window_size"},
	}
	for _, tt := range tests {
		e, ok := p.Entry(tt.key)
		if !ok {
			t.Fatalf("no entry %q", tt.key)
		}
		if err := e.SetString(tt.value); err != nil {
			t.Errorf("SetString(%s, %s): %v", tt.key, tt.value, err)
			continue
		}
		if got := e.String(); got != tt.want {
			t.Errorf("%s = %s, want %s", tt.key, got, tt.want)
		}
	}
	e, _ := p.Entry("capture_mode")
	if err := e.SetString("panorama"); err == nil {
		t.Error("invalid capture mode accepted")
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	s := newTestStore(t)
	p := s.Profile(Candid)
	p.Lens.Set(camera.LensFront)
	p.PreviewX.SetFraction(0.1)
	p.Reset()
	if p.Lens.Get() != camera.LensBack || p.PreviewX.Fraction() != 0.5 {
		t.Errorf("after reset lens=%v x=%v", p.Lens.Get(), p.PreviewX.Fraction())
	}
}

func TestPreviewAction(t *testing.T) {
	s := newTestStore(t)
	p := s.Profile(Custom)
	p.PreviewDoubleLongPressUpAction.Set(action.StopService)
	if got := p.PreviewAction(gesture.DoubleLongPressUp); got != action.StopService {
		t.Errorf("PreviewAction = %v", got)
	}
	if got := s.Profile(PictureInPicture).PreviewAction(gesture.LongPress); got != action.ToggleRecordingVideo {
		t.Errorf("pip long press = %v", got)
	}
}

func TestFabDefaults(t *testing.T) {
	s := newTestStore(t)
	f := s.Fab()
	if f.X.Fraction() != 1 || f.Y.Fraction() != 0.6 || f.IdleAlpha.Fraction() != 0.4 {
		t.Errorf("fab x/y/alpha = %v/%v/%v", f.X.Fraction(), f.Y.Fraction(), f.IdleAlpha.Fraction())
	}
	if f.IdleTimeout.Get() != idle.Second5 || f.OpenMenuGesture.Get() != gesture.SingleTap {
		t.Errorf("fab timeout/gesture = %v/%v", f.IdleTimeout.Get(), f.OpenMenuGesture.Get())
	}
	f.OpenMenuGesture.Set(gesture.LongPress)
	if f.OpenMenuGesture.Get() != gesture.SingleTap {
		t.Error("open menu gesture accepted a long press")
	}
	f.IdleAlpha.SetFraction(1)
	if f.IdleAlpha.Fraction() != 0.99 {
		t.Errorf("idle alpha = %v, want 0.99", f.IdleAlpha.Fraction())
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profiles.yaml")
	s := NewStore(path, nil, discard())
	if err := s.Load(); err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if err := s.Select(Candid); err != nil {
		t.Fatal(err)
	}
	s.Profile(Candid).Lens.Set(camera.LensFront)
	s.Profile(Custom).SleepTimeout.Set(idle.Minute1)
	s.Profile(Custom).PreviewX.SetFraction(0.25)
	s.Fab().OpenMenuGesture.Set(gesture.DoubleTap)
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "mirror") {
		t.Errorf("unchanged profile written:\n%s", data)
	}

	r := NewStore(path, nil, discard())
	if err := r.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Current().ID != Candid {
		t.Errorf("selected = %v, want candid", r.Current().ID)
	}
	if r.Profile(Candid).Lens.Get() != camera.LensFront {
		t.Error("candid lens not restored")
	}
	if r.Profile(Custom).SleepTimeout.Get() != idle.Minute1 || r.Profile(Custom).PreviewX.Fraction() != 0.25 {
		t.Error("custom settings not restored")
	}
	if r.Fab().OpenMenuGesture.Get() != gesture.DoubleTap {
		t.Error("fab gesture not restored")
	}
}

func TestLoadSkipsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	doc := `selected: nonsense
profiles:
  custom:
    capture_mode: video
    lens_facing: sideways
    volume: 11
  mirror:
    lens_facing: back
  unheard_of:
    zoom: 10
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewStore(path, nil, discard())
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Current().ID != PictureInPicture {
		t.Errorf("selected = %v, want default", s.Current().ID)
	}
	c := s.Profile(Custom)
	if c.CaptureMode.Get() != camera.CaptureVideo || c.Lens.Get() != camera.LensBack {
		t.Errorf("custom capture/lens = %v/%v", c.CaptureMode.Get(), c.Lens.Get())
	}
	if s.Profile(Mirror).Lens.Get() != camera.LensFront {
		t.Error("locked mirror lens loaded from file")
	}
}

func TestAutosave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	sched := loop.NewManual(time.Unix(0, 0))
	s := NewStore(path, sched, discard())

	s.Profile(Custom).Zoom.SetFraction(0.3)
	s.Profile(Custom).Zoom.SetFraction(0.4)
	if _, err := os.Stat(path); err == nil {
		t.Fatal("saved before the delay")
	}
	sched.Advance(time.Second)

	r := NewStore(path, nil, discard())
	if err := r.Load(); err != nil {
		t.Fatal(err)
	}
	if got := r.Profile(Custom).Zoom.Fraction(); got != 0.4 {
		t.Errorf("autosaved zoom = %v, want 0.4", got)
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID("magnifier")
	if err != nil || id != Magnifier {
		t.Errorf("ParseID = %v, %v", id, err)
	}
	if _, err := ParseID("selfie"); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("err = %v, want ErrUnknownProfile", err)
	}
}
