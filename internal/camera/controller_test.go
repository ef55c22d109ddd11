package camera

import (
	"math"
	"slices"
	"testing"
	"time"

	"github.com/phinze/inviscam/internal/idle"
	"github.com/phinze/inviscam/internal/window"
)

func TestSetupWaitsForProbeToClose(t *testing.T) {
	h := newHarness(t)
	h.c.Setup(nopSink{}, h.rotation)

	if got := h.c.Phase().Get(); got != PhaseOpening {
		t.Fatalf("phase before flush = %v, want opening", got)
	}
	if d := h.provider.last(); d != nil {
		t.Fatalf("real use-cases bound before the probe closed: %+v", d.uc)
	}

	h.sched.Flush()

	d := h.device()
	if want := UseCasesFor(PreviewAndCapture, CapturePhoto); d.uc != want {
		t.Errorf("use-cases = %+v, want %+v", d.uc, want)
	}
	if d.sink == nil {
		t.Error("preview sink not attached")
	}
	if got := h.c.Phase().Get(); got != PhaseBound {
		t.Errorf("phase = %v, want bound", got)
	}
	if !h.c.IsPreviewing().Get() {
		t.Error("IsPreviewing = false after open")
	}
	if h.provider.overlaps != 0 {
		t.Errorf("overlapping binds = %d", h.provider.overlaps)
	}
}

func TestLateCloseAfterRebindIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.c.Setup(nopSink{}, h.rotation)

	// The first probe's CLOSED is still queued when the lens changes.
	h.lens.Set(LensBack)
	h.sched.Flush()

	var real []*fakeDevice
	for _, d := range h.provider.devices {
		if !d.uc.Empty() {
			real = append(real, d)
		}
	}
	if len(real) != 1 {
		t.Fatalf("real binds = %d, want 1", len(real))
	}
	if real[0].lens != LensBack {
		t.Errorf("bound lens = %v, want back", real[0].lens)
	}
	if h.provider.overlaps != 0 {
		t.Errorf("overlapping binds = %d", h.provider.overlaps)
	}
}

func TestAtMostOneBinding(t *testing.T) {
	h := newHarness(t)
	h.setup()

	h.capture.Set(CaptureVideo)
	h.preview.Set(PreviewOnly)
	h.sched.Flush()
	h.lens.Set(LensBack)
	h.capture.Set(CapturePhotoAndVideo)
	h.preview.Set(CaptureOnly)
	h.sched.Flush()

	if h.provider.overlaps != 0 {
		t.Errorf("overlapping binds = %d", h.provider.overlaps)
	}
	live := 0
	for _, d := range h.provider.devices {
		if d.state.Get().Type != StateClosed {
			live++
		}
	}
	if live != 1 {
		t.Errorf("live devices = %d, want 1", live)
	}
	d := h.device()
	if want := (UseCases{Picture: true, Video: true}); d.uc != want {
		t.Errorf("use-cases = %+v, want %+v", d.uc, want)
	}
}

func TestModeChangeRebinds(t *testing.T) {
	h := newHarness(t)
	h.setup()
	first := h.device()

	h.capture.Set(CaptureVideo)
	h.sched.Flush()

	d := h.device()
	if d == first {
		t.Fatal("capture mode change did not rebind")
	}
	if first.state.Get().Type != StateClosed {
		t.Errorf("old device state = %v, want closed", first.state.Get().Type)
	}
	if want := (UseCases{Preview: true, Video: true}); d.uc != want {
		t.Errorf("use-cases = %+v, want %+v", d.uc, want)
	}
	if h.events.cameras != 1 {
		t.Errorf("camera events = %d, want 1", h.events.cameras)
	}
}

func TestTakePicture(t *testing.T) {
	h := newHarness(t)
	h.setup()
	d := h.device()

	h.c.TakePicture()
	if len(d.pictures) != 1 {
		t.Fatalf("pictures = %d, want 1", len(d.pictures))
	}
	if !h.c.IsTakingPicture().Get() || !h.c.IsCapturing().Get() {
		t.Error("picture in flight not reported")
	}

	h.c.TakePicture()
	if len(d.pictures) != 1 {
		t.Errorf("second picture started while the first was in flight")
	}

	d.pictureCbs[0].OnSaved(d.pictures[0])
	if h.c.IsTakingPicture().Get() {
		t.Error("IsTakingPicture still true after save")
	}
	if h.events.pictures != 1 {
		t.Errorf("picture events = %d, want 1", h.events.pictures)
	}
}

func TestTakePictureBeforeOpenIsQueued(t *testing.T) {
	h := newHarness(t)
	h.c.Setup(nopSink{}, h.rotation)

	h.c.TakePicture()
	h.sched.Flush()

	if got := len(h.device().pictures); got != 1 {
		t.Errorf("pictures = %d, want 1", got)
	}
}

func TestQueuedPictureDroppedOnRebind(t *testing.T) {
	h := newHarness(t)
	h.provider.autoOpen = false
	h.setup()

	h.c.TakePicture()
	h.lens.Set(LensBack)
	h.sched.Flush()
	h.device().state.Set(State{Type: StateOpen})

	for _, d := range h.provider.devices {
		if len(d.pictures) != 0 {
			t.Errorf("device %v took %d pictures, want 0", d.lens, len(d.pictures))
		}
	}
}

func TestPictureError(t *testing.T) {
	h := newHarness(t)
	h.setup()
	d := h.device()

	h.c.TakePicture()
	d.pictureCbs[0].OnError(errBoom)

	if h.c.IsTakingPicture().Get() {
		t.Error("IsTakingPicture still true after error")
	}
	if !slices.Equal(h.notifier.notices, []string{NoticePhotoError}) {
		t.Errorf("notices = %v", h.notifier.notices)
	}
	if len(h.events.errs) != 1 {
		t.Errorf("errors recorded = %d, want 1", len(h.events.errs))
	}
}

func TestCaptureGating(t *testing.T) {
	tests := []struct {
		name      string
		pm        PreviewMode
		cm        CaptureMode
		pictures  int
		recording bool
	}{
		{"photo", PreviewAndCapture, CapturePhoto, 1, false},
		{"video", PreviewAndCapture, CaptureVideo, 0, true},
		{"both", PreviewAndCapture, CapturePhotoAndVideo, 1, true},
		{"preview only", PreviewOnly, CapturePhotoAndVideo, 0, false},
		{"capture only photo", CaptureOnly, CapturePhoto, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.preview.Set(tt.pm)
			h.capture.Set(tt.cm)
			h.setup()

			h.c.TakePicture()
			h.c.StartRecording()
			h.sched.Flush()

			d := h.device()
			if len(d.pictures) != tt.pictures {
				t.Errorf("pictures = %d, want %d", len(d.pictures), tt.pictures)
			}
			if got := h.c.IsRecording().Get(); got != tt.recording {
				t.Errorf("recording = %v, want %v", got, tt.recording)
			}
		})
	}
}

func TestCaptureByMode(t *testing.T) {
	h := newHarness(t)
	h.setup()

	h.c.Capture()
	if got := len(h.device().pictures); got != 1 {
		t.Errorf("photo capture took %d pictures, want 1", got)
	}

	h.capture.Set(CaptureVideo)
	h.sched.Flush()
	h.c.Capture()
	h.sched.Flush()
	if !h.c.IsRecording().Get() {
		t.Fatal("video capture did not start recording")
	}
	h.c.Capture()
	h.sched.Flush()
	if h.c.IsRecording().Get() {
		t.Error("second video capture did not stop recording")
	}

	h.capture.Set(CapturePhotoAndVideo)
	h.sched.Flush()
	d := h.device()
	h.c.Capture()
	h.sched.Flush()
	if len(d.pictures) != 0 || len(d.recordings) != 0 {
		t.Error("capture in photo-and-video mode did something")
	}
}

func TestRecording(t *testing.T) {
	h := newHarness(t)
	h.capture.Set(CaptureVideo)
	h.setup()
	d := h.device()

	h.c.StartRecording()
	h.c.StartRecording()
	if len(d.recordings) != 1 {
		t.Fatalf("recordings = %d, want 1", len(d.recordings))
	}
	if h.c.IsRecording().Get() {
		t.Error("recording reported before the start event")
	}
	h.sched.Flush()
	if !h.c.IsRecording().Get() {
		t.Fatal("recording not reported after the start event")
	}

	d.recordings[0].onEvent(RecordEvent{Type: RecordStatus, Duration: 3 * time.Second})
	if got := h.c.RecordedDuration().Get(); got != 3*time.Second {
		t.Errorf("duration = %v, want 3s", got)
	}

	h.c.ToggleRecording()
	h.sched.Flush()
	if h.c.IsRecording().Get() {
		t.Error("still recording after toggle")
	}
	if h.events.videos != 1 || h.events.lastVideo != 3*time.Second {
		t.Errorf("video events = %d (%v), want 1 (3s)", h.events.videos, h.events.lastVideo)
	}
}

func TestRebindStopsRecording(t *testing.T) {
	h := newHarness(t)
	h.capture.Set(CaptureVideo)
	h.setup()
	d := h.device()

	h.c.StartRecording()
	h.lens.Set(LensBack)
	h.sched.Flush()

	if !d.recordings[0].stopped {
		t.Error("recording not stopped on rebind")
	}
	if h.c.IsRecording().Get() {
		t.Error("new binding reports recording")
	}
}

func TestRecordingFinalizeError(t *testing.T) {
	h := newHarness(t)
	h.capture.Set(CaptureVideo)
	h.setup()
	d := h.device()

	h.c.StartRecording()
	h.sched.Flush()
	d.recordings[0].onEvent(RecordEvent{Type: RecordFinalize, Err: errBoom})

	if h.c.IsRecording().Get() {
		t.Error("still recording after failed finalize")
	}
	if !slices.Contains(h.notifier.notices, NoticeVideoError) {
		t.Errorf("notices = %v, want video error", h.notifier.notices)
	}
}

func TestSleepAfterTimeout(t *testing.T) {
	h := newHarness(t)
	h.timeout.Set(idle.Second5)
	h.setup()
	d := h.device()

	h.sched.Advance(4 * time.Second)
	if h.c.IsSleeping().Get() {
		t.Fatal("asleep before the timeout")
	}
	h.sched.Advance(time.Second)
	if !h.c.IsSleeping().Get() {
		t.Fatal("not asleep after the timeout")
	}
	if h.c.Binding() != nil {
		t.Error("binding kept while asleep")
	}
	if got := h.c.Phase().Get(); got != PhaseSleeping {
		t.Errorf("phase = %v, want sleeping", got)
	}
	h.sched.Flush()
	if d.state.Get().Type != StateClosed {
		t.Errorf("device state = %v, want closed", d.state.Get().Type)
	}

	h.sched.Advance(2 * time.Second)
	h.c.ExitSleepMode()
	h.sched.Flush()

	if h.c.IsSleeping().Get() {
		t.Fatal("still asleep after exit")
	}
	if got := h.c.Phase().Get(); got != PhaseBound {
		t.Errorf("phase = %v, want bound", got)
	}
	if !slices.Equal(h.events.sleeps, []time.Duration{2 * time.Second}) {
		t.Errorf("sleep events = %v, want [2s]", h.events.sleeps)
	}

	h.sched.Advance(5 * time.Second)
	if !h.c.IsSleeping().Get() {
		t.Error("timer not re-armed after waking")
	}
}

func TestCaptureHoldsOffSleep(t *testing.T) {
	h := newHarness(t)
	h.timeout.Set(idle.Second5)
	h.capture.Set(CaptureVideo)
	h.setup()

	h.sched.Advance(2 * time.Second)
	h.c.StartRecording()
	h.sched.Flush()

	h.sched.Advance(10 * time.Second)
	if h.c.IsSleeping().Get() {
		t.Fatal("slept while recording")
	}

	h.c.StopRecording()
	h.sched.Flush()
	h.sched.Advance(4 * time.Second)
	if h.c.IsSleeping().Get() {
		t.Fatal("slept before the timeout restarted after capture")
	}
	h.sched.Advance(time.Second)
	if !h.c.IsSleeping().Get() {
		t.Error("not asleep 5s after capture ended")
	}
}

func TestKeepAwake(t *testing.T) {
	h := newHarness(t)
	h.timeout.Set(idle.Second3)
	h.setup()

	h.c.KeepAwake(true)
	h.c.KeepAwake(true)
	h.c.KeepAwake(false)
	h.sched.Advance(time.Minute)
	if h.c.IsSleeping().Get() {
		t.Fatal("slept while held")
	}

	h.c.KeepAwake(false)
	h.sched.Advance(3 * time.Second)
	if !h.c.IsSleeping().Get() {
		t.Error("not asleep after the last hold was released")
	}
}

func TestEnterAndExitSleepMode(t *testing.T) {
	h := newHarness(t)
	h.setup()

	h.c.EnterSleepMode()
	if !h.c.IsSleeping().Get() || h.c.Binding() != nil {
		t.Fatal("EnterSleepMode did not release the camera")
	}
	h.c.EnterSleepMode()

	// Mode changes while asleep are remembered but not bound.
	n := len(h.provider.devices)
	h.lens.Set(LensBack)
	h.sched.Flush()
	if len(h.provider.devices) != n {
		t.Error("bound while asleep")
	}

	h.c.ToggleSleepMode()
	h.sched.Flush()
	if h.c.IsSleeping().Get() {
		t.Fatal("ToggleSleepMode did not wake")
	}
	if d := h.device(); d.lens != LensBack {
		t.Errorf("woke with lens %v, want back", d.lens)
	}
	if len(h.events.sleeps) != 1 {
		t.Errorf("sleep events = %d, want 1", len(h.events.sleeps))
	}
}

func TestImmediateTimeoutNeverBinds(t *testing.T) {
	h := newHarness(t)
	h.timeout.Set(idle.Immediately)
	h.setup()

	if !h.c.IsSleeping().Get() {
		t.Fatal("not asleep with immediate timeout")
	}
	h.c.ExitSleepMode()
	h.sched.Flush()
	if d := h.provider.last(); d != nil {
		t.Errorf("bound %+v with immediate timeout", d.uc)
	}
	if len(h.events.sleeps) != 0 {
		t.Errorf("sleep events = %v, want none", h.events.sleeps)
	}
}

func TestCriticalError(t *testing.T) {
	h := newHarness(t)
	h.setup()

	h.device().fail(3, true)
	if h.fatal != 0 {
		t.Fatal("critical handler ran synchronously")
	}
	h.sched.Flush()
	if h.fatal != 1 {
		t.Errorf("critical handler calls = %d, want 1", h.fatal)
	}
	if !slices.Equal(h.notifier.notices, []string{NoticeCameraError}) {
		t.Errorf("notices = %v", h.notifier.notices)
	}
}

func TestRecoverableError(t *testing.T) {
	h := newHarness(t)
	h.setup()

	h.device().fail(1, false)
	h.sched.Flush()
	if h.fatal != 0 {
		t.Errorf("critical handler ran for recoverable error")
	}
	if len(h.notifier.notices) != 0 {
		t.Errorf("notices = %v, want none", h.notifier.notices)
	}
	if len(h.events.errs) != 1 {
		t.Errorf("errors recorded = %d, want 1", len(h.events.errs))
	}
}

func TestBindErrorIsCritical(t *testing.T) {
	h := newHarness(t)
	h.provider.bindErr = errBoom
	h.setup()

	if h.fatal != 1 {
		t.Errorf("critical handler calls = %d, want 1", h.fatal)
	}
	if !slices.Equal(h.notifier.notices, []string{NoticeCameraError}) {
		t.Errorf("notices = %v", h.notifier.notices)
	}
}

func TestZoom(t *testing.T) {
	h := newHarness(t)
	if got := h.c.ZoomRatio(); got != 1 {
		t.Errorf("ZoomRatio without device = %v, want 1", got)
	}
	h.c.SetZoomRatio(4)
	if got := h.zoomPct.Get(); got != 0 {
		t.Errorf("SetZoomRatio without device stored %v", got)
	}

	h.setup()
	d := h.device()

	h.zoomPct.Set(1)
	if d.ratio != 8 {
		t.Errorf("ratio at full zoom = %v, want 8", d.ratio)
	}
	h.zoomPct.Set(-1)
	if d.ratio != 0.5 {
		t.Errorf("ratio at min zoom = %v, want 0.5", d.ratio)
	}

	h.c.SetZoomRatio(2)
	if math.Abs(d.ratio-2) > 1e-9 {
		t.Errorf("ratio after SetZoomRatio(2) = %v", d.ratio)
	}
	if got := h.c.ZoomRatio(); math.Abs(got-2) > 1e-9 {
		t.Errorf("ZoomRatio = %v, want 2", got)
	}
}

func TestRotationFollowsDisplay(t *testing.T) {
	h := newHarness(t)
	h.rotation.Set(window.Rotation90)
	h.setup()
	d := h.device()
	if d.rotation != window.Rotation90 {
		t.Errorf("initial rotation = %v, want 90", d.rotation)
	}
	h.rotation.Set(window.Rotation270)
	if d.rotation != window.Rotation270 {
		t.Errorf("rotation = %v, want 270", d.rotation)
	}
}

func TestShutdown(t *testing.T) {
	h := newHarness(t)
	h.timeout.Set(idle.Second5)
	h.setup()
	d := h.device()

	h.c.Shutdown()
	h.sched.Flush()
	if d.state.Get().Type != StateClosed {
		t.Errorf("device state = %v, want closed", d.state.Get().Type)
	}
	n := len(h.provider.devices)
	h.lens.Set(LensBack)
	h.sched.Advance(time.Minute)
	if len(h.provider.devices) != n {
		t.Error("bound after shutdown")
	}
	if h.sched.Pending() != 0 {
		t.Errorf("pending timers = %d, want 0", h.sched.Pending())
	}
}
