package camera

import (
	"errors"
	"image"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/phinze/inviscam/internal/idle"
	"github.com/phinze/inviscam/internal/loop"
	"github.com/phinze/inviscam/internal/mediastore"
	"github.com/phinze/inviscam/internal/reactive"
	"github.com/phinze/inviscam/internal/window"
	"github.com/phinze/inviscam/internal/zoom"
)

type fakeProvider struct {
	sched    *loop.Manual
	bound    *fakeDevice
	devices  []*fakeDevice
	bindErr  error
	autoOpen bool

	overlaps int
	unbinds  int
}

func (p *fakeProvider) Bind(lens LensFacing, uc UseCases) (Device, error) {
	if p.bindErr != nil {
		return nil, p.bindErr
	}
	if p.bound != nil {
		p.overlaps++
	}
	d := &fakeDevice{
		sched: p.sched,
		lens:  lens,
		uc:    uc,
		state: reactive.NewCell(State{Type: StatePendingOpen}),
		zr:    zoom.Range{Min: 0.5, Max: 8},
		ratio: 1,
	}
	p.bound = d
	p.devices = append(p.devices, d)
	if p.autoOpen && !uc.Empty() {
		p.sched.Post(func() {
			if d.state.Get().Type == StatePendingOpen {
				d.state.Set(State{Type: StateOpen})
			}
		})
	}
	return d, nil
}

// UnbindAll closes the bound device asynchronously, the way real cameras do.
func (p *fakeProvider) UnbindAll() {
	p.unbinds++
	d := p.bound
	if d == nil {
		return
	}
	p.bound = nil
	d.state.Set(State{Type: StateClosing})
	p.sched.Post(func() { d.state.Set(State{Type: StateClosed}) })
}

// last returns the most recent device bound with a non-empty use-case set.
func (p *fakeProvider) last() *fakeDevice {
	for i := len(p.devices) - 1; i >= 0; i-- {
		if !p.devices[i].uc.Empty() {
			return p.devices[i]
		}
	}
	return nil
}

type fakeRecording struct {
	d       *fakeDevice
	onEvent func(RecordEvent)
	stopped bool
}

func (r *fakeRecording) Stop() {
	if r.stopped {
		return
	}
	r.stopped = true
	r.d.sched.Post(func() { r.onEvent(RecordEvent{Type: RecordFinalize}) })
}

type fakeDevice struct {
	sched    *loop.Manual
	lens     LensFacing
	uc       UseCases
	state    *reactive.Cell[State]
	zr       zoom.Range
	ratio    float64
	rotation window.Rotation
	sink     PreviewSink

	pictures   []string
	pictureCbs []PictureCallbacks
	recordings []*fakeRecording
}

func (d *fakeDevice) State() reactive.Observable[State]   { return d.state }
func (d *fakeDevice) ZoomRange() zoom.Range               { return d.zr }
func (d *fakeDevice) ZoomRatio() float64                  { return d.ratio }
func (d *fakeDevice) SetZoomRatio(r float64)              { d.ratio = d.zr.Clamp(r) }
func (d *fakeDevice) SetTargetRotation(r window.Rotation) { d.rotation = r }
func (d *fakeDevice) SetPreviewSink(s PreviewSink)        { d.sink = s }

func (d *fakeDevice) TakePicture(path string, cb PictureCallbacks) {
	d.pictures = append(d.pictures, path)
	d.pictureCbs = append(d.pictureCbs, cb)
}

func (d *fakeDevice) StartRecording(path string, audio bool, onEvent func(RecordEvent)) Recording {
	r := &fakeRecording{d: d, onEvent: onEvent}
	d.recordings = append(d.recordings, r)
	d.sched.Post(func() { onEvent(RecordEvent{Type: RecordStart}) })
	return r
}

func (d *fakeDevice) fail(code int, critical bool) {
	d.state.Set(State{Type: d.state.Get().Type, Err: &StateError{Code: code, Critical: critical}})
}

type fakeMedia struct {
	dir string
	n   int
	err error
}

func (m *fakeMedia) NewPath(k mediastore.Kind, t time.Time) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.n++
	return filepath.Join(m.dir, mediastore.FileName(k, t.Add(time.Duration(m.n)*time.Millisecond))), nil
}

type fakeNotifier struct{ notices []string }

func (n *fakeNotifier) Notice(id string) { n.notices = append(n.notices, id) }

type fakeEvents struct {
	cameras   int
	sleeps    []time.Duration
	pictures  int
	videos    int
	errs      []error
	lastVideo time.Duration
}

func (e *fakeEvents) Camera(LensFacing, PreviewMode, CaptureMode, time.Duration) { e.cameras++ }
func (e *fakeEvents) SleepMode(d time.Duration)                                  { e.sleeps = append(e.sleeps, d) }
func (e *fakeEvents) TakePicture(LensFacing)                                     { e.pictures++ }
func (e *fakeEvents) RecordError(err error)                                      { e.errs = append(e.errs, err) }

func (e *fakeEvents) RecordVideo(_ LensFacing, d time.Duration) {
	e.videos++
	e.lastVideo = d
}

type nopSink struct{}

func (nopSink) PublishFrame(image.Image) {}

type harness struct {
	t        *testing.T
	sched    *loop.Manual
	provider *fakeProvider
	media    *fakeMedia
	notifier *fakeNotifier
	events   *fakeEvents
	fatal    int

	lens     *reactive.Cell[LensFacing]
	preview  *reactive.Cell[PreviewMode]
	capture  *reactive.Cell[CaptureMode]
	timeout  *reactive.Cell[idle.Timeout]
	zoomPct  *reactive.Cell[float64]
	rotation *reactive.Cell[window.Rotation]

	c *Controller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	sched := loop.NewManual(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	h := &harness{
		t:        t,
		sched:    sched,
		provider: &fakeProvider{sched: sched, autoOpen: true},
		media:    &fakeMedia{dir: t.TempDir()},
		notifier: &fakeNotifier{},
		events:   &fakeEvents{},
		lens:     reactive.NewCell(LensFront),
		preview:  reactive.NewCell(PreviewAndCapture),
		capture:  reactive.NewCell(CapturePhoto),
		timeout:  reactive.NewCell(idle.Never),
		zoomPct:  reactive.NewCell(0.0),
		rotation: reactive.NewCell(window.Rotation0),
	}
	h.c = NewController(Options{
		Scheduler:       sched,
		Provider:        h.provider,
		Media:           h.media,
		Notifier:        h.notifier,
		Events:          h.events,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		OnCriticalError: func() { h.fatal++ },
	}, Settings{
		Lens:         h.lens,
		PreviewMode:  h.preview,
		CaptureMode:  h.capture,
		SleepTimeout: h.timeout,
		Zoom:         h.zoomPct,
		SetZoom:      h.zoomPct.Set,
	})
	t.Cleanup(h.c.Shutdown)
	return h
}

func (h *harness) setup() {
	h.c.Setup(nopSink{}, h.rotation)
	h.sched.Flush()
}

func (h *harness) device() *fakeDevice {
	h.t.Helper()
	d := h.provider.last()
	if d == nil {
		h.t.Fatal("no device bound")
	}
	return d
}

var errBoom = errors.New("boom")
