package sim

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/phinze/inviscam/internal/camera"
	"github.com/phinze/inviscam/internal/loop"
	"github.com/phinze/inviscam/internal/reactive"
	"github.com/phinze/inviscam/internal/window"
	"github.com/phinze/inviscam/internal/zoom"
)

var (
	errNotOpen   = errors.New("camera not open")
	errNoUseCase = errors.New("use-case not bound")
)

// Device is a simulated camera device. State and callbacks are confined to
// the session loop; the frame pump runs on its own goroutine.
type Device struct {
	p      *Provider
	sched  loop.Scheduler
	cfg    Config
	logger *slog.Logger

	lens  camera.LensFacing
	uc    camera.UseCases
	state *reactive.Cell[camera.State]
	zr    zoom.Range

	timers   []loop.Timer
	stopPump context.CancelFunc
	pumpDone chan struct{}

	mu       sync.Mutex
	ratio    float64
	rotation window.Rotation
	sink     camera.PreviewSink
	recs     map[*recording]struct{}
}

func newDevice(p *Provider, lens camera.LensFacing, uc camera.UseCases) *Device {
	return &Device{
		p:      p,
		sched:  p.sched,
		cfg:    p.cfg,
		logger: p.logger.With("lens", lens.String()),
		lens:   lens,
		uc:     uc,
		state:  reactive.NewCell(camera.State{Type: camera.StatePendingOpen}),
		zr:     p.zoomRange(),
		ratio:  1,
		recs:   make(map[*recording]struct{}),
	}
}

func (d *Device) scheduleOpen() {
	d.timers = append(d.timers,
		d.sched.AfterFunc(d.cfg.OpenDelay/2, func() {
			d.state.Set(camera.State{Type: camera.StateOpening})
		}),
		d.sched.AfterFunc(d.cfg.OpenDelay, func() {
			d.state.Set(camera.State{Type: camera.StateOpen})
			d.startPump()
			d.logger.Debug("camera open")
		}),
	)
}

func (d *Device) close() {
	for _, t := range d.timers {
		t.Stop()
	}
	d.timers = nil
	d.stopRecordings()
	d.haltPump()
	if d.state.Get().Type == camera.StateClosed {
		return
	}
	d.state.Set(camera.State{Type: camera.StateClosing})
	d.sched.Post(func() {
		d.state.Set(camera.State{Type: camera.StateClosed})
		d.logger.Debug("camera closed")
	})
}

func (d *Device) fail(err *camera.StateError) {
	typ := d.state.Get().Type
	if err.Critical {
		for _, t := range d.timers {
			t.Stop()
		}
		d.timers = nil
		d.stopRecordings()
		d.haltPump()
		typ = camera.StateClosed
	}
	d.state.Set(camera.State{Type: typ, Err: err})
}

func (d *Device) stopRecordings() {
	d.mu.Lock()
	recs := make([]*recording, 0, len(d.recs))
	for r := range d.recs {
		recs = append(recs, r)
	}
	d.mu.Unlock()
	for _, r := range recs {
		r.Stop()
	}
}

// State implements camera.Device.
func (d *Device) State() reactive.Observable[camera.State] { return d.state }

// ZoomRange implements camera.Device.
func (d *Device) ZoomRange() zoom.Range { return d.zr }

// ZoomRatio implements camera.Device.
func (d *Device) ZoomRatio() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ratio
}

// SetZoomRatio implements camera.Device.
func (d *Device) SetZoomRatio(ratio float64) {
	d.mu.Lock()
	d.ratio = d.zr.Clamp(ratio)
	d.mu.Unlock()
}

// SetTargetRotation implements camera.Device.
func (d *Device) SetTargetRotation(r window.Rotation) {
	d.mu.Lock()
	d.rotation = r
	d.mu.Unlock()
}

// SetPreviewSink implements camera.Device.
func (d *Device) SetPreviewSink(sink camera.PreviewSink) {
	if !d.uc.Preview {
		return
	}
	d.mu.Lock()
	d.sink = sink
	d.mu.Unlock()
}

func (d *Device) params() (float64, window.Rotation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ratio, d.rotation
}

// TakePicture implements camera.Device. The frame is rendered and encoded
// off the loop; cb runs on the loop.
func (d *Device) TakePicture(path string, cb camera.PictureCallbacks) {
	if err := d.ready(d.uc.Picture); err != nil {
		d.sched.Post(func() { cb.OnError(err) })
		return
	}
	ratio, rot := d.params()
	at := d.sched.Now()
	go func() {
		img := renderFrame(d.lens, d.cfg.Width, d.cfg.Height, ratio, rot, at)
		err := writeJPEG(path, img)
		d.sched.Post(func() {
			if err != nil {
				cb.OnError(err)
				return
			}
			cb.OnSaved(path)
		})
	}()
}

// StartRecording implements camera.Device. Audio is not simulated.
func (d *Device) StartRecording(path string, audio bool, onEvent func(camera.RecordEvent)) camera.Recording {
	r := &recording{d: d, path: path, onEvent: onEvent}
	if err := d.ready(d.uc.Video); err != nil {
		r.finish(err)
		return r
	}
	if audio {
		d.logger.Debug("audio is not simulated; recording video only")
	}
	enc, err := startEncoder(d.cfg.FFmpeg, path, d.cfg.FPS)
	if err != nil {
		r.finish(fmt.Errorf("starting encoder: %w", err))
		return r
	}
	r.start(enc)
	return r
}

func (d *Device) ready(bound bool) error {
	switch {
	case !bound:
		return errNoUseCase
	case d.state.Get().Type != camera.StateOpen:
		return errNotOpen
	}
	return nil
}

func (d *Device) startPump() {
	ctx, cancel := context.WithCancel(context.Background())
	d.stopPump = cancel
	d.pumpDone = make(chan struct{})
	go d.pump(ctx, d.pumpDone)
}

func (d *Device) haltPump() {
	if d.stopPump == nil {
		return
	}
	d.stopPump()
	<-d.pumpDone
	d.stopPump = nil
	d.pumpDone = nil
}

// pump renders frames at the configured rate while anyone is consuming them.
func (d *Device) pump(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Second / time.Duration(d.cfg.FPS))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			d.mu.Lock()
			sink, ratio, rot, busy := d.sink, d.ratio, d.rotation, len(d.recs) > 0
			d.mu.Unlock()
			if sink == nil && !busy {
				continue
			}
			img := renderFrame(d.lens, d.cfg.Width, d.cfg.Height, ratio, rot, now)
			if sink != nil {
				sink.PublishFrame(img)
			}
			if busy {
				d.feed(img)
			}
		}
	}
}

func (d *Device) feed(img image.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for r := range d.recs {
		select {
		case r.frames <- img:
		default:
			r.dropped++
		}
	}
}

func writeJPEG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating picture: %w", err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 92}); err != nil {
		_ = f.Close()
		return fmt.Errorf("encoding picture: %w", err)
	}
	return f.Close()
}
