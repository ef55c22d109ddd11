package camera

import (
	"log/slog"
	"time"

	"github.com/phinze/inviscam/internal/mediastore"
	"github.com/phinze/inviscam/internal/reactive"
	"github.com/phinze/inviscam/internal/window"
)

// Binding is one configuration of the camera: a lens, a mode pair and the
// use-cases they imply. A Binding is never reused; every reconfiguration
// creates a new one and the old one becomes permanently unbound.
type Binding struct {
	c *Controller

	Lens        LensFacing
	PreviewMode PreviewMode
	CaptureMode CaptureMode
	UseCases    UseCases

	device *reactive.Cell[Device]
	open   reactive.Observable[bool]

	unbound   bool
	boundAt   time.Time
	rotation  window.Rotation
	sink      PreviewSink
	stopClose func()
	stopState func()

	// pending runs once the camera reports OPEN.
	pending  []func()
	stopOpen func()
	logger   *slog.Logger

	takingPicture    *reactive.Cell[bool]
	active           Recording
	recording        *reactive.Cell[Recording]
	recordedDuration *reactive.Cell[time.Duration]
}

func newBinding(c *Controller, lens LensFacing, pm PreviewMode, cm CaptureMode) *Binding {
	b := &Binding{
		c:                c,
		Lens:             lens,
		PreviewMode:      pm,
		CaptureMode:      cm,
		UseCases:         UseCasesFor(pm, cm),
		device:           reactive.NewCell[Device](nil),
		boundAt:          c.sched.Now(),
		logger:           c.logger.With("lens", lens.String(), "preview_mode", pm.String(), "capture_mode", cm.String()),
		takingPicture:    reactive.NewCell(false),
		recording:        reactive.NewCell[Recording](nil),
		recordedDuration: reactive.NewCell(time.Duration(0)),
	}
	b.open = reactive.SwitchMap(reactive.Observable[Device](b.device), func(d Device) reactive.Observable[bool] {
		if d == nil {
			return reactive.Const(false)
		}
		return reactive.Map(d.State(), func(s State) bool { return s.Type == StateOpen })
	})
	return b
}

// start binds with no use-cases to force any previous device instance to
// close, then waits for CLOSED before binding the real use-case set.
func (b *Binding) start() {
	p := b.c.provider
	probe, err := p.Bind(b.Lens, UseCases{})
	if err != nil {
		b.fail(err)
		return
	}
	p.UnbindAll()
	b.logger.Debug("waiting for camera to close before binding")
	b.stopClose = reactive.ObserveOnce(probe.State(), func(s State) bool {
		return s.Type == StateClosed
	}, func(State) {
		if b.unbound {
			return
		}
		dev, err := p.Bind(b.Lens, b.UseCases)
		if err != nil {
			b.fail(err)
			return
		}
		b.stopState = dev.State().Observe(b.onState)
		dev.SetTargetRotation(b.rotation)
		if b.UseCases.Preview && b.sink != nil {
			dev.SetPreviewSink(b.sink)
		}
		b.device.Set(dev)
		b.logger.Info("camera bound")
	})
}

func (b *Binding) fail(err error) {
	b.logger.Error("binding camera", "error", err)
	b.c.events.RecordError(err)
	b.c.notifier.Notice(NoticeCameraError)
	b.c.critical()
}

func (b *Binding) onState(s State) {
	if s.Err == nil {
		return
	}
	b.c.events.RecordError(s.Err)
	if !s.Err.Critical {
		b.logger.Warn("recoverable camera error", "code", s.Err.Code, "error", s.Err)
		return
	}
	b.logger.Error("critical camera error", "code", s.Err.Code, "error", s.Err)
	b.c.notifier.Notice(NoticeCameraError)
	b.c.critical()
}

// Device returns the bound device, nil while opening.
func (b *Binding) Device() Device {
	return b.device.Get()
}

// Unbound reports whether the binding has been torn down.
func (b *Binding) Unbound() bool {
	return b.unbound
}

// IsPreviewing reports whether the camera is open with a preview bound.
func (b *Binding) IsPreviewing() reactive.Observable[bool] {
	return reactive.Map(b.open, func(open bool) bool { return open && b.UseCases.Preview })
}

// IsTakingPicture reports a still capture in flight.
func (b *Binding) IsTakingPicture() reactive.Observable[bool] {
	return b.takingPicture
}

// IsRecording reports a running recording.
func (b *Binding) IsRecording() reactive.Observable[bool] {
	return reactive.Map(reactive.Observable[Recording](b.recording), func(r Recording) bool { return r != nil })
}

// RecordedDuration is the length of the current or last recording.
func (b *Binding) RecordedDuration() reactive.Observable[time.Duration] {
	return b.recordedDuration
}

func (b *Binding) setTargetRotation(r window.Rotation) {
	b.rotation = r
	if d := b.device.Get(); d != nil {
		d.SetTargetRotation(r)
	}
}

func (b *Binding) setPreviewSink(sink PreviewSink) {
	if !b.UseCases.Preview {
		return
	}
	b.sink = sink
	if d := b.device.Get(); d != nil {
		d.SetPreviewSink(sink)
	}
}

// whenOpen queues fn until the camera reports OPEN. The queue is dropped
// without running if the binding is torn down first.
func (b *Binding) whenOpen(fn func()) {
	if b.unbound {
		return
	}
	b.pending = append(b.pending, fn)
	if b.stopOpen != nil {
		return
	}
	fired := false
	stop := reactive.ObserveOnce(b.open, func(open bool) bool { return open }, func(bool) {
		fired = true
		b.stopOpen = nil
		queue := b.pending
		b.pending = nil
		for _, fn := range queue {
			if b.unbound {
				return
			}
			fn()
		}
	})
	if !fired {
		b.stopOpen = stop
	}
}

func (b *Binding) takePicture() {
	if !b.UseCases.Picture {
		return
	}
	b.whenOpen(func() {
		if b.takingPicture.Get() {
			return
		}
		path, err := b.c.media.NewPath(mediastore.Picture, b.c.sched.Now())
		if err != nil {
			b.pictureFailed(err)
			return
		}
		b.takingPicture.Set(true)
		b.device.Get().TakePicture(path, PictureCallbacks{
			OnSaved: func(path string) {
				b.takingPicture.Set(false)
				b.logger.Info("picture saved", "path", path)
				b.c.events.TakePicture(b.Lens)
			},
			OnError: b.pictureFailed,
		})
	})
}

func (b *Binding) pictureFailed(err error) {
	b.takingPicture.Set(false)
	b.logger.Error("taking picture", "error", err)
	b.c.notifier.Notice(NoticePhotoError)
	b.c.events.RecordError(err)
}

func (b *Binding) startRecording() {
	if !b.UseCases.Video {
		return
	}
	b.whenOpen(func() {
		if b.active != nil {
			return
		}
		path, err := b.c.media.NewPath(mediastore.Video, b.c.sched.Now())
		if err != nil {
			b.logger.Error("starting recording", "error", err)
			b.c.notifier.Notice(NoticeVideoError)
			b.c.events.RecordError(err)
			return
		}
		var rec Recording
		rec = b.device.Get().StartRecording(path, b.c.audio, func(ev RecordEvent) {
			switch ev.Type {
			case RecordStart:
				b.recording.Set(rec)
				b.recordedDuration.Set(0)
				b.logger.Info("recording started", "path", path)
			case RecordStatus:
				b.recordedDuration.Set(ev.Duration)
			case RecordFinalize:
				if b.active == rec {
					b.active = nil
				}
				b.recording.Set(nil)
				b.c.events.RecordVideo(b.Lens, b.recordedDuration.Get())
				if ev.Err != nil {
					b.logger.Error("recording failed", "error", ev.Err)
					b.c.notifier.Notice(NoticeVideoError)
					b.c.events.RecordError(ev.Err)
					return
				}
				b.logger.Info("recording saved", "path", path, "duration", b.recordedDuration.Get())
			}
		})
		b.active = rec
	})
}

func (b *Binding) stopRecording() {
	if !b.UseCases.Video {
		return
	}
	if b.active != nil {
		b.active.Stop()
	}
}

// unbindAll tears the binding down. Only the first call has any effect.
func (b *Binding) unbindAll() {
	if b.unbound {
		return
	}
	b.unbound = true
	b.stopRecording()
	if b.stopState != nil {
		b.stopState()
		b.stopState = nil
	}
	if b.stopClose != nil {
		b.stopClose()
		b.stopClose = nil
	}
	if b.stopOpen != nil {
		b.stopOpen()
		b.stopOpen = nil
	}
	b.pending = nil
	b.c.provider.UnbindAll()
	b.c.events.Camera(b.Lens, b.PreviewMode, b.CaptureMode, b.c.sched.Now().Sub(b.boundAt))
	b.logger.Info("camera unbound")
	b.c.onUnbound(b)
}
