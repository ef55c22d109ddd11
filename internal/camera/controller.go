package camera

import (
	"log/slog"
	"time"

	"github.com/phinze/inviscam/internal/idle"
	"github.com/phinze/inviscam/internal/loop"
	"github.com/phinze/inviscam/internal/reactive"
	"github.com/phinze/inviscam/internal/window"
	"github.com/phinze/inviscam/internal/zoom"
)

// Phase is the externally visible session state.
type Phase uint8

const (
	// PhaseUnbound has no binding.
	PhaseUnbound Phase = iota + 1
	// PhaseOpening has a binding waiting for the device.
	PhaseOpening
	// PhaseBound has a ready device.
	PhaseBound
	// PhaseSleeping has released the camera to save power.
	PhaseSleeping
)

func (p Phase) String() string {
	switch p {
	case PhaseUnbound:
		return "unbound"
	case PhaseOpening:
		return "opening"
	case PhaseBound:
		return "bound"
	case PhaseSleeping:
		return "sleeping"
	}
	return "unknown"
}

// Settings are the configuration inputs the controller follows.
type Settings struct {
	Lens         reactive.Observable[LensFacing]
	PreviewMode  reactive.Observable[PreviewMode]
	CaptureMode  reactive.Observable[CaptureMode]
	SleepTimeout reactive.Observable[idle.Timeout]

	// Zoom is the zoom percentage in [-1, 1]; SetZoom writes it back.
	Zoom    reactive.Observable[float64]
	SetZoom func(p float64)
}

// Options are the controller's collaborators.
type Options struct {
	Scheduler loop.Scheduler
	Provider  Provider
	Media     MediaStore
	Notifier  Notifier
	Events    Events
	Logger    *slog.Logger

	// Audio enables audio on recordings.
	Audio bool

	// OnCriticalError is posted to the loop when the camera fails in a way
	// that should end the session.
	OnCriticalError func()
}

// Controller is the camera session controller. All methods must be called
// on the session loop.
type Controller struct {
	sched    loop.Scheduler
	provider Provider
	media    MediaStore
	notifier Notifier
	events   Events
	logger   *slog.Logger
	audio    bool
	onFatal  func()

	settings Settings

	binding   *reactive.Cell[*Binding]
	keepAwake *reactive.Cell[int]
	sleep     *idle.Policy
	scope     reactive.Scope

	sleepingSince time.Time
	wasSleeping   bool

	device           reactive.Observable[Device]
	isTakingPicture  reactive.Observable[bool]
	isRecording      reactive.Observable[bool]
	recordedDuration reactive.Observable[time.Duration]
	isPreviewing     reactive.Observable[bool]
	isCapturing      reactive.Observable[bool]
	phase            reactive.Observable[Phase]
}

// NewController creates an idle controller. Call Setup to start following
// settings.
func NewController(opts Options, settings Settings) *Controller {
	c := &Controller{
		sched:     opts.Scheduler,
		provider:  opts.Provider,
		media:     opts.Media,
		notifier:  opts.Notifier,
		events:    opts.Events,
		logger:    opts.Logger.With("component", "camera"),
		audio:     opts.Audio,
		onFatal:   opts.OnCriticalError,
		settings:  settings,
		binding:   reactive.NewCell[*Binding](nil),
		keepAwake: reactive.NewCell(0),
		sleep:     idle.NewPolicy(opts.Scheduler),
	}

	bindings := reactive.Observable[*Binding](c.binding)
	c.device = reactive.SwitchMap(bindings, func(b *Binding) reactive.Observable[Device] {
		if b == nil {
			return reactive.Const[Device](nil)
		}
		return b.device
	})
	c.isTakingPicture = reactive.SwitchMap(bindings, func(b *Binding) reactive.Observable[bool] {
		if b == nil {
			return reactive.Const(false)
		}
		return b.IsTakingPicture()
	})
	c.isRecording = reactive.SwitchMap(bindings, func(b *Binding) reactive.Observable[bool] {
		if b == nil {
			return reactive.Const(false)
		}
		return b.IsRecording()
	})
	c.recordedDuration = reactive.SwitchMap(bindings, func(b *Binding) reactive.Observable[time.Duration] {
		if b == nil {
			return reactive.Const(time.Duration(0))
		}
		return b.RecordedDuration()
	})
	c.isPreviewing = reactive.SwitchMap(bindings, func(b *Binding) reactive.Observable[bool] {
		if b == nil {
			return reactive.Const(false)
		}
		return b.IsPreviewing()
	})
	c.isCapturing = reactive.Map(reactive.Combine2(c.isTakingPicture, c.isRecording), func(p reactive.Pair[bool, bool]) bool {
		return p.A || p.B
	})
	c.phase = reactive.Derive(func() Phase {
		switch {
		case c.sleep.IsIdle():
			return PhaseSleeping
		case c.binding.Get() == nil:
			return PhaseUnbound
		case c.device.Get() == nil:
			return PhaseOpening
		default:
			return PhaseBound
		}
	}, reactive.On(c.sleep.Idle()), reactive.On(bindings), reactive.On(c.device))
	return c
}

// Setup wires the controller to its inputs. preview receives frames while a
// preview use-case is bound; rotation is the display rotation.
func (c *Controller) Setup(preview PreviewSink, rotation reactive.Observable[window.Rotation]) {
	s := &c.scope
	bindings := reactive.Observable[*Binding](c.binding)

	reactive.Bind(s, bindings, func(b *Binding) {
		if b != nil && preview != nil {
			b.setPreviewSink(preview)
		}
	})
	reactive.Bind(s, reactive.Combine2(bindings, rotation), func(p reactive.Pair[*Binding, window.Rotation]) {
		if p.A != nil {
			p.A.setTargetRotation(p.B)
		}
	})
	reactive.Bind(s, reactive.Combine2(c.device, c.settings.Zoom), func(p reactive.Pair[Device, float64]) {
		if p.A != nil {
			p.A.SetZoomRatio(zoom.RatioFromPercentage(p.A.ZoomRange(), p.B))
		}
	})

	reactive.Bind(s, reactive.Combine3(c.settings.SleepTimeout, c.isCapturing, reactive.Observable[int](c.keepAwake)),
		func(t reactive.Triple[idle.Timeout, bool, int]) {
			held := t.C
			if t.B {
				held++
			}
			c.sleep.Evaluate(idle.Input{Timeout: t.A, Held: held})
		})
	s.Add(c.sleep.Cancel)

	reactive.Bind(s, reactive.Combine3(c.settings.Lens, c.settings.PreviewMode, c.settings.CaptureMode),
		func(t reactive.Triple[LensFacing, PreviewMode, CaptureMode]) {
			c.unbind()
			if c.sleep.IsIdle() {
				return
			}
			c.bind(t.A, t.B, t.C)
		})

	reactive.Bind(s, c.sleep.Idle(), func(sleeping bool) {
		if sleeping {
			c.sleepingSince = c.sched.Now()
			c.wasSleeping = true
			c.logger.Info("entering sleep mode")
			c.unbind()
			return
		}
		if c.binding.Get() == nil {
			c.bindCurrent()
		}
		if c.wasSleeping {
			c.wasSleeping = false
			d := c.sched.Now().Sub(c.sleepingSince)
			c.logger.Info("leaving sleep mode", "slept", d)
			c.events.SleepMode(d)
		}
	})
}

// Shutdown releases the camera and stops following settings.
func (c *Controller) Shutdown() {
	c.unbind()
	c.sleep.Cancel()
	c.scope.Close()
}

func (c *Controller) bind(lens LensFacing, pm PreviewMode, cm CaptureMode) *Binding {
	c.unbind()
	b := newBinding(c, lens, pm, cm)
	c.binding.Set(b)
	b.start()
	return b
}

func (c *Controller) bindCurrent() *Binding {
	return c.bind(c.settings.Lens.Get(), c.settings.PreviewMode.Get(), c.settings.CaptureMode.Get())
}

func (c *Controller) unbind() {
	if b := c.binding.Get(); b != nil {
		b.unbindAll()
	}
}

func (c *Controller) onUnbound(b *Binding) {
	if c.binding.Get() == b {
		c.binding.Set(nil)
	}
}

func (c *Controller) critical() {
	if c.onFatal != nil {
		c.sched.Post(c.onFatal)
	}
}

// Binding returns the current binding, nil when unbound.
func (c *Controller) Binding() *Binding {
	return c.binding.Get()
}

// Phase is the observable session phase.
func (c *Controller) Phase() reactive.Observable[Phase] { return c.phase }

// Device is the observable bound device, nil when none.
func (c *Controller) Device() reactive.Observable[Device] { return c.device }

// IsTakingPicture is true while a still capture is in flight.
func (c *Controller) IsTakingPicture() reactive.Observable[bool] { return c.isTakingPicture }

// IsRecording is true while a recording runs.
func (c *Controller) IsRecording() reactive.Observable[bool] { return c.isRecording }

// RecordedDuration is the current recording's length.
func (c *Controller) RecordedDuration() reactive.Observable[time.Duration] {
	return c.recordedDuration
}

// IsPreviewing is true while the camera is open with a preview bound.
func (c *Controller) IsPreviewing() reactive.Observable[bool] { return c.isPreviewing }

// IsCapturing is true while a picture or recording is in flight.
func (c *Controller) IsCapturing() reactive.Observable[bool] { return c.isCapturing }

// IsSleeping is the observable sleep flag.
func (c *Controller) IsSleeping() reactive.Observable[bool] { return c.sleep.Idle() }

// TakePicture captures a still. It does nothing in preview-only or video
// mode, or while another picture is in flight.
func (c *Controller) TakePicture() {
	pm, cm := c.settings.PreviewMode.Get(), c.settings.CaptureMode.Get()
	if pm == PreviewOnly || cm == CaptureVideo {
		return
	}
	b := c.binding.Get()
	if b == nil {
		b = c.bind(c.settings.Lens.Get(), pm, cm)
	}
	b.takePicture()
}

// StartRecording starts a recording. It does nothing in preview-only or
// photo mode, or while already recording.
func (c *Controller) StartRecording() {
	pm, cm := c.settings.PreviewMode.Get(), c.settings.CaptureMode.Get()
	if pm == PreviewOnly || cm == CapturePhoto {
		return
	}
	b := c.binding.Get()
	if b == nil {
		b = c.bind(c.settings.Lens.Get(), pm, cm)
	}
	b.startRecording()
}

// StopRecording stops the running recording, if any.
func (c *Controller) StopRecording() {
	if b := c.binding.Get(); b != nil {
		b.stopRecording()
	}
}

// ToggleRecording stops a running recording or starts a new one.
func (c *Controller) ToggleRecording() {
	if c.isRecording.Get() {
		c.StopRecording()
	} else {
		c.StartRecording()
	}
}

// Capture takes a picture in photo mode and toggles recording in video mode.
// In photo-and-video mode the intent is ambiguous and nothing happens.
func (c *Controller) Capture() {
	switch c.settings.CaptureMode.Get() {
	case CapturePhoto:
		c.TakePicture()
	case CaptureVideo:
		c.ToggleRecording()
	}
}

// KeepAwake adds (on) or removes (off) a hold that prevents sleep mode.
func (c *Controller) KeepAwake(on bool) {
	if on {
		c.keepAwake.Update(func(n int) int { return n + 1 })
		return
	}
	c.keepAwake.Update(func(n int) int { return max(n-1, 0) })
}

// EnterSleepMode releases the camera now.
func (c *Controller) EnterSleepMode() {
	if c.sleep.IsIdle() {
		return
	}
	c.unbind()
	c.sleep.Force(true)
}

// ExitSleepMode wakes the camera. With an immediate timeout it would fall
// straight back asleep, so it does nothing. Waking is a momentary keep-awake
// hold, which re-runs the sleep evaluation and rebinds.
func (c *Controller) ExitSleepMode() {
	if !c.sleep.IsIdle() || c.settings.SleepTimeout.Get() == idle.Immediately {
		return
	}
	c.KeepAwake(true)
	c.KeepAwake(false)
}

// ToggleSleepMode enters or exits sleep mode.
func (c *Controller) ToggleSleepMode() {
	if c.sleep.IsIdle() {
		c.ExitSleepMode()
	} else {
		c.EnterSleepMode()
	}
}

// ZoomRatio returns the bound device's zoom ratio, or 1.
func (c *Controller) ZoomRatio() float64 {
	if d := c.device.Get(); d != nil {
		return d.ZoomRatio()
	}
	return 1
}

// SetZoomRatio stores the percentage matching ratio. Without a bound device
// the range is unknown and nothing happens.
func (c *Controller) SetZoomRatio(ratio float64) {
	d := c.device.Get()
	if d == nil {
		return
	}
	c.settings.SetZoom(zoom.PercentageFromRatio(d.ZoomRange(), ratio))
}
