// Package coordinator runs camera overlay sessions: it starts and stops the
// session modules for a profile, and publishes status snapshots.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phinze/inviscam/internal/action"
	"github.com/phinze/inviscam/internal/analytics"
	"github.com/phinze/inviscam/internal/camera"
	"github.com/phinze/inviscam/internal/gesture"
	"github.com/phinze/inviscam/internal/loop"
	"github.com/phinze/inviscam/internal/module"
	"github.com/phinze/inviscam/internal/modules/fab"
	"github.com/phinze/inviscam/internal/overlay"
	"github.com/phinze/inviscam/internal/profile"
	"github.com/phinze/inviscam/internal/reactive"
	"github.com/phinze/inviscam/internal/render"

	cameramod "github.com/phinze/inviscam/internal/modules/camera"
	foregroundmod "github.com/phinze/inviscam/internal/modules/foreground"
	gesturemod "github.com/phinze/inviscam/internal/modules/gesture"
	"github.com/phinze/inviscam/internal/modules/lifecycle"
	"github.com/phinze/inviscam/internal/modules/preview"
	windowmod "github.com/phinze/inviscam/internal/modules/window"
)

// Options are the coordinator's collaborators.
type Options struct {
	Scheduler loop.Scheduler
	Store     *profile.Store
	Host      overlay.Host
	Provider  camera.Provider
	Media     camera.MediaStore
	Analytics *analytics.Recorder
	Renderer  *render.Renderer
	Gestures  gesture.Config
	Logger    *slog.Logger

	// Frames receives every preview frame, for streaming.
	Frames camera.PreviewSink
	// Audio enables audio on recordings.
	Audio bool

	// Modules builds the module set of a session in start order. The
	// default is lifecycle, foreground, gesture, window, preview, fab,
	// camera.
	Modules func() []module.Module
}

// Coordinator owns at most one running session. Start, Stop and Do must be
// called on the loop; Registry, Snapshot and Subscribe are safe anywhere.
type Coordinator struct {
	opts     Options
	logger   *slog.Logger
	registry *Registry

	ctx    context.Context
	cancel context.CancelFunc

	session *module.Session
	modules []module.Module
	failed  map[module.Module]bool

	mu     sync.Mutex
	status Status
	subs   map[int]func(Status)
	nextID int
}

// New creates a Coordinator with no running session.
func New(ctx context.Context, opts Options) *Coordinator {
	if opts.Modules == nil {
		opts.Modules = func() []module.Module {
			return DefaultModules(opts.Renderer, opts.Gestures)
		}
	}
	c := &Coordinator{
		opts:     opts,
		logger:   opts.Logger.With("component", "coordinator"),
		registry: &Registry{},
		subs:     make(map[int]func(Status)),
		status:   Status{Phase: camera.PhaseUnbound.String()},
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	return c
}

// DefaultModules returns the standard session modules in start order.
func DefaultModules(r *render.Renderer, cfg gesture.Config) []module.Module {
	return []module.Module{
		lifecycle.New(),
		foregroundmod.New(),
		gesturemod.New(cfg),
		windowmod.New(),
		preview.New(),
		fab.New(r),
		cameramod.New(),
	}
}

// Registry returns the read-only view of the running session.
func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// Session returns the running session, nil when stopped.
func (c *Coordinator) Session() *module.Session {
	return c.session
}

// Start runs profile id. The request is always reported; starting the
// profile already running is a no-op unless force is set. Any other running
// session is stopped first.
func (c *Coordinator) Start(id profile.ID, force bool, where module.StartWhere) error {
	c.opts.Analytics.StartService(id.String(), where.String())
	if c.session != nil {
		if c.session.Profile == id && !force {
			return nil
		}
		c.stopSession()
	}
	if err := c.opts.Store.Select(id); err != nil {
		return err
	}
	return c.startSession(id)
}

// Stop ends the running session, if any, and reports its uptime.
func (c *Coordinator) Stop(where module.StopWhere) {
	if c.session == nil {
		return
	}
	c.opts.Analytics.StopService(where.String(), c.opts.Scheduler.Now().Sub(c.session.Started))
	c.logger.Info("Stopping session", "where", where)
	c.stopSession()
}

// Close stops any session and cancels module contexts.
func (c *Coordinator) Close() {
	c.Stop(module.StopMain)
	c.cancel()
}

// Do runs a gesture action against the running session.
func (c *Coordinator) Do(a action.GestureAction) bool {
	if c.session == nil {
		return false
	}
	a.Execute(c.session.Actions())
	return true
}

func (c *Coordinator) startSession(id profile.ID) error {
	st := c.opts.Store.Profile(id)
	s := &module.Session{
		ID:        uuid.NewString(),
		Profile:   id,
		Settings:  st,
		Fab:       c.opts.Store.Fab(),
		Started:   c.opts.Scheduler.Now(),
		Sched:     c.opts.Scheduler,
		Logger:    c.opts.Logger,
		Host:      c.opts.Host,
		Analytics: c.opts.Analytics,
		Frames:    c.opts.Frames,
		Start: func(id profile.ID, where module.StartWhere) {
			if err := c.Start(id, false, where); err != nil {
				c.logger.Error("Failed to start session", "profile", id, "error", err)
			}
		},
		Stop: c.Stop,
	}
	s.Camera = camera.NewController(camera.Options{
		Scheduler: c.opts.Scheduler,
		Provider:  c.opts.Provider,
		Media:     c.opts.Media,
		Notifier:  c.opts.Host,
		Events:    c.opts.Analytics,
		Logger:    c.opts.Logger,
		Audio:     c.opts.Audio,
		OnCriticalError: func() {
			if c.session == s {
				c.Stop(module.StopError)
			}
		},
	}, camera.Settings{
		Lens:         st.Lens,
		PreviewMode:  st.PreviewMode,
		CaptureMode:  st.CaptureMode,
		SleepTimeout: st.SleepTimeout,
		Zoom:         st.Zoom.Value(),
		SetZoom:      st.Zoom.SetFraction,
	})

	c.session = s
	c.modules = c.opts.Modules()
	c.failed = make(map[module.Module]bool)

	// Initialize all modules (continue on error, just skip failed modules)
	for i, m := range c.modules {
		if err := m.Init(c.ctx, s); err != nil {
			if m.ID() == "camera" {
				c.logger.Error("Camera failed to start", "error", err)
				c.modules = c.modules[:i]
				c.stopSession()
				return fmt.Errorf("start camera: %w", err)
			}
			c.logger.Warn("Module failed to initialize (skipping)", "module", m.ID(), "error", err)
			c.failed[m] = true
		}
	}

	c.registry.set(id, s.ID, s.Started)
	reactive.Bind(&s.Scope, c.statusOf(s), c.publish)
	c.logger.Info("Ready!", "profile", id, "session", s.ID)
	return nil
}

func (c *Coordinator) stopSession() {
	s := c.session
	for i := len(c.modules) - 1; i >= 0; i-- {
		m := c.modules[i]
		if c.failed[m] {
			continue
		}
		if err := m.Stop(); err != nil {
			c.logger.Warn("Module failed to stop", "module", m.ID(), "error", err)
		}
	}
	s.Scope.Close()
	c.session = nil
	c.modules = nil
	c.failed = nil
	c.registry.clear()
	c.publish(Status{Phase: camera.PhaseUnbound.String()})
}

// Snapshot returns the latest status.
func (c *Coordinator) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Subscribe calls fn on the loop with every new status until cancelled.
func (c *Coordinator) Subscribe(fn func(Status)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Coordinator) publish(st Status) {
	c.mu.Lock()
	if st == c.status {
		c.mu.Unlock()
		return
	}
	c.status = st
	subs := make([]func(Status), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

// Status is a snapshot of the service for remote displays and clients.
type Status struct {
	Running       bool    `json:"running"`
	Session       string  `json:"session,omitempty"`
	Profile       string  `json:"profile,omitempty"`
	Phase         string  `json:"phase"`
	Lens          string  `json:"lens,omitempty"`
	PreviewMode   string  `json:"preview_mode,omitempty"`
	CaptureMode   string  `json:"capture_mode,omitempty"`
	Previewing    bool    `json:"previewing"`
	TakingPicture bool    `json:"taking_picture"`
	Recording     bool    `json:"recording"`
	RecordedMs    int64   `json:"recorded_ms"`
	Sleeping      bool    `json:"sleeping"`
	ZoomRatio     float64 `json:"zoom_ratio"`
}

// RecordedDuration returns the recorded time as a duration.
func (s Status) RecordedDuration() time.Duration {
	return time.Duration(s.RecordedMs) * time.Millisecond
}

func (c *Coordinator) statusOf(s *module.Session) reactive.Observable[Status] {
	cam := s.Camera
	st := s.Settings
	return reactive.Derive(func() Status {
		return Status{
			Running:       true,
			Session:       s.ID,
			Profile:       s.Profile.String(),
			Phase:         cam.Phase().Get().String(),
			Lens:          st.Lens.Get().String(),
			PreviewMode:   st.PreviewMode.Get().String(),
			CaptureMode:   st.CaptureMode.Get().String(),
			Previewing:    cam.IsPreviewing().Get(),
			TakingPicture: cam.IsTakingPicture().Get(),
			Recording:     cam.IsRecording().Get(),
			RecordedMs:    cam.RecordedDuration().Get().Milliseconds(),
			Sleeping:      cam.IsSleeping().Get(),
			ZoomRatio:     cam.ZoomRatio(),
		}
	},
		reactive.On(cam.Phase()),
		reactive.On[camera.LensFacing](st.Lens),
		reactive.On[camera.PreviewMode](st.PreviewMode),
		reactive.On[camera.CaptureMode](st.CaptureMode),
		reactive.On(cam.IsPreviewing()),
		reactive.On(cam.IsTakingPicture()),
		reactive.On(cam.IsRecording()),
		reactive.On(cam.RecordedDuration()),
		reactive.On(cam.IsSleeping()),
		reactive.On(st.Zoom.Value()),
	)
}

// Registry answers whether a session runs and which profile it is. It is
// safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	running bool
	profile profile.ID
	session string
	started time.Time
}

// IsRunning reports whether a session runs.
func (r *Registry) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// Profile returns the running profile.
func (r *Registry) Profile() (profile.ID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profile, r.running
}

// Started returns when the running session started.
func (r *Registry) Started() (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.started, r.running
}

func (r *Registry) set(id profile.ID, session string, started time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running, r.profile, r.session, r.started = true, id, session, started
}

func (r *Registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running, r.profile, r.session, r.started = false, 0, "", time.Time{}
}
