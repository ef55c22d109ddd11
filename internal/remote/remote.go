// Package remote drives the camera overlay from a Stream Deck Plus. Keys
// pick profiles and trigger the camera, dials adjust zoom and preview, and
// the touch strip shows what is running.
//
// Layout:
//
//	Key1..Key6  start a profile, held for a second to restart it
//	Key7        capture
//	Key8        toggle sleep, held for a second to stop
//	Dial1       zoom, press to switch lens
//	Dial2       preview size, press to stop
//	Dial3       preview opacity, press to toggle capture mode
//	Strip       tap to open the app, swipe to change profile
package remote

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/phinze/inviscam/internal/action"
	"github.com/phinze/inviscam/internal/camera"
	"github.com/phinze/inviscam/internal/coordinator"
	"github.com/phinze/inviscam/internal/device"
	"github.com/phinze/inviscam/internal/module"
	"github.com/phinze/inviscam/internal/profile"
	"github.com/phinze/inviscam/internal/render"
)

const (
	// LongHold is how long a key must be held for its second meaning.
	LongHold = time.Second

	zoomStep  = 0.05
	sizeStep  = 0.05
	alphaStep = 0.05

	// swipeMin is the strip distance, in strip pixels, that counts as a
	// swipe to another profile.
	swipeMin = 100
)

// ErrNotRunning is returned for session actions while nothing runs.
var ErrNotRunning = errors.New("service not running")

// Caller runs a function on the service loop and waits for it.
type Caller interface {
	Call(ctx context.Context, fn func()) error
}

// Remote maps deck input onto the coordinator and mirrors its status on the
// deck.
type Remote struct {
	coord      *coordinator.Coordinator
	store      *profile.Store
	loop       Caller
	renderer   *render.Renderer
	brightness byte
	logger     *slog.Logger
}

// New creates a Remote. Coordinator and store calls go through loop.
func New(coord *coordinator.Coordinator, store *profile.Store, loop Caller, r *render.Renderer, brightness byte, logger *slog.Logger) *Remote {
	return &Remote{
		coord:      coord,
		store:      store,
		loop:       loop,
		renderer:   r,
		brightness: brightness,
		logger:     logger.With("component", "remote"),
	}
}

// Run serves deck until ctx ends or the deck goes away. It returns nil when
// ctx ends.
func (r *Remote) Run(ctx context.Context, deck device.Deck) error {
	r.logger.Info("Connected", "model", deck.ModelName())

	v, err := newView(deck, r.renderer)
	if err != nil {
		return err
	}
	if err := deck.SetBrightness(r.brightness); err != nil {
		r.logger.Warn("set brightness", "error", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan device.Event, 16)
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- deck.Listen(ctx, events)
	}()

	var (
		mu     sync.Mutex
		latest coordinator.Status
	)
	changed := make(chan struct{}, 1)
	unsubscribe := r.coord.Subscribe(func(st coordinator.Status) {
		mu.Lock()
		latest = st
		mu.Unlock()
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	mu.Lock()
	latest = r.coord.Snapshot()
	mu.Unlock()
	v.show(latest, r.logger)

	r.logger.Info("Ready!")
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-listenErr:
			if err == nil {
				return nil
			}
			return fmt.Errorf("listen: %w", err)
		case <-changed:
			mu.Lock()
			st := latest
			mu.Unlock()
			v.show(st, r.logger)
		case ev := <-events:
			if err := r.handle(ctx, ev); err != nil && !errors.Is(err, ErrNotRunning) {
				r.logger.Warn("remote command failed", "event", ev.Kind, "error", err)
			}
		}
	}
}

// handle runs one deck event against the service.
func (r *Remote) handle(ctx context.Context, ev device.Event) error {
	switch ev.Kind {
	case device.EventKey:
		return r.key(ctx, ev.Key, ev.Held)
	case device.EventDialRotate:
		return r.rotate(ctx, ev.Dial, ev.Delta)
	case device.EventDialPress:
		return r.press(ctx, ev.Dial)
	case device.EventStripTouch:
		return r.action(ctx, action.OpenApp)
	case device.EventStripSwipe:
		return r.swipe(ctx, ev.Point, ev.To)
	}
	return nil
}

// profileKeys maps the top six keys to profiles in menu order.
func profileKeys() map[device.KeyID]profile.ID {
	ids := profile.IDs()
	keys := make(map[device.KeyID]profile.ID, len(ids))
	for i, id := range ids {
		keys[device.Key1+device.KeyID(i)] = id
	}
	return keys
}

func (r *Remote) key(ctx context.Context, key device.KeyID, held time.Duration) error {
	if id, ok := profileKeys()[key]; ok {
		return r.start(ctx, id, held >= LongHold)
	}
	switch key {
	case device.Key7:
		return r.action(ctx, action.Capture)
	case device.Key8:
		if held >= LongHold {
			return r.stop(ctx)
		}
		return r.action(ctx, action.ToggleSleepMode)
	}
	return nil
}

func (r *Remote) rotate(ctx context.Context, dial device.DialID, delta int8) error {
	step := float64(delta)
	switch dial {
	case device.Dial1:
		return r.settings(ctx, func(s *profile.Settings) {
			s.Zoom.SetFraction(s.Zoom.Fraction() + step*zoomStep)
		})
	case device.Dial2:
		return r.settings(ctx, func(s *profile.Settings) {
			s.PreviewSize.SetFraction(s.PreviewSize.Fraction() + step*sizeStep)
		})
	case device.Dial3:
		return r.settings(ctx, func(s *profile.Settings) {
			s.PreviewAlpha.SetFraction(s.PreviewAlpha.Fraction() + step*alphaStep)
		})
	}
	return nil
}

func (r *Remote) press(ctx context.Context, dial device.DialID) error {
	switch dial {
	case device.Dial1:
		return r.settings(ctx, func(s *profile.Settings) {
			if s.Lens.Get() == camera.LensFront {
				s.Lens.Set(camera.LensBack)
			} else {
				s.Lens.Set(camera.LensFront)
			}
		})
	case device.Dial2:
		return r.stop(ctx)
	case device.Dial3:
		return r.action(ctx, action.ToggleCaptureMode)
	}
	return nil
}

// swipe starts the next profile for a rightward swipe, the previous one for
// a leftward one.
func (r *Remote) swipe(ctx context.Context, from, to image.Point) error {
	dx := to.X - from.X
	if dx > -swipeMin && dx < swipeMin {
		return nil
	}
	var err error
	call := r.loop.Call(ctx, func() {
		ids := profile.IDs()
		cur := r.store.Selected().Get()
		if id, ok := r.coord.Registry().Profile(); ok {
			cur = id
		}
		i := 0
		for j, id := range ids {
			if id == cur {
				i = j
			}
		}
		if dx > 0 {
			i = (i + 1) % len(ids)
		} else {
			i = (i + len(ids) - 1) % len(ids)
		}
		err = r.coord.Start(ids[i], false, module.StartRemote)
	})
	if call != nil {
		return call
	}
	return err
}

func (r *Remote) start(ctx context.Context, id profile.ID, force bool) error {
	var err error
	if call := r.loop.Call(ctx, func() {
		err = r.coord.Start(id, force, module.StartRemote)
	}); call != nil {
		return call
	}
	return err
}

func (r *Remote) stop(ctx context.Context) error {
	return r.loop.Call(ctx, func() {
		r.coord.Stop(module.StopRemote)
	})
}

func (r *Remote) action(ctx context.Context, a action.GestureAction) error {
	ran := false
	if err := r.loop.Call(ctx, func() { ran = r.coord.Do(a) }); err != nil {
		return err
	}
	if !ran {
		return ErrNotRunning
	}
	return nil
}

// settings edits the running profile's settings. Locked settings ignore
// the edit.
func (r *Remote) settings(ctx context.Context, fn func(*profile.Settings)) error {
	running := false
	if err := r.loop.Call(ctx, func() {
		s := r.coord.Session()
		if s == nil {
			return
		}
		running = true
		fn(s.Settings)
	}); err != nil {
		return err
	}
	if !running {
		return ErrNotRunning
	}
	return nil
}
