// Package emulator simulates a phone screen and a Stream Deck Plus on the
// desktop. Screen is an overlay host and Deck a remote; both hold state and
// accept injected input. Package gui draws them in a window.
package emulator

import (
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/phinze/inviscam/internal/gesture"
	"github.com/phinze/inviscam/internal/overlay"
	"github.com/phinze/inviscam/internal/window"
)

// Screen chrome, in screen pixels.
const (
	StatusBarHeight = 24
	NavBarHeight    = 48
	MenuWidth       = 220
	MenuItemHeight  = 28

	noticeDuration = 3 * time.Second
	pinchHalfSpan  = 100.0
)

// Screen is an overlay.Host backed by memory. Surfaces stack in creation
// order, newest on top.
type Screen struct {
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	metrics    window.Metrics
	watchers   map[int]func(window.Metrics)
	nextID     int
	surfaces   []*surface
	menu       *menu
	foreground func()
	notices    []notice
	raise      bool

	touching *surface
	last     image.Point
}

type notice struct {
	id    string
	until time.Time
}

type menu struct {
	at    image.Point
	items []overlay.MenuItem
}

func (m *menu) bounds() image.Rectangle {
	return image.Rect(m.at.X, m.at.Y, m.at.X+MenuWidth, m.at.Y+len(m.items)*MenuItemHeight)
}

// NewScreen creates a screen of the given size.
func NewScreen(width, height int, logger *slog.Logger) *Screen {
	return &Screen{
		logger:   logger.With("component", "emulator"),
		now:      time.Now,
		metrics:  metricsFor(width, height),
		watchers: make(map[int]func(window.Metrics)),
	}
}

// metricsFor lays out the chrome: a status bar on top and a nav bar at the
// bottom, or on the right in landscape.
func metricsFor(width, height int) window.Metrics {
	m := window.Metrics{OuterWidth: width, OuterHeight: height}
	if width > height {
		m.Rotation = window.Rotation90
		m.InnerWidth, m.InnerHeight = width-NavBarHeight, height-StatusBarHeight
	} else {
		m.InnerWidth, m.InnerHeight = width, height-StatusBarHeight-NavBarHeight
	}
	return m.Normalize()
}

// Metrics implements window.Source.
func (s *Screen) Metrics() window.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

// WatchMetrics implements window.Source.
func (s *Screen) WatchMetrics(fn func(window.Metrics)) (stop func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, id)
	}
}

// Resize changes the screen size and notifies watchers when the geometry
// changed.
func (s *Screen) Resize(width, height int) {
	m := metricsFor(width, height)
	s.mu.Lock()
	if m == s.metrics {
		s.mu.Unlock()
		return
	}
	s.metrics = m
	fns := make([]func(window.Metrics), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	s.logger.Debug("screen resized", "width", width, "height", height, "rotation", m.Rotation.Degrees())
	for _, fn := range fns {
		fn(m)
	}
}

// AddSurface implements overlay.Host.
func (s *Screen) AddSurface(name string, p overlay.Params, onTouch func(gesture.TouchEvent)) overlay.Surface {
	surf := &surface{screen: s, name: name, params: p, onTouch: onTouch}
	s.mu.Lock()
	s.surfaces = append(s.surfaces, surf)
	s.mu.Unlock()
	return surf
}

// ShowMenu implements overlay.Host. The menu is kept on screen.
func (s *Screen) ShowMenu(x, y int, items []overlay.MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := len(items) * MenuItemHeight
	x = clamp(x, 0, s.metrics.OuterWidth-MenuWidth)
	y = clamp(y, StatusBarHeight, s.metrics.OuterHeight-h)
	s.menu = &menu{at: image.Pt(x, y), items: items}
}

// StartForeground implements overlay.Host.
func (s *Screen) StartForeground(onStop func()) error {
	s.mu.Lock()
	s.foreground = onStop
	s.mu.Unlock()
	s.logger.Info("Running in foreground")
	return nil
}

// StopForeground implements overlay.Host.
func (s *Screen) StopForeground() {
	s.mu.Lock()
	s.foreground = nil
	s.mu.Unlock()
}

// OpenApp implements overlay.Host.
func (s *Screen) OpenApp() {
	s.mu.Lock()
	s.raise = true
	s.mu.Unlock()
	s.logger.Info("Open app requested")
}

// TakeRaise reports and clears a pending OpenApp.
func (s *Screen) TakeRaise() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.raise
	s.raise = false
	return r
}

// Notice implements overlay.Host.
func (s *Screen) Notice(id string) {
	s.mu.Lock()
	s.notices = append(s.notices, notice{id: id, until: s.now().Add(noticeDuration)})
	s.mu.Unlock()
	s.logger.Warn("notice", "id", id)
}

// Press starts a touch at screen point x, y. An open menu takes the press
// first, then the status bar, then the topmost touchable surface. It reports
// whether anything took the press.
func (s *Screen) Press(x, y int) bool {
	pt := image.Pt(x, y)
	s.mu.Lock()
	if m := s.menu; m != nil {
		s.menu = nil
		s.mu.Unlock()
		if !pt.In(m.bounds()) {
			return true
		}
		if item := m.items[(y-m.at.Y)/MenuItemHeight]; item.Do != nil {
			item.Do()
		}
		return true
	}
	if y < StatusBarHeight && s.foreground != nil {
		onStop := s.foreground
		s.mu.Unlock()
		onStop()
		return true
	}
	surf := s.hit(pt)
	if surf == nil {
		s.mu.Unlock()
		return false
	}
	s.touching = surf
	s.last = pt
	ev := touchEvent(gesture.ActionDown, s.now(), surf.local(pt))
	s.mu.Unlock()

	surf.onTouch(ev)
	return true
}

// Drag moves the current touch.
func (s *Screen) Drag(x, y int) {
	pt := image.Pt(x, y)
	s.mu.Lock()
	surf := s.touching
	if surf == nil || pt == s.last {
		s.mu.Unlock()
		return
	}
	s.last = pt
	ev := touchEvent(gesture.ActionMove, s.now(), surf.local(pt))
	s.mu.Unlock()

	surf.onTouch(ev)
}

// Release ends the current touch.
func (s *Screen) Release(x, y int) {
	pt := image.Pt(x, y)
	s.mu.Lock()
	surf := s.touching
	s.touching = nil
	if surf == nil {
		s.mu.Unlock()
		return
	}
	ev := touchEvent(gesture.ActionUp, s.now(), surf.local(pt))
	s.mu.Unlock()

	surf.onTouch(ev)
}

// Wheel turns a scroll over a surface into a two finger pinch around the
// cursor, spreading for positive dy.
func (s *Screen) Wheel(x, y int, dy float64) bool {
	if dy == 0 {
		return false
	}
	pt := image.Pt(x, y)
	s.mu.Lock()
	surf := s.touching
	if surf == nil {
		surf = s.hit(pt)
	} else {
		surf = nil
	}
	if surf == nil {
		s.mu.Unlock()
		return false
	}
	now := s.now()
	c := surf.local(pt)
	s.mu.Unlock()

	factor := 1.1
	if dy < 0 {
		factor = 0.9
	}
	pair := func(half float64) []gesture.Pointer {
		return []gesture.Pointer{
			{ID: 0, X: c.X - half, Y: c.Y},
			{ID: 1, X: c.X + half, Y: c.Y},
		}
	}
	// The first move clears the span slop, the second carries the factor.
	begin := pinchHalfSpan * factor
	seq := []gesture.TouchEvent{
		{Action: gesture.ActionDown, Pointers: pair(pinchHalfSpan)[:1]},
		{Action: gesture.ActionPointerDown, Index: 1, Pointers: pair(pinchHalfSpan)},
		{Action: gesture.ActionMove, Pointers: pair(begin)},
		{Action: gesture.ActionMove, Pointers: pair(begin * factor)},
		{Action: gesture.ActionPointerUp, Index: 1, Pointers: pair(begin * factor)},
		{Action: gesture.ActionUp, Pointers: pair(begin * factor)[:1]},
	}
	for _, ev := range seq {
		ev.Time = now
		surf.onTouch(ev)
	}
	return true
}

// hit returns the topmost visible touchable surface under pt. Callers hold
// the lock.
func (s *Screen) hit(pt image.Point) *surface {
	for i := len(s.surfaces) - 1; i >= 0; i-- {
		surf := s.surfaces[i]
		if !surf.params.Visible || !surf.params.Touchable || surf.onTouch == nil {
			continue
		}
		if pt.In(surf.bounds()) {
			return surf
		}
	}
	return nil
}

// SurfaceView is a surface as drawn.
type SurfaceView struct {
	Name   string
	Bounds image.Rectangle
	Alpha  float64
	Image  image.Image
	// Version changes whenever Image does.
	Version int
}

// Frame is everything the screen shows at one instant.
type Frame struct {
	Metrics    window.Metrics
	Surfaces   []SurfaceView
	Menu       []overlay.MenuItem
	MenuBounds image.Rectangle
	Foreground bool
	Notices    []string
}

// Frame snapshots the screen, bottom surface first. Expired notices are
// dropped.
func (s *Screen) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := Frame{Metrics: s.metrics, Foreground: s.foreground != nil}
	for _, surf := range s.surfaces {
		if !surf.params.Visible {
			continue
		}
		f.Surfaces = append(f.Surfaces, SurfaceView{
			Name:    surf.name,
			Bounds:  surf.bounds(),
			Alpha:   surf.params.Alpha,
			Image:   surf.img,
			Version: surf.version,
		})
	}
	if s.menu != nil {
		f.Menu = s.menu.items
		f.MenuBounds = s.menu.bounds()
	}
	now := s.now()
	live := s.notices[:0]
	for _, n := range s.notices {
		if now.Before(n.until) {
			live = append(live, n)
			f.Notices = append(f.Notices, n.id)
		}
	}
	s.notices = live
	return f
}

type surface struct {
	screen  *Screen
	name    string
	params  overlay.Params
	img     image.Image
	version int
	onTouch func(gesture.TouchEvent)
}

// bounds is the surface rectangle in screen pixels. Surfaces that respect
// limits are laid out below the status bar.
func (s *surface) bounds() image.Rectangle {
	x, y := s.params.X, s.params.Y
	if !s.params.NoLimits {
		y += StatusBarHeight
	}
	return image.Rect(x, y, x+s.params.Width, y+s.params.Height)
}

// local maps a screen point into the coordinates the surface is placed in.
func (s *surface) local(pt image.Point) gesture.Pointer {
	if !s.params.NoLimits {
		pt.Y -= StatusBarHeight
	}
	return gesture.Pointer{X: float64(pt.X), Y: float64(pt.Y)}
}

func touchEvent(a gesture.Action, t time.Time, p gesture.Pointer) gesture.TouchEvent {
	return gesture.TouchEvent{Action: a, Pointers: []gesture.Pointer{p}, Time: t}
}

func (s *surface) Update(p overlay.Params) {
	s.screen.mu.Lock()
	defer s.screen.mu.Unlock()
	s.params = p
}

func (s *surface) SetImage(img image.Image) {
	s.screen.mu.Lock()
	defer s.screen.mu.Unlock()
	s.img = img
	s.version++
}

func (s *surface) Remove() {
	s.screen.mu.Lock()
	defer s.screen.mu.Unlock()
	for i, surf := range s.screen.surfaces {
		if surf == s {
			s.screen.surfaces = append(s.screen.surfaces[:i], s.screen.surfaces[i+1:]...)
			break
		}
	}
	if s.screen.touching == s {
		s.screen.touching = nil
	}
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
