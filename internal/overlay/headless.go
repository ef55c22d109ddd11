package overlay

import (
	"image"
	"log/slog"
	"sort"
	"sync"

	"github.com/phinze/inviscam/internal/gesture"
	"github.com/phinze/inviscam/internal/window"
)

// Headless is a Host without a display. It keeps surfaces in memory and
// logs what a real host would show. Touches, menu picks and foreground
// stops can be injected, which makes it the host for servers and tests.
type Headless struct {
	logger *slog.Logger

	mu         sync.Mutex
	metrics    window.Metrics
	watchers   map[int]func(window.Metrics)
	nextID     int
	surfaces   map[string]*headlessSurface
	menu       []MenuItem
	foreground func()
	notices    []string
	opened     int
}

// NewHeadless creates a Headless host with the given geometry.
func NewHeadless(m window.Metrics, logger *slog.Logger) *Headless {
	return &Headless{
		logger:   logger.With("component", "overlay"),
		metrics:  m,
		watchers: make(map[int]func(window.Metrics)),
		surfaces: make(map[string]*headlessSurface),
	}
}

// Metrics implements window.Source.
func (h *Headless) Metrics() window.Metrics {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.metrics
}

// WatchMetrics implements window.Source.
func (h *Headless) WatchMetrics(fn func(window.Metrics)) (stop func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.watchers[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.watchers, id)
	}
}

// SetMetrics changes the geometry and notifies watchers.
func (h *Headless) SetMetrics(m window.Metrics) {
	h.mu.Lock()
	h.metrics = m
	fns := make([]func(window.Metrics), 0, len(h.watchers))
	for _, fn := range h.watchers {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(m)
	}
}

// AddSurface implements Host.
func (h *Headless) AddSurface(name string, p Params, onTouch func(gesture.TouchEvent)) Surface {
	s := &headlessSurface{host: h, name: name, params: p, onTouch: onTouch}
	h.mu.Lock()
	h.surfaces[name] = s
	h.mu.Unlock()
	h.logger.Debug("surface added", "name", name)
	return s
}

// Surface returns the current params of a named surface.
func (h *Headless) Surface(name string) (Params, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[name]
	if !ok {
		return Params{}, false
	}
	return s.params, true
}

// Surfaces lists the names of live surfaces.
func (h *Headless) Surfaces() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.surfaces))
	for name := range h.surfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Image returns the last content set on a named surface.
func (h *Headless) Image(name string) image.Image {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.surfaces[name]; ok {
		return s.img
	}
	return nil
}

// Touch delivers ev to a named surface. It reports false when the surface
// does not exist or does not take touches.
func (h *Headless) Touch(name string, ev gesture.TouchEvent) bool {
	h.mu.Lock()
	s, ok := h.surfaces[name]
	var fn func(gesture.TouchEvent)
	if ok && s.params.Touchable && s.params.Visible {
		fn = s.onTouch
	}
	h.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(ev)
	return true
}

// ShowMenu implements Host.
func (h *Headless) ShowMenu(x, y int, items []MenuItem) {
	h.mu.Lock()
	h.menu = items
	h.mu.Unlock()
	h.logger.Debug("menu shown", "x", x, "y", y, "items", len(items))
}

// Menu returns the last menu shown.
func (h *Headless) Menu() []MenuItem {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.menu
}

// PickMenu selects the item at index i of the last menu.
func (h *Headless) PickMenu(i int) bool {
	h.mu.Lock()
	items := h.menu
	h.menu = nil
	h.mu.Unlock()
	if i < 0 || i >= len(items) || items[i].Do == nil {
		return false
	}
	items[i].Do()
	return true
}

// StartForeground implements Host.
func (h *Headless) StartForeground(onStop func()) error {
	h.mu.Lock()
	h.foreground = onStop
	h.mu.Unlock()
	h.logger.Info("Running in foreground")
	return nil
}

// StopForeground implements Host.
func (h *Headless) StopForeground() {
	h.mu.Lock()
	h.foreground = nil
	h.mu.Unlock()
}

// InForeground reports whether the indicator is showing.
func (h *Headless) InForeground() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.foreground != nil
}

// RequestStop simulates the user stopping from the indicator.
func (h *Headless) RequestStop() bool {
	h.mu.Lock()
	fn := h.foreground
	h.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// OpenApp implements Host.
func (h *Headless) OpenApp() {
	h.mu.Lock()
	h.opened++
	h.mu.Unlock()
	h.logger.Info("Open app requested")
}

// Opened counts OpenApp calls.
func (h *Headless) Opened() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opened
}

// Notice implements Host.
func (h *Headless) Notice(id string) {
	h.mu.Lock()
	h.notices = append(h.notices, id)
	h.mu.Unlock()
	h.logger.Warn("notice", "id", id)
}

// Notices returns every notice shown so far.
func (h *Headless) Notices() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.notices...)
}

type headlessSurface struct {
	host    *Headless
	name    string
	params  Params
	img     image.Image
	onTouch func(gesture.TouchEvent)
}

func (s *headlessSurface) Update(p Params) {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()
	s.params = p
}

func (s *headlessSurface) SetImage(img image.Image) {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()
	s.img = img
}

func (s *headlessSurface) Remove() {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()
	if s.host.surfaces[s.name] == s {
		delete(s.host.surfaces, s.name)
	}
	s.host.logger.Debug("surface removed", "name", s.name)
}
