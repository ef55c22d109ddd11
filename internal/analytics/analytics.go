// Package analytics records fire-and-forget usage events. Recording never
// blocks the caller and never fails it.
package analytics

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phinze/inviscam/internal/action"
	"github.com/phinze/inviscam/internal/camera"
)

// Event is one recorded occurrence.
type Event struct {
	Name    string         `json:"name"`
	Time    time.Time      `json:"time"`
	Session string         `json:"session"`
	Params  map[string]any `json:"params,omitempty"`
}

// Sink receives events. Send must not block.
type Sink interface {
	Send(Event)
}

// Recorder turns typed calls into events.
type Recorder struct {
	sink    Sink
	session string
	now     func() time.Time
}

// NewRecorder creates a Recorder with a fresh session id.
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{
		sink:    sink,
		session: uuid.NewString(),
		now:     time.Now,
	}
}

// Session returns the session id stamped on every event.
func (r *Recorder) Session() string { return r.session }

func (r *Recorder) record(name string, params map[string]any) {
	if r == nil || r.sink == nil {
		return
	}
	r.sink.Send(Event{Name: name, Time: r.now(), Session: r.session, Params: params})
}

func seconds(d time.Duration) float64 {
	return d.Round(time.Millisecond).Seconds()
}

// StartService records a session start request.
func (r *Recorder) StartService(profile, where string) {
	r.record("start_service", map[string]any{"profile": profile, "where": where})
}

// StopService records a session stop with its uptime.
func (r *Recorder) StopService(where string, d time.Duration) {
	r.record("stop_service", map[string]any{"where": where, "duration": seconds(d)})
}

// Profile records how long a profile ran.
func (r *Recorder) Profile(profile string, d time.Duration) {
	r.record("profile", map[string]any{"profile": profile, "duration": seconds(d)})
}

// Camera records how long one camera binding lived.
func (r *Recorder) Camera(lens camera.LensFacing, pm camera.PreviewMode, cm camera.CaptureMode, d time.Duration) {
	r.record("camera", map[string]any{
		"lens":         lens.String(),
		"preview_mode": pm.String(),
		"capture_mode": cm.String(),
		"duration":     seconds(d),
	})
}

// SleepMode records how long the camera slept.
func (r *Recorder) SleepMode(d time.Duration) {
	r.record("sleep_mode", map[string]any{"duration": seconds(d)})
}

// TakePicture records a saved picture.
func (r *Recorder) TakePicture(lens camera.LensFacing) {
	r.record("take_picture", map[string]any{"lens": lens.String()})
}

// RecordVideo records a finished recording.
func (r *Recorder) RecordVideo(lens camera.LensFacing, d time.Duration) {
	r.record("record_video", map[string]any{"lens": lens.String(), "duration": seconds(d)})
}

// RecordError records a non-fatal error.
func (r *Recorder) RecordError(err error) {
	if err == nil {
		return
	}
	r.record("error", map[string]any{"error": err.Error()})
}

// GestureAction records an executed gesture action.
func (r *Recorder) GestureAction(profile string, a action.GestureAction) {
	r.record("gesture_action", map[string]any{"profile": profile, "action": a.String()})
}

// ExtraActionDown records the start of a long-press extra action.
func (r *Recorder) ExtraActionDown(profile string, a action.ExtraAction) {
	r.record("fab_long_press_extra_action_down", map[string]any{"profile": profile, "action": a.String()})
}

// ExtraActionUp records the end of a long-press extra action.
func (r *Recorder) ExtraActionUp(profile string, a action.ExtraAction) {
	r.record("fab_long_press_extra_action_up", map[string]any{"profile": profile, "action": a.String()})
}

// OpenFabMenu records the floating menu opening.
func (r *Recorder) OpenFabMenu(profile string) {
	r.record("open_fab_menu", map[string]any{"profile": profile})
}

// FabMenuToggleSleepMode records the menu's sleep toggle.
func (r *Recorder) FabMenuToggleSleepMode(profile string) {
	r.record("fab_menu_toggle_sleep_mode", map[string]any{"profile": profile})
}

// LogSink writes events to a logger at debug level.
type LogSink struct {
	Logger *slog.Logger
}

// Send implements Sink.
func (s LogSink) Send(ev Event) {
	attrs := make([]any, 0, 2*len(ev.Params)+2)
	attrs = append(attrs, "event", ev.Name)
	for k, v := range ev.Params {
		attrs = append(attrs, k, v)
	}
	s.Logger.Debug("analytics", attrs...)
}

// MultiSink fans events out to several sinks.
type MultiSink []Sink

// Send implements Sink.
func (m MultiSink) Send(ev Event) {
	for _, s := range m {
		s.Send(ev)
	}
}

// MemorySink keeps events in memory, newest last. It backs the status
// API's recent-events view.
type MemorySink struct {
	mu     sync.Mutex
	limit  int
	events []Event
}

// NewMemorySink keeps up to limit events.
func NewMemorySink(limit int) *MemorySink {
	return &MemorySink{limit: limit}
}

// Send implements Sink.
func (m *MemorySink) Send(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	if over := len(m.events) - m.limit; m.limit > 0 && over > 0 {
		m.events = append(m.events[:0], m.events[over:]...)
	}
}

// Events returns a copy of the kept events.
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
