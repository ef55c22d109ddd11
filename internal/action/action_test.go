package action

import (
	"slices"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/phinze/inviscam/internal/camera"
	"github.com/phinze/inviscam/internal/reactive"
)

type fakeCamera struct{ calls []string }

func (c *fakeCamera) TakePicture()     { c.calls = append(c.calls, "take_picture") }
func (c *fakeCamera) StartRecording()  { c.calls = append(c.calls, "start_recording") }
func (c *fakeCamera) StopRecording()   { c.calls = append(c.calls, "stop_recording") }
func (c *fakeCamera) ToggleRecording() { c.calls = append(c.calls, "toggle_recording") }
func (c *fakeCamera) Capture()         { c.calls = append(c.calls, "capture") }
func (c *fakeCamera) EnterSleepMode()  { c.calls = append(c.calls, "enter_sleep") }
func (c *fakeCamera) ExitSleepMode()   { c.calls = append(c.calls, "exit_sleep") }
func (c *fakeCamera) ToggleSleepMode() { c.calls = append(c.calls, "toggle_sleep") }

func (c *fakeCamera) KeepAwake(on bool) {
	if on {
		c.calls = append(c.calls, "keep_awake")
	} else {
		c.calls = append(c.calls, "let_sleep")
	}
}

type captureSetting struct {
	*reactive.Cell[camera.CaptureMode]
}

type recordedEvents struct{ events []string }

func (e *recordedEvents) GestureAction(profile string, a GestureAction) {
	e.events = append(e.events, profile+":"+a.String())
}

func (e *recordedEvents) ExtraActionDown(profile string, a ExtraAction) {
	e.events = append(e.events, profile+":down:"+a.String())
}

func (e *recordedEvents) ExtraActionUp(profile string, a ExtraAction) {
	e.events = append(e.events, profile+":up:"+a.String())
}

type env struct {
	cam     *fakeCamera
	pm      *reactive.Cell[camera.PreviewMode]
	cm      captureSetting
	events  *recordedEvents
	hidden  []bool
	opened  int
	stopped int
}

func newEnv() *env {
	return &env{
		cam:    &fakeCamera{},
		pm:     reactive.NewCell(camera.PreviewAndCapture),
		cm:     captureSetting{reactive.NewCell(camera.CapturePhoto)},
		events: &recordedEvents{},
	}
}

func (e *env) ctx() Context {
	return Context{
		Profile:     "candid",
		Camera:      e.cam,
		PreviewMode: e.pm,
		CaptureMode: e.cm,
		Events:      e.events,
		OpenApp:     func() { e.opened++ },
		StopService: func() { e.stopped++ },
		HideFab:     func(h bool) { e.hidden = append(e.hidden, h) },
	}
}

func TestExecuteDispatch(t *testing.T) {
	tests := []struct {
		action GestureAction
		call   string
	}{
		{TakePicture, "take_picture"},
		{StartRecordingVideo, "start_recording"},
		{StopRecordingVideo, "stop_recording"},
		{ToggleRecordingVideo, "toggle_recording"},
		{Capture, "capture"},
		{EnterSleepMode, "enter_sleep"},
		{ExitSleepMode, "exit_sleep"},
		{ToggleSleepMode, "toggle_sleep"},
	}
	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			e := newEnv()
			tt.action.Execute(e.ctx())
			if !slices.Equal(e.cam.calls, []string{tt.call}) {
				t.Errorf("calls = %v, want [%s]", e.cam.calls, tt.call)
			}
			if !slices.Equal(e.events.events, []string{"candid:" + tt.action.String()}) {
				t.Errorf("events = %v", e.events.events)
			}
		})
	}
}

func TestExecuteHostActions(t *testing.T) {
	e := newEnv()
	OpenApp.Execute(e.ctx())
	StopService.Execute(e.ctx())
	None.Execute(e.ctx())

	if e.opened != 1 || e.stopped != 1 {
		t.Errorf("opened=%d stopped=%d, want 1 each", e.opened, e.stopped)
	}
	if len(e.cam.calls) != 0 {
		t.Errorf("camera calls = %v, want none", e.cam.calls)
	}
	want := []string{"candid:open_app", "candid:stop_service", "candid:none"}
	if !slices.Equal(e.events.events, want) {
		t.Errorf("events = %v, want %v", e.events.events, want)
	}
}

func TestToggleCaptureMode(t *testing.T) {
	tests := []struct {
		pm   camera.PreviewMode
		from camera.CaptureMode
		want camera.CaptureMode
	}{
		{camera.PreviewAndCapture, camera.CapturePhoto, camera.CaptureVideo},
		{camera.PreviewAndCapture, camera.CaptureVideo, camera.CapturePhoto},
		{camera.CaptureOnly, camera.CaptureVideo, camera.CapturePhoto},
		{camera.PreviewAndCapture, camera.CapturePhotoAndVideo, camera.CapturePhotoAndVideo},
		{camera.PreviewOnly, camera.CapturePhoto, camera.CapturePhoto},
	}
	for _, tt := range tests {
		e := newEnv()
		e.pm.Set(tt.pm)
		e.cm.Set(tt.from)
		ToggleCaptureMode.Execute(e.ctx())
		if got := e.cm.Get(); got != tt.want {
			t.Errorf("%v/%v: capture mode = %v, want %v", tt.pm, tt.from, got, tt.want)
		}
	}
}

func TestExtraActions(t *testing.T) {
	e := newEnv()
	HideFabAndKeepAwake.Down(e.ctx())
	HideFabAndKeepAwake.Up(e.ctx())
	KeepAwake.Down(e.ctx())
	HideFab.Up(e.ctx())
	ExtraNone.Down(e.ctx())

	if !slices.Equal(e.hidden, []bool{true, false, false}) {
		t.Errorf("hide calls = %v", e.hidden)
	}
	if !slices.Equal(e.cam.calls, []string{"keep_awake", "let_sleep", "keep_awake"}) {
		t.Errorf("camera calls = %v", e.cam.calls)
	}
	if len(e.events.events) != 5 {
		t.Errorf("events = %v, want 5", e.events.events)
	}
}

func TestActionYAML(t *testing.T) {
	var doc struct {
		Tap   GestureAction `yaml:"tap"`
		Extra ExtraAction   `yaml:"extra"`
	}
	if err := yaml.Unmarshal([]byte("tap: toggle_recording_video\nextra: hide_fab\n"), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Tap != ToggleRecordingVideo || doc.Extra != HideFab {
		t.Errorf("decoded %+v", doc)
	}
	if err := yaml.Unmarshal([]byte("tap: jump\n"), &doc); err == nil {
		t.Error("unknown action decoded without error")
	}
	if len(GestureActions()) != len(gestureActionNames) || len(ExtraActions()) != len(extraActionNames) {
		t.Error("menu lists out of sync with names")
	}
}
