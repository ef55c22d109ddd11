// Package action defines the semantic actions a gesture can be configured to
// run, and how each one is carried out against the running session.
package action

import (
	"fmt"

	"github.com/phinze/inviscam/internal/camera"
	"github.com/phinze/inviscam/internal/reactive"
)

// Camera is the part of the camera controller actions drive.
type Camera interface {
	TakePicture()
	StartRecording()
	StopRecording()
	ToggleRecording()
	Capture()
	EnterSleepMode()
	ExitSleepMode()
	ToggleSleepMode()
	KeepAwake(on bool)
}

// CaptureModeSetting is the writable capture mode of the active profile.
type CaptureModeSetting interface {
	reactive.Observable[camera.CaptureMode]
	Set(camera.CaptureMode)
}

// Events receives action analytics.
type Events interface {
	GestureAction(profile string, a GestureAction)
	ExtraActionDown(profile string, a ExtraAction)
	ExtraActionUp(profile string, a ExtraAction)
}

// Context is everything an action may touch. Missing hooks are skipped.
type Context struct {
	Profile     string
	Camera      Camera
	PreviewMode reactive.Observable[camera.PreviewMode]
	CaptureMode CaptureModeSetting
	Events      Events

	OpenApp     func()
	StopService func()
	HideFab     func(hidden bool)
}

// GestureAction is something a gesture can be bound to.
type GestureAction uint8

const (
	None GestureAction = iota + 1
	ToggleCaptureMode
	TakePicture
	StartRecordingVideo
	StopRecordingVideo
	ToggleRecordingVideo
	Capture
	EnterSleepMode
	ExitSleepMode
	ToggleSleepMode
	OpenApp
	StopService
)

var gestureActionNames = map[GestureAction]string{
	None:                 "none",
	ToggleCaptureMode:    "toggle_capture_mode",
	TakePicture:          "take_picture",
	StartRecordingVideo:  "start_recording_video",
	StopRecordingVideo:   "stop_recording_video",
	ToggleRecordingVideo: "toggle_recording_video",
	Capture:              "capture",
	EnterSleepMode:       "enter_sleep_mode",
	ExitSleepMode:        "exit_sleep_mode",
	ToggleSleepMode:      "toggle_sleep_mode",
	OpenApp:              "open_app",
	StopService:          "stop_service",
}

// GestureActions lists every gesture action in menu order.
func GestureActions() []GestureAction {
	return []GestureAction{
		ToggleCaptureMode, TakePicture, StartRecordingVideo, StopRecordingVideo,
		ToggleRecordingVideo, Capture, EnterSleepMode, ExitSleepMode,
		ToggleSleepMode, OpenApp, StopService, None,
	}
}

func (a GestureAction) String() string {
	if s, ok := gestureActionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("gesture_action(%d)", uint8(a))
}

// MarshalText implements encoding.TextMarshaler.
func (a GestureAction) MarshalText() ([]byte, error) {
	s, ok := gestureActionNames[a]
	if !ok {
		return nil, fmt.Errorf("invalid gesture action %d", uint8(a))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *GestureAction) UnmarshalText(b []byte) error {
	for k, v := range gestureActionNames {
		if v == string(b) {
			*a = k
			return nil
		}
	}
	return fmt.Errorf("unknown gesture action %q", b)
}

// Execute runs the action and reports it, None included.
func (a GestureAction) Execute(ctx Context) {
	switch a {
	case ToggleCaptureMode:
		toggleCaptureMode(ctx)
	case TakePicture:
		ctx.Camera.TakePicture()
	case StartRecordingVideo:
		ctx.Camera.StartRecording()
	case StopRecordingVideo:
		ctx.Camera.StopRecording()
	case ToggleRecordingVideo:
		ctx.Camera.ToggleRecording()
	case Capture:
		ctx.Camera.Capture()
	case EnterSleepMode:
		ctx.Camera.EnterSleepMode()
	case ExitSleepMode:
		ctx.Camera.ExitSleepMode()
	case ToggleSleepMode:
		ctx.Camera.ToggleSleepMode()
	case OpenApp:
		if ctx.OpenApp != nil {
			ctx.OpenApp()
		}
	case StopService:
		if ctx.StopService != nil {
			ctx.StopService()
		}
	}
	if ctx.Events != nil {
		ctx.Events.GestureAction(ctx.Profile, a)
	}
}

// toggleCaptureMode flips between photo and video. Preview-only sessions and
// the combined mode have nothing to flip.
func toggleCaptureMode(ctx Context) {
	if ctx.CaptureMode == nil {
		return
	}
	if ctx.PreviewMode != nil && ctx.PreviewMode.Get() == camera.PreviewOnly {
		return
	}
	switch ctx.CaptureMode.Get() {
	case camera.CapturePhoto:
		ctx.CaptureMode.Set(camera.CaptureVideo)
	case camera.CaptureVideo:
		ctx.CaptureMode.Set(camera.CapturePhoto)
	}
}
