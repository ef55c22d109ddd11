// Package camera owns the camera session: binding the device with the right
// use-cases, rebinding when configuration changes, sleeping when idle, and
// running picture and video captures.
package camera

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/phinze/inviscam/internal/mediastore"
	"github.com/phinze/inviscam/internal/reactive"
	"github.com/phinze/inviscam/internal/window"
	"github.com/phinze/inviscam/internal/zoom"
)

// ErrNoCamera is returned by a Provider that has no camera for a lens.
var ErrNoCamera = errors.New("no camera for lens")

// LensFacing selects the front or back camera.
type LensFacing uint8

const (
	// LensFront is the user-facing camera.
	LensFront LensFacing = iota + 1
	// LensBack is the world-facing camera.
	LensBack
)

// PreviewMode controls whether a preview and/or capture use-cases are bound.
type PreviewMode uint8

const (
	// PreviewAndCapture binds the preview plus capture use-cases.
	PreviewAndCapture PreviewMode = iota + 1
	// PreviewOnly binds only the preview.
	PreviewOnly
	// CaptureOnly binds only capture use-cases.
	CaptureOnly
)

// CaptureMode controls which capture use-cases are bound.
type CaptureMode uint8

const (
	// CapturePhoto binds still capture.
	CapturePhoto CaptureMode = iota + 1
	// CaptureVideo binds video capture.
	CaptureVideo
	// CapturePhotoAndVideo binds both.
	CapturePhotoAndVideo
)

var (
	lensNames = map[LensFacing]string{
		LensFront: "front",
		LensBack:  "back",
	}
	previewModeNames = map[PreviewMode]string{
		PreviewAndCapture: "preview_and_capture",
		PreviewOnly:       "preview_only",
		CaptureOnly:       "capture_only",
	}
	captureModeNames = map[CaptureMode]string{
		CapturePhoto:         "photo",
		CaptureVideo:         "video",
		CapturePhotoAndVideo: "photo_and_video",
	}
)

func (l LensFacing) String() string { return enumString(lensNames, l, "lens") }
func (m PreviewMode) String() string { return enumString(previewModeNames, m, "preview_mode") }
func (m CaptureMode) String() string { return enumString(captureModeNames, m, "capture_mode") }

// MarshalText implements encoding.TextMarshaler.
func (l LensFacing) MarshalText() ([]byte, error) { return enumMarshal(lensNames, l, "lens") }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *LensFacing) UnmarshalText(b []byte) error { return enumUnmarshal(lensNames, l, b, "lens") }

// MarshalText implements encoding.TextMarshaler.
func (m PreviewMode) MarshalText() ([]byte, error) {
	return enumMarshal(previewModeNames, m, "preview mode")
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *PreviewMode) UnmarshalText(b []byte) error {
	return enumUnmarshal(previewModeNames, m, b, "preview mode")
}

// MarshalText implements encoding.TextMarshaler.
func (m CaptureMode) MarshalText() ([]byte, error) {
	return enumMarshal(captureModeNames, m, "capture mode")
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *CaptureMode) UnmarshalText(b []byte) error {
	return enumUnmarshal(captureModeNames, m, b, "capture mode")
}

func enumString[K ~uint8](names map[K]string, k K, kind string) string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("%s(%d)", kind, uint8(k))
}

func enumMarshal[K ~uint8](names map[K]string, k K, kind string) ([]byte, error) {
	s, ok := names[k]
	if !ok {
		return nil, fmt.Errorf("invalid %s %d", kind, uint8(k))
	}
	return []byte(s), nil
}

func enumUnmarshal[K ~uint8](names map[K]string, k *K, b []byte, kind string) error {
	for v, s := range names {
		if s == string(b) {
			*k = v
			return nil
		}
	}
	return fmt.Errorf("unknown %s %q", kind, b)
}

// UseCases is the set of pipelines bound to the camera.
type UseCases struct {
	Preview bool
	Picture bool
	Video   bool
}

// UseCasesFor returns the use-cases a mode combination needs.
func UseCasesFor(pm PreviewMode, cm CaptureMode) UseCases {
	return UseCases{
		Preview: pm != CaptureOnly,
		Picture: pm != PreviewOnly && cm != CaptureVideo,
		Video:   pm != PreviewOnly && cm != CapturePhoto,
	}
}

// Empty reports whether no use-case is bound.
func (u UseCases) Empty() bool {
	return !u.Preview && !u.Picture && !u.Video
}

// StateType is the camera device lifecycle state.
type StateType uint8

const (
	StatePendingOpen StateType = iota + 1
	StateOpening
	StateOpen
	StateClosing
	StateClosed
)

func (s StateType) String() string {
	switch s {
	case StatePendingOpen:
		return "pending_open"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// StateError is a camera device error. Critical errors end the session.
type StateError struct {
	Code     int
	Critical bool
	Cause    error
}

func (e *StateError) Error() string {
	kind := "recoverable"
	if e.Critical {
		kind = "critical"
	}
	if e.Cause != nil {
		return fmt.Sprintf("camera %s error %d: %v", kind, e.Code, e.Cause)
	}
	return fmt.Sprintf("camera %s error %d", kind, e.Code)
}

func (e *StateError) Unwrap() error { return e.Cause }

// State is a device state with an optional error.
type State struct {
	Type StateType
	Err  *StateError
}

// PreviewSink receives preview frames. It may be called from any goroutine.
type PreviewSink interface {
	PublishFrame(img image.Image)
}

// PictureCallbacks report the outcome of a still capture.
type PictureCallbacks struct {
	OnSaved func(path string)
	OnError func(err error)
}

// RecordEventType is the kind of recording event.
type RecordEventType uint8

const (
	// RecordStart fires once the recording is running.
	RecordStart RecordEventType = iota + 1
	// RecordStatus reports progress.
	RecordStatus
	// RecordFinalize ends the recording, with Err set on failure.
	RecordFinalize
)

// RecordEvent is emitted by an in-flight recording.
type RecordEvent struct {
	Type     RecordEventType
	Duration time.Duration
	Err      error
}

// Recording is an in-flight video recording.
type Recording interface {
	Stop()
}

// Provider binds camera devices. Only one binding exists at a time; Bind
// replaces nothing, callers must UnbindAll first.
type Provider interface {
	Bind(lens LensFacing, uc UseCases) (Device, error)
	UnbindAll()
}

// Device is a bound camera. Implementations deliver state changes and all
// capture callbacks on the session loop.
type Device interface {
	State() reactive.Observable[State]
	ZoomRange() zoom.Range
	ZoomRatio() float64
	SetZoomRatio(ratio float64)
	SetTargetRotation(r window.Rotation)
	SetPreviewSink(sink PreviewSink)
	TakePicture(path string, cb PictureCallbacks)
	StartRecording(path string, audio bool, onEvent func(RecordEvent)) Recording
}

// MediaStore hands out output paths for captures.
type MediaStore interface {
	NewPath(k mediastore.Kind, t time.Time) (string, error)
}

// Notifier shows short transient messages to the user.
type Notifier interface {
	Notice(id string)
}

// Notice ids.
const (
	NoticeCameraError = "camera_error"
	NoticePhotoError  = "camera_error_photo"
	NoticeVideoError  = "camera_error_video"
)

// Events receives fire-and-forget analytics and diagnostics.
type Events interface {
	Camera(lens LensFacing, pm PreviewMode, cm CaptureMode, d time.Duration)
	SleepMode(d time.Duration)
	TakePicture(lens LensFacing)
	RecordVideo(lens LensFacing, d time.Duration)
	RecordError(err error)
}
