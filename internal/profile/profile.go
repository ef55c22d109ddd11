// Package profile holds the per-profile behaviour settings and the global
// floating button settings, and persists them to a YAML file.
//
// Every field of every profile has a default and an enabled flag. Disabled
// fields are locked to their default; a profile like "mirror" is defined as
// much by what it locks as by what it sets.
package profile

import (
	"errors"
	"fmt"

	"github.com/phinze/inviscam/internal/action"
	"github.com/phinze/inviscam/internal/camera"
	"github.com/phinze/inviscam/internal/idle"
	"github.com/phinze/inviscam/internal/position"
)

// ErrUnknownProfile is returned for an unrecognised profile id.
var ErrUnknownProfile = errors.New("unknown profile")

// ID names a profile.
type ID uint8

const (
	PictureInPicture ID = iota + 1
	Wallpaper
	Mirror
	Magnifier
	Candid
	Custom
)

var idNames = map[ID]string{
	PictureInPicture: "picture_in_picture",
	Wallpaper:        "wallpaper",
	Mirror:           "mirror",
	Magnifier:        "magnifier",
	Candid:           "candid",
	Custom:           "custom",
}

var idTitles = map[ID]string{
	PictureInPicture: "Picture in picture",
	Wallpaper:        "Wallpaper",
	Mirror:           "Mirror",
	Magnifier:        "Magnifier",
	Candid:           "Candid",
	Custom:           "Custom",
}

// Title is the display name.
func (id ID) Title() string {
	if s, ok := idTitles[id]; ok {
		return s
	}
	return id.String()
}

// IDs lists the profiles in menu order. The first is the default.
func IDs() []ID {
	return []ID{PictureInPicture, Wallpaper, Mirror, Magnifier, Candid, Custom}
}

func (id ID) String() string {
	if s, ok := idNames[id]; ok {
		return s
	}
	return fmt.Sprintf("profile(%d)", uint8(id))
}

// ParseID looks a profile up by name.
func ParseID(s string) (ID, error) {
	for id, name := range idNames {
		if name == s {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownProfile, s)
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	s, ok := idNames[id]
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrUnknownProfile, uint8(id))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(b []byte) error {
	v, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// ScaleAction is what a pinch on the preview changes.
type ScaleAction uint8

const (
	ScaleWindowSize ScaleAction = iota + 1
	ScaleCameraZoom
	ScaleNone
)

var scaleActionNames = map[ScaleAction]string{
	ScaleWindowSize: "window_size",
	ScaleCameraZoom: "camera_zoom",
	ScaleNone:       "none",
}

func (a ScaleAction) String() string {
	if s, ok := scaleActionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("scale_action(%d)", uint8(a))
}

// MarshalText implements encoding.TextMarshaler.
func (a ScaleAction) MarshalText() ([]byte, error) {
	s, ok := scaleActionNames[a]
	if !ok {
		return nil, fmt.Errorf("invalid scale action %d", uint8(a))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *ScaleAction) UnmarshalText(b []byte) error {
	for k, v := range scaleActionNames {
		if v == string(b) {
			*a = k
			return nil
		}
	}
	return fmt.Errorf("unknown scale action %q", b)
}

// Defaults is a profile's default value and enabled flag for each field.
type Defaults struct {
	FabSingleOrDoubleTapAction    Item[action.GestureAction]
	FabLongPressAction            Item[action.GestureAction]
	FabLongPressUpAction          Item[action.GestureAction]
	FabLongPressExtraAction       Item[action.ExtraAction]
	FabDoubleLongPressAction      Item[action.GestureAction]
	FabDoubleLongPressUpAction    Item[action.GestureAction]
	FabDoubleLongPressExtraAction Item[action.ExtraAction]

	Lens         Item[camera.LensFacing]
	Zoom         Item[float64]
	PreviewMode  Item[camera.PreviewMode]
	CaptureMode  Item[camera.CaptureMode]
	SleepTimeout Item[idle.Timeout]

	PreviewRatio       Item[position.Ratio]
	PreviewEnableOut   Item[bool]
	PreviewSize        Item[float64]
	PreviewX           Item[float64]
	PreviewY           Item[float64]
	PreviewAlpha       Item[float64]
	PreviewEnableTouch Item[bool]

	PreviewSingleTapAction         Item[action.GestureAction]
	PreviewDoubleTapAction         Item[action.GestureAction]
	PreviewLongPressAction         Item[action.GestureAction]
	PreviewLongPressUpAction       Item[action.GestureAction]
	PreviewDoubleLongPressAction   Item[action.GestureAction]
	PreviewDoubleLongPressUpAction Item[action.GestureAction]
	PreviewEnableMove              Item[bool]
	PreviewScaleAction             Item[ScaleAction]
}

const (
	on  = true
	off = false
)

// DefaultsFor returns the defaults table of id.
func DefaultsFor(id ID) (Defaults, error) {
	d, ok := defaults[id]
	if !ok {
		return Defaults{}, fmt.Errorf("%w %d", ErrUnknownProfile, uint8(id))
	}
	return d, nil
}

var defaults = map[ID]Defaults{
	PictureInPicture: {
		FabSingleOrDoubleTapAction:     item(action.None, on),
		FabLongPressAction:             item(action.ToggleRecordingVideo, on),
		FabLongPressUpAction:           item(action.None, on),
		FabLongPressExtraAction:        item(action.ExtraNone, off),
		FabDoubleLongPressAction:       item(action.None, on),
		FabDoubleLongPressUpAction:     item(action.None, on),
		FabDoubleLongPressExtraAction:  item(action.ExtraNone, off),
		Lens:                           item(camera.LensBack, on),
		Zoom:                           item(0.0, on),
		PreviewMode:                    item(camera.PreviewAndCapture, off),
		CaptureMode:                    item(camera.CaptureVideo, on),
		SleepTimeout:                   item(idle.Never, off),
		PreviewRatio:                   item(position.Ratio4x3, on),
		PreviewEnableOut:               item(false, off),
		PreviewSize:                    item(0.5, on),
		PreviewX:                       item(0.5, on),
		PreviewY:                       item(0.5, on),
		PreviewAlpha:                   item(1.0, on),
		PreviewEnableTouch:             item(true, off),
		PreviewSingleTapAction:         item(action.None, on),
		PreviewDoubleTapAction:         item(action.None, on),
		PreviewLongPressAction:         item(action.ToggleRecordingVideo, on),
		PreviewLongPressUpAction:       item(action.None, on),
		PreviewDoubleLongPressAction:   item(action.None, on),
		PreviewDoubleLongPressUpAction: item(action.None, on),
		PreviewEnableMove:              item(true, on),
		PreviewScaleAction:             item(ScaleNone, on),
	},
	Wallpaper: {
		FabSingleOrDoubleTapAction:     item(action.ToggleSleepMode, off),
		FabLongPressAction:             item(action.None, off),
		FabLongPressUpAction:           item(action.None, off),
		FabLongPressExtraAction:        item(action.ExtraNone, off),
		FabDoubleLongPressAction:       item(action.None, off),
		FabDoubleLongPressUpAction:     item(action.None, off),
		FabDoubleLongPressExtraAction:  item(action.ExtraNone, off),
		Lens:                           item(camera.LensBack, off),
		Zoom:                           item(-1.0, on),
		PreviewMode:                    item(camera.PreviewOnly, off),
		CaptureMode:                    item(camera.CapturePhoto, off),
		SleepTimeout:                   item(idle.Never, off),
		PreviewRatio:                   item(position.MatchScreen, off),
		PreviewEnableOut:               item(true, off),
		PreviewSize:                    item(1.0, off),
		PreviewX:                       item(0.5, off),
		PreviewY:                       item(0.5, off),
		PreviewAlpha:                   item(0.2, on),
		PreviewEnableTouch:             item(false, off),
		PreviewSingleTapAction:         item(action.None, off),
		PreviewDoubleTapAction:         item(action.None, off),
		PreviewLongPressAction:         item(action.None, off),
		PreviewLongPressUpAction:       item(action.None, off),
		PreviewDoubleLongPressAction:   item(action.None, off),
		PreviewDoubleLongPressUpAction: item(action.None, off),
		PreviewEnableMove:              item(false, off),
		PreviewScaleAction:             item(ScaleNone, off),
	},
	Mirror: {
		FabSingleOrDoubleTapAction:     item(action.ToggleSleepMode, off),
		FabLongPressAction:             item(action.None, off),
		FabLongPressUpAction:           item(action.None, off),
		FabLongPressExtraAction:        item(action.HideFabAndKeepAwake, off),
		FabDoubleLongPressAction:       item(action.None, off),
		FabDoubleLongPressUpAction:     item(action.None, off),
		FabDoubleLongPressExtraAction:  item(action.HideFabAndKeepAwake, off),
		Lens:                           item(camera.LensFront, off),
		Zoom:                           item(0.0, off),
		PreviewMode:                    item(camera.PreviewOnly, off),
		CaptureMode:                    item(camera.CapturePhoto, off),
		SleepTimeout:                   item(idle.Immediately, on),
		PreviewRatio:                   item(position.MatchScreen, off),
		PreviewEnableOut:               item(true, off),
		PreviewSize:                    item(1.0, off),
		PreviewX:                       item(0.5, off),
		PreviewY:                       item(0.5, off),
		PreviewAlpha:                   item(1.0, off),
		PreviewEnableTouch:             item(true, off),
		PreviewSingleTapAction:         item(action.None, off),
		PreviewDoubleTapAction:         item(action.None, off),
		PreviewLongPressAction:         item(action.None, off),
		PreviewLongPressUpAction:       item(action.None, off),
		PreviewDoubleLongPressAction:   item(action.None, off),
		PreviewDoubleLongPressUpAction: item(action.None, off),
		PreviewEnableMove:              item(false, off),
		PreviewScaleAction:             item(ScaleNone, off),
	},
	Magnifier: {
		FabSingleOrDoubleTapAction:     item(action.ToggleSleepMode, off),
		FabLongPressAction:             item(action.None, off),
		FabLongPressUpAction:           item(action.None, off),
		FabLongPressExtraAction:        item(action.ExtraNone, off),
		FabDoubleLongPressAction:       item(action.None, off),
		FabDoubleLongPressUpAction:     item(action.None, off),
		FabDoubleLongPressExtraAction:  item(action.ExtraNone, off),
		Lens:                           item(camera.LensBack, off),
		Zoom:                           item(1.0, on),
		PreviewMode:                    item(camera.PreviewOnly, off),
		CaptureMode:                    item(camera.CapturePhoto, off),
		SleepTimeout:                   item(idle.Never, off),
		PreviewRatio:                   item(position.MatchScreen, off),
		PreviewEnableOut:               item(true, off),
		PreviewSize:                    item(1.0, off),
		PreviewX:                       item(0.5, off),
		PreviewY:                       item(0.5, off),
		PreviewAlpha:                   item(1.0, off),
		PreviewEnableTouch:             item(true, off),
		PreviewSingleTapAction:         item(action.None, off),
		PreviewDoubleTapAction:         item(action.None, off),
		PreviewLongPressAction:         item(action.None, off),
		PreviewLongPressUpAction:       item(action.None, off),
		PreviewDoubleLongPressAction:   item(action.None, off),
		PreviewDoubleLongPressUpAction: item(action.None, off),
		PreviewEnableMove:              item(false, off),
		PreviewScaleAction:             item(ScaleCameraZoom, off),
	},
	Candid: {
		FabSingleOrDoubleTapAction:     item(action.None, on),
		FabLongPressAction:             item(action.None, on),
		FabLongPressUpAction:           item(action.TakePicture, on),
		FabLongPressExtraAction:        item(action.HideFabAndKeepAwake, off),
		FabDoubleLongPressAction:       item(action.None, on),
		FabDoubleLongPressUpAction:     item(action.None, on),
		FabDoubleLongPressExtraAction:  item(action.HideFabAndKeepAwake, off),
		Lens:                           item(camera.LensBack, on),
		Zoom:                           item(0.0, on),
		PreviewMode:                    item(camera.PreviewAndCapture, off),
		CaptureMode:                    item(camera.CapturePhoto, on),
		SleepTimeout:                   item(idle.Immediately, off),
		PreviewRatio:                   item(position.MatchScreen, on),
		PreviewEnableOut:               item(true, on),
		PreviewSize:                    item(1.0, on),
		PreviewX:                       item(0.5, on),
		PreviewY:                       item(0.5, on),
		PreviewAlpha:                   item(1.0, on),
		PreviewEnableTouch:             item(true, on),
		PreviewSingleTapAction:         item(action.None, on),
		PreviewDoubleTapAction:         item(action.None, on),
		PreviewLongPressAction:         item(action.None, on),
		PreviewLongPressUpAction:       item(action.None, on),
		PreviewDoubleLongPressAction:   item(action.None, on),
		PreviewDoubleLongPressUpAction: item(action.None, on),
		PreviewEnableMove:              item(true, on),
		PreviewScaleAction:             item(ScaleNone, on),
	},
	Custom: {
		FabSingleOrDoubleTapAction:     item(action.None, on),
		FabLongPressAction:             item(action.None, on),
		FabLongPressUpAction:           item(action.None, on),
		FabLongPressExtraAction:        item(action.ExtraNone, on),
		FabDoubleLongPressAction:       item(action.None, on),
		FabDoubleLongPressUpAction:     item(action.None, on),
		FabDoubleLongPressExtraAction:  item(action.ExtraNone, on),
		Lens:                           item(camera.LensBack, on),
		Zoom:                           item(0.0, on),
		PreviewMode:                    item(camera.PreviewAndCapture, on),
		CaptureMode:                    item(camera.CapturePhoto, on),
		SleepTimeout:                   item(idle.Never, on),
		PreviewRatio:                   item(position.Ratio4x3, on),
		PreviewEnableOut:               item(false, on),
		PreviewSize:                    item(0.5, on),
		PreviewX:                       item(0.5, on),
		PreviewY:                       item(0.5, on),
		PreviewAlpha:                   item(1.0, on),
		PreviewEnableTouch:             item(true, on),
		PreviewSingleTapAction:         item(action.None, on),
		PreviewDoubleTapAction:         item(action.None, on),
		PreviewLongPressAction:         item(action.None, on),
		PreviewLongPressUpAction:       item(action.None, on),
		PreviewDoubleLongPressAction:   item(action.None, on),
		PreviewDoubleLongPressUpAction: item(action.None, on),
		PreviewEnableMove:              item(true, on),
		PreviewScaleAction:             item(ScaleNone, on),
	},
}
