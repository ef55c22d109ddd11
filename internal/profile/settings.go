package profile

import (
	"github.com/phinze/inviscam/internal/action"
	"github.com/phinze/inviscam/internal/camera"
	"github.com/phinze/inviscam/internal/gesture"
	"github.com/phinze/inviscam/internal/idle"
	"github.com/phinze/inviscam/internal/position"
	"github.com/phinze/inviscam/internal/reactive"
)

// Settings are the live settings of one profile.
type Settings struct {
	ID ID

	FabSingleOrDoubleTapAction    *Field[action.GestureAction]
	FabLongPressAction            *Field[action.GestureAction]
	FabLongPressUpAction          *Field[action.GestureAction]
	FabLongPressExtraAction       *Field[action.ExtraAction]
	FabDoubleLongPressAction      *Field[action.GestureAction]
	FabDoubleLongPressUpAction    *Field[action.GestureAction]
	FabDoubleLongPressExtraAction *Field[action.ExtraAction]

	Lens         *Field[camera.LensFacing]
	Zoom         *Percent
	PreviewMode  *Field[camera.PreviewMode]
	CaptureMode  *Field[camera.CaptureMode]
	SleepTimeout *Field[idle.Timeout]

	PreviewRatio       *Field[position.Ratio]
	PreviewEnableOut   *Field[bool]
	PreviewSize        *Percent
	PreviewX           *Percent
	PreviewY           *Percent
	PreviewAlpha       *Percent
	PreviewEnableTouch *Field[bool]

	PreviewSingleTapAction         *Field[action.GestureAction]
	PreviewDoubleTapAction         *Field[action.GestureAction]
	PreviewLongPressAction         *Field[action.GestureAction]
	PreviewLongPressUpAction       *Field[action.GestureAction]
	PreviewDoubleLongPressAction   *Field[action.GestureAction]
	PreviewDoubleLongPressUpAction *Field[action.GestureAction]
	PreviewEnableMove              *Field[bool]
	PreviewScaleAction             *Field[ScaleAction]

	entries []Entry
}

func newSettings(id ID, d Defaults, changed func()) *Settings {
	s := &Settings{ID: id}

	s.FabSingleOrDoubleTapAction = newField("fab_single_or_double_tap_action", d.FabSingleOrDoubleTapAction, changed)
	s.FabLongPressAction = newField("fab_long_press_action", d.FabLongPressAction, changed)
	s.FabLongPressUpAction = newField("fab_long_press_up_action", d.FabLongPressUpAction, changed)
	s.FabLongPressExtraAction = newField("fab_long_press_extra_action", d.FabLongPressExtraAction, changed)
	s.FabDoubleLongPressAction = newField("fab_double_long_press_action", d.FabDoubleLongPressAction, changed)
	s.FabDoubleLongPressUpAction = newField("fab_double_long_press_up_action", d.FabDoubleLongPressUpAction, changed)
	s.FabDoubleLongPressExtraAction = newField("fab_double_long_press_extra_action", d.FabDoubleLongPressExtraAction, changed)

	s.Lens = newField("lens_facing", d.Lens, changed)
	s.Zoom = newPercent("zoom", d.Zoom, fixedBounds(-100, 100), changed)
	s.PreviewMode = newField("preview_mode", d.PreviewMode, changed)
	s.CaptureMode = newField("capture_mode", d.CaptureMode, changed)
	s.SleepTimeout = newField("sleep_mode_timeout", d.SleepTimeout, changed)

	s.PreviewRatio = newField("preview_ratio", d.PreviewRatio, changed)
	s.PreviewEnableOut = newField("preview_enable_out", d.PreviewEnableOut, changed)
	s.PreviewSize = newPercent("preview_size", d.PreviewSize, fixedBounds(10, 100), changed)

	// Slid-out previews may sit almost entirely off either edge.
	outBounds := func() (int, int) {
		if s.PreviewEnableOut.Get() {
			return -99, 199
		}
		return 0, 100
	}
	s.PreviewX = newPercent("preview_x", d.PreviewX, outBounds, changed, reactive.On[bool](s.PreviewEnableOut))
	s.PreviewY = newPercent("preview_y", d.PreviewY, outBounds, changed, reactive.On[bool](s.PreviewEnableOut))

	s.PreviewEnableTouch = newField("preview_enable_touch", d.PreviewEnableTouch, changed)
	// A touchable preview must stay visible enough to find.
	alphaBounds := func() (int, int) {
		if s.PreviewEnableTouch.Get() {
			return 15, 100
		}
		return 5, 80
	}
	s.PreviewAlpha = newPercent("preview_alpha", d.PreviewAlpha, alphaBounds, changed, reactive.On[bool](s.PreviewEnableTouch))

	s.PreviewSingleTapAction = newField("preview_single_tap_action", d.PreviewSingleTapAction, changed)
	s.PreviewDoubleTapAction = newField("preview_double_tap_action", d.PreviewDoubleTapAction, changed)
	s.PreviewLongPressAction = newField("preview_long_press_action", d.PreviewLongPressAction, changed)
	s.PreviewLongPressUpAction = newField("preview_long_press_up_action", d.PreviewLongPressUpAction, changed)
	s.PreviewDoubleLongPressAction = newField("preview_double_long_press_action", d.PreviewDoubleLongPressAction, changed)
	s.PreviewDoubleLongPressUpAction = newField("preview_double_long_press_up_action", d.PreviewDoubleLongPressUpAction, changed)
	s.PreviewEnableMove = newField("preview_enable_move", d.PreviewEnableMove, changed)
	s.PreviewScaleAction = newField("preview_scale_action", d.PreviewScaleAction, changed)

	s.entries = []Entry{
		s.FabSingleOrDoubleTapAction, s.FabLongPressAction, s.FabLongPressUpAction,
		s.FabLongPressExtraAction, s.FabDoubleLongPressAction, s.FabDoubleLongPressUpAction,
		s.FabDoubleLongPressExtraAction,
		s.Lens, s.Zoom, s.PreviewMode, s.CaptureMode, s.SleepTimeout,
		s.PreviewRatio, s.PreviewEnableOut, s.PreviewSize, s.PreviewX, s.PreviewY,
		s.PreviewAlpha, s.PreviewEnableTouch,
		s.PreviewSingleTapAction, s.PreviewDoubleTapAction, s.PreviewLongPressAction,
		s.PreviewLongPressUpAction, s.PreviewDoubleLongPressAction,
		s.PreviewDoubleLongPressUpAction, s.PreviewEnableMove, s.PreviewScaleAction,
	}
	return s
}

// Entries lists every field in settings-page order.
func (s *Settings) Entries() []Entry {
	return s.entries
}

// Entry looks a field up by key.
func (s *Settings) Entry(key string) (Entry, bool) {
	for _, e := range s.entries {
		if e.Key() == key {
			return e, true
		}
	}
	return nil, false
}

// Reset restores every unlocked field to its default.
func (s *Settings) Reset() {
	for _, e := range s.entries {
		e.Reset()
	}
}

// PreviewAction returns the action configured for g on the preview.
func (s *Settings) PreviewAction(g gesture.Gesture) action.GestureAction {
	switch g {
	case gesture.SingleTap:
		return s.PreviewSingleTapAction.Get()
	case gesture.DoubleTap:
		return s.PreviewDoubleTapAction.Get()
	case gesture.LongPress:
		return s.PreviewLongPressAction.Get()
	case gesture.LongPressUp:
		return s.PreviewLongPressUpAction.Get()
	case gesture.DoubleLongPress:
		return s.PreviewDoubleLongPressAction.Get()
	case gesture.DoubleLongPressUp:
		return s.PreviewDoubleLongPressUpAction.Get()
	}
	return action.None
}

// Fab holds the floating button settings shared by all profiles.
type Fab struct {
	X               *Percent
	Y               *Percent
	IdleTimeout     *Field[idle.Timeout]
	IdleAlpha       *Percent
	OpenMenuGesture *Field[gesture.Gesture]

	entries []Entry
}

func newFab(changed func()) *Fab {
	f := &Fab{
		X:               newPercent("x", item(1.0, on), fixedBounds(0, 100), changed),
		Y:               newPercent("y", item(0.6, on), fixedBounds(0, 100), changed),
		IdleTimeout:     newField("idle_timeout", item(idle.Second5, on), changed),
		IdleAlpha:       newPercent("idle_alpha", item(0.4, on), fixedBounds(15, 99), changed),
		OpenMenuGesture: newField("open_menu_gesture", item(gesture.SingleTap, on), changed),
	}
	// The menu opens on a single or a double tap, nothing else.
	f.OpenMenuGesture.normalize = func(g gesture.Gesture) gesture.Gesture {
		if g == gesture.DoubleTap {
			return g
		}
		return gesture.SingleTap
	}
	f.entries = []Entry{f.X, f.Y, f.IdleTimeout, f.IdleAlpha, f.OpenMenuGesture}
	return f
}

// Entries lists every field.
func (f *Fab) Entries() []Entry {
	return f.entries
}

// Entry looks a field up by key.
func (f *Fab) Entry(key string) (Entry, bool) {
	for _, e := range f.entries {
		if e.Key() == key {
			return e, true
		}
	}
	return nil, false
}
