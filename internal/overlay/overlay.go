// Package overlay defines what the session needs from the desktop it floats
// on: positioned surfaces, a context menu, a foreground indicator and window
// geometry.
package overlay

import (
	"image"

	"github.com/phinze/inviscam/internal/gesture"
	"github.com/phinze/inviscam/internal/window"
)

// Params positions and styles a surface.
type Params struct {
	X, Y          int
	Width, Height int
	Alpha         float64

	Touchable bool
	Focusable bool
	// NoLimits lets the surface extend past the usable area.
	NoLimits bool
	Visible  bool
}

// Surface is one floating element owned by the host.
type Surface interface {
	// Update moves and restyles the surface.
	Update(p Params)
	// SetImage replaces the surface content. Safe from any goroutine.
	SetImage(img image.Image)
	// Remove takes the surface off screen. The surface is unusable after.
	Remove()
}

// MenuItem is one entry of a context menu.
type MenuItem struct {
	Label   string
	Checked bool
	Danger  bool
	Do      func()
}

// Host is a display that can float surfaces over other applications. All
// callbacks handed to a Host may be invoked from any goroutine.
type Host interface {
	window.Source

	// AddSurface creates a surface. onTouch receives the touch stream
	// directed at it.
	AddSurface(name string, p Params, onTouch func(gesture.TouchEvent)) Surface

	// ShowMenu pops a menu anchored at x, y.
	ShowMenu(x, y int, items []MenuItem)

	// StartForeground shows the persistent "running" indicator. onStop is
	// called when the user asks to stop from it.
	StartForeground(onStop func()) error
	// StopForeground hides the indicator.
	StopForeground()

	// OpenApp brings the main window forward.
	OpenApp()

	// Notice shows a short message identified by id.
	Notice(id string)
}
