// Package position converts floating widget placements between absolute
// pixels and normalized coordinates, and sizes the preview surface.
//
// A normalized coordinate of 0 puts the widget against the leading edge and 1
// against the trailing edge. Values below 0 or above 1 slide the widget off
// that edge by a multiple of its own size, so -1 and 2 are fully hidden.
package position

import "math"

// PixelFromCoordinate returns the pixel offset for coordinate c of a widget of
// size size inside a window of size window.
func PixelFromCoordinate(c float64, size, window int) int {
	w, W := float64(size), float64(window)
	var p float64
	switch {
	case c < 0:
		p = w*(c+1) - w
	case c > 1:
		if size == window {
			p = w * (c - 1)
		} else {
			p = w*(c-1) - w + W
		}
	default:
		if size == window {
			p = 0
		} else {
			p = (W - w) * c
		}
	}
	return int(math.Round(p))
}

// CoordinateFromPixel is the inverse of PixelFromCoordinate. When the widget
// fills the window and sits exactly at 0 the position is ambiguous, and an
// empty widget has no position at all; both return previous unchanged.
func CoordinateFromPixel(pixel, size, window int, previous float64) float64 {
	if size <= 0 {
		return previous
	}
	p, w, W := float64(pixel), float64(size), float64(window)
	if size == window {
		switch {
		case pixel < 0:
			return (p+w)/w - 1
		case pixel > 0:
			return p/w + 1
		default:
			return previous
		}
	}
	switch {
	case pixel < 0:
		return (p+w)/w - 1
	case pixel > window-size:
		return (p+w-W)/w + 1
	default:
		return p / (W - w)
	}
}

// Clamp limits a coordinate to the on-screen range [0, 1], or to the
// off-screen range [lo, hi] when the widget may leave the window.
func Clamp(c float64, allowOut bool, lo, hi float64) float64 {
	if !allowOut {
		lo, hi = 0, 1
	}
	return min(max(c, lo), hi)
}
