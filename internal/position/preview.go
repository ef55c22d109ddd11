package position

import (
	"fmt"
	"math"
)

// Ratio is the preview aspect-ratio policy.
type Ratio uint8

const (
	// MatchScreen fills the window.
	MatchScreen Ratio = iota + 1
	// Ratio4x3 fits a 4:3 frame.
	Ratio4x3
	// Ratio16x9 fits a 16:9 frame.
	Ratio16x9
	// Ratio1x1 fits a square.
	Ratio1x1
)

var ratioNames = map[Ratio]string{
	MatchScreen: "match_screen",
	Ratio4x3:    "ratio_4_3",
	Ratio16x9:   "ratio_16_9",
	Ratio1x1:    "ratio_1_1",
}

// Ratios lists every policy in display order.
func Ratios() []Ratio {
	return []Ratio{MatchScreen, Ratio4x3, Ratio16x9, Ratio1x1}
}

func (r Ratio) String() string {
	if s, ok := ratioNames[r]; ok {
		return s
	}
	return fmt.Sprintf("ratio(%d)", uint8(r))
}

// MarshalText implements encoding.TextMarshaler.
func (r Ratio) MarshalText() ([]byte, error) {
	s, ok := ratioNames[r]
	if !ok {
		return nil, fmt.Errorf("invalid preview ratio %d", uint8(r))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Ratio) UnmarshalText(b []byte) error {
	for k, v := range ratioNames {
		if v == string(b) {
			*r = k
			return nil
		}
	}
	return fmt.Errorf("unknown preview ratio %q", b)
}

// Size is a width and height in pixels.
type Size struct {
	Width  int
	Height int
}

// PreviewSize returns the preview surface size for a window of w x h. The
// frame is fit so it covers the whole of the window's shorter side, then
// scaled by fraction.
func PreviewSize(ratio Ratio, w, h int, fraction float64) Size {
	W, H := float64(w), float64(h)
	var pw, ph float64
	switch ratio {
	case Ratio4x3:
		pw, ph = fit(W, H, 4, 3)
	case Ratio16x9:
		pw, ph = fit(W, H, 16, 9)
	case Ratio1x1:
		side := min(W, H)
		pw, ph = side, side
	default:
		pw, ph = W, H
	}
	return Size{
		Width:  int(math.Round(pw * fraction)),
		Height: int(math.Round(ph * fraction)),
	}
}

// fit sizes an a:b frame (long side a) for the window. In landscape the long
// side runs horizontally, in portrait vertically.
func fit(W, H, a, b float64) (float64, float64) {
	if W > H {
		if W/H > a/b {
			return H * a / b, H
		}
		return W, W * b / a
	}
	if H/W > a/b {
		return W, W * a / b
	}
	return H * b / a, H
}
