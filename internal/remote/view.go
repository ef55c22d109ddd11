package remote

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"
	"time"

	"github.com/phinze/inviscam/internal/camera"
	"github.com/phinze/inviscam/internal/coordinator"
	"github.com/phinze/inviscam/internal/device"
	"github.com/phinze/inviscam/internal/profile"
	"github.com/phinze/inviscam/internal/render"
)

// keyFace is everything a key image depends on.
type keyFace struct {
	icon    render.Icon
	col     color.RGBA
	caption string
	active  bool
}

// stripFace is everything the strip image depends on.
type stripFace struct {
	title, detail string
	accent        color.RGBA
}

// view renders status onto a deck, skipping images that did not change.
type view struct {
	deck      device.Deck
	r         *render.Renderer
	keySize   int
	stripRect image.Rectangle

	keys  map[device.KeyID]keyFace
	strip stripFace
	drawn bool
}

func newView(deck device.Deck, r *render.Renderer) (*view, error) {
	kr, err := deck.KeyRect()
	if err != nil {
		return nil, fmt.Errorf("key size: %w", err)
	}
	sr, err := deck.StripRect()
	if err != nil {
		return nil, fmt.Errorf("strip size: %w", err)
	}
	return &view{
		deck:      deck,
		r:         r,
		keySize:   kr.Dx(),
		stripRect: sr,
		keys:      make(map[device.KeyID]keyFace),
	}, nil
}

func (v *view) show(st coordinator.Status, logger *slog.Logger) {
	for key, face := range keyFaces(st) {
		if old, ok := v.keys[key]; ok && old == face {
			continue
		}
		img := v.r.Key(v.keySize, face.icon, face.col, face.caption, face.active)
		if err := v.deck.SetKeyImage(key, img); err != nil {
			logger.Warn("set key image", "key", key, "error", err)
			continue
		}
		v.keys[key] = face
	}

	sf := stripFaceOf(st)
	if v.drawn && sf == v.strip {
		return
	}
	img := v.r.Strip(v.stripRect, sf.title, sf.detail, sf.accent)
	if err := v.deck.SetStripImage(img); err != nil {
		logger.Warn("set strip image", "error", err)
		return
	}
	v.strip, v.drawn = sf, true
}

// shortTitles fit a key caption.
var shortTitles = map[profile.ID]string{
	profile.PictureInPicture: "PiP",
	profile.Wallpaper:        "Wallpaper",
	profile.Mirror:           "Mirror",
	profile.Magnifier:        "Magnify",
	profile.Candid:           "Candid",
	profile.Custom:           "Custom",
}

func keyFaces(st coordinator.Status) map[device.KeyID]keyFace {
	faces := make(map[device.KeyID]keyFace, device.KeyCount)
	for key, id := range profileKeys() {
		active := st.Running && st.Profile == id.String()
		col := render.ColorGray
		if active {
			col = render.ColorGreen
		}
		faces[key] = keyFace{
			icon:    render.ProfileIcon(id.String()),
			col:     col,
			caption: shortTitles[id],
			active:  active,
		}
	}

	capture := keyFace{icon: render.IconCamera, col: render.ColorGray, caption: "Shoot"}
	if st.Running {
		capture.col = render.ColorWhite
		if st.CaptureMode == camera.CaptureVideo.String() {
			capture.icon = render.IconVideocam
			capture.caption = "Record"
		}
		if st.Recording {
			capture.icon = render.IconVideocam
			capture.col = render.ColorRed
			capture.caption = clock(st.RecordedDuration())
			capture.active = true
		}
	}
	faces[device.Key7] = capture

	sleep := keyFace{icon: render.IconSleep, col: render.ColorGray, caption: "Sleep"}
	if st.Running {
		sleep.col = render.ColorWhite
		if st.Sleeping {
			sleep.col = render.ColorIndigo
			sleep.caption = "Wake"
			sleep.active = true
		}
	}
	faces[device.Key8] = sleep
	return faces
}

func stripFaceOf(st coordinator.Status) stripFace {
	if !st.Running {
		return stripFace{title: "InvisCam", detail: "Stopped. Press a profile key to start.", accent: render.ColorGray}
	}
	title := st.Profile
	if id, err := profile.ParseID(st.Profile); err == nil {
		title = id.Title()
	}
	parts := []string{st.Phase, st.Lens, fmt.Sprintf("%.1fx", st.ZoomRatio)}
	accent := render.ColorGreen
	switch {
	case st.Recording:
		parts = append(parts, "REC "+clock(st.RecordedDuration()))
		accent = render.ColorRed
	case st.Sleeping:
		parts = append(parts, "sleeping")
		accent = render.ColorIndigo
	case st.Phase != camera.PhaseBound.String():
		accent = render.ColorGray
	}
	return stripFace{title: title, detail: strings.Join(parts, " | "), accent: accent}
}

// clock formats d as m:ss.
func clock(d time.Duration) string {
	s := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
