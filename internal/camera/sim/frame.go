package sim

import (
	"image"
	"image/color"
	"strings"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/phinze/inviscam/internal/camera"
	"github.com/phinze/inviscam/internal/window"
)

// renderFrame draws a synthetic w x h frame for lens at time t, zoomed by
// ratio about its center and rotated for the display.
func renderFrame(lens camera.LensFacing, w, h int, ratio float64, rot window.Rotation, t time.Time) image.Image {
	base := image.NewRGBA(image.Rect(0, 0, w, h))
	tint := uint8(200)
	if lens == camera.LensBack {
		tint = 60
	}
	for y := 0; y < h; y++ {
		g := uint8(y * 255 / h)
		for x := 0; x < w; x++ {
			base.SetRGBA(x, y, color.RGBA{R: uint8(x * 255 / w), G: g, B: tint, A: 0xff})
		}
	}

	// A bar sweeping across once every two seconds makes motion visible.
	bar := int(t.UnixMilli()%2000) * w / 2000
	draw.Draw(base, image.Rect(bar, 0, min(bar+w/40+1, w), h), image.White, image.Point{}, draw.Src)

	label(base, 12, 24, strings.ToUpper(lens.String()))
	label(base, 12, 44, t.Format("15:04:05.000"))

	out := zoomFrame(base, ratio)
	if rot == window.Rotation90 || rot == window.Rotation270 {
		return rotateQuarter(out, rot == window.Rotation90)
	}
	return out
}

func label(dst draw.Image, x, y int, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// zoomFrame crops the center by 1/ratio for ratios above 1 and letterboxes
// the frame into a smaller center rectangle for ratios below 1.
func zoomFrame(src *image.RGBA, ratio float64) *image.RGBA {
	if ratio == 1 || ratio <= 0 {
		return src
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewRGBA(b)
	if ratio > 1 {
		cw, ch := int(float64(w)/ratio), int(float64(h)/ratio)
		crop := image.Rect((w-cw)/2, (h-ch)/2, (w+cw)/2, (h+ch)/2)
		draw.ApproxBiLinear.Scale(out, b, src, crop, draw.Src, nil)
		return out
	}
	draw.Draw(out, b, image.Black, image.Point{}, draw.Src)
	sw, sh := int(float64(w)*ratio), int(float64(h)*ratio)
	dst := image.Rect((w-sw)/2, (h-sh)/2, (w+sw)/2, (h+sh)/2)
	draw.ApproxBiLinear.Scale(out, dst, src, b, draw.Src, nil)
	return out
}

// rotateQuarter rotates src a quarter turn, clockwise when cw is set.
func rotateQuarter(src *image.RGBA, cw bool) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.RGBAAt(b.Min.X+x, b.Min.Y+y)
			if cw {
				out.SetRGBA(h-1-y, x, c)
			} else {
				out.SetRGBA(y, w-1-x, c)
			}
		}
	}
	return out
}
