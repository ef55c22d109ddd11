// Package render draws the overlay and remote imagery: icons from embedded
// SVG, labels from the Go fonts.
package render

import (
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

//go:embed icons/*.svg
var iconFS embed.FS

// Icon names an embedded SVG icon.
type Icon string

const (
	IconCamera   Icon = "camera"
	IconVideocam Icon = "videocam"
	IconSleep    Icon = "bedtime"
	IconStop     Icon = "stop"
)

// ProfileIcon returns the icon of a profile by its name.
func ProfileIcon(name string) Icon {
	return Icon(name)
}

// Common colors
var (
	ColorBackground = color.RGBA{25, 25, 25, 255}
	ColorKeyBg      = color.RGBA{40, 40, 40, 255}
	ColorWhite      = color.RGBA{255, 255, 255, 255}
	ColorGray       = color.RGBA{160, 160, 160, 255}
	ColorRed        = color.RGBA{244, 67, 54, 255}
	ColorGreen      = color.RGBA{76, 175, 80, 255}
	ColorIndigo     = color.RGBA{92, 107, 192, 255}
)

type iconKey struct {
	name Icon
	size int
	col  color.RGBA
}

// Renderer draws images. It is safe for concurrent use.
type Renderer struct {
	labelFace font.Face
	titleFace font.Face
	smallFace font.Face

	mu    sync.Mutex
	icons map[iconKey]image.Image
}

// New parses the fonts.
func New() (*Renderer, error) {
	ttBold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	ttRegular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}

	r := &Renderer{icons: make(map[iconKey]image.Image)}
	if r.labelFace, err = newFace(ttBold, 14); err != nil {
		return nil, fmt.Errorf("create label face: %w", err)
	}
	if r.titleFace, err = newFace(ttBold, 22); err != nil {
		return nil, fmt.Errorf("create title face: %w", err)
	}
	if r.smallFace, err = newFace(ttRegular, 12); err != nil {
		return nil, fmt.Errorf("create small face: %w", err)
	}
	return r, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Icon renders an embedded icon. Results are cached.
func (r *Renderer) Icon(name Icon, size int, col color.Color) (image.Image, error) {
	key := iconKey{name: name, size: size, col: color.RGBAModel.Convert(col).(color.RGBA)}
	r.mu.Lock()
	img, ok := r.icons[key]
	r.mu.Unlock()
	if ok {
		return img, nil
	}

	data, err := iconFS.ReadFile("icons/" + string(name) + ".svg")
	if err != nil {
		return nil, fmt.Errorf("unknown icon %q: %w", name, err)
	}
	img, err = renderSVG(string(data), size, key.col)
	if err != nil {
		return nil, fmt.Errorf("render icon %q: %w", name, err)
	}

	r.mu.Lock()
	r.icons[key] = img
	r.mu.Unlock()
	return img, nil
}

// renderSVG renders an SVG string to an image with the given size and color.
func renderSVG(svgContent string, size int, iconColor color.RGBA) (image.Image, error) {
	hexColor := fmt.Sprintf("#%02x%02x%02x", iconColor.R, iconColor.G, iconColor.B)
	svgContent = strings.ReplaceAll(svgContent, "currentColor", hexColor)

	icon, err := oksvg.ReadIconStream(strings.NewReader(svgContent))
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	icon.SetTarget(0, 0, float64(size), float64(size))

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	return img, nil
}

// Fab draws the floating button: a dark disc with a tinted icon and an
// optional label under it.
func (r *Renderer) Fab(size int, icon Icon, col color.Color, label string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	fillCircle(img, size/2, size/2, size/2, ColorBackground)

	iconSize := size * 5 / 10
	if label != "" {
		iconSize = size * 4 / 10
	}
	if ic, err := r.Icon(icon, iconSize, col); err == nil {
		off := (size - iconSize) / 2
		top := off
		if label != "" {
			top = size/2 - iconSize + 4
		}
		draw.Draw(img, image.Rect(off, top, off+iconSize, top+iconSize), ic, image.Point{}, draw.Over)
	}
	if label != "" {
		drawTextCentered(img, label, size/2, size*3/4+4, r.labelFace, col)
	}
	return img
}

// Key draws a remote key: an icon over a caption. Active keys get a bright
// border.
func (r *Renderer) Key(size int, icon Icon, col color.Color, caption string, active bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(ColorKeyBg), image.Point{}, draw.Src)
	if active {
		strokeRect(img, img.Bounds(), 3, col)
	}

	iconSize := size / 2
	if ic, err := r.Icon(icon, iconSize, col); err == nil {
		off := (size - iconSize) / 2
		draw.Draw(img, image.Rect(off, 8, off+iconSize, 8+iconSize), ic, image.Point{}, draw.Over)
	}
	if caption != "" {
		drawTextCentered(img, caption, size/2, size-10, r.smallFace, ColorWhite)
	}
	return img
}

// Strip draws a status strip: a title line and a detail line, with an
// accent bar on the left.
func (r *Renderer) Strip(rect image.Rectangle, title, detail string, accent color.Color) *image.RGBA {
	img := image.NewRGBA(rect)
	draw.Draw(img, img.Bounds(), image.NewUniform(ColorBackground), image.Point{}, draw.Src)
	bar := image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+8, rect.Max.Y)
	draw.Draw(img, bar, image.NewUniform(accent), image.Point{}, draw.Src)

	x := rect.Min.X + 24
	drawText(img, title, x, rect.Min.Y+rect.Dy()/2-4, r.titleFace, ColorWhite)
	drawText(img, detail, x, rect.Min.Y+rect.Dy()/2+22, r.labelFace, ColorGray)
	return img
}

// drawText draws text at the given position.
func drawText(img *image.RGBA, text string, x, y int, face font.Face, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// drawTextCentered draws text horizontally centered at the given position.
func drawTextCentered(img *image.RGBA, text string, centerX, y int, face font.Face, col color.Color) {
	width := font.MeasureString(face, text).Ceil()
	drawText(img, text, centerX-width/2, y, face, col)
}

func fillCircle(img *image.RGBA, cx, cy, radius int, col color.Color) {
	r2 := radius * radius
	for y := -radius; y < radius; y++ {
		for x := -radius; x < radius; x++ {
			// Sample at pixel centers.
			dx, dy := 2*x+1, 2*y+1
			if dx*dx+dy*dy <= 4*r2 {
				img.Set(cx+x, cy+y, col)
			}
		}
	}
}

func strokeRect(img *image.RGBA, r image.Rectangle, w int, col color.Color) {
	src := image.NewUniform(col)
	draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w), src, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y), src, image.Point{}, draw.Src)
}
