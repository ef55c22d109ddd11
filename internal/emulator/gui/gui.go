// Package gui draws an emulator Screen, and a Deck when there is one, in a
// desktop window using Ebitengine.
package gui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/phinze/inviscam/internal/device"
	"github.com/phinze/inviscam/internal/emulator"
)

// Deck panel layout. Keys show at native size, the strip at half size.
const (
	keyDisplaySize     = emulator.KeySize
	keysPerRow         = 4
	keyRows            = 2
	stripDisplayWidth  = emulator.StripWidth / 2
	stripDisplayHeight = emulator.StripHeight / 2
	stripScale         = emulator.StripWidth / stripDisplayWidth
	dialSize           = 60
	marginX            = 20
	marginY            = 20
	headerHeight       = 30
	stripMarginY       = 36
	dialMarginY        = 25
	bottomMarginY      = 30

	keyAreaWidth  = keysPerRow * keyDisplaySize
	keySpacing    = (stripDisplayWidth - keyAreaWidth) / (keysPerRow + 1)
	keyAreaHeight = keyRows*keyDisplaySize + (keyRows-1)*keySpacing
	dialSpacing   = (stripDisplayWidth - device.DialCount*dialSize) / (device.DialCount + 1)

	deckWidth  = 2*marginX + stripDisplayWidth
	deckHeight = headerHeight + marginY + keyAreaHeight + stripMarginY + stripDisplayHeight + dialMarginY + dialSize + bottomMarginY
)

var (
	colorDesktop = color.RGBA{18, 18, 24, 255}
	colorPanel   = color.RGBA{30, 30, 30, 255}
	colorBorder  = color.RGBA{60, 60, 60, 255}
	colorBar     = color.RGBA{0, 0, 0, 255}
	colorMenu    = color.RGBA{48, 48, 56, 255}
	colorRule    = color.RGBA{70, 70, 80, 255}
	colorToast   = color.RGBA{66, 66, 66, 230}
	colorRunning = color.RGBA{244, 67, 54, 255}
)

type pressTarget uint8

const (
	pressNone pressTarget = iota
	pressScreen
	pressKey
	pressDial
	pressStrip
)

type cached struct {
	version int
	img     *ebiten.Image
}

// Game is the ebiten.Game showing the emulator.
type Game struct {
	ctx    context.Context
	title  string
	screen *emulator.Screen
	deck   *emulator.Deck

	screenW, height int
	images          map[string]cached

	press     pressTarget
	pressKey  device.KeyID
	pressDial device.DialID
	pressAt   time.Time
	pressPt   image.Point
}

// New creates a Game. deck may be nil.
func New(ctx context.Context, title string, screen *emulator.Screen, deck *emulator.Deck) *Game {
	return &Game{
		ctx:    ctx,
		title:  title,
		screen: screen,
		deck:   deck,
		images: make(map[string]cached),
	}
}

// Run opens the window and blocks until it is closed or ctx ends. It must be
// called from the main goroutine: macOS requires Cocoa on the main thread.
func (g *Game) Run() error {
	m := g.screen.Metrics()
	w, h := m.OuterWidth, m.OuterHeight
	if g.deck != nil {
		w += deckWidth
		h = max(h, deckHeight)
	}
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(g.title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("run emulator window: %w", err)
	}
	return nil
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	select {
	case <-g.ctx.Done():
		return ebiten.Termination
	default:
	}
	if g.screen.TakeRaise() && ebiten.IsWindowMinimized() {
		ebiten.RestoreWindow()
	}
	g.handleInput()
	return nil
}

// Layout implements ebiten.Game. The screen takes whatever the deck panel
// leaves.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w := outsideWidth
	if g.deck != nil {
		w -= deckWidth
	}
	w = max(w, 1)
	g.screenW, g.height = w, outsideHeight
	g.screen.Resize(w, outsideHeight)
	return outsideWidth, outsideHeight
}

// Draw implements ebiten.Game.
func (g *Game) Draw(dst *ebiten.Image) {
	g.drawScreen(dst, g.screen.Frame())
	if g.deck != nil {
		g.drawDeck(dst, g.screenW)
	}
}

func (g *Game) drawScreen(dst *ebiten.Image, f emulator.Frame) {
	w, h := f.Metrics.OuterWidth, f.Metrics.OuterHeight
	drawRect(dst, 0, 0, w, h, colorDesktop)

	seen := make(map[string]bool, len(f.Surfaces))
	for _, s := range f.Surfaces {
		seen[s.Name] = true
		img := g.imageFor(s)
		if img == nil || s.Bounds.Empty() {
			continue
		}
		iw, ih := img.Bounds().Dx(), img.Bounds().Dy()
		op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
		op.GeoM.Scale(float64(s.Bounds.Dx())/float64(iw), float64(s.Bounds.Dy())/float64(ih))
		op.GeoM.Translate(float64(s.Bounds.Min.X), float64(s.Bounds.Min.Y))
		op.ColorScale.ScaleAlpha(float32(s.Alpha))
		dst.DrawImage(img, op)
	}
	for name, c := range g.images {
		if !seen[name] {
			c.img.Deallocate()
			delete(g.images, name)
		}
	}

	// Status bar.
	drawRect(dst, 0, 0, w, emulator.StatusBarHeight, colorBar)
	ebitenutil.DebugPrintAt(dst, time.Now().Format("15:04"), 8, 4)
	if f.Foreground {
		drawCircle(dst, w-150, emulator.StatusBarHeight/2, 5, colorRunning)
		ebitenutil.DebugPrintAt(dst, "InvisCam: click to stop", w-140, 4)
	}

	// Nav bar, on the right in landscape.
	if f.Metrics.Landscape() {
		drawRect(dst, w-emulator.NavBarHeight, emulator.StatusBarHeight, emulator.NavBarHeight, h-emulator.StatusBarHeight, colorBar)
		drawCircle(dst, w-emulator.NavBarHeight/2, h/2, 10, colorBorder)
	} else {
		drawRect(dst, 0, h-emulator.NavBarHeight, w, emulator.NavBarHeight, colorBar)
		drawCircle(dst, w/2, h-emulator.NavBarHeight/2, 10, colorBorder)
	}

	// Toasts stack upwards from above the nav bar.
	y := h - emulator.NavBarHeight - 40
	for i := len(f.Notices) - 1; i >= 0; i-- {
		text := f.Notices[i]
		tw := len(text)*6 + 24
		drawRect(dst, (w-tw)/2, y, tw, 24, colorToast)
		ebitenutil.DebugPrintAt(dst, text, (w-tw)/2+12, y+4)
		y -= 32
	}

	if f.Menu != nil {
		b := f.MenuBounds
		drawRect(dst, b.Min.X, b.Min.Y, b.Dx(), b.Dy(), colorMenu)
		for i, item := range f.Menu {
			iy := b.Min.Y + i*emulator.MenuItemHeight
			if i > 0 {
				drawRect(dst, b.Min.X, iy, b.Dx(), 1, colorRule)
			}
			if item.Danger {
				drawRect(dst, b.Min.X, iy, 4, emulator.MenuItemHeight, colorRunning)
			}
			label := item.Label
			if item.Checked {
				label = "* " + label
			}
			ebitenutil.DebugPrintAt(dst, label, b.Min.X+12, iy+7)
		}
	}
}

// imageFor converts a surface image once per version.
func (g *Game) imageFor(s emulator.SurfaceView) *ebiten.Image {
	c, ok := g.images[s.Name]
	if ok && c.version == s.Version {
		return c.img
	}
	if ok {
		c.img.Deallocate()
		delete(g.images, s.Name)
	}
	if s.Image == nil || s.Image.Bounds().Empty() {
		return nil
	}
	img := ebiten.NewImageFromImage(s.Image)
	g.images[s.Name] = cached{version: s.Version, img: img}
	return img
}

func keyRect(originX, i int) image.Rectangle {
	row, col := i/keysPerRow, i%keysPerRow
	x := originX + marginX + keySpacing + col*(keyDisplaySize+keySpacing)
	y := headerHeight + marginY + row*(keyDisplaySize+keySpacing)
	return image.Rect(x, y, x+keyDisplaySize, y+keyDisplaySize)
}

func stripRect(originX int) image.Rectangle {
	x := originX + marginX
	y := headerHeight + marginY + keyAreaHeight + stripMarginY
	return image.Rect(x, y, x+stripDisplayWidth, y+stripDisplayHeight)
}

func dialCenter(originX, i int) image.Point {
	x := originX + marginX + dialSpacing + i*(dialSize+dialSpacing)
	y := stripRect(originX).Max.Y + dialMarginY
	return image.Pt(x+dialSize/2, y+dialSize/2)
}

func inDial(p image.Point, originX, i int) bool {
	c := dialCenter(originX, i)
	d := p.Sub(c)
	return d.X*d.X+d.Y*d.Y <= (dialSize/2)*(dialSize/2)
}

func (g *Game) drawDeck(dst *ebiten.Image, originX int) {
	drawRect(dst, originX, 0, deckWidth, max(g.height, deckHeight), colorPanel)
	ebitenutil.DebugPrintAt(dst, g.deck.ModelName(), originX+marginX, 8)

	brightness, keys, strip := g.deck.View()
	scale := float32(brightness) / 100

	for i, k := range keys {
		r := keyRect(originX, i)
		drawRect(dst, r.Min.X-2, r.Min.Y-2, r.Dx()+4, r.Dy()+4, colorBorder)
		if k == nil {
			continue
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
		op.ColorScale.Scale(scale, scale, scale, 1)
		img := ebiten.NewImageFromImage(k)
		dst.DrawImage(img, op)
		img.Deallocate()
	}

	sr := stripRect(originX)
	drawRect(dst, sr.Min.X-2, sr.Min.Y-2, sr.Dx()+4, sr.Dy()+4, colorBorder)
	if strip != nil {
		op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
		op.GeoM.Scale(1.0/stripScale, 1.0/stripScale)
		op.GeoM.Translate(float64(sr.Min.X), float64(sr.Min.Y))
		op.ColorScale.Scale(scale, scale, scale, 1)
		img := ebiten.NewImageFromImage(strip)
		dst.DrawImage(img, op)
		img.Deallocate()
	}

	for i := 0; i < device.DialCount; i++ {
		c := dialCenter(originX, i)
		radius := dialSize / 2
		drawCircle(dst, c.X, c.Y, radius, color.RGBA{80, 80, 80, 255})
		drawCircle(dst, c.X, c.Y, radius-6, color.RGBA{50, 50, 50, 255})
		drawCircle(dst, c.X, c.Y, radius-9, color.RGBA{70, 70, 70, 255})
		ebitenutil.DebugPrintAt(dst, fmt.Sprintf("D%d", i+1), c.X-8, c.Y-8)
	}

	ebitenutil.DebugPrintAt(dst, "Click keys | Scroll/click dials | Click/drag strip", originX+8, deckHeight-18)
}

func (g *Game) handleInput() {
	mx, my := ebiten.CursorPosition()
	pt := image.Pt(mx, my)
	onDeck := g.deck != nil && mx >= g.screenW

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.press = pressNone
		g.pressAt = time.Now()
		g.pressPt = pt
		if onDeck {
			g.pressOnDeck(pt)
		} else if g.screen.Press(mx, my) {
			g.press = pressScreen
		}
	}

	if g.press == pressScreen && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.screen.Drag(mx, my)
	}

	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		g.release(pt)
	}

	_, wheelY := ebiten.Wheel()
	if wheelY == 0 {
		return
	}
	if !onDeck {
		g.screen.Wheel(mx, my, wheelY)
		return
	}
	for i := 0; i < device.DialCount; i++ {
		if inDial(pt, g.screenW, i) {
			delta := int8(max(-5, min(5, wheelY)))
			if delta == 0 {
				delta = 1
				if wheelY < 0 {
					delta = -1
				}
			}
			go g.deck.RotateDial(device.DialID(i+1), delta)
			return
		}
	}
}

func (g *Game) pressOnDeck(pt image.Point) {
	for i := 0; i < device.KeyCount; i++ {
		if pt.In(keyRect(g.screenW, i)) {
			g.press, g.pressKey = pressKey, device.KeyID(i+1)
			return
		}
	}
	for i := 0; i < device.DialCount; i++ {
		if inDial(pt, g.screenW, i) {
			g.press, g.pressDial = pressDial, device.DialID(i+1)
			return
		}
	}
	if pt.In(stripRect(g.screenW)) {
		g.press = pressStrip
	}
}

func (g *Game) release(pt image.Point) {
	held := time.Since(g.pressAt)
	switch g.press {
	case pressScreen:
		g.screen.Release(pt.X, pt.Y)
	case pressKey:
		go g.deck.PressKey(g.pressKey, held)
	case pressDial:
		go g.deck.PressDial(g.pressDial, held)
	case pressStrip:
		sr := stripRect(g.screenW)
		start := g.pressPt.Sub(sr.Min).Mul(stripScale)
		end := image.Pt(
			max(0, min(pt.X-sr.Min.X, sr.Dx()-1)),
			max(0, min(pt.Y-sr.Min.Y, sr.Dy()-1)),
		).Mul(stripScale)

		d := end.Sub(start)
		if d.X*d.X+d.Y*d.Y < 400 {
			go g.deck.TouchStrip(start, held)
		} else {
			go g.deck.SwipeStrip(start, end)
		}
	}
	g.press = pressNone
}

func drawRect(dst *ebiten.Image, x, y, w, h int, c color.Color) {
	vector.DrawFilledRect(dst, float32(x), float32(y), float32(w), float32(h), c, false)
}

func drawCircle(dst *ebiten.Image, cx, cy, radius int, c color.Color) {
	vector.DrawFilledCircle(dst, float32(cx), float32(cy), float32(radius), c, true)
}
