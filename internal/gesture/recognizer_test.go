package gesture

import (
	"fmt"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/phinze/inviscam/internal/loop"
)

// recordingTarget is a Target that logs every callback.
type recordingTarget struct {
	move, scaleOK bool
	x, y          int
	scale         float64

	events []string
	moves  [][2]int
	scales []float64
}

func (r *recordingTarget) EnableMove() bool { return r.move }
func (r *recordingTarget) EnableScale() bool { return r.scaleOK }
func (r *recordingTarget) Position() (int, int) { return r.x, r.y }
func (r *recordingTarget) Scale() float64 { return r.scale }
func (r *recordingTarget) OnDown() { r.events = append(r.events, "down") }
func (r *recordingTarget) OnUpOrCancel() { r.events = append(r.events, "up") }
func (r *recordingTarget) OnGesture(g Gesture) { r.events = append(r.events, g.String()) }
func (r *recordingTarget) OnScale(scale float64) { r.scales = append(r.scales, scale) }

func (r *recordingTarget) OnMove(x, y int) {
	r.moves = append(r.moves, [2]int{x, y})
	r.x, r.y = x, y
}

type harness struct {
	t      *testing.T
	sched  *loop.Manual
	rec    *Recognizer
	target *recordingTarget
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	sched := loop.NewManual(time.Unix(0, 0))
	return &harness{
		t:      t,
		sched:  sched,
		rec:    NewRecognizer(sched, DefaultConfig()),
		target: &recordingTarget{move: true, scale: 1},
	}
}

func (h *harness) send(action Action, index int, pts ...Pointer) {
	h.rec.OnTouchEvent(h.target, TouchEvent{
		Action:   action,
		Index:    index,
		Pointers: pts,
		Time:     h.sched.Now(),
	})
}

func (h *harness) wait(ms int) {
	h.sched.Advance(time.Duration(ms) * time.Millisecond)
}

func (h *harness) expect(want ...string) {
	h.t.Helper()
	if !slices.Equal(h.target.events, want) {
		h.t.Fatalf("events = %v, want %v", h.target.events, want)
	}
}

func pt(x, y float64) Pointer { return Pointer{X: x, Y: y} }

func TestRecognizer_SingleTap(t *testing.T) {
	h := newHarness(t)
	h.send(ActionDown, 0, pt(10, 10))
	h.wait(50)
	h.send(ActionUp, 0, pt(10, 10))
	h.expect("down", "up")

	h.wait(300)
	h.expect("down", "up", "single_tap")
}

// TestRecognizer_SlowTap verifies a press held past the double tap window
// but released before a long press is still a single tap, confirmed on
// release.
func TestRecognizer_SlowTap(t *testing.T) {
	h := newHarness(t)
	h.send(ActionDown, 0, pt(10, 10))
	h.wait(400)
	h.send(ActionUp, 0, pt(10, 10))
	h.wait(1000)
	h.expect("down", "up", "single_tap")
}

func TestRecognizer_DoubleTap(t *testing.T) {
	h := newHarness(t)
	h.send(ActionDown, 0, pt(10, 10))
	h.wait(50)
	h.send(ActionUp, 0, pt(10, 10))
	h.wait(100)
	h.send(ActionDown, 0, pt(12, 10))
	h.wait(50)
	h.send(ActionUp, 0, pt(12, 10))
	h.wait(1000)
	h.expect("down", "up", "down", "double_tap", "up")
}

func TestRecognizer_TooSlowForDoubleTap(t *testing.T) {
	h := newHarness(t)
	h.send(ActionDown, 0, pt(10, 10))
	h.wait(50)
	h.send(ActionUp, 0, pt(10, 10))
	h.wait(400)
	h.send(ActionDown, 0, pt(10, 10))
	h.wait(50)
	h.send(ActionUp, 0, pt(10, 10))
	h.wait(400)
	h.expect("down", "up", "single_tap", "down", "up", "single_tap")
}

func TestRecognizer_LongPress(t *testing.T) {
	h := newHarness(t)
	h.send(ActionDown, 0, pt(10, 10))
	h.wait(499)
	h.expect("down")
	h.wait(1)
	h.expect("down", "long_press")
	h.wait(1000)
	h.send(ActionUp, 0, pt(10, 10))
	h.wait(1000)
	h.expect("down", "long_press", "long_press_up", "up")
}

func TestRecognizer_DoubleLongPress(t *testing.T) {
	h := newHarness(t)
	h.send(ActionDown, 0, pt(10, 10))
	h.wait(50)
	h.send(ActionUp, 0, pt(10, 10))
	h.wait(100)
	h.send(ActionDown, 0, pt(10, 10))
	h.wait(600)
	h.send(ActionUp, 0, pt(10, 10))
	h.wait(1000)
	h.expect("down", "up", "down", "double_long_press", "double_long_press_up", "up")
}

func TestRecognizer_Drag(t *testing.T) {
	h := newHarness(t)
	h.target.x, h.target.y = 10, 20

	h.send(ActionDown, 0, pt(100, 100))
	h.send(ActionMove, 0, pt(104, 100))
	h.send(ActionMove, 0, pt(120, 100))
	h.send(ActionMove, 0, pt(130, 110))
	h.send(ActionUp, 0, pt(130, 110))
	h.wait(1000)

	want := [][2]int{{30, 20}, {40, 30}}
	if !slices.Equal(h.target.moves, want) {
		t.Fatalf("moves = %v, want %v", h.target.moves, want)
	}
	h.expect("down", "up")
}

func TestRecognizer_DragDisabled(t *testing.T) {
	h := newHarness(t)
	h.target.move = false
	h.send(ActionDown, 0, pt(100, 100))
	h.send(ActionMove, 0, pt(200, 100))
	h.send(ActionUp, 0, pt(200, 100))
	if len(h.target.moves) != 0 {
		t.Fatalf("moved with move disabled: %v", h.target.moves)
	}
}

func TestRecognizer_LongPressFreezesMovement(t *testing.T) {
	h := newHarness(t)
	h.send(ActionDown, 0, pt(100, 100))
	h.wait(500)
	h.send(ActionMove, 0, pt(200, 100))
	h.send(ActionUp, 0, pt(200, 100))
	if len(h.target.moves) != 0 {
		t.Fatalf("moved during long press: %v", h.target.moves)
	}
}

// TestRecognizer_Pinch verifies the scale accumulates from the target's
// scale and that the second pointer blocks dragging.
func TestRecognizer_Pinch(t *testing.T) {
	h := newHarness(t)
	h.target.scaleOK = true
	h.target.scale = 0.5

	h.send(ActionDown, 0, pt(100, 100))
	h.send(ActionPointerDown, 1, pt(100, 100), pt(200, 100))
	h.send(ActionMove, 0, pt(80, 100), pt(220, 100))
	h.send(ActionMove, 0, pt(50, 100), pt(250, 100))
	h.send(ActionPointerUp, 1, pt(50, 100), pt(250, 100))
	h.send(ActionUp, 0, pt(50, 100))
	h.wait(1000)

	if len(h.target.scales) == 0 {
		t.Fatal("no scale reported")
	}
	got := h.target.scales[len(h.target.scales)-1]
	if want := 0.5 * 200 / 140; math.Abs(got-want) > 1e-9 {
		t.Fatalf("final scale = %v, want %v", got, want)
	}
	if len(h.target.moves) != 0 {
		t.Fatalf("moved during pinch: %v", h.target.moves)
	}
	h.expect("down", "up")
}

func TestRecognizer_PinchIgnoredWhenScaleDisabled(t *testing.T) {
	h := newHarness(t)
	h.send(ActionDown, 0, pt(100, 100))
	h.send(ActionPointerDown, 1, pt(100, 100), pt(200, 100))
	h.send(ActionMove, 0, pt(50, 100), pt(250, 100))
	if len(h.target.scales) != 0 {
		t.Fatalf("scaled with scale disabled: %v", h.target.scales)
	}
}

func TestRecognizer_PinchSuppressedDuringLongPress(t *testing.T) {
	h := newHarness(t)
	h.target.scaleOK = true
	h.send(ActionDown, 0, pt(100, 100))
	h.wait(500)
	h.send(ActionPointerDown, 1, pt(100, 100), pt(200, 100))
	h.send(ActionMove, 0, pt(50, 100), pt(250, 100))
	h.send(ActionMove, 0, pt(20, 100), pt(280, 100))
	if len(h.target.scales) != 0 {
		t.Fatalf("scaled during long press: %v", h.target.scales)
	}
}

// TestRecognizer_PinchSuppressedDuringDoubleTap verifies a second finger
// landing during the second tap of a double tap does not scale.
func TestRecognizer_PinchSuppressedDuringDoubleTap(t *testing.T) {
	h := newHarness(t)
	h.target.scaleOK = true
	h.send(ActionDown, 0, pt(100, 100))
	h.wait(50)
	h.send(ActionUp, 0, pt(100, 100))
	h.wait(100)
	h.send(ActionDown, 0, pt(100, 100))
	h.send(ActionPointerDown, 1, pt(100, 100), pt(200, 100))
	h.send(ActionMove, 0, pt(50, 100), pt(250, 100))
	h.send(ActionMove, 0, pt(20, 100), pt(280, 100))
	if len(h.target.scales) != 0 {
		t.Fatalf("scaled during double tap: %v", h.target.scales)
	}
}

func TestRecognizer_Cancel(t *testing.T) {
	h := newHarness(t)
	h.send(ActionDown, 0, pt(10, 10))
	h.send(ActionCancel, 0, pt(10, 10))
	h.wait(1000)
	h.expect("down", "up")
}

func TestRecognizer_ResetDropsPendingTap(t *testing.T) {
	h := newHarness(t)
	h.send(ActionDown, 0, pt(10, 10))
	h.send(ActionUp, 0, pt(10, 10))
	h.rec.Reset()
	h.wait(1000)
	h.expect("down", "up")
}

func TestGestureText(t *testing.T) {
	for _, g := range All() {
		b, err := g.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Gesture
		if err := back.UnmarshalText(b); err != nil || back != g {
			t.Fatalf("round trip %s: %v %v", b, back, err)
		}
	}
	if got := fmt.Sprint(Gesture(99)); got != "gesture(99)" {
		t.Fatalf("got %q", got)
	}
}
