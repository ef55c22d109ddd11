package window

import (
	"testing"
	"time"

	"github.com/phinze/inviscam/internal/loop"
)

type fakeSource struct {
	current Metrics
	watch   func(Metrics)
}

func (f *fakeSource) Metrics() Metrics { return f.current }

func (f *fakeSource) WatchMetrics(fn func(Metrics)) func() {
	f.watch = fn
	return func() { f.watch = nil }
}

func TestRotationFromDegrees(t *testing.T) {
	tests := map[int]Rotation{0: Rotation0, 89: Rotation90, 180: Rotation180, 270: Rotation270, 359: Rotation0, -90: Rotation270}
	for deg, want := range tests {
		if got := RotationFromDegrees(deg); got != want {
			t.Errorf("RotationFromDegrees(%d) = %v, want %v", deg, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	m := Metrics{Rotation: 5, OuterWidth: 1920, OuterHeight: 1080, InnerHeight: 2000}.Normalize()
	want := Metrics{Rotation: Rotation90, OuterWidth: 1920, OuterHeight: 1080, InnerWidth: 1920, InnerHeight: 1080}
	if m != want {
		t.Fatalf("got %+v, want %+v", m, want)
	}
}

// TestProvider_SuppressesDuplicates verifies identical snapshots from the
// source are not re-emitted and that updates stop after detaching.
func TestProvider_SuppressesDuplicates(t *testing.T) {
	sched := loop.NewManual(time.Unix(0, 0))
	p := NewProvider(sched)
	src := &fakeSource{current: Metrics{OuterWidth: 800, OuterHeight: 600}}

	var got []Metrics
	p.Metrics().Observe(func(m Metrics) { got = append(got, m) })

	detach := p.Attach(src)
	src.watch(Metrics{OuterWidth: 800, OuterHeight: 600, InnerWidth: 800, InnerHeight: 600})
	src.watch(Metrics{OuterWidth: 600, OuterHeight: 800, Rotation: Rotation90})
	sched.Flush()

	if len(got) != 3 {
		t.Fatalf("got %d snapshots, want 3: %+v", len(got), got)
	}
	if got[2].InnerWidth != 600 || got[2].Rotation != Rotation90 {
		t.Fatalf("last snapshot %+v", got[2])
	}

	watch := src.watch
	detach()
	watch(Metrics{OuterWidth: 1, OuterHeight: 1})
	sched.Flush()
	if len(got) != 3 {
		t.Fatal("update delivered after detach")
	}
}

func TestWindow(t *testing.T) {
	m := Metrics{OuterWidth: 1920, OuterHeight: 1080, InnerWidth: 1800, InnerHeight: 1000}
	if w, h := m.Window(true); w != 1920 || h != 1080 {
		t.Errorf("outer = %dx%d", w, h)
	}
	if w, h := m.Window(false); w != 1800 || h != 1000 {
		t.Errorf("inner = %dx%d", w, h)
	}
	if !m.Landscape() {
		t.Error("expected landscape")
	}
}
