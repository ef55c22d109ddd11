package reactive

import (
	"slices"
	"testing"
)

// TestCell_SetNotifiesOnlyOnChange verifies the diff semantics of Set.
func TestCell_SetNotifiesOnlyOnChange(t *testing.T) {
	c := NewCell(1)
	var got []int
	cancel := c.Observe(func(v int) { got = append(got, v) })
	defer cancel()

	c.Set(1)
	c.Set(2)
	c.Set(2)
	c.Set(3)

	want := []int{1, 2, 3}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCell_CancelStopsDelivery(t *testing.T) {
	c := NewCell("a")
	var got []string
	cancel := c.Observe(func(v string) { got = append(got, v) })
	cancel()
	cancel()
	c.Set("b")

	if !slices.Equal(got, []string{"a"}) {
		t.Fatalf("got %v", got)
	}
	if c.HasObservers() {
		t.Fatal("expected no observers after cancel")
	}
}

// TestCell_NestedSetDeliversLatest verifies that a Set made from inside an
// observer does not cause stale values to be delivered afterwards.
func TestCell_NestedSetDeliversLatest(t *testing.T) {
	c := NewCell(0)
	var first, second []int
	c.Observe(func(v int) {
		first = append(first, v)
		if v == 1 {
			c.Set(2)
		}
	})
	c.Observe(func(v int) { second = append(second, v) })

	c.Set(1)

	if !slices.Equal(first, []int{0, 1, 2}) {
		t.Fatalf("first got %v", first)
	}
	if !slices.Equal(second, []int{0, 2}) {
		t.Fatalf("second got %v", second)
	}
}

func TestObserveOnce(t *testing.T) {
	c := NewCell(0)
	calls := 0
	ObserveOnce[int](c, func(v int) bool { return v >= 2 }, func(v int) {
		calls++
		if v != 2 {
			t.Errorf("got %d, want 2", v)
		}
	})

	c.Set(1)
	c.Set(2)
	c.Set(3)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if c.HasObservers() {
		t.Fatal("observer not removed")
	}
}

func TestObserveOnce_ImmediateMatch(t *testing.T) {
	c := NewCell(true)
	calls := 0
	ObserveOnce[bool](c, func(v bool) bool { return v }, func(bool) { calls++ })
	c.Set(false)
	c.Set(true)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if c.HasObservers() {
		t.Fatal("observer not removed")
	}
}

func TestObserveOnce_CancelAbandons(t *testing.T) {
	c := NewCell(0)
	cancel := ObserveOnce[int](c, func(v int) bool { return v == 1 }, func(int) {
		t.Fatal("cancelled wait fired")
	})
	cancel()
	c.Set(1)
}

func TestMap_LazyAndDiffed(t *testing.T) {
	c := NewCell(1)
	even := Map[int](c, func(v int) bool { return v%2 == 0 })

	if c.HasObservers() {
		t.Fatal("map subscribed before being observed")
	}
	if even.Get() {
		t.Fatal("1 reported even")
	}

	var got []bool
	cancel := even.Observe(func(v bool) { got = append(got, v) })
	c.Set(3)
	c.Set(4)
	c.Set(6)
	cancel()

	if !slices.Equal(got, []bool{false, true}) {
		t.Fatalf("got %v", got)
	}
	if c.HasObservers() {
		t.Fatal("map still subscribed after last observer left")
	}
	c.Set(7)
	if even.Get() {
		t.Fatal("Get after deactivation returned stale value")
	}
}

func TestCombine3(t *testing.T) {
	a, b, c := NewCell(1), NewCell("x"), NewCell(false)
	var got []Triple[int, string, bool]
	Combine3[int, string, bool](a, b, c).Observe(func(v Triple[int, string, bool]) {
		got = append(got, v)
	})

	b.Set("y")
	c.Set(false)
	c.Set(true)

	want := []Triple[int, string, bool]{
		{1, "x", false},
		{1, "y", false},
		{1, "y", true},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDerive(t *testing.T) {
	a, b := NewCell(2), NewCell(3)
	sum := Derive(func() int { return a.Get() + b.Get() }, On[int](a), On[int](b))

	var got []int
	sum.Observe(func(v int) { got = append(got, v) })
	a.Set(4)
	b.Set(1)
	b.Set(1)

	if !slices.Equal(got, []int{5, 7, 5}) {
		t.Fatalf("got %v", got)
	}
}

func TestSwitchMap(t *testing.T) {
	inner1 := NewCell(10)
	inner2 := NewCell(20)
	sel := NewCell[*Cell[int]](nil)
	out := SwitchMap[*Cell[int]](sel, func(c *Cell[int]) Observable[int] {
		if c == nil {
			return Const(0)
		}
		return c
	})

	var got []int
	cancel := out.Observe(func(v int) { got = append(got, v) })

	sel.Set(inner1)
	inner1.Set(11)
	sel.Set(inner2)
	inner1.Set(12)
	inner2.Set(21)
	cancel()

	if !slices.Equal(got, []int{0, 10, 11, 20, 21}) {
		t.Fatalf("got %v", got)
	}
	if inner2.HasObservers() || sel.HasObservers() {
		t.Fatal("switch map still subscribed after cancel")
	}
}

func TestScope_ClosesInReverse(t *testing.T) {
	var s Scope
	var order []int
	s.Add(func() { order = append(order, 1) })
	s.Add(func() { order = append(order, 2) })
	s.Close()
	s.Close()
	s.Add(func() { order = append(order, 3) })

	if !slices.Equal(order, []int{2, 1, 3}) {
		t.Fatalf("got %v", order)
	}
	if !s.Closed() {
		t.Fatal("scope not closed")
	}
}

func TestBind(t *testing.T) {
	var s Scope
	c := NewCell(0)
	n := 0
	Bind[int](&s, c, func(int) { n++ })
	c.Set(1)
	s.Close()
	c.Set(2)
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
}
