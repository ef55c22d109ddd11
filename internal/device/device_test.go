package device

import "testing"

func TestEventKindString(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{EventKey, "key"},
		{EventDialPress, "dial_press"},
		{EventDialRotate, "dial_rotate"},
		{EventStripTouch, "strip_touch"},
		{EventStripSwipe, "strip_swipe"},
		{EventKind(42), "event(42)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("EventKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
