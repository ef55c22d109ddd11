package action

import "fmt"

// ExtraAction runs alongside a long press: Down when it starts and Up when
// the finger lifts.
type ExtraAction uint8

const (
	ExtraNone ExtraAction = iota + 1
	HideFab
	KeepAwake
	HideFabAndKeepAwake
)

var extraActionNames = map[ExtraAction]string{
	ExtraNone:           "none",
	HideFab:             "hide_fab",
	KeepAwake:           "keep_awake",
	HideFabAndKeepAwake: "hide_fab_and_keep_awake",
}

// ExtraActions lists every extra action in menu order.
func ExtraActions() []ExtraAction {
	return []ExtraAction{ExtraNone, HideFab, KeepAwake, HideFabAndKeepAwake}
}

func (a ExtraAction) String() string {
	if s, ok := extraActionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("extra_action(%d)", uint8(a))
}

// MarshalText implements encoding.TextMarshaler.
func (a ExtraAction) MarshalText() ([]byte, error) {
	s, ok := extraActionNames[a]
	if !ok {
		return nil, fmt.Errorf("invalid extra action %d", uint8(a))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *ExtraAction) UnmarshalText(b []byte) error {
	for k, v := range extraActionNames {
		if v == string(b) {
			*a = k
			return nil
		}
	}
	return fmt.Errorf("unknown extra action %q", b)
}

func (a ExtraAction) hidesFab() bool   { return a == HideFab || a == HideFabAndKeepAwake }
func (a ExtraAction) keepsAwake() bool { return a == KeepAwake || a == HideFabAndKeepAwake }

// Down starts the extra action.
func (a ExtraAction) Down(ctx Context) {
	a.apply(ctx, true)
	if ctx.Events != nil {
		ctx.Events.ExtraActionDown(ctx.Profile, a)
	}
}

// Up ends the extra action.
func (a ExtraAction) Up(ctx Context) {
	a.apply(ctx, false)
	if ctx.Events != nil {
		ctx.Events.ExtraActionUp(ctx.Profile, a)
	}
}

func (a ExtraAction) apply(ctx Context, down bool) {
	if a.hidesFab() && ctx.HideFab != nil {
		ctx.HideFab(down)
	}
	if a.keepsAwake() && ctx.Camera != nil {
		ctx.Camera.KeepAwake(down)
	}
}
