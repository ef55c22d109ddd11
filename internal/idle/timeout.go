// Package idle implements the timeout presets and the idle evaluator shared
// by camera sleep mode and the floating button's idle fade.
package idle

import (
	"fmt"
	"time"
)

// Timeout is an idle delay in milliseconds. Immediately and Never are
// sentinels rather than real delays.
type Timeout int64

// Timeout presets.
const (
	Immediately Timeout = 0
	Second1     Timeout = 1000
	Second2     Timeout = 2000
	Second3     Timeout = 3000
	Second5     Timeout = 5000
	Second10    Timeout = 10000
	Second20    Timeout = 20000
	Second30    Timeout = 30000
	Minute1     Timeout = 60000
	Minute2     Timeout = 120000
	Minute3     Timeout = 180000
	Never       Timeout = -1
)

var timeoutNames = []struct {
	t    Timeout
	name string
}{
	{Immediately, "immediately"},
	{Second1, "second_1"},
	{Second2, "second_2"},
	{Second3, "second_3"},
	{Second5, "second_5"},
	{Second10, "second_10"},
	{Second20, "second_20"},
	{Second30, "second_30"},
	{Minute1, "minute_1"},
	{Minute2, "minute_2"},
	{Minute3, "minute_3"},
	{Never, "never"},
}

// Timeouts returns every preset in display order.
func Timeouts() []Timeout {
	out := make([]Timeout, len(timeoutNames))
	for i, n := range timeoutNames {
		out[i] = n.t
	}
	return out
}

// Duration returns the delay. Never and Immediately return 0.
func (t Timeout) Duration() time.Duration {
	if t <= 0 {
		return 0
	}
	return time.Duration(t) * time.Millisecond
}

// Valid reports whether t is one of the presets.
func (t Timeout) Valid() bool {
	for _, n := range timeoutNames {
		if n.t == t {
			return true
		}
	}
	return false
}

func (t Timeout) String() string {
	for _, n := range timeoutNames {
		if n.t == t {
			return n.name
		}
	}
	return fmt.Sprintf("timeout(%d)", int64(t))
}

// ParseTimeout accepts a preset name or a millisecond value of a preset.
func ParseTimeout(s string) (Timeout, error) {
	for _, n := range timeoutNames {
		if n.name == s {
			return n.t, nil
		}
	}
	var ms int64
	if _, err := fmt.Sscanf(s, "%d", &ms); err == nil && Timeout(ms).Valid() {
		return Timeout(ms), nil
	}
	return 0, fmt.Errorf("unknown timeout %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Timeout) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid timeout %d", int64(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Timeout) UnmarshalText(b []byte) error {
	v, err := ParseTimeout(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
