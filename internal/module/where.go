package module

import "fmt"

// StartWhere names what started a session.
type StartWhere uint8

const (
	StartMain StartWhere = iota + 1
	StartProfileSettings
	StartFabMenu
	StartNightMode
	StartRemote
	StartStatusAPI
)

var startWhereNames = map[StartWhere]string{
	StartMain:            "main",
	StartProfileSettings: "profile_settings",
	StartFabMenu:         "fab_menu",
	StartNightMode:       "night_mode",
	StartRemote:          "remote",
	StartStatusAPI:       "status_api",
}

func (w StartWhere) String() string {
	if s, ok := startWhereNames[w]; ok {
		return s
	}
	return fmt.Sprintf("start_where(%d)", uint8(w))
}

// MarshalText implements encoding.TextMarshaler.
func (w StartWhere) MarshalText() ([]byte, error) {
	s, ok := startWhereNames[w]
	if !ok {
		return nil, fmt.Errorf("invalid start origin %d", uint8(w))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *StartWhere) UnmarshalText(b []byte) error {
	for k, v := range startWhereNames {
		if v == string(b) {
			*w = k
			return nil
		}
	}
	return fmt.Errorf("unknown start origin %q", b)
}

// StopWhere names what stopped a session.
type StopWhere uint8

const (
	StopMain StopWhere = iota + 1
	StopFabMenu
	StopAction
	StopNotification
	StopError
	StopRemote
	StopStatusAPI
)

var stopWhereNames = map[StopWhere]string{
	StopMain:         "main",
	StopFabMenu:      "fab_menu",
	StopAction:       "action",
	StopNotification: "notification",
	StopError:        "error",
	StopRemote:       "remote",
	StopStatusAPI:    "status_api",
}

func (w StopWhere) String() string {
	if s, ok := stopWhereNames[w]; ok {
		return s
	}
	return fmt.Sprintf("stop_where(%d)", uint8(w))
}

// MarshalText implements encoding.TextMarshaler.
func (w StopWhere) MarshalText() ([]byte, error) {
	s, ok := stopWhereNames[w]
	if !ok {
		return nil, fmt.Errorf("invalid stop origin %d", uint8(w))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *StopWhere) UnmarshalText(b []byte) error {
	for k, v := range stopWhereNames {
		if v == string(b) {
			*w = k
			return nil
		}
	}
	return fmt.Errorf("unknown stop origin %q", b)
}
