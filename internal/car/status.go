package car

import (
	"fmt"
)

// Status is the high-level motion status of the vehicle.
type Status int

const (
	Stopped Status = iota
	Forward
	Backward
	TurnLeft
	TurnRight
)

var statusNames = [...]string{
	Stopped:   "stopped",
	Forward:   "forward",
	Backward:  "backward",
	TurnLeft:  "turnleft",
	TurnRight: "turnright",
}

var statusLabels = [...]string{
	Stopped:   "停止",
	Forward:   "前进",
	Backward:  "后退",
	TurnLeft:  "左转",
	TurnRight: "右转",
}

// Statuses returns every known status in declaration order.
func Statuses() []Status {
	return []Status{Stopped, Forward, Backward, TurnLeft, TurnRight}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s >= Stopped && s <= TurnRight
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// Label returns the fixed human-readable text shown to operators.
func (s Status) Label() string {
	if !s.Valid() {
		return ""
	}
	return statusLabels[s]
}

// ParseStatus converts a wire name such as "turnleft" to a Status.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return Stopped, fmt.Errorf("%w: %q", ErrInvalidStatus, name)
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Side identifies one lateral side of the vehicle.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}
