package car

import (
	"fmt"
	"io"
	"math"

	"go.uber.org/multierr"
)

// FullSpeed is the normalized speed used when no speed is configured.
const FullSpeed = 1.0

// Motor is a single bidirectional DC motor behind an H-bridge.
type Motor interface {
	Forward(speed float64) error
	Backward(speed float64) error
	Stop() error

	// Value returns the signed output: positive forward, negative
	// backward, zero when stopped.
	Value() float64
}

// MotorFactory builds a motor from its forward and backward terminals.
type MotorFactory func(forwardPin, backwardPin int) (Motor, error)

// PinPair wires one motor: exactly a forward and a backward terminal.
type PinPair []int

// Actuator is everything the vehicle needs from one side.
type Actuator interface {
	Forward(speed float64) error
	Backward(speed float64) error
	Stop() error
	IsActive() bool
}

// ActuatorGroup drives every motor on one side of the vehicle as a unit.
// It has no locking of its own; the Vehicle serializes all calls.
type ActuatorGroup struct {
	motors   []Motor
	inverted bool
}

var _ Actuator = (*ActuatorGroup)(nil)

// NewActuatorGroup validates every pin pair before building any motor, so a
// malformed wiring never leaves half-initialized hardware behind.
func NewActuatorGroup(factory MotorFactory, pins ...PinPair) (*ActuatorGroup, error) {
	for i, pair := range pins {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: entry %d has %d terminals, need a pin pair", ErrInvalidWiring, i, len(pair))
		}
	}

	g := &ActuatorGroup{motors: make([]Motor, 0, len(pins))}
	for i, pair := range pins {
		m, err := factory(pair[0], pair[1])
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("motor %d on pins %v: %w", i, []int(pair), err), g.Close())
		}
		g.motors = append(g.motors, m)
	}
	return g, nil
}

// SetInverted flips the meaning of forward and backward for the whole side.
// Used when a side's motors are mounted mirrored.
func (g *ActuatorGroup) SetInverted(inverted bool) {
	g.inverted = inverted
}

func (g *ActuatorGroup) Forward(speed float64) error {
	return g.each(func(m Motor) error {
		if g.inverted {
			return m.Backward(clampSpeed(speed))
		}
		return m.Forward(clampSpeed(speed))
	})
}

func (g *ActuatorGroup) Backward(speed float64) error {
	return g.each(func(m Motor) error {
		if g.inverted {
			return m.Forward(clampSpeed(speed))
		}
		return m.Backward(clampSpeed(speed))
	})
}

func (g *ActuatorGroup) Stop() error {
	return g.each(Motor.Stop)
}

// Reverse flips the direction of every running motor, keeping its speed.
func (g *ActuatorGroup) Reverse() error {
	return g.each(func(m Motor) error {
		switch v := m.Value(); {
		case v > 0:
			return m.Backward(v)
		case v < 0:
			return m.Forward(-v)
		}
		return nil
	})
}

// IsActive reports whether any motor has non-zero output.
func (g *ActuatorGroup) IsActive() bool {
	for _, m := range g.motors {
		if m.Value() != 0 {
			return true
		}
	}
	return false
}

// Len returns the number of motors in the group.
func (g *ActuatorGroup) Len() int {
	return len(g.motors)
}

// Close releases motors that hold hardware resources.
func (g *ActuatorGroup) Close() error {
	var err error
	for _, m := range g.motors {
		if c, ok := m.(io.Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}

// each applies fn to every motor and keeps going on failure so one stuck
// motor does not leave the rest of the side in its previous state.
func (g *ActuatorGroup) each(fn func(Motor) error) error {
	var err error
	for _, m := range g.motors {
		err = multierr.Append(err, fn(m))
	}
	return err
}

func clampSpeed(speed float64) float64 {
	if math.IsNaN(speed) || speed < 0 {
		return 0
	}
	return math.Min(speed, FullSpeed)
}
