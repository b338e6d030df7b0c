//go:build linux

package hal

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"

	"github.com/autopeer-io/picar/internal/car"
)

const consumer = "picar"

// cdevMotor drives an H-bridge through character-device lines. Lines are
// on/off only, so any non-zero speed runs the motor at full speed.
type cdevMotor struct {
	fwd, bwd *gpiocdev.Line

	mu    sync.Mutex
	value float64
}

var _ car.Motor = (*cdevMotor)(nil)

func cdevMotorFactory(chip string) car.MotorFactory {
	return func(forwardPin, backwardPin int) (car.Motor, error) {
		fwd, err := gpiocdev.RequestLine(chip, forwardPin, gpiocdev.AsOutput(0), gpiocdev.WithConsumer(consumer))
		if err != nil {
			return nil, fmt.Errorf("failed to request line %s:%d: %w", chip, forwardPin, err)
		}
		bwd, err := gpiocdev.RequestLine(chip, backwardPin, gpiocdev.AsOutput(0), gpiocdev.WithConsumer(consumer))
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("failed to request line %s:%d: %w", chip, backwardPin, err), fwd.Close())
		}
		return &cdevMotor{fwd: fwd, bwd: bwd}, nil
	}
}

func (m *cdevMotor) Forward(speed float64) error {
	return m.set(speed, 1)
}

func (m *cdevMotor) Backward(speed float64) error {
	return m.set(speed, -1)
}

func (m *cdevMotor) Stop() error {
	return m.set(0, 0)
}

func (m *cdevMotor) set(speed float64, sign int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fwd, bwd := 0, 0
	if speed > 0 {
		switch sign {
		case 1:
			fwd = 1
		case -1:
			bwd = 1
		}
	}

	// Release the idle side first so both lines are never high together.
	var err error
	if fwd == 1 {
		err = multierr.Append(m.bwd.SetValue(0), m.fwd.SetValue(1))
	} else {
		err = multierr.Append(m.fwd.SetValue(0), m.bwd.SetValue(bwd))
	}
	if err != nil {
		return err
	}

	m.value = float64(fwd - bwd)
	return nil
}

func (m *cdevMotor) Value() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

func (m *cdevMotor) Close() error {
	return multierr.Combine(m.Stop(), m.fwd.Close(), m.bwd.Close())
}
