package hal

import (
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/autopeer-io/picar/internal/car"
)

// DefaultPWMFrequency is the carrier used when none is configured.
const DefaultPWMFrequency = 100

var (
	hostOnce sync.Once
	hostErr  error
)

// initHost loads the periph host drivers once per process.
func initHost() error {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	return hostErr
}

// periphMotor drives an H-bridge from two GPIO pins. The active pin is
// PWM-modulated below full speed; the other is held low.
type periphMotor struct {
	fwd, bwd gpio.PinIO
	freq     physic.Frequency

	mu    sync.Mutex
	value float64
}

var _ car.Motor = (*periphMotor)(nil)

func periphMotorFactory(freqHz int) car.MotorFactory {
	if freqHz <= 0 {
		freqHz = DefaultPWMFrequency
	}
	freq := physic.Frequency(freqHz) * physic.Hertz

	return func(forwardPin, backwardPin int) (car.Motor, error) {
		if err := initHost(); err != nil {
			return nil, fmt.Errorf("failed to initialize periph host: %w", err)
		}
		fwd, err := periphPin(forwardPin)
		if err != nil {
			return nil, err
		}
		bwd, err := periphPin(backwardPin)
		if err != nil {
			return nil, err
		}

		m := &periphMotor{fwd: fwd, bwd: bwd, freq: freq}
		if err := m.Stop(); err != nil {
			return nil, err
		}
		return m, nil
	}
}

func periphPin(n int) (gpio.PinIO, error) {
	p := gpioreg.ByName(strconv.Itoa(n))
	if p == nil {
		return nil, fmt.Errorf("no gpio pin found for %d", n)
	}
	return p, nil
}

func (m *periphMotor) Forward(speed float64) error {
	return m.drive(m.fwd, m.bwd, speed, speed)
}

func (m *periphMotor) Backward(speed float64) error {
	return m.drive(m.bwd, m.fwd, speed, -speed)
}

func (m *periphMotor) drive(active, idle gpio.PinIO, speed, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := idle.Out(gpio.Low); err != nil {
		return fmt.Errorf("pin %s: %w", idle, err)
	}

	var err error
	switch {
	case speed <= 0:
		err = active.Out(gpio.Low)
		value = 0
	case speed >= car.FullSpeed:
		err = active.Out(gpio.High)
	default:
		err = active.PWM(gpio.Duty(speed*float64(gpio.DutyMax)), m.freq)
	}
	if err != nil {
		return fmt.Errorf("pin %s: %w", active, err)
	}

	m.value = value
	return nil
}

func (m *periphMotor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := multierr.Append(m.fwd.Out(gpio.Low), m.bwd.Out(gpio.Low))
	if err == nil {
		m.value = 0
	}
	return err
}

func (m *periphMotor) Value() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

func (m *periphMotor) Close() error {
	return multierr.Combine(m.Stop(), m.fwd.Halt(), m.bwd.Halt())
}
