package hal

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/autopeer-io/picar/internal/car"
	"github.com/autopeer-io/picar/pkg/log"
)

// RealProvider wires the car to GPIO motors and an I2C sensor.
type RealProvider struct {
	cfg     Config
	factory car.MotorFactory
}

var (
	_ car.ActuatorProvider = (*RealProvider)(nil)
	_ car.SensorProvider   = (*RealProvider)(nil)
)

func NewRealProvider(cfg Config) (*RealProvider, error) {
	p := &RealProvider{cfg: cfg}
	switch cfg.Driver {
	case "", DriverPeriph:
		p.factory = periphMotorFactory(cfg.PWMFrequency)
	case DriverGPIOCDev:
		p.factory = cdevMotorFactory(cfg.Chip)
	default:
		return nil, fmt.Errorf("unknown motor driver %q", cfg.Driver)
	}
	return p, nil
}

func (p *RealProvider) Actuators() (car.Actuator, car.Actuator, error) {
	return buildSides(p.factory, p.cfg)
}

func (p *RealProvider) Sensor() (car.SensorSource, error) {
	if p.cfg.I2CBus == "" {
		log.Warn("No sensor bus configured, humidity and temperature stay at zero")
		return noSensor{}, nil
	}
	return openBME280(p.cfg.I2CBus, p.cfg.I2CAddr)
}

func buildSides(factory car.MotorFactory, cfg Config) (car.Actuator, car.Actuator, error) {
	left, err := car.NewActuatorGroup(factory, cfg.LeftPins...)
	if err != nil {
		return nil, nil, fmt.Errorf("left side: %w", err)
	}
	left.SetInverted(cfg.LeftInverted)

	right, err := car.NewActuatorGroup(factory, cfg.RightPins...)
	if err != nil {
		return nil, nil, multierr.Append(fmt.Errorf("right side: %w", err), left.Close())
	}
	right.SetInverted(cfg.RightInverted)

	log.Info("Actuators wired", "left", left.Len(), "right", right.Len(),
		"leftInverted", cfg.LeftInverted, "rightInverted", cfg.RightInverted)
	return left, right, nil
}
