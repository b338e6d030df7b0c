package hal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/autopeer-io/picar/internal/car"
)

// Motor drivers understood by the real provider.
const (
	DriverPeriph   = "periph"
	DriverGPIOCDev = "gpiocdev"
)

// Config describes how the car is wired.
type Config struct {
	// Driver selects the GPIO backend: periph (PWM capable) or gpiocdev.
	Driver string
	// Chip is the gpiochip device used by the gpiocdev driver.
	Chip string
	// PWMFrequency is the PWM carrier in Hz for the periph driver.
	PWMFrequency int

	LeftPins  []car.PinPair
	RightPins []car.PinPair
	// RightInverted flips forward/backward on the right side. The right
	// motors are usually mounted mirrored.
	LeftInverted  bool
	RightInverted bool

	// I2CBus is the bus name of the BME280; empty disables the sensor.
	I2CBus  string
	I2CAddr uint16
}

// ParsePinPairs parses specs such as "17:18" into forward/backward pairs.
// Malformed entries keep their terminal count so that wiring validation in
// car.NewActuatorGroup reports them.
func ParsePinPairs(specs []string) ([]car.PinPair, error) {
	pairs := make([]car.PinPair, 0, len(specs))
	for _, spec := range specs {
		fields := strings.Split(strings.TrimSpace(spec), ":")
		pair := make(car.PinPair, 0, len(fields))
		for _, f := range fields {
			pin, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return nil, fmt.Errorf("invalid pin %q in %q: %w", f, spec, err)
			}
			if pin < 0 {
				return nil, fmt.Errorf("invalid pin %d in %q", pin, spec)
			}
			pair = append(pair, pin)
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}
