package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*VehicleOptions)(nil)

// VehicleOptions describes the car itself: identity, wiring and motion.
type VehicleOptions struct {
	// ID identifies the vehicle on the broker and in the archive. Discovered
	// from the environment when empty.
	ID string `json:"id" mapstructure:"id"`

	// Simulate runs without hardware.
	Simulate bool `json:"simulate" mapstructure:"simulate"`

	// Driver is the GPIO backend: periph or gpiocdev.
	Driver       string `json:"driver" mapstructure:"driver"`
	Chip         string `json:"chip" mapstructure:"chip"`
	PWMFrequency int    `json:"pwm-frequency" mapstructure:"pwm-frequency"`

	// LeftPins and RightPins are forward:backward pin pairs, one per motor.
	LeftPins      []string `json:"left-pins" mapstructure:"left-pins"`
	RightPins     []string `json:"right-pins" mapstructure:"right-pins"`
	LeftInverted  bool     `json:"left-inverted" mapstructure:"left-inverted"`
	RightInverted bool     `json:"right-inverted" mapstructure:"right-inverted"`

	Speed     float64 `json:"speed" mapstructure:"speed"`
	TurnSpeed float64 `json:"turn-speed" mapstructure:"turn-speed"`

	SensorInterval time.Duration `json:"sensor-interval" mapstructure:"sensor-interval"`
	I2CBus         string        `json:"i2c-bus" mapstructure:"i2c-bus"`
	I2CAddr        uint16        `json:"i2c-addr" mapstructure:"i2c-addr"`
}

// NewVehicleOptions returns the wiring of the reference car: two motors per
// side on BCM pins, right side mounted mirrored.
func NewVehicleOptions() *VehicleOptions {
	return &VehicleOptions{
		Driver:         "periph",
		Chip:           "gpiochip0",
		PWMFrequency:   100,
		LeftPins:       []string{"17:18", "22:23"},
		RightPins:      []string{"5:6", "13:19"},
		RightInverted:  true,
		Speed:          1,
		TurnSpeed:      1,
		SensorInterval: 60 * time.Second,
		I2CAddr:        0x76,
	}
}

func (o *VehicleOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	switch o.Driver {
	case "periph", "gpiocdev":
	default:
		errs = append(errs, fmt.Errorf("invalid vehicle.driver %q, must be 'periph' or 'gpiocdev'", o.Driver))
	}
	if len(o.LeftPins) == 0 || len(o.RightPins) == 0 {
		errs = append(errs, fmt.Errorf("both sides need at least one motor"))
	}
	if o.Speed <= 0 || o.Speed > 1 {
		errs = append(errs, fmt.Errorf("vehicle.speed %v must be in (0, 1]", o.Speed))
	}
	if o.TurnSpeed <= 0 || o.TurnSpeed > 1 {
		errs = append(errs, fmt.Errorf("vehicle.turn-speed %v must be in (0, 1]", o.TurnSpeed))
	}
	if o.SensorInterval < time.Second {
		errs = append(errs, fmt.Errorf("vehicle.sensor-interval %s is below one second", o.SensorInterval))
	}

	return errs
}

func (o *VehicleOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.ID, "vehicle.id", o.ID, "Vehicle ID. Read from PICAR_VEHICLE_ID, /etc/picar/vehicle-id or the hostname when empty.")
	fs.BoolVar(&o.Simulate, "vehicle.simulate", o.Simulate, "Run with recording motors and a simulated climate sensor.")
	fs.StringVar(&o.Driver, "vehicle.driver", o.Driver, "GPIO backend for the motors ('periph' or 'gpiocdev').")
	fs.StringVar(&o.Chip, "vehicle.chip", o.Chip, "GPIO chip used by the gpiocdev driver.")
	fs.IntVar(&o.PWMFrequency, "vehicle.pwm-frequency", o.PWMFrequency, "PWM frequency in Hz used by the periph driver.")
	fs.StringSliceVar(&o.LeftPins, "vehicle.left-pins", o.LeftPins, "Left motors as forward:backward pin pairs.")
	fs.StringSliceVar(&o.RightPins, "vehicle.right-pins", o.RightPins, "Right motors as forward:backward pin pairs.")
	fs.BoolVar(&o.LeftInverted, "vehicle.left-inverted", o.LeftInverted, "Swap forward and backward on the left side.")
	fs.BoolVar(&o.RightInverted, "vehicle.right-inverted", o.RightInverted, "Swap forward and backward on the right side.")
	fs.Float64Var(&o.Speed, "vehicle.speed", o.Speed, "Normalized speed for straight travel.")
	fs.Float64Var(&o.TurnSpeed, "vehicle.turn-speed", o.TurnSpeed, "Normalized speed for pivot turns.")
	fs.DurationVar(&o.SensorInterval, "vehicle.sensor-interval", o.SensorInterval, "Time between two sensor reads.")
	fs.StringVar(&o.I2CBus, "vehicle.i2c-bus", o.I2CBus, "I2C bus of the BME280 sensor, e.g. '1'. Empty disables the sensor.")
	fs.Uint16Var(&o.I2CAddr, "vehicle.i2c-addr", o.I2CAddr, "I2C address of the BME280 sensor.")
}
