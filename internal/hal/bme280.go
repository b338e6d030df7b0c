package hal

import (
	"context"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"

	"github.com/autopeer-io/picar/internal/car"
)

// DefaultI2CAddr is the BME280 address with SDO tied low.
const DefaultI2CAddr = 0x76

// bme280Source reads humidity and temperature from a Bosch BME280.
type bme280Source struct {
	mu  sync.Mutex
	bus i2c.BusCloser
	dev *bmxx80.Dev
}

var _ car.SensorSource = (*bme280Source)(nil)

func openBME280(busName string, addr uint16) (*bme280Source, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	if addr == 0 {
		addr = DefaultI2CAddr
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %q: %w", busName, err)
	}
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("failed to open bme280 at %#x: %w", addr, err)
	}
	return &bme280Source{bus: bus, dev: dev}, nil
}

// Initial is zero until the first successful read.
func (s *bme280Source) Initial() car.Reading {
	return car.Reading{}
}

func (s *bme280Source) Read(ctx context.Context) (car.Reading, error) {
	if err := ctx.Err(); err != nil {
		return car.Reading{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var env physic.Env
	if err := s.dev.Sense(&env); err != nil {
		return car.Reading{}, fmt.Errorf("bme280 sense: %w", err)
	}
	return envReading(env), nil
}

func (s *bme280Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.dev.Halt()
	if cerr := s.bus.Close(); err == nil {
		err = cerr
	}
	return err
}

func envReading(env physic.Env) car.Reading {
	return car.Reading{
		Humidity:    float64(env.Humidity) / float64(physic.PercentRH),
		Temperature: float64(env.Temperature-physic.ZeroCelsius) / float64(physic.Celsius),
	}
}

// noSensor stands in when no sensor is wired; it always reports zero.
type noSensor struct{}

func (noSensor) Initial() car.Reading { return car.Reading{} }

func (noSensor) Read(context.Context) (car.Reading, error) { return car.Reading{}, nil }
