package hal

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/autopeer-io/picar/internal/car"
	"github.com/autopeer-io/picar/pkg/log"
)

// Bounds and starting point of the simulated climate.
const (
	SimHumidityStart    = 44.0
	SimTemperatureStart = 20.0

	SimHumidityMin    = 0.0
	SimHumidityMax    = 100.0
	SimTemperatureMin = -40.0
	SimTemperatureMax = 85.0
)

// SimulatedProvider runs the car without hardware: motors only record
// their last command and the sensor is a bounded random walk.
type SimulatedProvider struct {
	cfg  Config
	rand *rand.Rand
}

var (
	_ car.ActuatorProvider = (*SimulatedProvider)(nil)
	_ car.SensorProvider   = (*SimulatedProvider)(nil)
)

// NewSimulatedProvider seeds its generator once from the wall clock.
func NewSimulatedProvider(cfg Config) *SimulatedProvider {
	seed := uint64(time.Now().UnixNano())
	return NewSimulatedProviderWithSeed(cfg, seed)
}

func NewSimulatedProviderWithSeed(cfg Config, seed uint64) *SimulatedProvider {
	return &SimulatedProvider{cfg: cfg, rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *SimulatedProvider) Actuators() (car.Actuator, car.Actuator, error) {
	return buildSides(newFakeMotor, p.cfg)
}

func (p *SimulatedProvider) Sensor() (car.SensorSource, error) {
	log.Info("Using simulated climate sensor", "humidity", SimHumidityStart, "temperature", SimTemperatureStart)
	return NewRandomWalk(p.rand), nil
}

// FakeMotor records the last command it was given.
type FakeMotor struct {
	ForwardPin  int
	BackwardPin int

	mu    sync.Mutex
	value float64
}

func newFakeMotor(forwardPin, backwardPin int) (car.Motor, error) {
	return &FakeMotor{ForwardPin: forwardPin, BackwardPin: backwardPin}, nil
}

func (m *FakeMotor) Forward(speed float64) error  { m.set(speed); return nil }
func (m *FakeMotor) Backward(speed float64) error { m.set(-speed); return nil }
func (m *FakeMotor) Stop() error                  { m.set(0); return nil }

func (m *FakeMotor) set(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = v
}

func (m *FakeMotor) Value() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

// RandomWalk nudges humidity and temperature by a random amount in [0,1)
// up or down on every read, clamped to the sensor's physical range.
type RandomWalk struct {
	mu      sync.Mutex
	rand    *rand.Rand
	current car.Reading
}

var _ car.SensorSource = (*RandomWalk)(nil)

func NewRandomWalk(r *rand.Rand) *RandomWalk {
	return &RandomWalk{
		rand:    r,
		current: car.Reading{Humidity: SimHumidityStart, Temperature: SimTemperatureStart},
	}
}

func (w *RandomWalk) Initial() car.Reading {
	return car.Reading{Humidity: SimHumidityStart, Temperature: SimTemperatureStart}
}

func (w *RandomWalk) Read(ctx context.Context) (car.Reading, error) {
	if err := ctx.Err(); err != nil {
		return car.Reading{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.current = car.Reading{
		Humidity:    clamp(w.step(w.current.Humidity), SimHumidityMin, SimHumidityMax),
		Temperature: clamp(w.step(w.current.Temperature), SimTemperatureMin, SimTemperatureMax),
	}
	return w.current, nil
}

func (w *RandomWalk) step(v float64) float64 {
	change := w.rand.Float64()
	if w.rand.IntN(2) == 1 {
		return v + change
	}
	return v - change
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
