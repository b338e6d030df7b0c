package car

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/autopeer-io/picar/internal/pkg/metrics"
	"github.com/autopeer-io/picar/pkg/log"
)

// DefaultSensorInterval is the time between two sensor reads.
const DefaultSensorInterval = 60 * time.Second

// Reading is one humidity (%RH) and temperature (°C) sample.
type Reading struct {
	Humidity    float64 `json:"humidity"`
	Temperature float64 `json:"temperature"`
}

// SensorSource produces readings. Read is called from the poller goroutine
// only.
type SensorSource interface {
	// Initial is the reading in effect before the first poll.
	Initial() Reading
	Read(ctx context.Context) (Reading, error)
}

// Poller reads a SensorSource on a fixed interval and reports changes.
type Poller struct {
	src      SensorSource
	interval time.Duration
	clock    clock.Clock
	log      log.Logger

	mu        sync.Mutex
	reading   Reading
	onChanged func(Reading)
}

type PollerOption func(*Poller)

func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithClock(c clock.Clock) PollerOption {
	return func(p *Poller) { p.clock = c }
}

func NewPoller(src SensorSource, opts ...PollerOption) *Poller {
	p := &Poller{
		src:      src,
		interval: DefaultSensorInterval,
		clock:    clock.New(),
		log:      log.WithName("sensor"),
		reading:  src.Initial(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Reading returns the last stored reading.
func (p *Poller) Reading() Reading {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reading
}

// OnChanged registers the single change callback and immediately calls it
// with the stored reading. A nil fn is ignored.
func (p *Poller) OnChanged(fn func(Reading)) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	p.onChanged = fn
	r := p.reading
	p.mu.Unlock()

	fn(r)
}

// Run polls immediately and then once per interval until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := p.clock.Ticker(p.interval)
	defer ticker.Stop()

	p.log.Info("Sensor poller started", "interval", p.interval)
	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("Sensor poller stopped")
			return nil
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	r, err := p.src.Read(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.SensorReadFailures.Inc()
		p.log.Error(err, "Sensor read failed, keeping previous reading")
		return
	}

	p.log.Info("Sensor reading",
		"humidity", fmt.Sprintf("%.1f%%", r.Humidity),
		"temperature", fmt.Sprintf("%.1f", r.Temperature))

	p.mu.Lock()
	changed := r != p.reading
	if changed {
		p.reading = r
	}
	fn := p.onChanged
	p.mu.Unlock()

	if changed && fn != nil {
		fn(r)
	}
}
