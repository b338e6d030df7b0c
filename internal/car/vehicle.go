package car

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/looplab/fsm"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/picar/internal/pkg/metrics"
	fsmutil "github.com/autopeer-io/picar/internal/pkg/util/fsm"
	"github.com/autopeer-io/picar/pkg/log"
)

// Action names accepted by DoAction.
const (
	ActionStop      = "stop"
	ActionForward   = "forward"
	ActionBackward  = "backward"
	ActionTurnLeft  = "turnleft"
	ActionTurnRight = "turnright"
	ActionTurnStop  = "turnstop"
)

// eventFor maps a status to the fsm event that enters it.
var eventFor = map[Status]string{
	Stopped:   ActionStop,
	Forward:   ActionForward,
	Backward:  ActionBackward,
	TurnLeft:  ActionTurnLeft,
	TurnRight: ActionTurnRight,
}

// Snapshot is the observable state of the vehicle at one instant.
type Snapshot struct {
	Status      Status  `json:"status"`
	StatusText  string  `json:"status_text"`
	Humidity    float64 `json:"humidity"`
	Temperature float64 `json:"temperature"`
}

// Listener receives a fresh snapshot after every observable change.
type Listener interface {
	OnChanged(Snapshot)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Snapshot)

func (f ListenerFunc) OnChanged(s Snapshot) { f(s) }

// ActuatorProvider supplies the left and right sides.
type ActuatorProvider interface {
	Actuators() (left, right Actuator, err error)
}

// SensorProvider supplies the humidity/temperature source.
type SensorProvider interface {
	Sensor() (SensorSource, error)
}

// Vehicle is the motion state machine of a four-wheel differential-drive
// car. All exported methods are safe for concurrent use.
type Vehicle struct {
	// mu guards the fsm, the stash, both actuators and the sensor reading.
	mu      sync.Mutex
	machine *fsm.FSM
	stash   Status
	stashed bool
	left    Actuator
	right   Actuator
	reading Reading

	speed     float64
	turnSpeed float64

	poller     *Poller
	pollerOpts []PollerOption
	notifier   *Notifier

	// listenerMu serializes listener deliveries.
	listenerMu sync.Mutex
	listener   Listener

	actions map[string]func() error
	log     log.Logger
}

type Option func(*Vehicle)

// WithSpeed sets the normalized speed for straight travel.
func WithSpeed(speed float64) Option {
	return func(v *Vehicle) { v.speed = clampSpeed(speed) }
}

// WithTurnSpeed sets the normalized speed for pivot turns.
func WithTurnSpeed(speed float64) Option {
	return func(v *Vehicle) { v.turnSpeed = clampSpeed(speed) }
}

// WithPollerOptions forwards options to the sensor poller.
func WithPollerOptions(opts ...PollerOption) Option {
	return func(v *Vehicle) { v.pollerOpts = append(v.pollerOpts, opts...) }
}

// New wires a vehicle from its providers. Wiring errors are returned as is
// and are meant to abort startup.
func New(ap ActuatorProvider, sp SensorProvider, opts ...Option) (*Vehicle, error) {
	left, right, err := ap.Actuators()
	if err != nil {
		return nil, fmt.Errorf("failed to wire actuators: %w", err)
	}

	src, err := sp.Sensor()
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to open sensor: %w", err), closeAll(left, right))
	}

	v := &Vehicle{
		left:      left,
		right:     right,
		speed:     FullSpeed,
		turnSpeed: FullSpeed,
		notifier:  NewNotifier(),
		log:       log.WithName("car"),
	}
	for _, opt := range opts {
		opt(v)
	}

	v.machine = newMachine(v.enterState)
	v.actions = map[string]func() error{
		ActionStop:      v.Stop,
		ActionForward:   v.Forward,
		ActionBackward:  v.Backward,
		ActionTurnLeft:  v.TurnLeft,
		ActionTurnRight: v.TurnRight,
		ActionTurnStop:  v.TurnStop,
	}

	v.poller = NewPoller(src, v.pollerOpts...)
	v.reading = v.poller.Reading()
	v.poller.OnChanged(v.sensorChanged)
	setStatusGauge(Stopped)
	metrics.SensorHumidity.Set(v.reading.Humidity)
	metrics.SensorTemperature.Set(v.reading.Temperature)

	return v, nil
}

func newMachine(onEnter func(context.Context, *fsm.Event) error) *fsm.FSM {
	enter := make(map[string]string, len(eventFor))
	for s, event := range eventFor {
		enter[event] = s.String()
	}

	return fsm.NewFSM(Stopped.String(), fsmutil.FullyConnected(enter), fsm.Callbacks{
		"enter_state": fsmutil.WrapEvent(onEnter),
	})
}

// enterState runs inside fsm.Event with v.mu held; it must not lock v.mu.
func (v *Vehicle) enterState(_ context.Context, e *fsm.Event) error {
	s, err := ParseStatus(e.Dst)
	if err != nil {
		return err
	}
	v.log.Info("Vehicle status changed", "from", e.Src, "to", e.Dst, "label", s.Label())
	setStatusGauge(s)
	v.notifier.Signal()
	return nil
}

func (v *Vehicle) sensorChanged(r Reading) {
	v.mu.Lock()
	if r == v.reading {
		v.mu.Unlock()
		return
	}
	v.reading = r
	v.mu.Unlock()

	metrics.SensorHumidity.Set(r.Humidity)
	metrics.SensorTemperature.Set(r.Temperature)
	v.notifier.Signal()
}

// Status returns the current motion status.
func (v *Vehicle) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.currentLocked()
}

// StatusText returns the label of the current motion status.
func (v *Vehicle) StatusText() string {
	return v.Status().Label()
}

// Info returns a freshly computed snapshot.
func (v *Vehicle) Info() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := v.currentLocked()
	return Snapshot{
		Status:      s,
		StatusText:  s.Label(),
		Humidity:    v.reading.Humidity,
		Temperature: v.reading.Temperature,
	}
}

// Sides returns the left and right actuators.
func (v *Vehicle) Sides() (left, right Actuator) {
	return v.left, v.right
}

// Stashed returns the status remembered for TurnStop, if any.
func (v *Vehicle) Stashed() (Status, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stash, v.stashed
}

// SetStatus replaces the current status. Setting the current status again
// is a no-op and does not notify.
func (v *Vehicle) SetStatus(s Status) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, int(s))
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.setStatusLocked(s)
}

func (v *Vehicle) currentLocked() Status {
	s, err := ParseStatus(v.machine.Current())
	if err != nil {
		return Stopped
	}
	return s
}

func (v *Vehicle) setStatusLocked(s Status) error {
	event, ok := eventFor[s]
	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, int(s))
	}

	if err := fsmutil.IgnoreNoTransition(v.machine.Event(context.Background(), event)); err != nil {
		return fmt.Errorf("failed to enter %s: %w", s, err)
	}
	return nil
}

// Forward drives both sides ahead and remembers forward for TurnStop.
func (v *Vehicle) Forward() error { return v.linear(Forward) }

// Backward drives both sides astern and remembers backward for TurnStop.
func (v *Vehicle) Backward() error { return v.linear(Backward) }

// Stop halts both sides and remembers stopped for TurnStop.
func (v *Vehicle) Stop() error { return v.linear(Stopped) }

// TurnLeft pivots left, remembering what the vehicle was doing. Repeating
// the current turn does nothing.
func (v *Vehicle) TurnLeft() error { return v.turn(TurnLeft) }

// TurnRight pivots right, remembering what the vehicle was doing.
func (v *Vehicle) TurnRight() error { return v.turn(TurnRight) }

// TurnStop ends a turn by resuming the stashed linear motion. The stash is
// consumed; resuming re-stashes the same status, so repeated calls are
// idempotent. Without a stash it does nothing.
func (v *Vehicle) TurnStop() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.stashed {
		return nil
	}
	prior := v.stash
	v.stashed = false

	switch prior {
	case Forward, Backward, Stopped:
		return v.linearLocked(prior)
	}
	return nil
}

func (v *Vehicle) linear(s Status) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.linearLocked(s)
}

func (v *Vehicle) linearLocked(s Status) error {
	if err := v.setStatusLocked(s); err != nil {
		return err
	}
	v.stash, v.stashed = s, true
	return v.driveLocked(PatternFor(s, s), v.speed)
}

func (v *Vehicle) turn(s Status) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	prior := v.currentLocked()
	if prior == s {
		return nil
	}
	v.stash, v.stashed = prior, true
	if err := v.setStatusLocked(s); err != nil {
		return err
	}
	return v.driveLocked(PatternFor(s, prior), v.turnSpeed)
}

func (v *Vehicle) driveLocked(p Pattern, speed float64) error {
	err := multierr.Append(apply(v.left, p.Left, speed), apply(v.right, p.Right, speed))
	if err != nil {
		v.log.Error(err, "Actuator command failed", "left", p.Left, "right", p.Right)
	}
	return err
}

// DoAction runs the named action. Unknown names are ignored; only
// actuator failures are returned.
func (v *Vehicle) DoAction(name string) error {
	fn, ok := v.actions[name]
	if !ok {
		v.log.Debug("Ignoring unknown action", "action", name)
		metrics.ActionsTotal.WithLabelValues("unknown", "ignored").Inc()
		return nil
	}

	if err := fn(); err != nil {
		metrics.ActionsTotal.WithLabelValues(name, "failed").Inc()
		return fmt.Errorf("action %s: %w", name, err)
	}
	metrics.ActionsTotal.WithLabelValues(name, "ok").Inc()
	return nil
}

// IsAction reports whether name is a recognized action.
func (v *Vehicle) IsAction(name string) bool {
	_, ok := v.actions[name]
	return ok
}

// Actions returns the recognized action names, sorted.
func (v *Vehicle) Actions() []string {
	names := make([]string, 0, len(v.actions))
	for name := range v.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OnChanged registers the single outward listener, replacing any previous
// one, and delivers the current snapshot to it right away.
func (v *Vehicle) OnChanged(l Listener) {
	v.listenerMu.Lock()
	defer v.listenerMu.Unlock()

	v.listener = l
	if l != nil {
		l.OnChanged(v.Info())
	}
}

func (v *Vehicle) deliver() {
	v.listenerMu.Lock()
	defer v.listenerMu.Unlock()

	if v.listener != nil {
		v.listener.OnChanged(v.Info())
	}
}

// Visualize renders the transition table in Graphviz format.
func (v *Vehicle) Visualize() string {
	return fsm.Visualize(v.machine)
}

// Run starts the change consumer and the sensor poller and blocks until
// ctx is done and both have returned. The actuators are halted on exit.
func (v *Vehicle) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return v.notifier.Run(ctx, v.deliver) })
	g.Go(func() error { return v.poller.Run(ctx) })

	err := g.Wait()

	v.mu.Lock()
	if haltErr := v.driveLocked(patternStop, 0); haltErr != nil {
		err = multierr.Append(err, haltErr)
	}
	v.mu.Unlock()

	v.log.Info("Vehicle stopped")
	return err
}

// Close releases actuator and sensor resources.
func (v *Vehicle) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	err := closeAll(v.left, v.right)
	if c, ok := v.poller.src.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	return err
}

func closeAll(actuators ...Actuator) error {
	var err error
	for _, a := range actuators {
		if c, ok := a.(io.Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}

func setStatusGauge(current Status) {
	for _, s := range Statuses() {
		val := 0.0
		if s == current {
			val = 1
		}
		metrics.VehicleStatus.WithLabelValues(s.String()).Set(val)
	}
}
