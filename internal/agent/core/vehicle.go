package core

import (
	"github.com/autopeer-io/picar/internal/car"
)

// Vehicle is what the outer surfaces need from the car.
type Vehicle interface {
	Info() car.Snapshot
	DoAction(name string) error
	IsAction(name string) bool
	Actions() []string
	Visualize() string
}

var _ Vehicle = (*car.Vehicle)(nil)

// Watcher hands out snapshot subscriptions.
type Watcher interface {
	Subscribe() Subscription
}

// Subscription delivers the latest snapshot; a slow reader skips
// intermediate ones but always sees the newest.
type Subscription interface {
	C() <-chan car.Snapshot
	Close()
}
