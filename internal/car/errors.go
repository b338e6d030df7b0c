package car

import "errors"

var (
	// ErrInvalidStatus is returned when a status outside the five known
	// motion statuses is set.
	ErrInvalidStatus = errors.New("invalid vehicle status")

	// ErrInvalidWiring is returned when an actuator group is constructed
	// from a pin specification that is not a list of two-terminal pairs.
	ErrInvalidWiring = errors.New("invalid actuator wiring")
)
