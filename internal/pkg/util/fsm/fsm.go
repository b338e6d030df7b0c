package fsm

import (
	"context"
	"errors"
	"sort"

	"github.com/looplab/fsm"
)

// WrapEvent adapts an error-returning callback to fsm.Callback, recording
// the error on the event.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// FullyConnected builds one event per destination state, each allowed from
// every state. enter maps event names to their destination.
func FullyConnected(enter map[string]string) fsm.Events {
	states := make([]string, 0, len(enter))
	for _, dst := range enter {
		states = append(states, dst)
	}
	sort.Strings(states)

	names := make([]string, 0, len(enter))
	for name := range enter {
		names = append(names, name)
	}
	sort.Strings(names)

	events := make(fsm.Events, 0, len(enter))
	for _, name := range names {
		events = append(events, fsm.EventDesc{Name: name, Src: states, Dst: enter[name]})
	}
	return events
}

// IgnoreNoTransition drops the error looplab/fsm returns when an event
// leaves the machine in the state it was already in.
func IgnoreNoTransition(err error) error {
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	return err
}
