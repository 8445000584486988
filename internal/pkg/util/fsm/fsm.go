package fsm

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// WrapEvent adapts a callback that returns an error into an fsm.Callback,
// storing the error on the event.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// Fire triggers event and reports whether the state changed. Events the
// current state does not accept, and events that loop back to the current
// state, are not errors.
func Fire(ctx context.Context, f *fsm.FSM, event string, args ...any) (bool, error) {
	err := f.Event(ctx, event, args...)
	if err == nil {
		return true, nil
	}

	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return false, noTransition.Err
	}
	var invalid fsm.InvalidEventError
	if errors.As(err, &invalid) {
		return false, nil
	}
	return false, err
}
