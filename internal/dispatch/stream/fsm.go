package stream

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	fsmutil "github.com/autopeer-io/dispatch/internal/pkg/util/fsm"
)

const (
	// EventSelect starts a subscription for a room.
	EventSelect = "event_select"
	// EventDial starts a reconnect attempt after a failure.
	EventDial = "event_dial"
	// EventOpen marks the stream as live.
	EventOpen = "event_open"
	// EventFail records a failed open or a dropped stream.
	EventFail = "event_fail"
	// EventStop ends the subscription.
	EventStop = "event_stop"
)

var (
	stateOffline    = string(model.StateOffline)
	stateLoading    = string(model.StateLoading)
	stateConnecting = string(model.StateConnecting)
	stateConnected  = string(model.StateConnected)
	stateError      = string(model.StateError)
)

// ConnectionFSM is the connection lifecycle of one room subscription.
// The first dial keeps the loading state; only reconnects go through connecting.
type ConnectionFSM struct {
	*fsm.FSM
	onEnter func(from, to model.ConnectionState)
}

// NewConnectionFSM creates an offline ConnectionFSM. onEnter, if set, runs
// after every state change.
func NewConnectionFSM(onEnter func(from, to model.ConnectionState)) *ConnectionFSM {
	f := &ConnectionFSM{onEnter: onEnter}

	events := fsm.Events{
		{Name: EventSelect, Src: []string{stateOffline}, Dst: stateLoading},
		{Name: EventDial, Src: []string{stateError}, Dst: stateConnecting},
		{Name: EventOpen, Src: []string{stateLoading, stateConnecting}, Dst: stateConnected},
		{Name: EventFail, Src: []string{stateLoading, stateConnecting, stateConnected}, Dst: stateError},
		{Name: EventStop, Src: []string{stateLoading, stateConnecting, stateConnected, stateError}, Dst: stateOffline},
	}

	callbacks := fsm.Callbacks{
		"enter_state": fsmutil.WrapEvent(f.actionEnterState),
	}

	f.FSM = fsm.NewFSM(stateOffline, events, callbacks)
	return f
}

// State returns the current connection state.
func (f *ConnectionFSM) State() model.ConnectionState {
	return model.ConnectionState(f.Current())
}

// Fire triggers event. Events the current state does not accept are ignored.
func (f *ConnectionFSM) Fire(event string) (bool, error) {
	return fsmutil.Fire(context.Background(), f.FSM, event)
}

func (f *ConnectionFSM) actionEnterState(_ context.Context, e *fsm.Event) error {
	if f.onEnter != nil {
		f.onEnter(model.ConnectionState(e.Src), model.ConnectionState(e.Dst))
	}
	return nil
}
