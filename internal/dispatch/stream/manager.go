// Package stream keeps a room roster in sync with the live event stream of the
// dispatch service.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/dispatch/internal/dispatch/core"
	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	"github.com/autopeer-io/dispatch/internal/dispatch/envelope"
	"github.com/autopeer-io/dispatch/internal/dispatch/store"
	"github.com/autopeer-io/dispatch/internal/pkg/metrics"
	"github.com/autopeer-io/dispatch/pkg/log"
)

// ErrStreamClosed is recorded when the server ends the stream.
var ErrStreamClosed = errors.New("stream closed by server")

var stateLabels = func() []string {
	out := make([]string, 0, len(model.States))
	for _, s := range model.States {
		out = append(out, string(s))
	}
	return out
}()

// Config configures a Manager.
type Config struct {
	Dialer core.Dialer
	Store  *store.Store
	Logger log.Logger
	// Clock drives reconnect timers. Defaults to the real clock.
	Clock          clock.Clock
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// Manager owns at most one live connection and feeds its events into the store.
type Manager struct {
	dialer  core.Dialer
	store   *store.Store
	log     log.Logger
	clock   clock.Clock
	initial time.Duration
	max     time.Duration

	fsm *ConnectionFSM

	// opMu serialises Start and Stop.
	opMu sync.Mutex

	// mu guards the subscription fields below.
	mu      sync.Mutex
	room    string
	attempt int
	lastErr error
	cancel  context.CancelFunc
	done    chan struct{}

	obsMu     sync.RWMutex
	observers []func(model.Status)
}

// NewManager creates an offline Manager.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		dialer:  cfg.Dialer,
		store:   cfg.Store,
		log:     cfg.Logger,
		clock:   cfg.Clock,
		initial: cfg.BackoffInitial,
		max:     cfg.BackoffMax,
	}
	if m.log == nil {
		m.log = log.NewNopLogger()
	}
	if m.clock == nil {
		m.clock = clock.RealClock{}
	}
	if m.initial <= 0 {
		m.initial = DefaultBackoffInitial
	}
	if m.max <= 0 {
		m.max = DefaultBackoffMax
	}
	m.fsm = NewConnectionFSM(m.onEnter)
	metrics.SetConnectionState(stateOffline, stateLabels)
	return m
}

// OnStateChange registers fn to run after every connection state change.
func (m *Manager) OnStateChange(fn func(model.Status)) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	m.observers = append(m.observers, fn)
}

// Start subscribes to room, replacing any current subscription. The previous
// connection and reconnect timer are released before Start returns.
// An empty room leaves the manager offline.
func (m *Manager) Start(room string) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.stop()
	if room == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	m.mu.Lock()
	m.room = room
	m.attempt = 0
	m.lastErr = nil
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	m.fire(EventSelect)
	go m.run(ctx, room, m.store.Epoch(), done)
}

// Stop cancels the subscription and waits for its goroutine to exit. No event
// of the stopped subscription reaches the store after Stop returns.
func (m *Manager) Stop() {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.stop()
}

func (m *Manager) stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	m.mu.Lock()
	m.room = ""
	m.attempt = 0
	m.lastErr = nil
	m.mu.Unlock()
	m.fire(EventStop)
}

// State returns the current connection state.
func (m *Manager) State() model.ConnectionState {
	return m.fsm.State()
}

// Room returns the subscribed room, or "".
func (m *Manager) Room() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.room
}

// Status returns a snapshot of the subscription.
func (m *Manager) Status() model.Status {
	m.mu.Lock()
	room, attempt, lastErr := m.room, m.attempt, m.lastErr
	m.mu.Unlock()

	state := m.fsm.State()
	st := model.Status{
		Room:     room,
		State:    state,
		Label:    state.Label(),
		Attempt:  attempt,
		Vehicles: m.store.Len(),
	}
	if hb := m.store.LastHeartbeat(); !hb.IsZero() {
		st.LastHeartbeat = &hb
	}
	if lastErr != nil {
		st.LastError = lastErr.Error()
	}
	return st
}

func (m *Manager) run(ctx context.Context, room string, epoch uint64, done chan struct{}) {
	defer close(done)

	logger := m.log.WithValues("room", room)
	b := newBackOff(m.initial, m.max)

	for {
		conn, err := m.dialer.Open(ctx, room)
		if ctx.Err() != nil {
			if conn != nil {
				conn.Close()
			}
			return
		}

		if err != nil {
			err = fmt.Errorf("open stream: %w", err)
		} else {
			m.setAttempt(0, nil)
			b.Reset()
			m.fire(EventOpen)
			logger.Info("Live stream connected")

			err = m.consume(ctx, conn, epoch, logger)
			conn.Close()
			if ctx.Err() != nil {
				return
			}
		}

		delay := b.NextBackOff()
		m.setAttempt(-1, err)
		m.fire(EventFail)
		metrics.ReconnectAttempts.Inc()
		logger.Warn("Live stream failed, retrying", "error", err, "delay", delay)

		if !m.sleep(ctx, delay) {
			return
		}
		m.incAttempt()
		m.fire(EventDial)
	}
}

// consume reads conn until it fails or ctx is cancelled.
func (m *Manager) consume(ctx context.Context, conn core.Stream, epoch uint64, logger log.Logger) error {
	for {
		msg, err := conn.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ErrStreamClosed
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		ev, ok := envelope.DecodeEvent(msg)
		if !ok {
			metrics.DecodeDrops.Inc()
			logger.Debug("Dropping undecodable stream message", "size", len(msg), "payload", msg)
			continue
		}
		metrics.StreamMessages.WithLabelValues(ev.Kind()).Inc()
		m.store.ApplyIf(epoch, ev)
	}
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) bool {
	t := m.clock.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C():
		return true
	}
}

// setAttempt records err; a non-negative n also sets the attempt counter.
func (m *Manager) setAttempt(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n >= 0 {
		m.attempt = n
	}
	m.lastErr = err
}

func (m *Manager) incAttempt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempt++
}

func (m *Manager) fire(event string) {
	if _, err := m.fsm.Fire(event); err != nil {
		m.log.Error(err, "Connection state transition failed", "event", event)
	}
}

func (m *Manager) onEnter(from, to model.ConnectionState) {
	metrics.SetConnectionState(string(to), stateLabels)
	m.log.Debug("Connection state changed", "from", from, "to", to)

	status := m.Status()
	m.obsMu.RLock()
	defer m.obsMu.RUnlock()
	for _, fn := range m.observers {
		fn(status)
	}
}
