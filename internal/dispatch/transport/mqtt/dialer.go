// Package mqtt receives the live roster stream of a room from an MQTT broker.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/autopeer-io/dispatch/internal/dispatch/core"
	"github.com/autopeer-io/dispatch/pkg/log"
	"github.com/autopeer-io/dispatch/pkg/mqtt"
	"github.com/autopeer-io/dispatch/pkg/mqtt/topic"
)

// ErrClosed is returned by Next once the stream is closed.
var ErrClosed = errors.New("mqtt stream closed")

// bufferSize is the number of messages queued per stream before the broker
// reader waits for the consumer.
const bufferSize = 256

var _ core.Dialer = (*Dialer)(nil)

// Dialer subscribes to {root}/dispatch/{room}/events on a shared client.
// The client is started and stopped by its owner.
type Dialer struct {
	client           mqtt.Client
	topics           *topic.TopicBuilder
	qos              int
	handshakeTimeout time.Duration

	mu      sync.Mutex
	streams map[*stream]struct{}
}

// NewDialer creates a Dialer on client.
func NewDialer(client mqtt.Client, topics *topic.TopicBuilder, qos int, handshakeTimeout time.Duration) *Dialer {
	return &Dialer{
		client:           client,
		topics:           topics,
		qos:              qos,
		handshakeTimeout: handshakeTimeout,
		streams:          make(map[*stream]struct{}),
	}
}

// Open subscribes to the event topic of room. It waits for the broker
// connection for at most the handshake timeout.
func (d *Dialer) Open(ctx context.Context, room string) (core.Stream, error) {
	if !d.client.IsConnected() {
		waitCtx, cancel := ctx, context.CancelFunc(func() {})
		if d.handshakeTimeout > 0 {
			waitCtx, cancel = context.WithTimeout(ctx, d.handshakeTimeout)
		}
		err := d.client.AwaitConnection(waitCtx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("mqtt broker not connected: %w", err)
		}
	}

	s := &stream{
		dialer: d,
		topic:  d.topics.Events(room),
		msgs:   make(chan []byte, bufferSize),
		closed: make(chan struct{}),
		failed: make(chan struct{}),
	}
	if err := d.client.Subscribe(ctx, s.topic, d.qos, s.handle); err != nil {
		_ = d.client.Unsubscribe(context.Background(), s.topic)
		return nil, err
	}

	d.mu.Lock()
	d.streams[s] = struct{}{}
	d.mu.Unlock()
	log.Debug("Subscribed to room events", "topic", s.topic)
	return s, nil
}

// ConnectionLost fails every open stream with err. It is meant to be wired to
// the OnConnectionLost hook of the client.
func (d *Dialer) ConnectionLost(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for s := range d.streams {
		s.fail(err)
	}
}

func (d *Dialer) remove(s *stream) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.streams, s)
}

type stream struct {
	dialer *Dialer
	topic  string
	msgs   chan []byte

	closeOnce sync.Once
	closed    chan struct{}

	failOnce sync.Once
	failed   chan struct{}
	err      error
}

// handle runs on the client reader goroutine; it keeps the broker order.
func (s *stream) handle(_ context.Context, _ string, payload []byte) {
	msg := append([]byte(nil), payload...)
	select {
	case s.msgs <- msg:
	case <-s.closed:
	case <-s.failed:
	}
}

func (s *stream) fail(err error) {
	s.failOnce.Do(func() {
		if err == nil {
			err = errors.New("mqtt connection lost")
		}
		s.err = err
		close(s.failed)
	})
}

func (s *stream) Next(ctx context.Context) ([]byte, error) {
	// Queued messages are delivered before a failure is reported.
	select {
	case msg := <-s.msgs:
		return msg, nil
	default:
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.closed:
		return nil, ErrClosed
	case <-s.failed:
		return nil, s.err
	case msg := <-s.msgs:
		return msg, nil
	}
}

func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		s.dialer.remove(s)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.dialer.client.Unsubscribe(ctx, s.topic)
	})
	return err
}
