// Package websocket opens the live roster stream of a room over a WebSocket.
package websocket

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autopeer-io/dispatch/internal/dispatch/core"
	"github.com/autopeer-io/dispatch/internal/dispatch/remote"
)

// maxMessageSize bounds a single stream message.
const maxMessageSize = 1 << 20

var _ core.Dialer = (*Dialer)(nil)

// Dialer connects to ws(s)://{base}/dispatch/{room}/connect. Every text or
// binary frame is one stream message.
type Dialer struct {
	client *remote.Client
	dialer websocket.Dialer
}

// NewDialer creates a Dialer using the base URL and credentials of client.
func NewDialer(client *remote.Client, handshakeTimeout time.Duration) *Dialer {
	return &Dialer{
		client: client,
		dialer: websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
			TLSClientConfig:  client.TLSConfig(),
		},
	}
}

// URL returns the WebSocket endpoint of room.
func (d *Dialer) URL(room string) (string, error) {
	u, err := url.Parse(d.client.URL(remote.ConnectPath(room)))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported stream scheme %q", u.Scheme)
	}
	return u.String(), nil
}

// Open connects to the stream of room. The connection is closed when ctx is done.
func (d *Dialer) Open(ctx context.Context, room string) (core.Stream, error) {
	target, err := d.URL(room)
	if err != nil {
		return nil, err
	}

	conn, resp, err := d.dialer.DialContext(ctx, target, d.client.Header())
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			defer resp.Body.Close()
			return nil, remote.ResponseError(resp)
		}
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	conn.SetReadLimit(maxMessageSize)

	s := &stream{conn: conn, closed: make(chan struct{})}
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.closed:
		}
	}()
	return s, nil
}

type stream struct {
	conn   *websocket.Conn
	once   sync.Once
	closed chan struct{}
}

func (s *stream) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		typ, msg, err := s.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if typ == websocket.TextMessage || typ == websocket.BinaryMessage {
			return msg, nil
		}
	}
}

func (s *stream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closed)
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err = s.conn.Close()
	})
	return err
}
