// Package sse opens the live roster stream of a room as server-sent events.
package sse

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"sync"
	"time"

	"github.com/autopeer-io/dispatch/internal/dispatch/core"
	"github.com/autopeer-io/dispatch/internal/dispatch/remote"
)

var _ core.Dialer = (*Dialer)(nil)

// Dialer opens GET /dispatch/{room}/connect with Accept: text/event-stream.
type Dialer struct {
	client           *remote.Client
	handshakeTimeout time.Duration
}

// NewDialer creates a Dialer using the credentials of client. A positive
// handshakeTimeout bounds the wait for the response headers.
func NewDialer(client *remote.Client, handshakeTimeout time.Duration) *Dialer {
	return &Dialer{client: client, handshakeTimeout: handshakeTimeout}
}

// Open connects to the stream of room.
func (d *Dialer) Open(ctx context.Context, room string) (core.Stream, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := d.client.NewRequest(ctx, http.MethodGet, remote.ConnectPath(room), nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	var timer *time.Timer
	if d.handshakeTimeout > 0 {
		timer = time.AfterFunc(d.handshakeTimeout, cancel)
	}
	resp, err := d.client.StreamClient().Do(req)
	if timer != nil && !timer.Stop() {
		if err == nil {
			resp.Body.Close()
		}
		cancel()
		return nil, fmt.Errorf("stream handshake timed out after %s", d.handshakeTimeout)
	}
	if err != nil {
		cancel()
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		cancel()
		return nil, remote.ResponseError(resp)
	}
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt != "text/event-stream" {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("unexpected stream content type %q", resp.Header.Get("Content-Type"))
	}

	return &stream{resp: resp, reader: NewReader(resp.Body), cancel: cancel}, nil
}

type stream struct {
	resp   *http.Response
	reader *Reader
	cancel context.CancelFunc
	once   sync.Once
}

// Next returns the data of the next message event. Reads are unblocked by
// Close, by cancelling ctx or the context passed to Open.
func (s *stream) Next(ctx context.Context) ([]byte, error) {
	for {
		ev, err := s.reader.Next(ctx)
		if err != nil {
			return nil, err
		}
		if ev.Type == DefaultEventType {
			return []byte(ev.Data), nil
		}
	}
}

func (s *stream) Close() error {
	var err error
	s.once.Do(func() {
		s.reader.Close()
		s.cancel()
		err = s.resp.Body.Close()
	})
	return err
}
