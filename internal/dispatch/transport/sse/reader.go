package sse

import (
	"context"
	"errors"
	"io"
	"sync"

	gosse "github.com/tmaxmax/go-sse"
)

// DefaultEventType is the type of events sent without an event field.
const DefaultEventType = "message"

// Event is one dispatched server-sent event.
type Event struct {
	Type string
	ID   string
	Data string
}

type result struct {
	ev  Event
	err error
}

// Reader delivers the events of a text/event-stream body parsed by go-sse.
// Parsing runs in its own goroutine until the body ends, fails or the Reader
// is closed.
type Reader struct {
	events chan result
	done   chan struct{}
	once   sync.Once
}

// NewReader starts reading events from r.
func NewReader(r io.Reader) *Reader {
	rd := &Reader{events: make(chan result), done: make(chan struct{})}
	go rd.run(r)
	return rd
}

func (rd *Reader) run(r io.Reader) {
	defer close(rd.events)
	for ev, err := range gosse.Read(r, nil) {
		if errors.Is(err, io.EOF) {
			return
		}
		res := result{err: err}
		if err == nil {
			res.ev = Event{Type: ev.Type, ID: ev.LastEventID, Data: ev.Data}
			if res.ev.Type == "" {
				res.ev.Type = DefaultEventType
			}
		}
		select {
		case rd.events <- res:
		case <-rd.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// Next returns the next event. Comments and retry fields never surface.
// It returns io.EOF at the end of the stream.
func (rd *Reader) Next(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case <-rd.done:
		return Event{}, io.ErrClosedPipe
	case res, ok := <-rd.events:
		if !ok {
			return Event{}, io.EOF
		}
		return res.ev, res.err
	}
}

// Close stops delivery. The parsing goroutine exits once its pending read
// returns, which closing the underlying body forces.
func (rd *Reader) Close() {
	rd.once.Do(func() { close(rd.done) })
}
