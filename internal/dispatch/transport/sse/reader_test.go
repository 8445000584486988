package sse

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestReader(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Event
	}{
		{
			name: "single data line",
			in:   "data: {\"event\":\"HEARTBEAT\"}\n\n",
			want: []Event{{Type: "message", Data: `{"event":"HEARTBEAT"}`}},
		},
		{
			name: "multi-line data and crlf",
			in:   "data: a\r\ndata:b\r\n\r\n",
			want: []Event{{Type: "message", Data: "a\nb"}},
		},
		{
			name: "comments and retry are skipped",
			in:   ": keep-alive\nretry: 1000\n\ndata: x\n\n",
			want: []Event{{Type: "message", Data: "x"}},
		},
		{
			name: "named events and ids",
			in:   "event: ping\ndata: 1\n\nid: 7\ndata: 2\n\n",
			want: []Event{
				{Type: "ping", Data: "1"},
				{Type: "message", ID: "7", Data: "2"},
			},
		},
		{
			name: "event type resets after an empty event",
			in:   "event: ping\n\ndata: x\n\n",
			want: []Event{{Type: "message", Data: "x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.in))
			defer r.Close()
			var got []Event
			for {
				ev, err := r.Next(context.Background())
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					t.Fatal(err)
				}
				got = append(got, ev)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReaderNextHonoursContext(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	r := NewReader(pr)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := r.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Next() error = %v, want %v", err, context.DeadlineExceeded)
	}
}
