package stream

import (
	"testing"
	"time"
)

func TestBackOffSequence(t *testing.T) {
	b := newBackOff(time.Second, 30*time.Second)

	want := []time.Duration{1, 2, 4, 8, 16, 30, 30}
	for i, w := range want {
		if got := b.NextBackOff(); got != w*time.Second {
			t.Fatalf("delay %d = %v, want %v", i, got, w*time.Second)
		}
	}

	b.Reset()
	if got := b.NextBackOff(); got != time.Second {
		t.Errorf("delay after Reset = %v, want 1s", got)
	}
}

func TestBackOffDefaults(t *testing.T) {
	b := newBackOff(0, 0)
	if got := b.NextBackOff(); got != DefaultBackoffInitial {
		t.Errorf("first delay = %v, want %v", got, DefaultBackoffInitial)
	}
	if got := b.NextBackOff(); got != DefaultBackoffInitial {
		t.Errorf("second delay = %v, want the cap %v", got, DefaultBackoffInitial)
	}
}
