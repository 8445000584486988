package stream

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default reconnect delays.
const (
	DefaultBackoffInitial = time.Second
	DefaultBackoffMax     = 30 * time.Second
)

// newBackOff returns the reconnect delay sequence initial, 2·initial, 4·initial...
// capped at ceiling, without jitter and without an elapsed time limit.
func newBackOff(initial, ceiling time.Duration) *backoff.ExponentialBackOff {
	if initial <= 0 {
		initial = DefaultBackoffInitial
	}
	if ceiling < initial {
		ceiling = initial
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = ceiling
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
