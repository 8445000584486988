package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*StreamOptions)(nil)

// Supported stream transports.
const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
	TransportMQTT      = "mqtt"
)

// StreamOptions configures the live roster event stream.
type StreamOptions struct {
	// Transport selects how the room stream is opened: sse, websocket or mqtt.
	Transport string `json:"transport" mapstructure:"transport"`

	// BackoffInitial is the delay before the first reconnect attempt.
	BackoffInitial time.Duration `json:"backoff-initial" mapstructure:"backoff-initial"`

	// BackoffMax caps the reconnect delay.
	BackoffMax time.Duration `json:"backoff-max" mapstructure:"backoff-max"`

	// HandshakeTimeout bounds opening the stream (HTTP response headers, websocket upgrade).
	HandshakeTimeout time.Duration `json:"handshake-timeout" mapstructure:"handshake-timeout"`
}

// NewStreamOptions creates a StreamOptions object with default parameters.
func NewStreamOptions() *StreamOptions {
	return &StreamOptions{
		Transport:        TransportSSE,
		BackoffInitial:   time.Second,
		BackoffMax:       30 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *StreamOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	switch o.Transport {
	case TransportSSE, TransportWebSocket, TransportMQTT:
	default:
		errs = append(errs, fmt.Errorf("--stream.transport must be one of %s, %s, %s; got %q",
			TransportSSE, TransportWebSocket, TransportMQTT, o.Transport))
	}
	if o.BackoffInitial <= 0 {
		errs = append(errs, fmt.Errorf("--stream.backoff-initial must be positive"))
	}
	if o.BackoffMax < o.BackoffInitial {
		errs = append(errs, fmt.Errorf("--stream.backoff-max must not be lower than --stream.backoff-initial"))
	}

	return errs
}

// AddFlags adds flags for the event stream to the specified FlagSet.
func (o *StreamOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Transport, "stream.transport", o.Transport, "Stream transport: sse, websocket or mqtt.")
	fs.DurationVar(&o.BackoffInitial, "stream.backoff-initial", o.BackoffInitial, "Delay before the first reconnect attempt.")
	fs.DurationVar(&o.BackoffMax, "stream.backoff-max", o.BackoffMax, "Upper bound of the reconnect delay.")
	fs.DurationVar(&o.HandshakeTimeout, "stream.handshake-timeout", o.HandshakeTimeout, "Timeout for opening the stream connection.")
}
