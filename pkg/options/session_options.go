package options

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

var (
	_ IOptions = (*SessionOptions)(nil)
	_ IOptions = (*RelayOptions)(nil)
	_ IOptions = (*ImportOptions)(nil)
)

// SessionOptions selects the room the agent joins on startup.
type SessionOptions struct {
	// Room is joined directly when set.
	Room string `json:"room" mapstructure:"room"`

	// GroupID resolves the group's active room when Room is empty.
	GroupID string `json:"group-id" mapstructure:"group-id"`
}

func NewSessionOptions() *SessionOptions {
	return &SessionOptions{}
}

func (o *SessionOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if strings.TrimSpace(o.Room) != "" && strings.TrimSpace(o.GroupID) != "" {
		errs = append(errs, fmt.Errorf("--session.room and --session.group-id are mutually exclusive"))
	}
	return errs
}

func (o *SessionOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Room, "session.room", o.Room, "Room to join on startup.")
	fs.StringVar(&o.GroupID, "session.group-id", o.GroupID, "Join the active room of this group on startup.")
}

// RelayOptions toggles republishing the roster to MQTT.
type RelayOptions struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

func NewRelayOptions() *RelayOptions {
	return &RelayOptions{}
}

func (o *RelayOptions) Validate() []error { return nil }

func (o *RelayOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, "relay.enabled", o.Enabled, "Publish the roster and connection status to MQTT as retained messages.")
}

// ImportOptions configures the seed-file watcher.
type ImportOptions struct {
	// WatchFile is re-imported into the current room whenever it changes.
	WatchFile string `json:"watch-file" mapstructure:"watch-file"`

	// Debounce coalesces bursts of file events.
	Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
}

func NewImportOptions() *ImportOptions {
	return &ImportOptions{
		Debounce: 500 * time.Millisecond,
	}
}

func (o *ImportOptions) Validate() []error {
	if o == nil || o.WatchFile == "" {
		return nil
	}

	var errs []error
	if o.Debounce < 0 {
		errs = append(errs, fmt.Errorf("--import.debounce must not be negative"))
	}
	return errs
}

func (o *ImportOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.WatchFile, "import.watch-file", o.WatchFile, "Seed JSON file that is imported whenever it changes.")
	fs.DurationVar(&o.Debounce, "import.debounce", o.Debounce, "Quiet period before a changed seed file is imported.")
}
