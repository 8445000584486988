package options

import (
	"strings"
	"testing"

	"github.com/autopeer-io/dispatch/pkg/options"
)

func TestAgentOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AgentOptions)
		wantErr string
	}{
		{name: "defaults"},
		{
			name:   "mqtt broker ignored without mqtt users",
			mutate: func(o *AgentOptions) { o.MqttOptions.Broker = "" },
		},
		{
			name: "mqtt broker checked for the mqtt transport",
			mutate: func(o *AgentOptions) {
				o.StreamOptions.Transport = options.TransportMQTT
				o.MqttOptions.Broker = ""
			},
			wantErr: "--mqtt.broker",
		},
		{
			name: "s3 checked when archiving",
			mutate: func(o *AgentOptions) {
				o.ArchiveOptions.Enabled = true
				o.S3Options.BucketName = ""
			},
			wantErr: "--s3.bucket-name",
		},
		{
			name: "room and group",
			mutate: func(o *AgentOptions) {
				o.SessionOptions.Room = "r1"
				o.SessionOptions.GroupID = "g1"
			},
			wantErr: "mutually exclusive",
		},
		{
			name:    "unknown transport",
			mutate:  func(o *AgentOptions) { o.StreamOptions.Transport = "grpc" },
			wantErr: "--stream.transport",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewAgentOptions()
			if tt.mutate != nil {
				tt.mutate(o)
			}
			if err := o.Complete(); err != nil {
				t.Fatal(err)
			}
			err := o.Validate()
			switch {
			case tt.wantErr == "" && err != nil:
				t.Errorf("Validate() error = %v", err)
			case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestFlags(t *testing.T) {
	fss := NewAgentOptions().Flags()
	for _, name := range []string{"api.base-url", "stream.transport", "session.room", "archive.enabled", "relay.enabled", "import.watch-file", "log.level"} {
		found := false
		for _, fs := range fss.FlagSets {
			if fs.Lookup(name) != nil {
				found = true
			}
		}
		if !found {
			t.Errorf("flag --%s not registered", name)
		}
	}
}
