package dispatch

import (
	"testing"

	"github.com/autopeer-io/dispatch/pkg/options"
)

func newConfig() *Config {
	return &Config{
		APIOptions:     options.NewAPIOptions(),
		StreamOptions:  options.NewStreamOptions(),
		SessionOptions: options.NewSessionOptions(),
		HttpOptions:    options.NewHttpOptions(),
		GrpcOptions:    options.NewGrpcOptions(),
		MqttOptions:    options.NewMqttOptions(),
		S3Options:      options.NewS3Options(),
		ArchiveOptions: options.NewArchiveOptions(),
		RelayOptions:   options.NewRelayOptions(),
		ImportOptions:  options.NewImportOptions(),
	}
}

func TestNewAgent(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantMQTT bool
	}{
		{name: "defaults"},
		{name: "websocket", mutate: func(c *Config) { c.StreamOptions.Transport = options.TransportWebSocket }},
		{name: "mqtt transport", mutate: func(c *Config) { c.StreamOptions.Transport = options.TransportMQTT }, wantMQTT: true},
		{name: "relay", mutate: func(c *Config) { c.RelayOptions.Enabled = true }, wantMQTT: true},
		{
			name: "archive and importer",
			mutate: func(c *Config) {
				c.ArchiveOptions.Enabled = true
				c.ImportOptions.WatchFile = "seeds.json"
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			agent, err := cfg.NewAgent()
			if err != nil {
				t.Fatalf("NewAgent() error = %v", err)
			}
			if got := agent.mqttClient != nil; got != tt.wantMQTT {
				t.Errorf("mqtt client created = %v, want %v", got, tt.wantMQTT)
			}
		})
	}
}
