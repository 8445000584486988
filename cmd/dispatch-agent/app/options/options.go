package options

import (
	"strings"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/dispatch/internal/dispatch"
	"github.com/autopeer-io/dispatch/pkg/app"
	"github.com/autopeer-io/dispatch/pkg/log"
	"github.com/autopeer-io/dispatch/pkg/options"
)

type AgentOptions struct {
	APIOptions     *options.APIOptions     `json:"api" mapstructure:"api"`
	StreamOptions  *options.StreamOptions  `json:"stream" mapstructure:"stream"`
	SessionOptions *options.SessionOptions `json:"session" mapstructure:"session"`
	HttpOptions    *options.HttpOptions    `json:"http" mapstructure:"http"`
	GrpcOptions    *options.GrpcOptions    `json:"grpc" mapstructure:"grpc"`
	MqttOptions    *options.MqttOptions    `json:"mqtt" mapstructure:"mqtt"`
	S3Options      *options.S3Options      `json:"s3" mapstructure:"s3"`
	ArchiveOptions *options.ArchiveOptions `json:"archive" mapstructure:"archive"`
	RelayOptions   *options.RelayOptions   `json:"relay" mapstructure:"relay"`
	ImportOptions  *options.ImportOptions  `json:"import" mapstructure:"import"`
	Log            *log.Options            `json:"log" mapstructure:"log"`
}

var (
	_ app.NamedFlagSetOptions = (*AgentOptions)(nil)
	_ app.LogOptions          = (*AgentOptions)(nil)
)

func NewAgentOptions() *AgentOptions {
	o := &AgentOptions{
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
		Log:            log.NewOptions(),
	}

	return o
}

func (o *AgentOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.APIOptions.AddFlags(fss.FlagSet("api"))
	o.StreamOptions.AddFlags(fss.FlagSet("stream"))
	o.SessionOptions.AddFlags(fss.FlagSet("session"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.GrpcOptions.AddFlags(fss.FlagSet("grpc"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.ArchiveOptions.AddFlags(fss.FlagSet("archive"))
	o.RelayOptions.AddFlags(fss.FlagSet("relay"))
	o.ImportOptions.AddFlags(fss.FlagSet("import"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *AgentOptions) Complete() error {
	o.SessionOptions.Room = strings.TrimSpace(o.SessionOptions.Room)
	o.SessionOptions.GroupID = strings.TrimSpace(o.SessionOptions.GroupID)
	o.APIOptions.BaseURL = strings.TrimSuffix(o.APIOptions.BaseURL, "/")
	return nil
}

// Validate checks every option group. The MQTT and S3 groups are only checked
// when a component using them is enabled.
func (o *AgentOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.APIOptions.Validate()...)
	errs = append(errs, o.StreamOptions.Validate()...)
	errs = append(errs, o.SessionOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.GrpcOptions.Validate()...)
	if o.StreamOptions.Transport == options.TransportMQTT || o.RelayOptions.Enabled {
		errs = append(errs, o.MqttOptions.Validate()...)
	}
	if o.ArchiveOptions.Enabled {
		errs = append(errs, o.S3Options.Validate()...)
	}
	errs = append(errs, o.ArchiveOptions.Validate()...)
	errs = append(errs, o.RelayOptions.Validate()...)
	errs = append(errs, o.ImportOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *AgentOptions) LogOptions() *log.Options {
	return o.Log
}

func (o *AgentOptions) Config() (*dispatch.Config, error) {
	return &dispatch.Config{
		APIOptions:     o.APIOptions,
		StreamOptions:  o.StreamOptions,
		SessionOptions: o.SessionOptions,
		HttpOptions:    o.HttpOptions,
		GrpcOptions:    o.GrpcOptions,
		MqttOptions:    o.MqttOptions,
		S3Options:      o.S3Options,
		ArchiveOptions: o.ArchiveOptions,
		RelayOptions:   o.RelayOptions,
		ImportOptions:  o.ImportOptions,
	}, nil
}
