package options

import (
	"fmt"
	"strings"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/dispatch/pkg/app"
	"github.com/autopeer-io/dispatch/pkg/log"
	"github.com/autopeer-io/dispatch/pkg/options"
)

// CtlOptions holds the settings shared by every dispatchctl command.
type CtlOptions struct {
	APIOptions    *options.APIOptions    `json:"api" mapstructure:"api"`
	GrpcOptions   *options.GrpcOptions   `json:"grpc" mapstructure:"grpc"`
	ImportOptions *options.ImportOptions `json:"import" mapstructure:"import"`
	Log           *log.Options           `json:"log" mapstructure:"log"`
}

var (
	_ app.NamedFlagSetOptions = (*CtlOptions)(nil)
	_ app.LogOptions          = (*CtlOptions)(nil)
)

func NewCtlOptions() *CtlOptions {
	o := &CtlOptions{
		APIOptions:    options.NewAPIOptions(),
		GrpcOptions:   options.NewGrpcOptions(),
		ImportOptions: options.NewImportOptions(),
		Log:           log.NewOptions(),
	}
	o.Log.Level = "warn"

	return o
}

func (o *CtlOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.APIOptions.AddFlags(fss.FlagSet("api"))
	o.GrpcOptions.AddFlags(fss.FlagSet("grpc"))
	fss.FlagSet("import").DurationVar(&o.ImportOptions.Debounce, "import.debounce", o.ImportOptions.Debounce,
		"Quiet period before a changed seed file is imported with --watch.")
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *CtlOptions) Complete() error {
	o.APIOptions.BaseURL = strings.TrimSuffix(o.APIOptions.BaseURL, "/")
	return nil
}

func (o *CtlOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.APIOptions.Validate()...)
	errs = append(errs, o.GrpcOptions.Validate()...)
	if o.ImportOptions.Debounce < 0 {
		errs = append(errs, fmt.Errorf("--import.debounce must not be negative"))
	}
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *CtlOptions) LogOptions() *log.Options {
	return o.Log
}
