package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*APIOptions)(nil)

// APIOptions configures the client of the remote dispatch service.
type APIOptions struct {
	// BaseURL is the root of the dispatch REST API, e.g. https://api.example.org.
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// Timeout bounds every non-streaming request.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// Token is sent as a bearer token when set.
	Token string `json:"token" mapstructure:"token"`

	// Cookie is forwarded verbatim as the Cookie header when set.
	Cookie string `json:"cookie" mapstructure:"cookie"`

	InsecureSkipVerify bool `json:"insecure-skip-verify" mapstructure:"insecure-skip-verify"`
}

// NewAPIOptions creates an APIOptions object with default parameters.
func NewAPIOptions() *APIOptions {
	return &APIOptions{
		BaseURL: "http://127.0.0.1:8080",
		Timeout: 15 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *APIOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if err := ValidateURL(o.BaseURL, "http", "https"); err != nil {
		errs = append(errs, fmt.Errorf("--api.base-url: %w", err))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("--api.timeout must be positive"))
	}
	if o.Token != "" && o.Cookie != "" {
		errs = append(errs, fmt.Errorf("--api.token and --api.cookie are mutually exclusive"))
	}

	return errs
}

// AddFlags adds flags for the remote dispatch API to the specified FlagSet.
func (o *APIOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.BaseURL, "api.base-url", o.BaseURL, "Base URL of the remote dispatch service.")
	fs.DurationVar(&o.Timeout, "api.timeout", o.Timeout, "Timeout for snapshot and mutation requests.")
	fs.StringVar(&o.Token, "api.token", o.Token, "Bearer token sent with every request.")
	fs.StringVar(&o.Cookie, "api.cookie", o.Cookie, "Cookie header forwarded with every request.")
	fs.BoolVar(&o.InsecureSkipVerify, "api.insecure-skip-verify", o.InsecureSkipVerify, "Skip TLS certificate verification (testing only).")
}
