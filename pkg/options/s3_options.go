package options

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*S3Options)(nil)

// S3Options configures the object store that receives roster archives.
type S3Options struct {
	Endpoint        string `json:"endpoint" mapstructure:"endpoint"`
	AccessKeyID     string `json:"access-key-id" mapstructure:"access-key-id"`
	SecretAccessKey string `json:"secret-access-key" mapstructure:"secret-access-key"`
	UseSSL          bool   `json:"use-ssl" mapstructure:"use-ssl"`
	BucketName      string `json:"bucket-name" mapstructure:"bucket-name"`
	Region          string `json:"region" mapstructure:"region"`
}

func NewS3Options() *S3Options {
	return &S3Options{
		Endpoint:   "127.0.0.1:9000",
		UseSSL:     false,
		BucketName: "dispatch-roster",
		Region:     "us-east-1",
	}
}

func (o *S3Options) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.Endpoint == "" || strings.Contains(o.Endpoint, "://") {
		errors = append(errors, fmt.Errorf("--s3.endpoint must be host[:port] without a scheme"))
	}
	if o.BucketName == "" {
		errors = append(errors, fmt.Errorf("--s3.bucket-name must not be empty"))
	}

	return errors
}

func (o *S3Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Endpoint, "s3.endpoint", o.Endpoint, "S3 service endpoint (e.g. s3.amazonaws.com or minio.local:9000)")
	fs.StringVar(&o.AccessKeyID, "s3.access-key-id", o.AccessKeyID, "S3 access key ID")
	fs.StringVar(&o.SecretAccessKey, "s3.secret-access-key", o.SecretAccessKey, "S3 secret access key")
	fs.BoolVar(&o.UseSSL, "s3.use-ssl", o.UseSSL, "Enable SSL for S3 connection")
	fs.StringVar(&o.BucketName, "s3.bucket-name", o.BucketName, "S3 bucket name for roster archives")
	fs.StringVar(&o.Region, "s3.region", o.Region, "S3 region")
}

var _ IOptions = (*ArchiveOptions)(nil)

// ArchiveOptions toggles the periodic roster export to S3.
type ArchiveOptions struct {
	Enabled  bool          `json:"enabled" mapstructure:"enabled"`
	Interval time.Duration `json:"interval" mapstructure:"interval"`
	Prefix   string        `json:"prefix" mapstructure:"prefix"`
}

func NewArchiveOptions() *ArchiveOptions {
	return &ArchiveOptions{
		Interval: 5 * time.Minute,
		Prefix:   "rooms",
	}
}

func (o *ArchiveOptions) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errors []error
	if o.Interval < time.Second {
		errors = append(errors, fmt.Errorf("--archive.interval must be at least 1s"))
	}

	return errors
}

func (o *ArchiveOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, "archive.enabled", o.Enabled, "Periodically export the roster to S3.")
	fs.DurationVar(&o.Interval, "archive.interval", o.Interval, "Interval between roster exports.")
	fs.StringVar(&o.Prefix, "archive.prefix", o.Prefix, "Object key prefix for roster exports.")
}
