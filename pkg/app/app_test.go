package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	cliflag "k8s.io/component-base/cli/flag"
)

type serverOptions struct {
	Server *serverSection `mapstructure:"server"`

	completed bool
}

type serverSection struct {
	Addr    string        `mapstructure:"addr"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func newServerOptions() *serverOptions {
	return &serverOptions{Server: &serverSection{Addr: ":8780", Timeout: time.Second}}
}

func (o *serverOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	fs := fss.FlagSet("server")
	fs.StringVar(&o.Server.Addr, "server.addr", o.Server.Addr, "address")
	fs.DurationVar(&o.Server.Timeout, "server.timeout", o.Server.Timeout, "timeout")
	return fss
}

func (o *serverOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *serverOptions) Validate() error {
	if o.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	return nil
}

func runApp(t *testing.T, opts *serverOptions, args ...string) error {
	t.Helper()
	ran := false
	a := NewApp("dispatch-test", "test",
		WithOptions(opts),
		WithDefaultValidArgs(),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)
	a.Command().SetArgs(args)
	err := a.Command().Execute()
	if err == nil && !ran {
		t.Error("run func not invoked")
	}
	return err
}

func TestAppFlags(t *testing.T) {
	opts := newServerOptions()
	if err := runApp(t, opts, "--server.addr=127.0.0.1:9000", "--server.timeout=3s"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if opts.Server.Addr != "127.0.0.1:9000" || opts.Server.Timeout != 3*time.Second {
		t.Errorf("flags not loaded: %+v", opts.Server)
	}
	if !opts.completed {
		t.Error("Complete not called")
	}
}

func TestAppEnvironment(t *testing.T) {
	t.Setenv("DISPATCH_SERVER_ADDR", "10.0.0.1:80")

	opts := newServerOptions()
	if err := runApp(t, opts); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if opts.Server.Addr != "10.0.0.1:80" {
		t.Errorf("env not applied: %q", opts.Server.Addr)
	}
}

func TestAppConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatch.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: 192.168.1.1:8080\n  timeout: 7s\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	opts := newServerOptions()
	if err := runApp(t, opts, "--config", path); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if opts.Server.Addr != "192.168.1.1:8080" || opts.Server.Timeout != 7*time.Second {
		t.Errorf("config not applied: %+v", opts.Server)
	}
}

func TestAppMissingConfigFile(t *testing.T) {
	opts := newServerOptions()
	if err := runApp(t, opts, "--config", filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for explicit missing config file")
	}
}

func TestAppValidation(t *testing.T) {
	opts := newServerOptions()
	if err := runApp(t, opts, "--server.addr="); err == nil {
		t.Error("expected validation error")
	}
}

func TestAppRejectsArgs(t *testing.T) {
	opts := newServerOptions()
	if err := runApp(t, opts, "extra"); err == nil {
		t.Error("expected positional argument error")
	}
}
