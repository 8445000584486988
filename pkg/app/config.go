package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFlagName = "config"

	// EnvPrefix prefixes every environment variable that maps onto a flag,
	// e.g. DISPATCH_API_BASE_URL for --api.base-url.
	EnvPrefix = "DISPATCH"
)

func addConfigFlag(basename string, fs *pflag.FlagSet) {
	fs.StringP(configFlagName, "c", "", fmt.Sprintf(
		"Read configuration from the specified file. Defaults to %s.yaml in ., $HOME/.dispatch or /etc/dispatch.", basename))
}

func (a *App) readConfig(cmd *cobra.Command) error {
	v := a.v
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfgFile := ""
	if f := cmd.Flags().Lookup(configFlagName); f != nil {
		cfgFile = f.Value.String()
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".dispatch"))
		}
		v.AddConfigPath("/etc/dispatch")
		v.SetConfigName(a.name)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read configuration file %q: %w", cfgFile, err)
	}
	return nil
}
