package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/autopeer-io/picar/pkg/log"
)

const (
	configFlagName = "config"

	// EnvPrefix prefixes environment overrides, e.g. PICAR_HTTP_ADDR.
	EnvPrefix = "PICAR"
)

// addConfigFlag registers --config and prepares viper to read it together
// with environment overrides.
func addConfigFlag(fs *pflag.FlagSet, name string, cfgFile *string) {
	fs.StringVarP(cfgFile, configFlagName, "c", *cfgFile,
		fmt.Sprintf("Read configuration from the specified file. Supports JSON, TOML, YAML. Searched as %s.yaml in . and /etc/%s when unset.", name, name))
}

func setupViper(v *viper.Viper, name, cfgFile string) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("/etc", name))
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, "."+name))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read configuration file: %w", err)
	}
	return nil
}

// watchLogLevel re-applies log.level whenever the configuration file changes.
// Other settings need a restart.
func watchLogLevel(v *viper.Viper) {
	if v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level := v.GetString("log.level")
		if level == "" {
			return
		}
		if log.SetLevel(level) {
			log.Info("Log level reloaded", "file", e.Name, "level", level)
		} else {
			log.Warn("Ignoring invalid log level from configuration", "file", e.Name, "level", level)
		}
	})
	v.WatchConfig()
}
