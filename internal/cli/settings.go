package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vk/ocfltools/internal/app"
)

// Setting keys. Each is also the flag name and, upper-cased with the
// OCFL_TOOLS_ prefix, the environment variable.
const (
	keyConfig          = "config"
	keyLogLevel        = "log-level"
	keyLogFormat       = "log-format"
	keyDomains         = "domains"
	keySource          = "source"
	keySearch          = "search"
	keyUsername        = "username"
	keyPassword        = "password"
	keyWorkers         = "workers"
	keyHealthcheckPort = "healthcheck-port"
	keyDryRun          = "dry-run"
)

const envPrefix = "OCFL_TOOLS"

func newSettings() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// loadSettings binds flags, the flags of the command being run, and reads
// the config file. Flags set on the command line win over the environment,
// which wins over the file.
func loadSettings(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return &ExitError{Code: CodeUsage, Message: err.Error()}
	}

	if file := v.GetString(keyConfig); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("ocfl-tools")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return &ExitError{Code: CodeUsage, Message: fmt.Sprintf("failed to read config file: %v", err)}
		}
	}
	return nil
}

// appConfig builds the validated app configuration from v. Only indexing
// runs more than one worker.
func appConfig(v *viper.Viper, workers int) (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		Repository:      v.GetString(keySource),
		DomainsPath:     v.GetString(keyDomains),
		SearchHost:      v.GetString(keySearch),
		SearchUsername:  v.GetString(keyUsername),
		SearchPassword:  v.GetString(keyPassword),
		DryRun:          v.GetBool(keyDryRun),
		LogFormat:       v.GetString(keyLogFormat),
		LogLevel:        v.GetString(keyLogLevel),
		HealthcheckPort: v.GetInt(keyHealthcheckPort),
		Workers:         workers,
	})
	if err != nil {
		return nil, &ExitError{Code: CodeUsage, Message: err.Error()}
	}
	return cfg, nil
}
