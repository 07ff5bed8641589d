package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the CLI.
const EnvPrefix = "SEQRETS"

// Configuration keys. Flags use the same names.
const (
	keyConfig          = "config"
	keyReader          = "reader"
	keyPin             = "pin"
	keyLogLevel        = "log-level"
	keyLogFormat       = "log-format"
	keyMetricsTextfile = "metrics-textfile"
)

// Config is the resolved CLI configuration: flags over environment over config file.
type Config struct {
	Reader          string
	Pin             string
	LogLevel        string
	LogFormat       string
	MetricsTextfile string
}

// defaultConfigFile is $HOME/.seqrets-card.yaml, or empty when HOME is unknown.
func defaultConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".seqrets-card.yaml")
}

// loadConfig binds flags to v and reads the optional config file.
// A missing default config file is not an error; a missing explicit one is.
func loadConfig(v *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if file := v.GetString(keyConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else if file := defaultConfigFile(); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	return &Config{
		Reader:          v.GetString(keyReader),
		Pin:             v.GetString(keyPin),
		LogLevel:        v.GetString(keyLogLevel),
		LogFormat:       v.GetString(keyLogFormat),
		MetricsTextfile: v.GetString(keyMetricsTextfile),
	}, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}
