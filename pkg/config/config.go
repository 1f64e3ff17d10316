// Package config loads topoview settings from layered sources.
//
// Sources are applied in order, later ones winning:
//
//  1. built-in defaults
//  2. a TOML file (topoview.toml in the working directory, or --config)
//  3. environment variables prefixed TOPOVIEW_
//  4. command-line flags that were explicitly set
//
// Environment keys are lower-cased after the prefix is removed, and a
// double underscore separates nesting levels, so TOPOVIEW_BACKEND_URL sets
// backend_url and TOPOVIEW_ALERTS__SMTP__HOST sets alerts.smtp.host. List
// values such as alerts.smtp.to are comma separated.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/matzehuels/topoview/pkg/alert"
	"github.com/matzehuels/topoview/pkg/errors"
)

// DefaultFile is the config file read when --config is not given.
const DefaultFile = "topoview.toml"

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "TOPOVIEW_"

// Defaults.
const (
	DefaultBackendURL = "http://localhost:5000"
	DefaultInterval   = 5 * time.Second
	DefaultRetries    = 1
	DefaultListen     = ":8080"
)

// Config holds all settings.
type Config struct {
	BackendURL string        `koanf:"backend_url" validate:"required"`
	Interval   time.Duration `koanf:"interval"`
	Timeout    time.Duration `koanf:"timeout" validate:"gte=0"`
	Retries    int           `koanf:"retries" validate:"min=1,max=10"`
	Listen     string        `koanf:"listen" validate:"required"`
	Verbose    bool          `koanf:"verbose"`
	Alerts     Alerts        `koanf:"alerts"`
}

// Alerts configures critical-health alerting.
type Alerts struct {
	Enabled bool             `koanf:"enabled"`
	SMTP    alert.SMTPConfig `koanf:"smtp"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BackendURL: DefaultBackendURL,
		Interval:   DefaultInterval,
		Retries:    DefaultRetries,
		Listen:     DefaultListen,
		Alerts:     Alerts{SMTP: alert.SMTPConfig{Port: 587}},
	}
}

func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"backend_url":      d.BackendURL,
		"interval":         d.Interval.String(),
		"timeout":          d.Timeout.String(),
		"retries":          d.Retries,
		"listen":           d.Listen,
		"verbose":          d.Verbose,
		"alerts.enabled":   d.Alerts.Enabled,
		"alerts.smtp.port": d.Alerts.SMTP.Port,
	}
}

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"backend-url": "backend_url",
	"alerts":      "alerts.enabled",
}

// Loader reads configuration. The zero value reads DefaultFile.
type Loader struct {
	// File is the config file. Empty means DefaultFile, which may be absent;
	// an explicitly named file must exist.
	File string
}

// Load reads configuration with the default loader.
func Load(flags *pflag.FlagSet) (*Config, error) {
	return Loader{}.Load(flags)
}

// Load merges all sources and validates the result. flags may be nil.
func (l Loader) Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load defaults")
	}

	path, required := l.File, l.File != ""
	if !required {
		path = DefaultFile
	}
	if err := loadFile(k, path, required); err != nil {
		return nil, err
	}

	if err := k.Load(envProvider(), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "load environment")
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagValue(flags)), nil); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(k *koanf.Koanf, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if !required && os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "config file %s", path)
	}
	if err := k.Load(file.Provider(path), TOML()); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", path)
	}
	return nil
}

func envProvider() *env.Env {
	return env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		key = strings.ReplaceAll(key, "__", ".")
		if key == "alerts.smtp.to" {
			return key, splitList(value)
		}
		return key, value
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// flagValue maps flags to config keys. Flags that are not settings, such
// as --config itself, are skipped by returning an empty key.
func flagValue(fs *pflag.FlagSet) func(*pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		if f.Name == "config" || f.Name == "help" {
			return "", nil
		}
		key, ok := flagKeys[f.Name]
		if !ok {
			key = strings.ReplaceAll(f.Name, "-", "_")
		}
		return key, posflag.FlagVal(fs, f)
	}
}
