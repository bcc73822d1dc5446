// Package config resolves application settings from defaults, an optional
// propsim config file, PROPSIM_* environment variables and command flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/economics"
)

// EnvPrefix is the prefix of environment overrides, e.g. PROPSIM_SERVER_PORT.
const EnvPrefix = "PROPSIM"

// Settings are the resolved application settings.
type Settings struct {
	Project       string  `mapstructure:"project"`
	Profile       string  `mapstructure:"profile"`
	DiscountRate  float64 `mapstructure:"discount_rate"`
	LifetimeYears int     `mapstructure:"lifetime_years"`
	Workers       int     `mapstructure:"workers"`
	LogLevel      string  `mapstructure:"log_level"`

	Server   ServerSettings   `mapstructure:"server"`
	Database DatabaseSettings `mapstructure:"database"`
	NATS     NATSSettings     `mapstructure:"nats"`
}

type ServerSettings struct {
	Port      int     `mapstructure:"port"`
	RPS       float64 `mapstructure:"rps"`
	Burst     int     `mapstructure:"burst"`
	CacheSize int     `mapstructure:"cache_size"`
}

type DatabaseSettings struct {
	URL string `mapstructure:"url"`
}

type NATSSettings struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// New returns a viper instance with defaults, environment binding and the
// config file search path set. The file is read by Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("project", ".")
	v.SetDefault("profile", "")
	v.SetDefault("discount_rate", economics.DefaultDiscountRate)
	v.SetDefault("lifetime_years", economics.DefaultLifetimeYears)
	v.SetDefault("workers", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.rps", 20.0)
	v.SetDefault("server.burst", 40)
	v.SetDefault("server.cache_size", 64)
	v.SetDefault("database.url", "")
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject", "propsim.runs")

	v.SetConfigName("propsim")
	v.AddConfigPath(".")
	if home, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(home + "/propsim")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags lets command flags override file and environment values. Flag
// names use dashes where keys use underscores (discount-rate → discount_rate).
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var errList []error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		switch f.Name {
		case "port":
			key = "server.port"
		case "database-url":
			key = "database.url"
		case "nats-url":
			key = "nats.url"
		}
		if err := v.BindPFlag(key, f); err != nil {
			errList = append(errList, err)
		}
	})
	return errors.Join(errList...)
}

// Explicit reports whether key was given by a changed flag, the config file
// or the environment rather than falling back to its default.
func Explicit(v *viper.Viper, flags *pflag.FlagSet, key string) bool {
	if f := flags.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil && f.Changed {
		return true
	}
	if v.InConfig(key) {
		return true
	}
	_, ok := os.LookupEnv(EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	return ok
}

// Load reads the config file at path, or searches for propsim.{yaml,toml,json}
// when path is empty, and decodes the settings. A missing file is not an
// error when searching.
func Load(v *viper.Viper, path string) (*Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks ranges that would otherwise fail deep inside a command.
func (s *Settings) Validate() error {
	switch {
	case s.DiscountRate <= 0:
		return fmt.Errorf("config: discount_rate must be > 0 (got %v)", s.DiscountRate)
	case s.LifetimeYears <= 0:
		return fmt.Errorf("config: lifetime_years must be > 0 (got %d)", s.LifetimeYears)
	case s.Workers < 0:
		return fmt.Errorf("config: workers must be >= 0 (got %d)", s.Workers)
	case s.Server.Port <= 0 || s.Server.Port > 65535:
		return fmt.Errorf("config: server.port out of range (got %d)", s.Server.Port)
	}
	if _, err := ParseLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("config: unknown log_level %q", name)
	}
	return l, nil
}

// Logger builds the process logger: text on w at the configured level.
func (s *Settings) Logger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(s.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
