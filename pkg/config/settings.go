package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ajitpratap0/flatindex/pkg/scanner"
)

// EnvPrefix is the prefix of environment variables that override settings,
// e.g. FLATINDEX_LOG_LEVEL.
const EnvPrefix = "FLATINDEX"

// DefaultMaxLineSize bounds a single input line.
const DefaultMaxLineSize = scanner.DefaultMaxLineSize

// Settings are runtime options of the command line tool. They are separate
// from the profile document, which only describes how inputs are indexed.
type Settings struct {
	LogLevel    string `mapstructure:"log-level"`
	LogFormat   string `mapstructure:"log-format"`
	MaxLineSize int    `mapstructure:"max-line-size"`
}

// DefaultSettings returns the settings used when nothing overrides them.
func DefaultSettings() Settings {
	return Settings{
		LogLevel:    "warn",
		LogFormat:   "json",
		MaxLineSize: DefaultMaxLineSize,
	}
}

// LoadSettings resolves settings from, in increasing priority, defaults,
// FLATINDEX_* environment variables and explicitly set flags.
func LoadSettings(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	def := DefaultSettings()
	v.SetDefault("log-level", def.LogLevel)
	v.SetDefault("log-format", def.LogFormat)
	v.SetDefault("max-line-size", def.MaxLineSize)

	if flags != nil {
		for _, name := range []string{"log-level", "log-format", "max-line-size"} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(name, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	s := &Settings{
		LogLevel:    v.GetString("log-level"),
		LogFormat:   v.GetString("log-format"),
		MaxLineSize: v.GetInt("max-line-size"),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	if s.MaxLineSize <= 0 {
		return fmt.Errorf("max-line-size must be positive")
	}
	switch s.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log-format must be json or console, got %q", s.LogFormat)
	}
	return nil
}
