package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	xdgAppName = "tasksheet"
	configFile = "config.yaml"
	envPrefix  = "TASKSHEET"

	BackendGoogle = "google"
	BackendXLSX   = "xlsx"
)

type Config struct {
	Backend       string `mapstructure:"backend"`
	SpreadsheetID string `mapstructure:"spreadsheet_id"`
	XLSXPath      string `mapstructure:"xlsx_path"`
	Timezone      string `mapstructure:"timezone"`
	TitleLayout   string `mapstructure:"title_layout"`
	EditMarker    string `mapstructure:"edit_marker"`
	RolloverAt    string `mapstructure:"rollover_at"` // "HH:MM"
}

func Default() Config {
	return Config{
		Backend:     BackendGoogle,
		TitleLayout: "January 2, 2006",
		EditMarker:  "Tasks",
		RolloverAt:  "00:05",
	}
}

// Keys lists the settings that can be persisted with Save.
func Keys() []string {
	return []string{"backend", "spreadsheet_id", "xlsx_path", "timezone", "title_layout", "edit_marker", "rollover_at"}
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName, configFile), nil
}

func newViper(path string) *viper.Viper {
	def := Default()
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("backend", def.Backend)
	v.SetDefault("spreadsheet_id", def.SpreadsheetID)
	v.SetDefault("xlsx_path", def.XLSXPath)
	v.SetDefault("timezone", def.Timezone)
	v.SetDefault("title_layout", def.TitleLayout)
	v.SetDefault("edit_marker", def.EditMarker)
	v.SetDefault("rollover_at", def.RolloverAt)
	return v
}

// LoadFile reads the config file at path, falling back to defaults when it does
// not exist. TASKSHEET_* environment variables override file values.
func LoadFile(path string) (*Config, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	return &cfg, nil
}

// Save persists a single key into the config file at path, keeping the other settings.
func Save(path, key, value string) error {
	known := false
	for _, k := range Keys() {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown config key %q", key)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	v.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the selected backend can be reached with the current settings.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendGoogle:
		if c.SpreadsheetID == "" {
			return errors.New("spreadsheet_id is required for the google backend")
		}
	case BackendXLSX:
		if c.XLSXPath == "" {
			return errors.New("xlsx_path is required for the xlsx backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", c.Backend, BackendGoogle, BackendXLSX)
	}
	if _, err := c.LoadLocation(); err != nil {
		return err
	}
	if _, _, err := c.RolloverClock(); err != nil {
		return err
	}
	if c.TitleLayout == "" {
		return errors.New("title_layout must not be empty")
	}
	return nil
}

// LoadLocation returns the configured time zone, or the local one.
func (c *Config) LoadLocation() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

// RolloverClock parses rollover_at into hour and minute.
func (c *Config) RolloverClock() (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(c.RolloverAt))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid rollover_at %q, want HH:MM: %w", c.RolloverAt, err)
	}
	return t.Hour(), t.Minute(), nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}
