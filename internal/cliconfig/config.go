package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/airship/internal/domain"
	"github.com/bft-labs/airship/pkg/airship"
)

// Config holds CLI configuration for airship.
type Config struct {
	Device        string
	BaudRate      int
	ReadTimeout   time.Duration
	WaitForDevice bool
	Replay        string

	LogFile    string
	SyncWrites bool

	EndpointURL string
	AuthKey     string
	HTTPTimeout time.Duration

	PollInterval   time.Duration
	MaxReadBackoff time.Duration
	MaxBufferBytes int
	DrainAll       bool
	QueueSize      int

	StateDir       string
	StatusInterval time.Duration
	MetricsAddr    string

	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	d := airship.DefaultConfig()
	return Config{
		Device:         d.Device,
		BaudRate:       d.BaudRate,
		ReadTimeout:    d.ReadTimeout,
		LogFile:        d.LogFile,
		EndpointURL:    d.EndpointURL,
		HTTPTimeout:    d.HTTPTimeout,
		PollInterval:   d.PollInterval,
		MaxReadBackoff: d.MaxReadBackoff,
		MaxBufferBytes: d.MaxBufferBytes,
		DrainAll:       d.DrainAll,
		QueueSize:      d.QueueSize,
		StateDir:       DefaultStateDir(),
		StatusInterval: d.StatusInterval,
		LogLevel:       "info",
	}
}

// DefaultStateDir returns ~/.airship, or "" (status file disabled) when the
// home directory is unknown.
func DefaultStateDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".airship")
	}
	return ""
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: log level: %w", domain.ErrInvalidConfig, err)
	}
	ac := c.Airship()
	return ac.Validate()
}

// Airship converts the CLI configuration into the library configuration.
func (c *Config) Airship() airship.Config {
	return airship.Config{
		Device:         c.Device,
		BaudRate:       c.BaudRate,
		ReadTimeout:    c.ReadTimeout,
		WaitForDevice:  c.WaitForDevice,
		ReplayFile:     c.Replay,
		LogFile:        c.LogFile,
		SyncWrites:     c.SyncWrites,
		EndpointURL:    c.EndpointURL,
		AuthKey:        c.AuthKey,
		HTTPTimeout:    c.HTTPTimeout,
		PollInterval:   c.PollInterval,
		MaxReadBackoff: c.MaxReadBackoff,
		MaxBufferBytes: c.MaxBufferBytes,
		DrainAll:       c.DrainAll,
		QueueSize:      c.QueueSize,
		StateDir:       c.StateDir,
		StatusInterval: c.StatusInterval,
		MetricsAddr:    c.MetricsAddr,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int value from a pointer, zero included.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Zero is accepted since it selects inline delivery or an uncapped buffer.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i < 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
