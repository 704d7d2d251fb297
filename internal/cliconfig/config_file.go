package cliconfig

import (
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
// Pointer fields distinguish an explicit zero or false from an absent key.
type FileConfig struct {
	Device         string `toml:"device"`
	BaudRate       int    `toml:"baud_rate"`
	ReadTimeout    string `toml:"read_timeout"`
	WaitForDevice  *bool  `toml:"wait_for_device"`
	Replay         string `toml:"replay"`
	LogFile        string `toml:"log_file"`
	SyncWrites     *bool  `toml:"sync_writes"`
	EndpointURL    string `toml:"endpoint_url"`
	AuthKey        string `toml:"auth_key"`
	HTTPTimeout    string `toml:"http_timeout"`
	PollInterval   string `toml:"poll_interval"`
	MaxReadBackoff string `toml:"max_read_backoff"`
	MaxBufferBytes *int   `toml:"max_buffer_bytes"`
	DrainAll       *bool  `toml:"drain_all"`
	QueueSize      *int   `toml:"queue_size"`
	StateDir       string `toml:"state_dir"`
	StatusInterval string `toml:"status_interval"`
	MetricsAddr    string `toml:"metrics_addr"`
	LogLevel       string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.airship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".airship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("device", fc.Device, &cfg.Device)
	s.setString("replay", fc.Replay, &cfg.Replay)
	s.setString("log-file", fc.LogFile, &cfg.LogFile)
	s.setString("endpoint", fc.EndpointURL, &cfg.EndpointURL)
	s.setString("auth-key", fc.AuthKey, &cfg.AuthKey)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	durations := []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"read-timeout", fc.ReadTimeout, &cfg.ReadTimeout},
		{"timeout", fc.HTTPTimeout, &cfg.HTTPTimeout},
		{"poll", fc.PollInterval, &cfg.PollInterval},
		{"max-backoff", fc.MaxReadBackoff, &cfg.MaxReadBackoff},
		{"status-interval", fc.StatusInterval, &cfg.StatusInterval},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}

	s.setInt("baud", fc.BaudRate, &cfg.BaudRate)
	s.setIntPtr("max-buffer-bytes", fc.MaxBufferBytes, &cfg.MaxBufferBytes)
	s.setIntPtr("queue-size", fc.QueueSize, &cfg.QueueSize)

	s.setBool("wait-device", fc.WaitForDevice, &cfg.WaitForDevice)
	s.setBool("sync", fc.SyncWrites, &cfg.SyncWrites)
	s.setBool("drain-all", fc.DrainAll, &cfg.DrainAll)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
