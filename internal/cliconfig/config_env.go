package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (AIRSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("device", os.Getenv("AIRSHIP_DEVICE"), &cfg.Device)
	s.setString("replay", os.Getenv("AIRSHIP_REPLAY"), &cfg.Replay)
	s.setString("log-file", os.Getenv("AIRSHIP_LOG_FILE"), &cfg.LogFile)
	s.setString("endpoint", os.Getenv("AIRSHIP_ENDPOINT_URL"), &cfg.EndpointURL)
	s.setString("auth-key", os.Getenv("AIRSHIP_AUTH_KEY"), &cfg.AuthKey)
	s.setString("state-dir", os.Getenv("AIRSHIP_STATE_DIR"), &cfg.StateDir)
	s.setString("metrics-addr", os.Getenv("AIRSHIP_METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-level", os.Getenv("AIRSHIP_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("read-timeout", os.Getenv("AIRSHIP_READ_TIMEOUT"), &cfg.ReadTimeout); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("AIRSHIP_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("poll", os.Getenv("AIRSHIP_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("max-backoff", os.Getenv("AIRSHIP_MAX_READ_BACKOFF"), &cfg.MaxReadBackoff); err != nil {
		return err
	}
	if err := s.setDuration("status-interval", os.Getenv("AIRSHIP_STATUS_INTERVAL"), &cfg.StatusInterval); err != nil {
		return err
	}

	if err := s.setIntFromString("baud", os.Getenv("AIRSHIP_BAUD_RATE"), &cfg.BaudRate); err != nil {
		return err
	}
	if err := s.setIntFromString("max-buffer-bytes", os.Getenv("AIRSHIP_MAX_BUFFER_BYTES"), &cfg.MaxBufferBytes); err != nil {
		return err
	}
	if err := s.setIntFromString("queue-size", os.Getenv("AIRSHIP_QUEUE_SIZE"), &cfg.QueueSize); err != nil {
		return err
	}

	s.setBoolFromString("wait-device", os.Getenv("AIRSHIP_WAIT_FOR_DEVICE"), &cfg.WaitForDevice)
	s.setBoolFromString("sync", os.Getenv("AIRSHIP_SYNC_WRITES"), &cfg.SyncWrites)
	s.setBoolFromString("drain-all", os.Getenv("AIRSHIP_DRAIN_ALL"), &cfg.DrainAll)

	return nil
}
