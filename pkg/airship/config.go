package airship

import (
	"fmt"
	"net/url"
	"time"

	"github.com/bft-labs/airship/internal/adapters/serial"
	"github.com/bft-labs/airship/internal/app"
	"github.com/bft-labs/airship/internal/domain"
	"github.com/bft-labs/airship/internal/frame"
)

// Defaults for the remote endpoint and local files.
const (
	DefaultEndpointURL = "http://localhost:8000/api/sensor-data/"
	DefaultLogFile     = "airdata.log"
	DefaultHTTPTimeout = 10 * time.Second
	DefaultQueueSize   = 64
)

// Config holds the configuration for the forwarder.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// Device is the serial device path.
	Device string
	// BaudRate is the serial line speed.
	BaudRate int
	// ReadTimeout bounds a single serial read.
	ReadTimeout time.Duration
	// WaitForDevice waits for Device to appear instead of failing at startup.
	WaitForDevice bool
	// ReplayFile, when set, reads a captured byte dump instead of the device.
	ReplayFile string

	// LogFile is the append-only record log.
	LogFile string
	// SyncWrites fsyncs the record log after every line.
	SyncWrites bool

	// EndpointURL receives one POST per record.
	EndpointURL string
	// AuthKey is sent as a bearer token when set.
	AuthKey     string
	HTTPTimeout time.Duration

	PollInterval   time.Duration
	MaxReadBackoff time.Duration
	// MaxBufferBytes caps the bytes kept while waiting for a closing brace.
	// Zero disables the cap.
	MaxBufferBytes int
	// DrainAll extracts every complete frame after each read. When false,
	// at most one frame is extracted per read. DefaultConfig sets it.
	DrainAll bool
	// QueueSize bounds the delivery queue. Zero sends inline.
	QueueSize int

	// StateDir holds status.json. Empty disables the status file.
	StateDir       string
	StatusInterval time.Duration

	// MetricsAddr serves /metrics and /latest when set.
	MetricsAddr string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Device:         serial.DefaultDevice,
		BaudRate:       serial.DefaultBaudRate,
		ReadTimeout:    serial.DefaultReadTimeout,
		LogFile:        DefaultLogFile,
		EndpointURL:    DefaultEndpointURL,
		HTTPTimeout:    DefaultHTTPTimeout,
		PollInterval:   frame.DefaultPollInterval,
		MaxReadBackoff: frame.DefaultMaxReadBackoff,
		MaxBufferBytes: frame.DefaultMaxBufferBytes,
		DrainAll:       true,
		QueueSize:      DefaultQueueSize,
		StatusInterval: app.DefaultStatusInterval,
	}
}

// SetDefaults fills zero-valued fields. Booleans are left as given.
func (c *Config) SetDefaults() {
	d := DefaultConfig()
	if c.Device == "" {
		c.Device = d.Device
	}
	if c.BaudRate == 0 {
		c.BaudRate = d.BaudRate
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.LogFile == "" {
		c.LogFile = d.LogFile
	}
	if c.EndpointURL == "" {
		c.EndpointURL = d.EndpointURL
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = d.HTTPTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = d.PollInterval
	}
	if c.MaxReadBackoff == 0 {
		c.MaxReadBackoff = d.MaxReadBackoff
	}
	if c.StatusInterval == 0 {
		c.StatusInterval = d.StatusInterval
	}
}

// Validate checks the configuration for errors.
// Returned errors wrap domain.ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.ReplayFile == "" && c.Device == "" {
		return invalid("device is required")
	}
	if c.BaudRate <= 0 {
		return invalid("baud rate must be positive")
	}
	if c.LogFile == "" {
		return invalid("log file is required")
	}

	u, err := url.Parse(c.EndpointURL)
	if err != nil {
		return invalid("endpoint url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid("endpoint url must be http or https, got %q", c.EndpointURL)
	}

	if c.ReadTimeout <= 0 {
		return invalid("read timeout must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return invalid("http timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return invalid("poll interval must be positive")
	}
	if c.MaxReadBackoff < c.PollInterval {
		return invalid("max read backoff must be at least the poll interval")
	}
	if c.MaxBufferBytes < 0 {
		return invalid("max buffer bytes must not be negative")
	}
	if c.QueueSize < 0 {
		return invalid("queue size must not be negative")
	}
	if c.StatusInterval <= 0 {
		return invalid("status interval must be positive")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
}
