// Package serial adapts byte sources (a tty device or a captured dump) to
// ports.StreamSource.
package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	goserial "go.bug.st/serial"

	"github.com/bft-labs/airship/internal/domain"
	"github.com/bft-labs/airship/internal/ports"
)

// Default serial settings for the sensor board.
const (
	DefaultDevice      = "/dev/ttyACM0"
	DefaultBaudRate    = 9600
	DefaultReadTimeout = time.Second
	readBufferSize     = 512
)

// Config describes how to open the serial device.
type Config struct {
	Device      string
	BaudRate    int
	ReadTimeout time.Duration

	// WaitForDevice blocks Open until the device node appears
	// instead of failing immediately.
	WaitForDevice bool
}

// opener matches goserial.Open so tests can substitute a fake port.
type opener func(name string, mode *goserial.Mode) (goserial.Port, error)

// Port implements ports.StreamSource over a serial device.
type Port struct {
	port goserial.Port
	buf  []byte
}

// Open opens the configured device. The error wraps domain.ErrSourceUnavailable.
func Open(ctx context.Context, cfg Config, logger ports.Logger) (*Port, error) {
	return open(ctx, cfg, logger, goserial.Open)
}

func open(ctx context.Context, cfg Config, logger ports.Logger, openFn opener) (*Port, error) {
	if cfg.Device == "" {
		cfg.Device = DefaultDevice
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}

	if cfg.WaitForDevice {
		if err := WaitForDevice(ctx, cfg.Device, logger); err != nil {
			return nil, fmt.Errorf("%w: wait for %s: %w", domain.ErrSourceUnavailable, cfg.Device, err)
		}
	}

	p, err := openFn(cfg.Device, &goserial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrSourceUnavailable, cfg.Device, err)
	}
	if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("%w: set read timeout on %s: %w", domain.ErrSourceUnavailable, cfg.Device, err)
	}

	logger.Info("serial port opened",
		ports.String("device", cfg.Device),
		ports.Int("baud", cfg.BaudRate),
	)
	return &Port{port: p, buf: make([]byte, readBufferSize)}, nil
}

// ReadChunk returns whatever arrived within the read timeout, possibly nothing.
// A device that went away mid-run is reported as domain.ErrSourceUnavailable,
// which ends the run with an error.
func (p *Port) ReadChunk(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := p.port.Read(p.buf)
	if err != nil {
		if disconnected(err) {
			return nil, fmt.Errorf("%w: device disconnected: %w", domain.ErrSourceUnavailable, err)
		}
		return nil, fmt.Errorf("read: %w", err)
	}
	return append([]byte(nil), p.buf[:n]...), nil
}

// disconnected reports whether a read error means the device is gone. On
// Linux an unplugged tty surfaces as a PortClosed error, elsewhere as EOF.
func disconnected(err error) bool {
	var perr *goserial.PortError
	if errors.As(err, &perr) && perr.Code() == goserial.PortClosed {
		return true
	}
	return errors.Is(err, io.EOF)
}

// Close releases the device.
func (p *Port) Close() error {
	return p.port.Close()
}

var _ ports.StreamSource = (*Port)(nil)
