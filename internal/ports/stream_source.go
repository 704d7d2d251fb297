package ports

import "context"

// StreamSource provides raw bytes from a single sensor device.
// Implementations read from a serial port or from a captured dump.
type StreamSource interface {
	// ReadChunk returns whatever bytes are available, possibly none.
	// An empty result with a nil error means "nothing yet, poll again".
	// Errors wrapping domain.ErrSourceClosed (exhausted) or
	// domain.ErrSourceUnavailable (lost) are terminal; any other error is
	// treated as transient by the caller.
	ReadChunk(ctx context.Context) ([]byte, error)

	// Close releases the underlying device.
	Close() error
}
