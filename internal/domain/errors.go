package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the airship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("airship: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("airship: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("airship: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("airship: invalid configuration")

	// ErrSourceUnavailable is returned when the byte source cannot be opened.
	ErrSourceUnavailable = errors.New("airship: source unavailable")

	// ErrSourceClosed signals that the byte source will never produce data again.
	// It ends the event stream.
	ErrSourceClosed = errors.New("airship: source closed")

	// ErrLogWrite is returned when a record cannot be appended to the record log.
	ErrLogWrite = errors.New("airship: record log write failed")

	// ErrDelivery is the sentinel wrapped by every DeliveryError.
	ErrDelivery = errors.New("airship: delivery failed")
)

// DeliveryError describes a POST that did not end in an accepted status.
// StatusCode is zero for transport-level failures.
type DeliveryError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("delivery failed: %v", e.Err)
	}
	return fmt.Sprintf("delivery failed: server returned %d: %s", e.StatusCode, e.Body)
}

// Unwrap lets errors.Is match both ErrDelivery and the transport cause.
func (e *DeliveryError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDelivery}
	}
	return []error{ErrDelivery, e.Err}
}
