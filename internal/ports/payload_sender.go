package ports

import (
	"context"

	"github.com/bft-labs/airship/internal/domain"
)

// PayloadSender relays delivery payloads to the remote endpoint.
type PayloadSender interface {
	// Send issues exactly one request for the payload.
	// Returns the HTTP status code on acceptance. On rejection or transport
	// failure the error is a *domain.DeliveryError. Implementations never retry.
	Send(ctx context.Context, payload domain.Payload) (int, error)
}

// RecordLog is the durable, append-only record log.
type RecordLog interface {
	// Append writes one record as a single line and flushes it before returning.
	Append(rec domain.Record) error

	// Close releases the log file.
	Close() error
}
