package ports

import (
	"context"

	"github.com/bft-labs/airship/internal/domain"
)

// StatusRepository persists the forwarder status so other processes can
// read the most recent reading without talking to the forwarder.
type StatusRepository interface {
	// Load retrieves the last saved status.
	// Returns an empty status and nil error if none exists.
	Load(ctx context.Context) (domain.Status, error)

	// Save persists the status atomically (write to temp file, then rename).
	Save(ctx context.Context, status domain.Status) error
}
