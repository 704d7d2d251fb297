package domain

import "time"

// Status is the forwarder's externally visible state.
// It is persisted to status.json so other processes can poll the latest reading.
type Status struct {
	// Records is the number of records parsed and logged
	Records uint64 `json:"records"`

	// ParseErrors is the number of candidate frames that failed to parse
	ParseErrors uint64 `json:"parse_errors"`

	// OverflowBytes is the total number of bytes dropped by the buffer cap
	OverflowBytes uint64 `json:"overflow_bytes"`

	// Delivered is the number of payloads accepted by the endpoint
	Delivered uint64 `json:"delivered"`

	// DeliveryFailures is the number of payloads rejected or not sent
	DeliveryFailures uint64 `json:"delivery_failures"`

	// DeliveryDropped is the number of payloads dropped because the queue was full
	DeliveryDropped uint64 `json:"delivery_dropped"`

	// Latest is the most recent record, including its Time field
	Latest Record `json:"latest,omitempty"`

	// LastRecordAt is when the latest record was extracted
	LastRecordAt time.Time `json:"last_record_at,omitempty"`

	// UpdatedAt is when this snapshot was taken
	UpdatedAt time.Time `json:"updated_at"`
}
