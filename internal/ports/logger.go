package ports

import (
	"time"

	"github.com/bft-labs/airship/pkg/log"
)

// Logger provides structured logging capabilities.
// It is the pkg/log interface so embedders can pass their own adapter.
type Logger = log.Logger

// Field represents a key-value pair for structured logging.
type Field = log.Field

// String creates a string field.
func String(key, value string) Field { return log.String(key, value) }

// Int creates an int field.
func Int(key string, value int) Field { return log.Int(key, value) }

// Uint64 creates a uint64 field.
func Uint64(key string, value uint64) Field { return log.Uint64(key, value) }

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field { return log.Duration(key, value) }

// Err creates an error field with key "error".
func Err(err error) Field { return log.Err(err) }

// Any creates a field with any value.
func Any(key string, value any) Field { return log.Any(key, value) }
