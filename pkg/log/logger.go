package log

import "time"

// Logger receives airship's structured log lines. Fields are attached per
// call and never retained by the caller.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one key/value pair on a log line. Adapters render it according
// to the dynamic type of Value.
type Field struct {
	Key   string
	Value any
}

// ErrorKey is the key Err writes under.
const ErrorKey = "error"

// Typed constructors keep Value to the types adapters render natively.

func String(key, value string) Field                 { return Field{Key: key, Value: value} }
func Int(key string, value int) Field                { return Field{Key: key, Value: value} }
func Uint64(key string, value uint64) Field          { return Field{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Err attaches err under ErrorKey.
func Err(err error) Field { return Field{Key: ErrorKey, Value: err} }

// Any attaches an arbitrary value; adapters fall back to reflection-based
// encoding for it.
func Any(key string, value any) Field { return Field{Key: key, Value: value} }
