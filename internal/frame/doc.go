// Package frame turns an unbounded, possibly corrupted byte stream into a
// sequence of JSON records.
//
// Framing is brace-delimited: a candidate frame runs from the first '{' in
// the buffer to the first '}' after it. Nested objects are therefore not
// supported; a nested object yields a parse error for its truncated prefix.
// Bytes before the candidate are discarded with it.
//
// [Extractor] is the pure, synchronous state machine. [Stream] drives an
// Extractor from a [ports.StreamSource], pacing empty reads and backing off on
// transient read errors.
package frame
