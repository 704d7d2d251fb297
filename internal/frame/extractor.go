package frame

import (
	"bytes"
	"time"

	"github.com/bft-labs/airship/internal/domain"
)

// DefaultMaxBufferBytes caps the accumulation buffer when no limit is given.
const DefaultMaxBufferBytes = 64 << 10

// Extractor accumulates raw bytes and cuts them into candidate frames.
// It is not safe for concurrent use.
type Extractor struct {
	buf      []byte
	maxBytes int
	drainAll bool
	now      func() time.Time

	dropped int
	// frames handed out since the last Push, for one-per-read draining
	emitted int
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithMaxBufferBytes sets the buffer cap. Zero or negative disables the cap.
func WithMaxBufferBytes(n int) ExtractorOption {
	return func(e *Extractor) {
		e.maxBytes = n
	}
}

// WithDrainAll selects whether every complete frame is emitted per read (true)
// or only the first one (false).
func WithDrainAll(drain bool) ExtractorOption {
	return func(e *Extractor) {
		e.drainAll = drain
	}
}

// WithClock overrides the clock used to stamp records.
func WithClock(now func() time.Time) ExtractorOption {
	return func(e *Extractor) {
		e.now = now
	}
}

// NewExtractor creates an extractor with a 64 KiB cap that drains every
// complete frame per read.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		maxBytes: DefaultMaxBufferBytes,
		drainAll: true,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Push appends a chunk to the buffer and opens a new read cycle.
func (e *Extractor) Push(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	e.buf = append(e.buf, chunk...)
	e.emitted = 0
}

// Next runs one extraction cycle. It returns false when no event is ready,
// either because no complete frame is buffered or because the one-per-read
// budget is spent. The buffer cap is enforced only on bytes that hold no
// complete frame, so complete frames are never dropped in either mode.
func (e *Extractor) Next() (domain.Event, bool) {
	if !e.drainAll && e.emitted > 0 {
		return e.overflow()
	}

	candidate, ok := e.cut()
	if !ok {
		return e.overflow()
	}
	e.emitted++

	rec, err := domain.ParseRecord(candidate)
	if err != nil {
		return domain.Event{
			Kind: domain.EventParseError,
			Raw:  string(candidate),
			Err:  err,
		}, true
	}

	rec.Stamp(e.now())
	return domain.Event{Kind: domain.EventRecord, Record: rec}, true
}

// overflow applies the buffer cap to whatever is left once no more frames
// will be cut this cycle, and reports the dropped bytes.
func (e *Extractor) overflow() (domain.Event, bool) {
	e.enforceCap()
	if e.dropped == 0 {
		return domain.Event{}, false
	}
	ev := domain.Event{Kind: domain.EventOverflow, Dropped: e.dropped}
	e.dropped = 0
	return ev, true
}

// Len returns the number of buffered bytes.
func (e *Extractor) Len() int {
	return len(e.buf)
}

// cut removes the first {...} candidate from the buffer, together with
// everything in front of it. The candidate is returned as valid UTF-8.
func (e *Extractor) cut() ([]byte, bool) {
	if bytes.IndexByte(e.buf, '}') < 0 {
		return nil, false
	}
	start := bytes.IndexByte(e.buf, '{')
	if start < 0 {
		return nil, false
	}
	rel := bytes.IndexByte(e.buf[start:], '}')
	if rel < 0 {
		return nil, false
	}
	end := start + rel

	candidate := bytes.ToValidUTF8(e.buf[start:end+1], []byte("�"))

	rest := e.buf[end+1:]
	e.buf = append(e.buf[:0:0], rest...)
	return candidate, true
}

// enforceCap keeps the buffer within maxBytes. Bytes up to the end of the
// last complete {...} candidate are never touched: in one-per-read mode they
// are frames still waiting for a later cycle. In the rest, the tail starting
// at the last '{' survives if it fits, since it may be the front of a frame
// still in flight; otherwise the whole rest goes.
func (e *Extractor) enforceCap() {
	if e.maxBytes <= 0 || len(e.buf) <= e.maxBytes {
		return
	}

	pending := e.pendingLen()
	rest := e.buf[pending:]
	if len(rest) <= e.maxBytes {
		return
	}

	keep := 0
	if i := bytes.LastIndexByte(rest, '{'); i >= 0 && len(rest)-i <= e.maxBytes {
		keep = len(rest) - i
	}

	e.dropped += len(rest) - keep
	e.buf = append(e.buf[:pending:pending], rest[len(rest)-keep:]...)
}

// pendingLen returns the length of the buffer prefix that cut would still
// turn into frames: everything up to the last '}' preceded by a '{'.
func (e *Extractor) pendingLen() int {
	first := bytes.IndexByte(e.buf, '{')
	if first < 0 {
		return 0
	}
	last := bytes.LastIndexByte(e.buf, '}')
	if last < first {
		return 0
	}
	return last + 1
}
