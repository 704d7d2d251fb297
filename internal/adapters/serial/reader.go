package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bft-labs/airship/internal/domain"
	"github.com/bft-labs/airship/internal/ports"
)

// ReaderSource replays bytes from any io.Reader, such as a captured serial
// dump. EOF ends the stream.
type ReaderSource struct {
	r      io.Reader
	closer io.Closer
	buf    []byte
}

// NewReaderSource wraps r. chunkSize bounds each read; zero means 512 bytes.
func NewReaderSource(r io.Reader, chunkSize int) *ReaderSource {
	if chunkSize <= 0 {
		chunkSize = readBufferSize
	}
	rs := &ReaderSource{r: r, buf: make([]byte, chunkSize)}
	if c, ok := r.(io.Closer); ok {
		rs.closer = c
	}
	return rs
}

// OpenReplay opens a capture file for replay.
func OpenReplay(path string) (*ReaderSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open replay %s: %w", domain.ErrSourceUnavailable, path, err)
	}
	return NewReaderSource(f, 0), nil
}

// ReadChunk returns the next chunk. io.EOF maps to domain.ErrSourceClosed.
func (s *ReaderSource) ReadChunk(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := s.r.Read(s.buf)
	if n > 0 {
		// Deliver data now; a trailing EOF shows up on the next call.
		return append([]byte(nil), s.buf[:n]...), nil
	}
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("replay: %w", domain.ErrSourceClosed)
	}
	return nil, err
}

// Close closes the underlying reader if it is closable.
func (s *ReaderSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

var _ ports.StreamSource = (*ReaderSource)(nil)
