// Package fs provides file-system adapters: the append-only record log and
// the status snapshot.
package fs

import (
	"fmt"
	"os"
	"sync"

	"github.com/bft-labs/airship/internal/domain"
	"github.com/bft-labs/airship/internal/ports"
)

// RecordLog implements ports.RecordLog as a JSON-lines file.
// The file is opened once in append mode and never rewritten.
type RecordLog struct {
	mu   sync.Mutex
	f    *os.File
	path string
	sync bool
}

// OpenRecordLog opens (or creates) the log at path.
// With syncWrites, every append is fsynced before Append returns.
func OpenRecordLog(path string, syncWrites bool) (*RecordLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open record log: %w", err)
	}
	return &RecordLog{f: f, path: path, sync: syncWrites}, nil
}

// Append writes rec as one line. The line is handed to the kernel in a single
// write, so it is visible to readers as soon as Append returns.
func (l *RecordLog) Append(rec domain.Record) error {
	line, err := rec.MarshalLine()
	if err != nil {
		return fmt.Errorf("%w: encode: %w", domain.ErrLogWrite, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return fmt.Errorf("%w: log closed", domain.ErrLogWrite)
	}
	if _, err := l.f.Write(line); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLogWrite, err)
	}
	if l.sync {
		if err := l.f.Sync(); err != nil {
			return fmt.Errorf("%w: sync: %w", domain.ErrLogWrite, err)
		}
	}
	return nil
}

// Path returns the log file name.
func (l *RecordLog) Path() string {
	return l.path
}

// Close closes the file. Further appends fail with domain.ErrLogWrite.
func (l *RecordLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

var _ ports.RecordLog = (*RecordLog)(nil)
