package app

import (
	"sync"

	"github.com/bft-labs/airship/internal/domain"
)

// Latest is a single-slot cache holding the most recent record.
// Writes come from the ingestion loop; reads may come from any goroutine.
type Latest struct {
	mu  sync.RWMutex
	rec domain.Record
}

// Set replaces the cached record.
func (l *Latest) Set(rec domain.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rec = rec
}

// Get returns a copy of the cached record, or false if none was seen yet.
func (l *Latest) Get() (domain.Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.rec == nil {
		return nil, false
	}
	return l.rec.Clone(), true
}
