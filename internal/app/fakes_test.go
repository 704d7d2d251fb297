package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bft-labs/airship/internal/domain"
	"github.com/bft-labs/airship/internal/ports"
)

// mockLogger discards everything.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// journal records the order of side effects across fakes.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string{}, j.entries...)
}

// memLog is an in-memory ports.RecordLog.
type memLog struct {
	mu      sync.Mutex
	records []domain.Record
	failAt  int // 1-based append that fails; 0 never fails
	calls   int
	closed  bool
	journal *journal
}

func (m *memLog) Append(rec domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failAt > 0 && m.calls >= m.failAt {
		return fmt.Errorf("%w: disk full", domain.ErrLogWrite)
	}
	m.records = append(m.records, rec.Clone())
	m.journal.add("log")
	return nil
}

func (m *memLog) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *memLog) Records() []domain.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Record{}, m.records...)
}

// fakeSender answers each Send with the next scripted status.
// Statuses outside 200/201 produce a DeliveryError.
type fakeSender struct {
	mu       sync.Mutex
	statuses []int
	payloads []domain.Payload
	ctxErrs  []error
	started  chan struct{}
	release  chan struct{}
	journal  *journal
}

func (f *fakeSender) Send(ctx context.Context, p domain.Payload) (int, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	f.journal.add("send")

	status := 201
	if len(f.statuses) > 0 {
		status = f.statuses[0]
		f.statuses = f.statuses[1:]
	}
	if status != 200 && status != 201 {
		return status, &domain.DeliveryError{StatusCode: status, Body: "unavailable"}
	}
	return status, nil
}

func (f *fakeSender) Payloads() []domain.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Payload{}, f.payloads...)
}

// memStatus is an in-memory ports.StatusRepository.
type memStatus struct {
	mu      sync.Mutex
	status  domain.Status
	saves   int
	loadErr error
}

func (m *memStatus) Load(ctx context.Context) (domain.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.loadErr
}

func (m *memStatus) Save(ctx context.Context, st domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = st
	m.saves++
	return nil
}

func (m *memStatus) Saved() (domain.Status, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.saves
}

type read struct {
	chunk string
	err   error
}

// scriptedSource replays reads and then reports the source as closed.
type scriptedSource struct {
	reads  []read
	closed bool
}

func (s *scriptedSource) ReadChunk(ctx context.Context) ([]byte, error) {
	if len(s.reads) == 0 {
		return nil, fmt.Errorf("scripted: %w", domain.ErrSourceClosed)
	}
	r := s.reads[0]
	s.reads = s.reads[1:]
	return []byte(r.chunk), r.err
}

func (s *scriptedSource) Close() error {
	s.closed = true
	return nil
}

// blockingSource returns its chunks and then blocks until ctx is done.
type blockingSource struct {
	chunks []string
}

func (s *blockingSource) ReadChunk(ctx context.Context) ([]byte, error) {
	if len(s.chunks) > 0 {
		c := s.chunks[0]
		s.chunks = s.chunks[1:]
		return []byte(c), nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *blockingSource) Close() error { return nil }

// recordingEmitter calls onRecord for each record.
type recordingEmitter struct {
	ports.NopEmitter
	onRecord func(domain.Record)
}

func (r recordingEmitter) OnRecord(rec domain.Record) {
	if r.onRecord != nil {
		r.onRecord(rec)
	}
}

var errBoom = errors.New("boom")

var _ ports.EventEmitter = recordingEmitter{}

