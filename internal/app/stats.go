package app

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/airship/internal/domain"
	"github.com/bft-labs/airship/internal/ports"
)

// Stats counts forwarder events. It implements ports.EventEmitter and feeds
// the status snapshot.
type Stats struct {
	records          atomic.Uint64
	parseErrors      atomic.Uint64
	overflowBytes    atomic.Uint64
	delivered        atomic.Uint64
	deliveryFailures atomic.Uint64
	deliveryDropped  atomic.Uint64

	mu           sync.Mutex
	lastRecordAt time.Time
	now          func() time.Time
}

// NewStats creates zeroed counters.
func NewStats() *Stats {
	return &Stats{now: time.Now}
}

// Restore seeds the counters from a previously saved status so they keep
// counting across restarts.
func (s *Stats) Restore(st domain.Status) {
	s.records.Store(st.Records)
	s.parseErrors.Store(st.ParseErrors)
	s.overflowBytes.Store(st.OverflowBytes)
	s.delivered.Store(st.Delivered)
	s.deliveryFailures.Store(st.DeliveryFailures)
	s.deliveryDropped.Store(st.DeliveryDropped)

	s.mu.Lock()
	s.lastRecordAt = st.LastRecordAt
	s.mu.Unlock()
}

// Snapshot returns the counters together with the given latest record.
func (s *Stats) Snapshot(latest domain.Record) domain.Status {
	s.mu.Lock()
	last := s.lastRecordAt
	s.mu.Unlock()

	return domain.Status{
		Records:          s.records.Load(),
		ParseErrors:      s.parseErrors.Load(),
		OverflowBytes:    s.overflowBytes.Load(),
		Delivered:        s.delivered.Load(),
		DeliveryFailures: s.deliveryFailures.Load(),
		DeliveryDropped:  s.deliveryDropped.Load(),
		Latest:           latest,
		LastRecordAt:     last,
		UpdatedAt:        s.now(),
	}
}

func (s *Stats) OnRecord(rec domain.Record) {
	s.records.Add(1)
	s.mu.Lock()
	s.lastRecordAt = s.now()
	s.mu.Unlock()
}

func (s *Stats) OnParseError(raw string, err error)                   { s.parseErrors.Add(1) }
func (s *Stats) OnOverflow(dropped int)                               { s.overflowBytes.Add(uint64(dropped)) }
func (s *Stats) OnDeliverySuccess(status int, duration time.Duration) { s.delivered.Add(1) }
func (s *Stats) OnDeliveryError(err error, duration time.Duration)    { s.deliveryFailures.Add(1) }
func (s *Stats) OnDeliveryDropped()                                   { s.deliveryDropped.Add(1) }

var _ ports.EventEmitter = (*Stats)(nil)
