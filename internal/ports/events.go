package ports

import (
	"time"

	"github.com/bft-labs/airship/internal/domain"
)

// EventEmitter observes the forwarder. Methods are called synchronously from
// the ingestion loop (records, parse errors, overflow) or from the delivery
// worker (delivery outcomes), so implementations must be cheap and safe for
// concurrent use.
type EventEmitter interface {
	OnRecord(rec domain.Record)
	OnParseError(raw string, err error)
	OnOverflow(dropped int)
	OnDeliverySuccess(status int, duration time.Duration)
	OnDeliveryError(err error, duration time.Duration)
	OnDeliveryDropped()
}

// Emitters fans events out to every member.
type Emitters []EventEmitter

func (e Emitters) OnRecord(rec domain.Record) {
	for _, em := range e {
		em.OnRecord(rec)
	}
}

func (e Emitters) OnParseError(raw string, err error) {
	for _, em := range e {
		em.OnParseError(raw, err)
	}
}

func (e Emitters) OnOverflow(dropped int) {
	for _, em := range e {
		em.OnOverflow(dropped)
	}
}

func (e Emitters) OnDeliverySuccess(status int, duration time.Duration) {
	for _, em := range e {
		em.OnDeliverySuccess(status, duration)
	}
}

func (e Emitters) OnDeliveryError(err error, duration time.Duration) {
	for _, em := range e {
		em.OnDeliveryError(err, duration)
	}
}

func (e Emitters) OnDeliveryDropped() {
	for _, em := range e {
		em.OnDeliveryDropped()
	}
}

// NopEmitter ignores every event.
type NopEmitter struct{}

func (NopEmitter) OnRecord(domain.Record)               {}
func (NopEmitter) OnParseError(string, error)           {}
func (NopEmitter) OnOverflow(int)                       {}
func (NopEmitter) OnDeliverySuccess(int, time.Duration) {}
func (NopEmitter) OnDeliveryError(error, time.Duration) {}
func (NopEmitter) OnDeliveryDropped()                   {}
