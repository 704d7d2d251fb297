package airship

import (
	"errors"
	"time"

	"github.com/bft-labs/airship/internal/app"
	"github.com/bft-labs/airship/internal/domain"
)

// State is the lifecycle state of an Airship instance.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

func (s State) String() string {
	return app.State(s).String()
}

// Record is one reading, including its Time field.
type Record = domain.Record

// Status is a snapshot of the forwarder's counters and latest record.
type Status = domain.Status

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// RecordEvent is emitted after a record has been logged.
type RecordEvent struct {
	Record Record
}

// ParseErrorEvent is emitted for a candidate frame that is not valid JSON.
type ParseErrorEvent struct {
	Raw   string
	Error error
}

// OverflowEvent is emitted when the buffer cap drops bytes.
type OverflowEvent struct {
	Dropped int
}

// DeliveryEvent is emitted after each delivery attempt.
// Error is nil on success; a rejected POST carries its StatusCode.
type DeliveryEvent struct {
	StatusCode int
	Duration   time.Duration
	Error      error
	Dropped    bool
}

// EventHandler receives forwarder events. Callbacks run on the ingestion
// goroutine or the delivery worker and should return quickly.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnRecord(RecordEvent)
	OnParseError(ParseErrorEvent)
	OnOverflow(OverflowEvent)
	OnDelivery(DeliveryEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to
// override only some callbacks.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnRecord(RecordEvent)           {}
func (BaseEventHandler) OnParseError(ParseErrorEvent)   {}
func (BaseEventHandler) OnOverflow(OverflowEvent)       {}
func (BaseEventHandler) OnDelivery(DeliveryEvent)       {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: State(previous),
		Current:  State(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnRecord(rec domain.Record) {
	if e.handler == nil {
		return
	}
	e.handler.OnRecord(RecordEvent{Record: rec.Clone()})
}

func (e *eventEmitterWrapper) OnParseError(raw string, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnParseError(ParseErrorEvent{Raw: raw, Error: err})
}

func (e *eventEmitterWrapper) OnOverflow(dropped int) {
	if e.handler == nil {
		return
	}
	e.handler.OnOverflow(OverflowEvent{Dropped: dropped})
}

func (e *eventEmitterWrapper) OnDeliverySuccess(status int, duration time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnDelivery(DeliveryEvent{StatusCode: status, Duration: duration})
}

func (e *eventEmitterWrapper) OnDeliveryError(err error, duration time.Duration) {
	if e.handler == nil {
		return
	}
	ev := DeliveryEvent{Duration: duration, Error: err}
	var derr *domain.DeliveryError
	if errors.As(err, &derr) {
		ev.StatusCode = derr.StatusCode
	}
	e.handler.OnDelivery(ev)
}

func (e *eventEmitterWrapper) OnDeliveryDropped() {
	if e.handler == nil {
		return
	}
	e.handler.OnDelivery(DeliveryEvent{Dropped: true})
}
