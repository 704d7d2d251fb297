package app

import (
	"context"

	"github.com/bft-labs/airship/internal/domain"
	"github.com/bft-labs/airship/internal/ports"
)

// Sink persists each record and hands its payload to the deliverer.
// The log append always comes first; a delivery outcome can neither skip
// nor undo it.
type Sink struct {
	log       ports.RecordLog
	latest    *Latest
	deliverer *Deliverer
	logger    ports.Logger
	emitter   ports.EventEmitter
}

// NewSink wires a sink.
func NewSink(log ports.RecordLog, latest *Latest, deliverer *Deliverer, logger ports.Logger, emitter ports.EventEmitter) *Sink {
	return &Sink{
		log:       log,
		latest:    latest,
		deliverer: deliverer,
		logger:    logger,
		emitter:   emitter,
	}
}

// Handle processes one timestamped record. A non-nil error wraps
// domain.ErrLogWrite and is fatal for the run.
func (s *Sink) Handle(ctx context.Context, rec domain.Record) error {
	if err := s.log.Append(rec); err != nil {
		return err
	}
	s.latest.Set(rec)

	s.logger.Info("received record", ports.Any("record", rec))
	s.emitter.OnRecord(rec)

	s.deliverer.Submit(ctx, rec.Payload())
	return nil
}
