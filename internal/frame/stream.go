package frame

import (
	"context"
	"errors"
	"time"

	"github.com/bft-labs/airship/internal/domain"
	"github.com/bft-labs/airship/internal/ports"
)

// Default pacing values.
const (
	DefaultPollInterval   = 100 * time.Millisecond
	DefaultMaxReadBackoff = 5 * time.Second
)

// StreamConfig tunes how a Stream paces its reads.
type StreamConfig struct {
	// PollInterval is the pause after an empty read, and the first pause
	// after a read error.
	PollInterval time.Duration

	// MaxReadBackoff caps the pause between consecutive failing reads.
	MaxReadBackoff time.Duration
}

// Stream is a lazy, infinite, non-restartable sequence of events read from a
// single source. Once the source reports domain.ErrSourceClosed or
// domain.ErrSourceUnavailable the stream is finished: the backlog is flushed
// and every later call to Next returns that error.
type Stream struct {
	source    ports.StreamSource
	extractor *Extractor
	logger    ports.Logger
	poll      time.Duration
	backoff   *backoff
	sleep     func(ctx context.Context, d time.Duration) error
	done      error
}

// NewStream creates a stream reading from source into extractor.
func NewStream(source ports.StreamSource, extractor *Extractor, cfg StreamConfig, logger ports.Logger) *Stream {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxReadBackoff < cfg.PollInterval {
		cfg.MaxReadBackoff = DefaultMaxReadBackoff
		if cfg.MaxReadBackoff < cfg.PollInterval {
			cfg.MaxReadBackoff = cfg.PollInterval
		}
	}
	return &Stream{
		source:    source,
		extractor: extractor,
		logger:    logger,
		poll:      cfg.PollInterval,
		backoff:   newBackoff(cfg.PollInterval, cfg.MaxReadBackoff),
		sleep:     sleepCtx,
	}
}

// Next blocks until the next event is available.
// It returns ctx.Err() on cancellation, an error wrapping
// domain.ErrSourceClosed once the source is exhausted, and one wrapping
// domain.ErrSourceUnavailable when the source is lost.
func (s *Stream) Next(ctx context.Context) (domain.Event, error) {
	for {
		if ev, ok := s.extractor.Next(); ok {
			return ev, nil
		}
		if s.done != nil {
			return domain.Event{}, s.done
		}

		if err := ctx.Err(); err != nil {
			return domain.Event{}, err
		}

		chunk, err := s.source.ReadChunk(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrSourceClosed) || errors.Is(err, domain.ErrSourceUnavailable) {
				// no more reads are coming, so flush any backlog
				s.done = err
				s.extractor.drainAll = true
				continue
			}
			if ctx.Err() != nil {
				return domain.Event{}, ctx.Err()
			}

			pause := s.backoff.Next()
			s.logger.Error("error reading from source",
				ports.Err(err),
				ports.Duration("retry_in", pause),
			)
			if err := s.sleep(ctx, pause); err != nil {
				return domain.Event{}, err
			}
			continue
		}
		s.backoff.Reset()

		if len(chunk) == 0 {
			if err := s.sleep(ctx, s.poll); err != nil {
				return domain.Event{}, err
			}
			continue
		}

		s.extractor.Push(chunk)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
