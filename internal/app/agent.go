package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bft-labs/airship/internal/domain"
	"github.com/bft-labs/airship/internal/frame"
	"github.com/bft-labs/airship/internal/ports"
)

// DefaultStatusInterval is how often the status snapshot is persisted.
const DefaultStatusInterval = 10 * time.Second

// AgentConfig contains configuration for the forwarding loop.
type AgentConfig struct {
	PollInterval   time.Duration
	MaxReadBackoff time.Duration
	MaxBufferBytes int
	DrainAll       bool
	QueueSize      int
	StatusInterval time.Duration
}

// SourceOpener opens the byte source. Failure is fatal at startup.
type SourceOpener func(ctx context.Context) (ports.StreamSource, error)

// LogOpener opens the record log once per run.
type LogOpener func() (ports.RecordLog, error)

// Agent orchestrates the read, extract, log and deliver loop.
type Agent struct {
	config     AgentConfig
	openSource SourceOpener
	openLog    LogOpener
	sender     ports.PayloadSender
	statusRepo ports.StatusRepository
	logger     ports.Logger
	emitter    ports.EventEmitter

	latest *Latest
	stats  *Stats
}

// NewAgent creates a new agent with the given dependencies.
// statusRepo may be nil to disable status persistence; emitter may be nil.
func NewAgent(
	config AgentConfig,
	openSource SourceOpener,
	openLog LogOpener,
	sender ports.PayloadSender,
	statusRepo ports.StatusRepository,
	logger ports.Logger,
	emitter ports.EventEmitter,
) *Agent {
	if config.StatusInterval <= 0 {
		config.StatusInterval = DefaultStatusInterval
	}

	stats := NewStats()
	emitters := ports.Emitters{stats}
	if emitter != nil {
		emitters = append(emitters, emitter)
	}

	return &Agent{
		config:     config,
		openSource: openSource,
		openLog:    openLog,
		sender:     sender,
		statusRepo: statusRepo,
		logger:     logger,
		emitter:    emitters,
		latest:     &Latest{},
		stats:      stats,
	}
}

// Latest returns the most recent record seen by the agent.
func (a *Agent) Latest() (domain.Record, bool) {
	return a.latest.Get()
}

// Status returns a snapshot of the agent's counters and latest record.
func (a *Agent) Status() domain.Status {
	rec, _ := a.latest.Get()
	return a.stats.Snapshot(rec)
}

// Run executes the forwarding loop until the context is canceled, the source
// closes (nil error), the source is lost or the record log fails (fatal
// errors).
func (a *Agent) Run(ctx context.Context) error {
	if a.statusRepo != nil {
		prev, err := a.statusRepo.Load(ctx)
		if err != nil {
			a.logger.Error("failed to load status", ports.Err(err))
			// Continue with zeroed counters
		} else {
			a.stats.Restore(prev)
		}
	}

	source, err := a.openSource(ctx)
	if err != nil {
		a.logger.Error("unable to open source", ports.Err(err))
		return err
	}
	defer source.Close()

	recordLog, err := a.openLog()
	if err != nil {
		a.logger.Error("unable to open record log", ports.Err(err))
		return fmt.Errorf("%w: %w", domain.ErrLogWrite, err)
	}
	defer recordLog.Close()

	extractor := frame.NewExtractor(
		frame.WithMaxBufferBytes(a.config.MaxBufferBytes),
		frame.WithDrainAll(a.config.DrainAll),
	)
	stream := frame.NewStream(source, extractor, frame.StreamConfig{
		PollInterval:   a.config.PollInterval,
		MaxReadBackoff: a.config.MaxReadBackoff,
	}, a.logger)

	deliverer := NewDeliverer(a.sender, a.config.QueueSize, a.logger, a.emitter)
	deliverer.Start(ctx)

	sink := NewSink(recordLog, a.latest, deliverer, a.logger, a.emitter)

	saverCtx, stopSaver := context.WithCancel(ctx)
	saverDone := make(chan struct{})
	go a.saveStatusEvery(saverCtx, saverDone)

	defer func() {
		stopSaver()
		<-saverDone
		// Drain before the final snapshot so delivery counters are current.
		deliverer.Close()
		a.saveStatus(context.WithoutCancel(ctx))

		st := a.Status()
		a.logger.Info("forwarder stopped",
			ports.Int("unconsumed_bytes", extractor.Len()),
			ports.Uint64("records", st.Records),
			ports.Uint64("parse_errors", st.ParseErrors),
			ports.Uint64("delivered", st.Delivered),
			ports.Uint64("delivery_failures", st.DeliveryFailures),
		)
	}()

	for {
		ev, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrSourceClosed) {
				a.logger.Info("source closed", ports.Err(err))
				return nil
			}
			if errors.Is(err, domain.ErrSourceUnavailable) {
				a.logger.Error("source lost", ports.Err(err))
			}
			return err
		}

		switch ev.Kind {
		case domain.EventRecord:
			if err := sink.Handle(ctx, ev.Record); err != nil {
				a.logger.Error("failed to append record", ports.Err(err))
				return err
			}
		case domain.EventParseError:
			a.logger.Error("failed to parse frame",
				ports.Err(ev.Err),
				ports.String("raw", ev.Raw),
			)
			a.emitter.OnParseError(ev.Raw, ev.Err)
		case domain.EventOverflow:
			a.logger.Warn("buffer limit reached, bytes dropped",
				ports.Int("dropped", ev.Dropped),
				ports.Int("max_buffer_bytes", a.config.MaxBufferBytes),
			)
			a.emitter.OnOverflow(ev.Dropped)
		}
	}
}

// saveStatusEvery persists the status snapshot on every StatusInterval tick,
// whether or not the source is producing anything, until ctx is done.
func (a *Agent) saveStatusEvery(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	if a.statusRepo == nil {
		return
	}

	ticker := time.NewTicker(a.config.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.saveStatus(ctx)
		}
	}
}

func (a *Agent) saveStatus(ctx context.Context) {
	if a.statusRepo == nil {
		return
	}
	if err := a.statusRepo.Save(ctx, a.Status()); err != nil {
		a.logger.Error("failed to save status", ports.Err(err))
	}
}
