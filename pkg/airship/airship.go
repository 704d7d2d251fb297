package airship

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bft-labs/airship/internal/adapters/fs"
	httpAdapter "github.com/bft-labs/airship/internal/adapters/http"
	"github.com/bft-labs/airship/internal/adapters/metrics"
	"github.com/bft-labs/airship/internal/adapters/serial"
	"github.com/bft-labs/airship/internal/app"
	"github.com/bft-labs/airship/internal/domain"
	"github.com/bft-labs/airship/internal/ports"
)

// Errors returned by Airship. Match them with errors.Is.
var (
	ErrAlreadyRunning    = domain.ErrAlreadyRunning
	ErrNotRunning        = domain.ErrNotRunning
	ErrShutdownTimeout   = domain.ErrShutdownTimeout
	ErrInvalidConfig     = domain.ErrInvalidConfig
	ErrSourceUnavailable = domain.ErrSourceUnavailable
	ErrSourceClosed      = domain.ErrSourceClosed
	ErrLogWrite          = domain.ErrLogWrite
	ErrDelivery          = domain.ErrDelivery
)

var errSourceConsumed = fmt.Errorf("%w: source from WithSource was used by a previous run", domain.ErrSourceUnavailable)

// Airship forwards sensor records from a serial stream to a log file and an
// HTTP endpoint. Use New() to create an instance, then Start() to begin.
type Airship struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	agent     *app.Agent
	metrics   *metrics.Server
	logger    ports.Logger

	mu         sync.Mutex
	sourceUsed bool
}

// New creates a new Airship instance with the given configuration.
// The instance is created in StateStopped; call Start() to begin forwarding.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Airship, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	o := defaultOptions(httpClient)
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	emitter := &eventEmitterWrapper{handler: o.eventHandler}
	emitters := ports.Emitters{emitter}

	a := &Airship{
		config:    cfg,
		opts:      o,
		lifecycle: app.NewLifecycle(logger, emitter),
		logger:    logger,
	}

	var collector *metrics.Collector
	if cfg.MetricsAddr != "" {
		collector = metrics.NewCollector()
		emitters = append(emitters, collector)
	}

	var statusRepo ports.StatusRepository
	if cfg.StateDir != "" {
		statusRepo = fs.NewStatusFile(cfg.StateDir)
	}

	sender := httpAdapter.NewPayloadSender(o.httpClient, httpAdapter.SenderConfig{
		EndpointURL: cfg.EndpointURL,
		AuthKey:     cfg.AuthKey,
		Hostname:    hostname(),
	})

	a.agent = app.NewAgent(
		app.AgentConfig{
			PollInterval:   cfg.PollInterval,
			MaxReadBackoff: cfg.MaxReadBackoff,
			MaxBufferBytes: cfg.MaxBufferBytes,
			DrainAll:       cfg.DrainAll,
			QueueSize:      cfg.QueueSize,
			StatusInterval: cfg.StatusInterval,
		},
		a.openSource,
		func() (ports.RecordLog, error) {
			return fs.OpenRecordLog(cfg.LogFile, cfg.SyncWrites)
		},
		sender,
		statusRepo,
		logger,
		emitters,
	)

	if collector != nil {
		a.metrics = metrics.NewServer(cfg.MetricsAddr, collector, a.agent.Latest, logger)
	}

	return a, nil
}

// openSource picks the injected source, the replay file or the serial device.
func (a *Airship) openSource(ctx context.Context) (ports.StreamSource, error) {
	if a.opts.source != nil {
		return a.opts.source, nil
	}
	if a.config.ReplayFile != "" {
		a.logger.Info("replaying capture", ports.String("file", a.config.ReplayFile))
		return serial.OpenReplay(a.config.ReplayFile)
	}
	return serial.Open(ctx, serial.Config{
		Device:        a.config.Device,
		BaudRate:      a.config.BaudRate,
		ReadTimeout:   a.config.ReadTimeout,
		WaitForDevice: a.config.WaitForDevice,
	}, a.logger)
}

// Start begins forwarding in the background.
// Returns immediately after starting the forwarding goroutine.
// Returns an error if already running, if the metrics listener fails, or if
// the source given to WithSource was already consumed by an earlier run.
// The provided context is used for the lifetime of the run.
func (a *Airship) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if a.opts.source != nil {
		if a.sourceUsed {
			return errSourceConsumed
		}
		a.sourceUsed = true
	}

	if err := a.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.lifecycle.SetCancel(cancel)

	if a.metrics != nil {
		if err := a.metrics.Start(); err != nil {
			cancel()
			_ = a.lifecycle.Crash(err)
			return err
		}
	}

	a.lifecycle.AddWorker()
	go func() {
		defer a.lifecycle.WorkerDone()
		defer cancel()

		if err := a.lifecycle.TransitionTo(app.StateRunning, "agent starting"); err != nil {
			// Stop() won the race during startup.
			return
		}

		err := a.agent.Run(runCtx)
		a.shutdownMetrics()

		switch {
		case err == nil:
			_ = a.lifecycle.TransitionTo(app.StateStopped, "source closed")
		case runCtx.Err() != nil && errors.Is(err, runCtx.Err()):
			// When Stop() canceled the run it owns the final transition.
			if a.lifecycle.State() == app.StateRunning {
				_ = a.lifecycle.TransitionTo(app.StateStopped, "context canceled")
			}
		default:
			a.logger.Error("agent error", ports.Err(err))
			_ = a.lifecycle.Crash(err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the forwarder.
// Drains queued deliveries and persists the status file.
// Waits up to 30 seconds before forcing shutdown.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (a *Airship) Stop() error {
	a.mu.Lock()

	if !a.lifecycle.CanStop() {
		a.mu.Unlock()
		return domain.ErrNotRunning
	}

	if err := a.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		a.mu.Unlock()
		return err
	}

	a.lifecycle.Cancel()
	a.mu.Unlock()

	err := a.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
	a.shutdownMetrics()

	if err != nil {
		_ = a.lifecycle.Crash(err)
	} else {
		_ = a.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}

	return err
}

// Done returns a channel closed when the current run ends, whether it
// stopped, finished a replay or crashed.
func (a *Airship) Done() <-chan struct{} {
	return a.lifecycle.Done()
}

// Err returns the error that crashed the last run, or nil.
func (a *Airship) Err() error {
	return a.lifecycle.Err()
}

// State returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (a *Airship) State() State {
	return State(a.lifecycle.State())
}

// Status returns the counters and the latest record.
func (a *Airship) Status() Status {
	return a.agent.Status()
}

// Latest returns the most recent record, or false if none has arrived yet.
func (a *Airship) Latest() (Record, bool) {
	return a.agent.Latest()
}

// MetricsAddr returns the bound metrics address, or "" when disabled or idle.
func (a *Airship) MetricsAddr() string {
	if a.metrics == nil {
		return ""
	}
	return a.metrics.Addr()
}

func (a *Airship) shutdownMetrics() {
	if a.metrics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.metrics.Shutdown(ctx); err != nil {
		a.logger.Warn("metrics server shutdown", ports.Err(err))
	}
}

// hostname returns the current hostname.
func hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}
