package app

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/airship/internal/domain"
	"github.com/bft-labs/airship/internal/ports"
)

// DefaultDrainTimeout bounds how long queued payloads are still sent after
// the run context is canceled.
const DefaultDrainTimeout = 5 * time.Second

// Deliverer sends payloads best-effort: one attempt each, no retries.
//
// With a positive queue size, payloads are handed to a single worker through
// a bounded channel so a slow endpoint never stalls ingestion; when the queue
// is full the payload is dropped (the record is already in the log). With a
// zero queue size, Submit sends inline.
type Deliverer struct {
	sender       ports.PayloadSender
	logger       ports.Logger
	emitter      ports.EventEmitter
	queue        chan domain.Payload
	drainTimeout time.Duration
	wg           sync.WaitGroup
}

// NewDeliverer creates a deliverer. queueSize <= 0 selects inline delivery.
func NewDeliverer(sender ports.PayloadSender, queueSize int, logger ports.Logger, emitter ports.EventEmitter) *Deliverer {
	d := &Deliverer{
		sender:       sender,
		logger:       logger,
		emitter:      emitter,
		drainTimeout: DefaultDrainTimeout,
	}
	if queueSize > 0 {
		d.queue = make(chan domain.Payload, queueSize)
	}
	return d
}

// Start launches the worker when queued delivery is enabled.
func (d *Deliverer) Start(ctx context.Context) {
	if d.queue == nil {
		return
	}
	d.wg.Add(1)
	go d.run(ctx)
}

// Submit delivers or enqueues one payload. It never blocks on the network
// in queued mode.
func (d *Deliverer) Submit(ctx context.Context, p domain.Payload) {
	if d.queue == nil {
		d.deliver(ctx, p)
		return
	}

	select {
	case d.queue <- p:
	default:
		d.logger.Warn("delivery queue full, payload dropped",
			ports.Int("queue_size", cap(d.queue)),
		)
		d.emitter.OnDeliveryDropped()
	}
}

// Close stops accepting payloads and waits for the worker to drain the queue.
// Submit must not be called after Close.
func (d *Deliverer) Close() {
	if d.queue == nil {
		return
	}
	close(d.queue)
	d.wg.Wait()
}

func (d *Deliverer) run(ctx context.Context) {
	defer d.wg.Done()

	var drainCtx context.Context
	for p := range d.queue {
		sendCtx := ctx
		if ctx.Err() != nil {
			if drainCtx == nil {
				var cancel context.CancelFunc
				drainCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), d.drainTimeout)
				defer cancel()
			}
			sendCtx = drainCtx
		}
		d.deliver(sendCtx, p)
	}
}

func (d *Deliverer) deliver(ctx context.Context, p domain.Payload) {
	start := time.Now()
	status, err := d.sender.Send(ctx, p)
	duration := time.Since(start)

	if err != nil {
		d.logger.Error("failed to send data",
			ports.Err(err),
			ports.Int("status", status),
			ports.Duration("duration", duration),
		)
		d.emitter.OnDeliveryError(err, duration)
		return
	}

	d.logger.Info("data sent",
		ports.Int("status", status),
		ports.Duration("duration", duration),
	)
	d.emitter.OnDeliverySuccess(status, duration)
}
