package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/pickupz-backend/internal/orders"
	"github.com/angelmondragon/pickupz-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	defaultBuffer      = 256
	defaultSendTimeout = 10 * time.Second
)

type deliveryMetrics interface {
	Delivered(event string)
	Failed(event string)
	Dropped(event string)
}

type nopDeliveryMetrics struct{}

func (nopDeliveryMetrics) Delivered(string) {}
func (nopDeliveryMetrics) Failed(string) {}
func (nopDeliveryMetrics) Dropped(string) {}

type queued struct {
	ctx   context.Context
	event orders.Event
}

// Dispatcher hands lifecycle events to a sink on a background goroutine.
// Notify never blocks the caller; a full buffer drops the event.
type Dispatcher struct {
	sink        Sink
	logg        *logger.Logger
	metrics     deliveryMetrics
	newID       func() string
	sendTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan queued
	done   chan struct{}
}

// DispatcherParams wires a Dispatcher.
type DispatcherParams struct {
	Sink        Sink
	Logger      *logger.Logger
	Metrics     deliveryMetrics
	Buffer      int
	SendTimeout time.Duration
	NewID       func() string
}

// NewDispatcher builds a dispatcher and starts its delivery loop.
func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Sink == nil {
		return nil, fmt.Errorf("notification sink required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Metrics == nil {
		params.Metrics = nopDeliveryMetrics{}
	}
	if params.Buffer <= 0 {
		params.Buffer = defaultBuffer
	}
	if params.SendTimeout <= 0 {
		params.SendTimeout = defaultSendTimeout
	}
	if params.NewID == nil {
		params.NewID = func() string { return uuid.NewString() }
	}
	d := &Dispatcher{
		sink:        params.Sink,
		logg:        params.Logger,
		metrics:     params.Metrics,
		newID:       params.NewID,
		sendTimeout: params.SendTimeout,
		queue:       make(chan queued, params.Buffer),
		done:        make(chan struct{}),
	}
	go d.run()
	return d, nil
}

// Notify enqueues the event. The caller's context only contributes log fields.
func (d *Dispatcher) Notify(ctx context.Context, event orders.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.metrics.Dropped(string(event.Type))
		return
	}
	select {
	case d.queue <- queued{ctx: context.WithoutCancel(ctx), event: event}:
	default:
		d.metrics.Dropped(string(event.Type))
		d.logg.Warn(d.logg.WithFields(ctx, map[string]any{
			"event_type": event.Type,
			"order_id":   event.Order.ID.String(),
		}), "notification buffer full; event dropped")
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for item := range d.queue {
		d.deliver(item)
	}
}

func (d *Dispatcher) deliver(item queued) {
	eventType := string(item.event.Type)
	ctx := d.logg.WithFields(item.ctx, map[string]any{
		"event_type": eventType,
		"order_id":   item.event.Order.ID.String(),
		"sink":       d.sink.Name(),
	})

	envelope, err := NewEnvelope(item.event, d.newID())
	if err != nil {
		d.metrics.Failed(eventType)
		d.logg.Error(ctx, "render notification", err)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	if err := d.sink.Send(sendCtx, envelope); err != nil {
		d.metrics.Failed(eventType)
		d.logg.Error(ctx, "deliver notification", err)
		return
	}
	d.metrics.Delivered(eventType)
}

// Close stops accepting events and waits for queued ones to drain or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
