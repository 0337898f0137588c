package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/pickupz-backend/pkg/logger"
	"go.uber.org/multierr"
)

// Sink delivers rendered envelopes to an external channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, envelope Envelope) error
}

// LogSink writes envelopes to the structured log. It is the default for local development.
type LogSink struct {
	logg *logger.Logger
}

func NewLogSink(logg *logger.Logger) *LogSink {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogSink{logg: logg}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(ctx context.Context, envelope Envelope) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": envelope.EventType,
		"recipient":  envelope.Recipient,
		"order_id":   envelope.OrderID.String(),
		"store_id":   envelope.StoreID.String(),
		"data":       string(envelope.Data),
	})
	s.logg.Info(ctx, "order notification")
	return nil
}

type pubsubPublisher interface {
	PublishOrderEvent(ctx context.Context, data []byte, attributes map[string]string) (string, error)
}

// PubSubSink publishes envelopes to the order events topic.
type PubSubSink struct {
	publisher pubsubPublisher
}

func NewPubSubSink(publisher pubsubPublisher) (*PubSubSink, error) {
	if publisher == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return &PubSubSink{publisher: publisher}, nil
}

func (s *PubSubSink) Name() string { return "pubsub" }

func (s *PubSubSink) Send(ctx context.Context, envelope Envelope) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	_, err = s.publisher.PublishOrderEvent(ctx, data, envelope.Attributes())
	return err
}

type kafkaPublisher interface {
	Publish(ctx context.Context, key string, value []byte, headers map[string]string) error
}

// KafkaSink writes envelopes keyed by order id so one order's events stay ordered.
type KafkaSink struct {
	producer kafkaPublisher
}

func NewKafkaSink(producer kafkaPublisher) (*KafkaSink, error) {
	if producer == nil {
		return nil, fmt.Errorf("kafka producer required")
	}
	return &KafkaSink{producer: producer}, nil
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Send(ctx context.Context, envelope Envelope) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return s.producer.Publish(ctx, envelope.OrderID.String(), data, envelope.Attributes())
}

// MultiSink fans an envelope out to every sink and combines their errors.
type MultiSink []Sink

func (m MultiSink) Name() string { return "multi" }

func (m MultiSink) Send(ctx context.Context, envelope Envelope) error {
	var err error
	for _, sink := range m {
		if sendErr := sink.Send(ctx, envelope); sendErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", sink.Name(), sendErr))
		}
	}
	return err
}
