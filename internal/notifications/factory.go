package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/pickupz-backend/pkg/config"
	"github.com/angelmondragon/pickupz-backend/pkg/kafka"
	"github.com/angelmondragon/pickupz-backend/pkg/logger"
	"github.com/angelmondragon/pickupz-backend/pkg/pubsub"
)

// SinkFromConfig builds the configured sink. The returned close func releases transport clients.
func SinkFromConfig(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Sink, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(cfg.Notifier.Sink)) {
	case "", config.NotifierSinkLog:
		return NewLogSink(logg), noop, nil
	case config.NotifierSinkPubSub:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, noop, fmt.Errorf("pubsub sink: %w", err)
		}
		sink, err := NewPubSubSink(client)
		if err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		return sink, client.Close, nil
	case config.NotifierSinkKafka:
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return nil, noop, fmt.Errorf("kafka sink: %w", err)
		}
		sink, err := NewKafkaSink(producer)
		if err != nil {
			_ = producer.Close()
			return nil, noop, err
		}
		return sink, producer.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported notifier sink %q", cfg.Notifier.Sink)
	}
}
