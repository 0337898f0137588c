package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/pickupz-backend/pkg/config"
	"github.com/segmentio/kafka-go"
)

var ErrDisabled = errors.New("kafka disabled")

// Producer writes keyed messages to a single topic.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer builds a producer for the order events topic. Messages sharing a key land on the same partition.
func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	brokers := Brokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, ErrDisabled
	}
	topic := strings.TrimSpace(cfg.OrderEventsTopic)
	if topic == "" {
		return nil, errors.New("kafka order events topic is required")
	}
	batch := cfg.BatchTimeout
	if batch <= 0 {
		batch = 10 * time.Millisecond
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: batch,
	}
	return &Producer{writer: writer, topic: topic}, nil
}

// Brokers trims blanks out of the configured broker list.
func Brokers(raw []string) []string {
	brokers := []string{}
	for _, b := range raw {
		for _, part := range strings.Split(b, ",") {
			if part = strings.TrimSpace(part); part != "" {
				brokers = append(brokers, part)
			}
		}
	}
	return brokers
}

func (p *Producer) Topic() string {
	return p.topic
}

// Publish writes one message and blocks until the broker acknowledges it.
func (p *Producer) Publish(ctx context.Context, key string, value []byte, headers map[string]string) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now().UTC(),
	}
	for k, v := range headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
