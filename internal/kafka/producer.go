package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"labconnect/internal/events"

	"github.com/IBM/sarama"
)

// Producer writes domain events to one topic. The message key is the event
// type, so all events of a type land on the same partition in order.
type Producer struct {
	sync   sarama.SyncProducer
	topic  string
	logger *slog.Logger
}

func NewProducer(brokers []string, topic string, logger *slog.Logger) (*Producer, error) {
	sync, err := sarama.NewSyncProducer(brokers, NewConfig())
	if err != nil {
		return nil, fmt.Errorf("connect to kafka %v: %w", brokers, err)
	}

	logger.Info("kafka event producer ready", "brokers", brokers, "topic", topic)
	return NewProducerWithClient(sync, topic, logger), nil
}

// NewConfig is the producer configuration shared by NewProducer and tests.
func NewConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = "labconnect"
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Retry.Backoff = 200 * time.Millisecond
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Return.Successes = true
	return cfg
}

func NewProducerWithClient(sync sarama.SyncProducer, topic string, logger *slog.Logger) *Producer {
	return &Producer{sync: sync, topic: topic, logger: logger}
}

func (p *Producer) Publish(ctx context.Context, event events.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	partition, offset, err := p.sync.SendMessage(&sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(event.Type),
		Value:     sarama.ByteEncoder(body),
		Timestamp: event.OccurredAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("content-type"), Value: []byte("application/json")},
		},
	})
	if err != nil {
		return fmt.Errorf("send %s event to %s: %w", event.Type, p.topic, err)
	}

	p.logger.DebugContext(ctx, "event delivered",
		"type", event.Type, "topic", p.topic, "partition", partition, "offset", offset)
	return nil
}

func (p *Producer) Close() error {
	return p.sync.Close()
}
