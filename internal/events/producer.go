// Package events publishes shop activity to Kafka. Publishing is strictly
// best-effort: a missing broker or failed delivery is logged and dropped,
// never surfaced to the request path.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/velvetoven/pastry_shop/internal/logging"
)

const (
	TopicCart    = "cart_events"
	TopicProduct = "product_events"
	TopicUser    = "user_events"
	TopicOrder   = "order_events"
)

type Producer struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// NewProducer wires a writer against brokers. With no brokers configured the
// producer is disabled and every publish is a no-op.
func NewProducer(brokers []string, log *slog.Logger) *Producer {
	if log == nil {
		log = logging.Discard()
	}
	if len(brokers) == 0 {
		return &Producer{log: log}
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
	}
	return &Producer{writer: w, log: log}
}

func (p *Producer) Enabled() bool { return p != nil && p.writer != nil }

// Publish sends event as JSON keyed by key. Errors are logged only.
func (p *Producer) Publish(ctx context.Context, topic, key string, event map[string]any) {
	if !p.Enabled() {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error("event marshal failed", "topic", topic, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("event publish failed", "topic", topic, "error", err)
	}
}

func (p *Producer) Close() error {
	if !p.Enabled() {
		return nil
	}
	return p.writer.Close()
}
