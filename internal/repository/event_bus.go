package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	pkgkafka "StockPulse/pkg/kafka"
	"StockPulse/pkg/logger"
)

// Publisher is the part of the Kafka producer the bus needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers ...pkgkafka.Header) error
}

// KafkaEventBus wraps each detail in an EventEnvelope on a single topic.
// Consumers route on the detail_type header or envelope field.
type KafkaEventBus struct {
	producer Publisher
	topic    string
	now      func() time.Time
}

var _ drepo.EventBus = (*KafkaEventBus)(nil)

func NewKafkaEventBus(producer Publisher, topic string) *KafkaEventBus {
	return &KafkaEventBus{producer: producer, topic: topic, now: time.Now}
}

func (b *KafkaEventBus) Publish(ctx context.Context, source, detailType string, detail any) error {
	raw, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal %s detail: %w", detailType, err)
	}
	body, err := json.Marshal(models.EventEnvelope{
		Source:     source,
		DetailType: detailType,
		Detail:     raw,
		Time:       b.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	corr := logger.CorrelationIDFromContext(ctx)
	key := corr
	if key == "" {
		key = detailType
	}
	headers := []pkgkafka.Header{
		{Key: pkgkafka.HeaderSource, Value: []byte(source)},
		{Key: pkgkafka.HeaderDetailType, Value: []byte(detailType)},
	}
	if corr != "" {
		headers = append(headers, pkgkafka.Header{Key: pkgkafka.HeaderCorrelationID, Value: []byte(corr)})
	}

	if err := b.producer.Publish(ctx, b.topic, []byte(key), body, headers...); err != nil {
		return fmt.Errorf("%w: publish %s: %w", models.ErrStorage, detailType, err)
	}
	return nil
}
