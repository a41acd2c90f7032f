package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/logger"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ObjectCreatedConsumer feeds object notifications into ingest.
type ObjectCreatedConsumer struct {
	topic  string
	ingest *IngestHandler
}

func NewObjectCreatedConsumer(topic string, ingest *IngestHandler) *ObjectCreatedConsumer {
	return &ObjectCreatedConsumer{topic: topic, ingest: ingest}
}

func (c *ObjectCreatedConsumer) Topic() string { return c.topic }

func (c *ObjectCreatedConsumer) Handle(ctx context.Context, payload []byte) error {
	var ev models.ObjectCreated
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("decode object event: %w", err)
	}
	if err := validate.Struct(ev); err != nil {
		return fmt.Errorf("invalid object event: %w", err)
	}
	_, err := c.ingest.Handle(ctx, ev)
	return err
}

// IngestCompletedConsumer runs analysis for IngestorCompleted events on the
// shared events topic and ignores every other detail type.
type IngestCompletedConsumer struct {
	topic   string
	analyze *AnalyzeHandler
	log     *logger.Logger
}

func NewIngestCompletedConsumer(topic string, analyze *AnalyzeHandler, log *logger.Logger) *IngestCompletedConsumer {
	return &IngestCompletedConsumer{topic: topic, analyze: analyze, log: log}
}

func (c *IngestCompletedConsumer) Topic() string { return c.topic }

func (c *IngestCompletedConsumer) Handle(ctx context.Context, payload []byte) error {
	var env models.EventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.DetailType != models.DetailIngestorCompleted {
		c.log.Debug("skipping event", logger.String("detail_type", env.DetailType))
		return nil
	}

	var detail models.IngestCompleted
	if err := env.DecodeDetail(&detail); err != nil {
		return err
	}
	if detail.Bucket.Name == "" || detail.Key == "" {
		return fmt.Errorf("ingest event missing bucket or key")
	}
	_, err := c.analyze.Handle(ctx, detail)
	return err
}
