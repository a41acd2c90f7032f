package kafka

import (
	"context"
	"fmt"

	"StockPulse/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// Header keys set on every pipeline event.
const (
	HeaderSource        = "source"
	HeaderDetailType    = "detail_type"
	HeaderCorrelationID = "correlation_id"
)

// ConsumerHook runs around message handling. Returning an error from
// BeforeHandle skips the handler and counts as a failed attempt.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, km kafka.Message) (context.Context, error)
	AfterHandle(ctx context.Context, topic string, km kafka.Message, err error)
}

type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ string, _ kafka.Message) (context.Context, error) {
	return ctx, nil
}

func (NoopHook) AfterHandle(context.Context, string, kafka.Message, error) {}

// HookChain applies BeforeHandle in order and AfterHandle in reverse. A
// panicking hook is turned into an error and never reaches the worker.
type HookChain struct {
	hooks []ConsumerHook
}

func NewHookChain(hooks ...ConsumerHook) *HookChain {
	filtered := make([]ConsumerHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	return &HookChain{hooks: filtered}
}

func (c *HookChain) BeforeHandle(ctx context.Context, topic string, km kafka.Message) (context.Context, error) {
	for _, h := range c.hooks {
		next, err := safeBefore(h, ctx, topic, km)
		if err != nil {
			return ctx, err
		}
		ctx = next
	}
	return ctx, nil
}

func (c *HookChain) AfterHandle(ctx context.Context, topic string, km kafka.Message, err error) {
	for i := len(c.hooks) - 1; i >= 0; i-- {
		safeAfter(c.hooks[i], ctx, topic, km, err)
	}
}

// CorrelationHook copies the correlation_id header into the handler context.
type CorrelationHook struct{ NoopHook }

func (CorrelationHook) BeforeHandle(ctx context.Context, _ string, km kafka.Message) (context.Context, error) {
	return logger.ContextWithCorrelationID(ctx, HeaderValue(km, HeaderCorrelationID)), nil
}

// LoggingHook logs every handled message at debug level and failures at warn.
type LoggingHook struct {
	NoopHook
	Log *logger.Logger
}

func (h LoggingHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, err error) {
	fields := []logger.Field{
		logger.String("topic", topic),
		logger.Int("partition", km.Partition),
		logger.Int64("offset", km.Offset),
		logger.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
	}
	if err != nil {
		h.Log.Warn("message attempt failed", append(fields, logger.Error(err))...)
		return
	}
	h.Log.Debug("message handled", fields...)
}

// HeaderValue returns the first header with the given key.
func HeaderValue(km kafka.Message, key string) string {
	for _, h := range km.Headers {
		if h.Key == key && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return ""
}

func safeBefore(h ConsumerHook, ctx context.Context, topic string, km kafka.Message) (next context.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			next, err = ctx, fmt.Errorf("hook panic: %v", r)
		}
	}()
	return h.BeforeHandle(ctx, topic, km)
}

func safeAfter(h ConsumerHook, ctx context.Context, topic string, km kafka.Message, err error) {
	defer func() { _ = recover() }()
	h.AfterHandle(ctx, topic, km, err)
}
