package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockPulse/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panicHook struct{ NoopHook }

func (panicHook) BeforeHandle(context.Context, string, kafka.Message) (context.Context, error) {
	panic("bad hook")
}

func TestCorrelationHookCopiesHeader(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: HeaderCorrelationID, Value: []byte("corr-7")}}}

	ctx, err := NewHookChain(CorrelationHook{}).BeforeHandle(context.Background(), "t", km)
	require.NoError(t, err)
	assert.Equal(t, "corr-7", logger.CorrelationIDFromContext(ctx))
}

func TestHeaderValueMissing(t *testing.T) {
		assert.Equal(t, "", HeaderValue(kafka.Message{}, HeaderSource))
}

func TestHookChainRecoversPanics(t *testing.T) {
	_, err := NewHookChain(CorrelationHook{}, panicHook{}).BeforeHandle(context.Background(), "t", kafka.Message{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hook panic")
}

func TestBackoffWithJitterStaysInRange(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoffWithJitter(100*time.Millisecond, time.Second, attempt)
		assert.LessOrEqual(t, d, time.Second)
		assert.Greater(t, d, time.Duration(0))
	}
}

type countingHandler struct {
	calls int
	fail  int
}

func (h *countingHandler) Topic() string { return "t" }

func (h *countingHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.calls <= h.fail {
		return errors.New("transient")
	}
	return nil
}

func TestHandleWithRetry(t *testing.T) {
	c, err := NewConsumer(WithConsumerBrokers([]string{"localhost:9092"}), WithConsumerRetry(2, time.Millisecond, 2*time.Millisecond))
	require.NoError(t, err)

	h := &countingHandler{fail: 2}
	require.NoError(t, c.handleWithRetry(context.Background(), h, kafka.Message{Topic: "t"}))
	assert.Equal(t, 3, h.calls)

	h = &countingHandler{fail: 5}
	assert.Error(t, c.handleWithRetry(context.Background(), h, kafka.Message{Topic: "t"}))
	assert.Equal(t, 3, h.calls)
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer()
	assert.Error(t, err)
	_, err = NewProducer()
	assert.Error(t, err)
}

func TestFailureWithoutDLQHoldsPartitionCommits(t *testing.T) {
	c, err := NewConsumer(WithConsumerBrokers([]string{"localhost:9092"}), WithConsumerRetry(0, time.Millisecond, time.Millisecond))
	require.NoError(t, err)
	h := &countingHandler{fail: 1}
	c.RegisterHandler(h)

	c.process(context.Background(), kafka.Message{Topic: "t", Partition: 0, Offset: 7})
	assert.True(t, c.commitsHeld("t", 0))

	c.process(context.Background(), kafka.Message{Topic: "t", Partition: 1, Offset: 3})
	assert.False(t, c.commitsHeld("t", 1))
	assert.Equal(t, 2, h.calls)
}
