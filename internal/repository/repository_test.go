package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
	pkgkafka "StockPulse/pkg/kafka"
	"StockPulse/pkg/logger"
	"StockPulse/pkg/objectstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	topic   string
	key     []byte
	value   []byte
	headers []pkgkafka.Header
}

type fakeProducer struct {
	msgs []captured
	err  error
}

func (p *fakeProducer) Publish(_ context.Context, topic string, key, value []byte, headers ...pkgkafka.Header) error {
	p.msgs = append(p.msgs, captured{topic, key, value, headers})
	return p.err
}

func TestKafkaEventBusEnvelope(t *testing.T) {
	p := &fakeProducer{}
	bus := NewKafkaEventBus(p, "pipeline-events")
	bus.now = func() time.Time { return time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC) }

	ctx := logger.ContextWithCorrelationID(context.Background(), "corr-1")
	detail := models.IngestCompleted{Key: "processed/a.jsonl", ValidCount: 3}
	require.NoError(t, bus.Publish(ctx, "stockpulse.data-ingestor", models.DetailIngestorCompleted, detail))

	require.Len(t, p.msgs, 1)
	m := p.msgs[0]
	assert.Equal(t, "pipeline-events", m.topic)
	assert.Equal(t, "corr-1", string(m.key))

	var env models.EventEnvelope
	require.NoError(t, json.Unmarshal(m.value, &env))
	assert.Equal(t, models.DetailIngestorCompleted, env.DetailType)
	assert.Equal(t, "stockpulse.data-ingestor", env.Source)

	var got models.IngestCompleted
	require.NoError(t, env.DecodeDetail(&got))
	assert.Equal(t, 3, got.ValidCount)

	hdr := map[string]string{}
	for _, h := range m.headers {
		hdr[h.Key] = string(h.Value)
	}
	assert.Equal(t, "corr-1", hdr[pkgkafka.HeaderCorrelationID])
	assert.Equal(t, models.DetailIngestorCompleted, hdr[pkgkafka.HeaderDetailType])
}

func TestKafkaEventBusWrapsFailure(t *testing.T) {
	bus := NewKafkaEventBus(&fakeProducer{err: errors.New("broker down")}, "t")
	err := bus.Publish(context.Background(), "s", "d", map[string]int{})
	assert.True(t, errors.Is(err, models.ErrStorage))
}

func TestSchemaRejectsBadTableName(t *testing.T) {
	_, err := Schema("analysis; DROP TABLE x")
	assert.Error(t, err)

	ddl, err := Schema("stockpulse.stock_analysis")
	require.NoError(t, err)
	assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS stockpulse.stock_analysis")
}

func TestPutItemRejectsBadTableName(t *testing.T) {
	s := NewClickHouseRecordStore(nil)
	err := s.PutItem(context.Background(), "x y", &models.CombinedRecord{AnalysisID: "RUN#1"})
	assert.True(t, errors.Is(err, models.ErrStorage))
}

func TestBlobStoreReportsMissingKeys(t *testing.T) {
	ctx := context.Background()
	store := NewBlobStore(objectstore.NewMemoryStore())

	_, err := store.Get(ctx, "b", "inputs/none.json")
	assert.ErrorIs(t, err, models.ErrObjectNotFound)
	_, err = store.ETag(ctx, "b", "inputs/none.json")
	assert.ErrorIs(t, err, models.ErrObjectNotFound)

	require.NoError(t, store.Put(ctx, "b", "inputs/a.json", []byte("{}")))
	body, err := store.Get(ctx, "b", "inputs/a.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), body)
	ok, err := store.Exists(ctx, "b", "inputs/a.json")
	require.NoError(t, err)
	assert.True(t, ok)
}
