package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/objectstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ *objectstore.MemoryStore }

func (failingStore) Exists(context.Context, string, string) (bool, error) {
	return false, errors.New("connection reset")
}

func TestMarkThenDetect(t *testing.T) {
	ctx := context.Background()
	store := objectstore.NewMemoryStore()
	now := time.Date(2025, 6, 28, 12, 0, 0, 0, time.UTC)
	d := New(store, "processed/hashes/", WithClock(func() time.Time { return now }))

	require.NoError(t, store.Put(ctx, "raw", "inputs/batch.json", []byte(`{"AAPL":{}}`)))
	fp, err := d.Fingerprint(ctx, "raw", "inputs/batch.json")
	require.NoError(t, err)

	done, err := d.IsProcessed(ctx, "raw", fp)
	require.NoError(t, err)
	assert.False(t, done)

	key, err := d.MarkProcessed(ctx, "raw", fp, "inputs/batch.json", "corr-1")
	require.NoError(t, err)
	assert.Equal(t, "processed/hashes/"+fp, key)

	done, err = d.IsProcessed(ctx, "raw", fp)
	require.NoError(t, err)
	assert.True(t, done)

	body, err := store.Get(ctx, "raw", key)
	require.NoError(t, err)
	var marker models.ProcessedMarker
	require.NoError(t, json.Unmarshal(body, &marker))
	assert.Equal(t, "inputs/batch.json", marker.SourceKey)
	assert.Equal(t, "corr-1", marker.CorrelationID)
	assert.True(t, now.Equal(marker.ProcessedAt))
}

func TestFingerprintMissingObjectIsStorageError(t *testing.T) {
	d := New(objectstore.NewMemoryStore(), "processed/hashes/")
	_, err := d.Fingerprint(context.Background(), "raw", "inputs/none.json")
	assert.True(t, errors.Is(err, models.ErrStorage))
}

func TestIsProcessedWrapsStoreFailure(t *testing.T) {
	d := New(failingStore{objectstore.NewMemoryStore()}, "processed/hashes/")
	_, err := d.IsProcessed(context.Background(), "raw", "abc")
	assert.True(t, errors.Is(err, models.ErrStorage))
}
