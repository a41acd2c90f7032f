// Package dedup tracks which input batches were already ingested.
//
// The check and the marker write are separate store calls. Two deliveries of
// the same batch racing between them can both be processed; that window is
// accepted in exchange for not holding a distributed lock.
package dedup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
)

// Deduplicator stores one ProcessedMarker per batch fingerprint.
type Deduplicator struct {
	store  repository.BlobStore
	prefix string
	now    func() time.Time
}

type Option func(*Deduplicator)

// WithClock overrides the marker timestamp source.
func WithClock(now func() time.Time) Option {
	return func(d *Deduplicator) { d.now = now }
}

func New(store repository.BlobStore, prefix string, opts ...Option) *Deduplicator {
	d := &Deduplicator{store: store, prefix: prefix, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// MarkerKey is where the marker for a fingerprint lives.
func (d *Deduplicator) MarkerKey(fingerprint string) string {
	return d.prefix + fingerprint
}

// Fingerprint returns the content identity of an input object.
func (d *Deduplicator) Fingerprint(ctx context.Context, bucket, key string) (string, error) {
	etag, err := d.store.ETag(ctx, bucket, key)
	if err != nil {
		return "", fmt.Errorf("%w: fingerprint %s: %w", models.ErrStorage, key, err)
	}
	return etag, nil
}

// IsProcessed reports whether a marker exists for the fingerprint.
func (d *Deduplicator) IsProcessed(ctx context.Context, bucket, fingerprint string) (bool, error) {
	ok, err := d.store.Exists(ctx, bucket, d.MarkerKey(fingerprint))
	if err != nil {
		return false, fmt.Errorf("%w: check marker: %w", models.ErrStorage, err)
	}
	return ok, nil
}

// MarkProcessed writes the marker. Call only after all outputs are persisted
// and announced.
func (d *Deduplicator) MarkProcessed(ctx context.Context, bucket, fingerprint, sourceKey, correlationID string) (string, error) {
	marker := models.ProcessedMarker{
		SourceKey:     sourceKey,
		ProcessedAt:   d.now().UTC(),
		CorrelationID: correlationID,
	}
	body, err := json.Marshal(marker)
	if err != nil {
		return "", fmt.Errorf("marshal marker: %w", err)
	}

	key := d.MarkerKey(fingerprint)
	if err := d.store.Put(ctx, bucket, key, body); err != nil {
		return "", fmt.Errorf("%w: write marker: %w", models.ErrStorage, err)
	}
	return key, nil
}
