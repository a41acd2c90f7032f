package repository

import (
	"context"
	"errors"
	"fmt"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/pkg/objectstore"
)

// BlobStore adapts an objectstore backend to the domain BlobStore, reporting
// missing keys as models.ErrObjectNotFound.
type BlobStore struct {
	inner drepo.BlobStore
}

var _ drepo.BlobStore = (*BlobStore)(nil)

func NewBlobStore(inner drepo.BlobStore) *BlobStore {
	return &BlobStore{inner: inner}
}

func (s *BlobStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	b, err := s.inner.Get(ctx, bucket, key)
	return b, notFound(err, key)
}

func (s *BlobStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	return s.inner.Put(ctx, bucket, key, data)
}

func (s *BlobStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	return s.inner.Exists(ctx, bucket, key)
}

func (s *BlobStore) ETag(ctx context.Context, bucket, key string) (string, error) {
	tag, err := s.inner.ETag(ctx, bucket, key)
	return tag, notFound(err, key)
}

func notFound(err error, key string) error {
	if errors.Is(err, objectstore.ErrNotFound) {
		return fmt.Errorf("%w: %s: %w", models.ErrObjectNotFound, key, err)
	}
	return err
}
