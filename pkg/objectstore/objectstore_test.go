package objectstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type store interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
	ETag(ctx context.Context, bucket, key string) (string, error)
}

func exercise(t *testing.T, s store) {
	ctx := context.Background()

	ok, err := s.Exists(ctx, "raw", "inputs/a.json")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, "raw", "inputs/a.json")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Put(ctx, "raw", "inputs/a.json", []byte("hello")))

	ok, err = s.Exists(ctx, "raw", "inputs/a.json")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := s.Get(ctx, "raw", "inputs/a.json")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	etag, err := s.ETag(ctx, "raw", "inputs/a.json")
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", etag)
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	exercise(t, s)
}

func TestFileStoreRejectsEscapingKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, s.Put(context.Background(), "raw", "../../etc/passwd", []byte("x")))
}
