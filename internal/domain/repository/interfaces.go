package repository

import "context"

// BlobStore reads and writes opaque objects addressed by bucket and key.
// Get and ETag report missing keys with models.ErrObjectNotFound.
type BlobStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
	// ETag returns the content fingerprint of an object.
	ETag(ctx context.Context, bucket, key string) (string, error)
}

// EventBus announces pipeline progress to other stages.
type EventBus interface {
	Publish(ctx context.Context, source, detailType string, detail any) error
}

// Item is anything the record store can key.
type Item interface {
	ItemKey() string
}

// RecordStore persists one item per call.
type RecordStore interface {
	PutItem(ctx context.Context, table string, item Item) error
}

// MetricEmitter sends operational metrics. Implementations must not block or
// fail the caller; Emit has no error by contract.
type MetricEmitter interface {
	Emit(namespace, name string, dims map[string]string, value float64, unit string)
}

// Metrics records run-level latency and errors.
type Metrics interface {
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordRecords(outcome string, n int)
}
