package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event detail types published on the bus.
const (
	DetailIngestorCompleted = "IngestorCompleted"
	DetailAnalysisCompleted = "AnalysisCompleted"
)

// ObjectCreated announces a new object in the blob store.
type ObjectCreated struct {
	Bucket string `json:"bucket" validate:"required"`
	Key    string `json:"key" validate:"required"`
}

type BucketRef struct {
	Name string `json:"name"`
}

// IngestCompleted is the detail of an IngestorCompleted event.
type IngestCompleted struct {
	Bucket          BucketRef `json:"bucket"`
	Key             string    `json:"key"`
	ValidCount      int       `json:"valid_count"`
	InvalidCount    int       `json:"invalid_count"`
	RawCount        int       `json:"raw_count"`
	Filename        string    `json:"filename"`
	ProcessedMarker string    `json:"processed_marker"`
}

// AnalysisCompleted is published after the combined record is stored; it is
// what downstream notifiers subscribe to.
type AnalysisCompleted struct {
	AnalysisID    string            `json:"analysis_id"`
	KeyAnomalies  map[string]string `json:"key_anomalies"`
	RowCounts     RowCounts         `json:"row_counts"`
	CorrelationID string            `json:"correlation_id"`
}

// ProcessedMarker is stored under the batch fingerprint once ingest succeeds.
type ProcessedMarker struct {
	SourceKey     string    `json:"s3_key"`
	ProcessedAt   time.Time `json:"processed_at"`
	CorrelationID string    `json:"correlation_id"`
}

// EventEnvelope is the wire form of a bus event.
type EventEnvelope struct {
	Source     string          `json:"source"`
	DetailType string          `json:"detail_type"`
	Detail     json.RawMessage `json:"detail"`
	Time       time.Time       `json:"time"`
}

// DecodeDetail unmarshals the detail into dest. Producers that double-encode
// the detail as a JSON string are accepted too.
func (e EventEnvelope) DecodeDetail(dest any) error {
	raw := e.Detail
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return fmt.Errorf("decode detail string: %w", err)
		}
		raw = json.RawMessage(inner)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode detail: %w", err)
	}
	return nil
}

// IngestSummary is the outcome of one ingest run.
type IngestSummary struct {
	CorrelationID string `json:"correlation_id"`
	Message       string `json:"message,omitempty"`
	ValidCount    int    `json:"valid_count"`
	InvalidCount  int    `json:"invalid_count"`
	ProcessedKey  string `json:"processed_key,omitempty"`
	RejectsKey    string `json:"rejects_key,omitempty"`
	Duplicate     bool   `json:"duplicate"`
}

// AnalyzeSummary is the outcome of one analyze run.
type AnalyzeSummary struct {
	CorrelationID string `json:"correlation_id"`
	RunID         string `json:"run_id"`
	Symbols       int    `json:"symbols"`
}
