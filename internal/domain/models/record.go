package models

import (
	"encoding/json"
	"fmt"
)

// RequiredRecordFields are the observation fields every flattened record must carry.
var RequiredRecordFields = []string{"datetime", "open", "high", "low", "close", "volume"}

// RawRecord is one flattened OHLCV observation exactly as it arrived, plus the
// symbol and interval copied from its batch entry. Values keep their JSON types
// so that non-string fields can be rejected and written back untouched.
type RawRecord map[string]any

// Str returns the field as a string, or "" when it is missing or not a string.
func (r RawRecord) Str(field string) string {
	if s, ok := r[field].(string); ok {
		return s
	}
	return ""
}

// Clone returns a shallow copy so rejected records can gain an error field
// without touching the input.
func (r RawRecord) Clone() RawRecord {
	out := make(RawRecord, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Record is a validated observation as read back from a processed partition.
type Record struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

// BatchMeta describes one symbol entry of a raw batch.
type BatchMeta map[string]any

// Interval returns meta.interval rendered as a string.
func (m BatchMeta) Interval() string {
	v, ok := m["interval"]
	if !ok || v == nil {
		return "unknown"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// SymbolBatch is the per-symbol payload of a raw batch.
type SymbolBatch struct {
	Meta   BatchMeta   `json:"meta"`
	Values []RawRecord `json:"values"`
}

// Batch is the raw input document: symbol -> {meta, values}.
type Batch map[string]json.RawMessage
