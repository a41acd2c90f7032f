package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/logger"
)

var requiredMeta = []string{"symbol", "interval", "currency"}

// Partitions splits a batch into accepted records and rejects; each reject
// carries an "error" field with the reason.
type Partitions struct {
	Valid   []models.RawRecord
	Invalid []models.RawRecord
}

// Raw is the number of records that went through validation.
func (p Partitions) Raw() int { return len(p.Valid) + len(p.Invalid) }

// DecodeBatch parses a raw batch document. Numbers keep their literal form so
// that non-string values can be rejected as such.
func DecodeBatch(data []byte) (models.Batch, error) {
	var b models.Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	return b, nil
}

// ProcessBatch flattens every symbol entry into records and validates them.
// Malformed entries are skipped with a warning; symbols are walked in sorted
// order so partitions are deterministic.
func ProcessBatch(batch models.Batch, lg *logger.Logger) Partitions {
	var parts Partitions

	symbols := make([]string, 0, len(batch))
	for s := range batch {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	lg.Info("starting data processing", logger.Int("symbols", len(symbols)))
	for _, symbol := range symbols {
		entry, err := decodeEntry(batch[symbol])
		if err != nil || entry.Meta == nil || entry.Values == nil {
			lg.Warn("invalid symbol structure", logger.String("symbol", symbol))
			continue
		}
		if !hasKeys(entry.Meta, requiredMeta) {
			lg.Warn("invalid meta", logger.String("symbol", symbol))
			continue
		}

		interval := entry.Meta.Interval()
		for _, value := range entry.Values {
			rec := value.Clone()
			rec["symbol"] = symbol
			rec["interval"] = interval

			out := Validate(rec)
			if out.Valid {
				parts.Valid = append(parts.Valid, rec)
				lg.Debug("valid record", logger.String("symbol", symbol), logger.String("datetime", rec.Str("datetime")))
				continue
			}
			bad := rec.Clone()
			bad["error"] = out.Reason
			parts.Invalid = append(parts.Invalid, bad)
			lg.Warn("invalid record",
				logger.String("symbol", symbol),
				logger.String("datetime", rec.Str("datetime")),
				logger.String("kind", string(out.Kind)),
				logger.String("reason", out.Reason))
		}
	}

	lg.Info("processing complete", logger.Int("valid", len(parts.Valid)), logger.Int("invalid", len(parts.Invalid)))
	return parts
}

func decodeEntry(raw json.RawMessage) (models.SymbolBatch, error) {
	var entry models.SymbolBatch
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&entry); err != nil {
		return entry, err
	}
	return entry, nil
}

func hasKeys(m map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}
