package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ClickHouseRecordStore keeps one row per item: its key, the write time and
// the JSON document. ReplacingMergeTree collapses rewrites of the same key.
type ClickHouseRecordStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ drepo.RecordStore = (*ClickHouseRecordStore)(nil)

func NewClickHouseRecordStore(db *sql.DB) *ClickHouseRecordStore {
	return &ClickHouseRecordStore{db: db, now: time.Now}
}

// Schema returns the DDL for an item table.
func Schema(table string) (string, error) {
	if !tableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	item_key String,
	stored_at DateTime64(3, 'UTC'),
	payload String
) ENGINE = ReplacingMergeTree(stored_at)
ORDER BY item_key`, table), nil
}

func (s *ClickHouseRecordStore) PutItem(ctx context.Context, table string, item drepo.Item) error {
	if !tableName.MatchString(table) {
		return fmt.Errorf("%w: invalid table name %q", models.ErrStorage, table)
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	q := fmt.Sprintf("INSERT INTO %s (item_key, stored_at, payload) VALUES (?, ?, ?)", table)
	if _, err := s.db.ExecContext(ctx, q, item.ItemKey(), s.now().UTC(), string(payload)); err != nil {
		return fmt.Errorf("%w: put item %s: %w", models.ErrStorage, item.ItemKey(), err)
	}
	return nil
}
