package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/getpup/pupbase/core"
)

// MetadataConfig configures the SQLite-backed metadata model.
type MetadataConfig struct {
	Table string
}

// DefaultMetadataConfig returns the default configuration.
func DefaultMetadataConfig() MetadataConfig {
	return MetadataConfig{Table: "metadata"}
}

// SQLiteMetadata is the reserved Metadata Model: it tracks the highest
// applied version V and arbitrary
// bookkeeping counters in a single key/value table, updated in the same
// transaction as every user model.
type SQLiteMetadata struct {
	config MetadataConfig
}

// NewSQLiteMetadata creates a metadata store with the given
// configuration.
func NewSQLiteMetadata(config MetadataConfig) *SQLiteMetadata {
	return &SQLiteMetadata{config: config}
}

var _ core.MetadataStore = (*SQLiteMetadata)(nil)

const metadataVersionKey = "v"

// GetV implements core.MetadataStore.
func (m *SQLiteMetadata) GetV(ctx context.Context, tx core.DBTX) (int64, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, m.config.Table)
	var value string
	err := tx.QueryRowContext(ctx, query, metadataVersionKey).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("queue: failed to read V: %w", err)
	}
	var v int64
	if _, err := fmt.Sscanf(value, "%d", &v); err != nil {
		return 0, fmt.Errorf("queue: failed to parse V %q: %w", value, err)
	}
	return v, nil
}

// AdvanceV implements core.MetadataStore.
func (m *SQLiteMetadata) AdvanceV(ctx context.Context, tx core.DBTX, v int64) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, m.config.Table)
	_, err := tx.ExecContext(ctx, query, metadataVersionKey, fmt.Sprintf("%d", v))
	if err != nil {
		return fmt.Errorf("queue: failed to advance V to %d: %w", v, err)
	}
	return nil
}

// IncrCounter implements core.MetadataStore.
func (m *SQLiteMetadata) IncrCounter(ctx context.Context, tx core.DBTX, name string, delta int64) (int64, error) {
	key := "counter:" + name
	selectQuery := fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, m.config.Table)
	var current int64
	var value string
	err := tx.QueryRowContext(ctx, selectQuery, key).Scan(&value)
	switch {
	case err == nil:
		if _, err := fmt.Sscanf(value, "%d", &current); err != nil {
			return 0, fmt.Errorf("queue: failed to parse counter %q: %w", name, err)
		}
	case errors.Is(err, sql.ErrNoRows):
		current = 0
	default:
		return 0, fmt.Errorf("queue: failed to read counter %q: %w", name, err)
	}

	next := current + delta
	upsertQuery := fmt.Sprintf(`
		INSERT INTO %s (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, m.config.Table)
	if _, err := tx.ExecContext(ctx, upsertQuery, key, fmt.Sprintf("%d", next)); err != nil {
		return 0, fmt.Errorf("queue: failed to update counter %q: %w", name, err)
	}
	return next, nil
}
