package store

import (
	"context"
	"fmt"

	"github.com/getpup/pupbase/core"
)

// Tables maps each registered model to its backing document table and
// knows how to create that schema. A model named "orders" with table
// prefix "model_" lives in "model_orders".
type Tables struct {
	registry *core.Registry
	prefix   string
}

// NewTables creates a Tables bound to registry, using prefix for every
// model's table name.
func NewTables(registry *core.Registry, prefix string) *Tables {
	if prefix == "" {
		prefix = "model_"
	}
	return &Tables{registry: registry, prefix: prefix}
}

// TableName returns the backing table name for a model.
func (t *Tables) TableName(model string) string {
	return t.prefix + model
}

// EnsureSchema creates one table per registered model, if it doesn't
// already exist. Each table has an id primary key and a single JSON
// document column.
func (t *Tables) EnsureSchema(ctx context.Context, tx core.DBTX) error {
	for _, name := range t.registry.Names() {
		ddl := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				doc TEXT NOT NULL DEFAULT '{}'
			)
		`, t.TableName(name))
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("store: failed to create table for model %q: %w", name, err)
		}
	}
	return nil
}

// Bind returns a core.Store that serves every registered model's
// View/RWView against the given DBTX. Use a write transaction inside the
// dispatch engine, or a dedicated read-only connection for standalone
// store.<model> reads outside a dispatch.
func (t *Tables) Bind(tx core.DBTX) *BoundStore {
	return &BoundStore{tables: t, tx: tx}
}

// BoundStore implements core.Store against a single DBTX.
type BoundStore struct {
	tables *Tables
	tx     core.DBTX
}

var _ core.Store = (*BoundStore)(nil)

// View implements core.Store.
func (b *BoundStore) View(name string) (core.View, bool) {
	if _, ok := b.tables.registry.Get(name); !ok {
		return nil, false
	}
	return &SQLiteView{table: b.tables.TableName(name), tx: b.tx}, true
}

// RWView implements core.Store.
func (b *BoundStore) RWView(name string) (core.RWView, bool) {
	model, ok := b.tables.registry.Get(name)
	if !ok {
		return nil, false
	}
	table := b.tables.TableName(name)
	return &SQLiteRWView{SQLiteView: SQLiteView{table: table, tx: b.tx}, model: model}, true
}
