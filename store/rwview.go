package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"

	"github.com/getpup/pupbase/core"
)

// SQLiteRWView is the transaction-scoped writable view of a model's
// document table, as seen by derivers via rwStore.<model>. Writes are
// applied immediately against the enclosing transaction;
// durability depends entirely on whether that transaction later
// commits.
type SQLiteRWView struct {
	SQLiteView
	// model is the view's own model, used to apply ColumnDef.Default on
	// Ins. It is nil for a SQLiteRWView built outside BoundStore.RWView,
	// in which case defaults are simply not applied.
	model *core.Model
}

var _ core.RWView = (*SQLiteRWView)(nil)

// Set implements core.RWView: it replaces the entire document for
// each row, creating rows that don't yet exist.
func (v *SQLiteRWView) Set(ctx context.Context, rows []core.Row) error {
	for _, row := range rows {
		id := row.ID
		if id == "" {
			id = uuid.New().String()
		}
		doc, err := json.Marshal(row.Columns)
		if err != nil {
			return fmt.Errorf("store: failed to marshal row %s/%s: %w", v.table, id, err)
		}
		query := fmt.Sprintf(`
			INSERT INTO %s (id, doc) VALUES (?, ?)
			ON CONFLICT (id) DO UPDATE SET doc = excluded.doc
		`, v.table)
		if _, err := v.tx.ExecContext(ctx, query, id, string(doc)); err != nil {
			return fmt.Errorf("store: failed to set %s/%s: %w", v.table, id, err)
		}
	}
	return nil
}

// Ins implements core.RWView: it inserts new rows, assigning a random
// id to any row whose ID is empty, and filling in any column the model
// declares a Default for that the row's Columns omits. Ins fails if an
// id already exists.
func (v *SQLiteRWView) Ins(ctx context.Context, rows []core.Row) error {
	for _, row := range rows {
		id := row.ID
		if id == "" {
			id = uuid.New().String()
		}
		doc, err := json.Marshal(applyColumnDefaults(v.model, row.Columns))
		if err != nil {
			return fmt.Errorf("store: failed to marshal row %s/%s: %w", v.table, id, err)
		}
		query := fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES (?, ?)`, v.table)
		if _, err := v.tx.ExecContext(ctx, query, id, string(doc)); err != nil {
			return fmt.Errorf("store: failed to insert %s/%s: %w", v.table, id, err)
		}
	}
	return nil
}

// applyColumnDefaults returns columns with any of model's declared
// column defaults filled in for keys it omits. A nil model or one with
// no Columns returns columns unchanged.
func applyColumnDefaults(model *core.Model, columns map[string]any) map[string]any {
	if model == nil || len(model.Columns) == 0 {
		return columns
	}
	out := make(map[string]any, len(columns)+len(model.Columns))
	for k, v := range columns {
		out[k] = v
	}
	for _, col := range model.Columns {
		if col.Default == nil {
			continue
		}
		if _, exists := out[col.Name]; !exists {
			out[col.Name] = col.Default
		}
	}
	return out
}

// Upd implements core.RWView: it applies partial updates to existing
// rows' documents, treating each key in an update's Set as a dotted
// JSON path within the document rather than a top-level SQL column.
// Upd fails if any target row doesn't exist.
func (v *SQLiteRWView) Upd(ctx context.Context, updates []core.PartialUpdate) error {
	for _, update := range updates {
		selectQuery := fmt.Sprintf(`SELECT doc FROM %s WHERE id = ?`, v.table)
		var doc string
		err := v.tx.QueryRowContext(ctx, selectQuery, update.ID).Scan(&doc)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("store: cannot update %s/%s: row does not exist", v.table, update.ID)
			}
			return fmt.Errorf("store: failed to read %s/%s for update: %w", v.table, update.ID, err)
		}

		for path, value := range update.Set {
			doc, err = sjson.Set(doc, path, value)
			if err != nil {
				return fmt.Errorf("store: failed to set path %q on %s/%s: %w", path, v.table, update.ID, err)
			}
		}

		updateQuery := fmt.Sprintf(`UPDATE %s SET doc = ? WHERE id = ?`, v.table)
		if _, err := v.tx.ExecContext(ctx, updateQuery, doc, update.ID); err != nil {
			return fmt.Errorf("store: failed to persist update to %s/%s: %w", v.table, update.ID, err)
		}
	}
	return nil
}

// Rm implements core.RWView: it deletes rows by id. Removing a
// nonexistent id is a no-op, matching the idempotent delete semantics
// reducers rely on during replay.
func (v *SQLiteRWView) Rm(ctx context.Context, ids []string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, v.table)
	for _, id := range ids {
		if _, err := v.tx.ExecContext(ctx, query, id); err != nil {
			return fmt.Errorf("store: failed to remove %s/%s: %w", v.table, id, err)
		}
	}
	return nil
}
