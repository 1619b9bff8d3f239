package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/getpup/pupbase/core"
)

// SQLiteView is the read-only view of a model's document table.
type SQLiteView struct {
	table string
	tx    core.DBTX
}

var _ core.View = (*SQLiteView)(nil)

// Get implements core.View.
func (v *SQLiteView) Get(ctx context.Context, id string) (*core.Row, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE id = ?`, v.table)
	var doc string
	err := v.tx.QueryRowContext(ctx, query, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: failed to get %s/%s: %w", v.table, id, err)
	}
	return decodeRow(id, doc)
}

// SearchOne implements core.View. query, if non-empty, is either a bare
// dotted JSON path ("address.city") meaning "truthy at that path", or a
// "path==value" equality match. A nil/empty query returns an arbitrary
// row. This linear scan is intentionally simple: a real query planner
// over the underlying engine is out of scope here.
func (v *SQLiteView) SearchOne(ctx context.Context, query string) (*core.Row, error) {
	path, want, hasWant := parseQuery(query)

	rows, err := v.tx.QueryContext(ctx, fmt.Sprintf(`SELECT id, doc FROM %s`, v.table))
	if err != nil {
		return nil, fmt.Errorf("store: failed to scan %s: %w", v.table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("store: failed to scan row in %s: %w", v.table, err)
		}
		if path == "" {
			return decodeRow(id, doc)
		}
		result := gjson.Get(doc, path)
		if hasWant {
			if result.String() != want {
				continue
			}
		} else if !isTruthy(result) {
			continue
		}
		return decodeRow(id, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: rows error in %s: %w", v.table, err)
	}
	return nil, nil
}

// isTruthy reports whether a gjson result counts as present for a
// bare-path query: it exists and is not false, zero, or an empty
// string.
func isTruthy(result gjson.Result) bool {
	if !result.Exists() {
		return false
	}
	switch result.Type {
	case gjson.False:
		return false
	case gjson.Number:
		return result.Num != 0
	case gjson.String:
		return result.Str != ""
	default:
		return true
	}
}

func parseQuery(query string) (path, want string, hasWant bool) {
	if query == "" {
		return "", "", false
	}
	if idx := strings.Index(query, "=="); idx >= 0 {
		return query[:idx], query[idx+2:], true
	}
	return query, "", false
}

func decodeRow(id, doc string) (*core.Row, error) {
	var columns map[string]any
	if err := json.Unmarshal([]byte(doc), &columns); err != nil {
		return nil, fmt.Errorf("store: failed to decode document for %s: %w", id, err)
	}
	return &core.Row{ID: id, Columns: columns}, nil
}
