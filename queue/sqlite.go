// Package queue: SQLite-backed implementation.
package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/getpup/pupbase/core"
)

// Config contains configuration for the SQLite-backed Queue.
// Configuration is immutable after construction.
type Config struct {
	// Logger is an optional logger for observability. If nil, logging is
	// disabled (zero overhead).
	Logger core.Logger

	// Table is the name of the event queue's backing table.
	Table string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Table: "history"}
}

// Option is a functional option for configuring a SQLiteQueue.
type Option func(*Config)

// WithLogger sets a logger for the queue.
func WithLogger(logger core.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithTable sets a custom table name for the event queue.
func WithTable(table string) Option {
	return func(c *Config) { c.Table = table }
}

// NewConfig builds a configuration starting from DefaultConfig and
// applying the given options.
func NewConfig(opts ...Option) Config {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

// SQLiteQueue is a SQLite-backed Queue implementation.
type SQLiteQueue struct {
	config Config
}

// NewSQLiteQueue creates a new SQLite-backed queue with the given
// configuration.
func NewSQLiteQueue(config Config) *SQLiteQueue {
	return &SQLiteQueue{config: config}
}

var _ Queue = (*SQLiteQueue)(nil)

// Add implements Queue.
func (q *SQLiteQueue) Add(ctx context.Context, tx core.DBTX, typ string, data any, ts int64) (*core.Event, error) {
	if typ == "" {
		return nil, fmt.Errorf("queue: event type must not be empty")
	}

	maxV, err := q.GetMaxV(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("queue: failed to compute next version: %w", err)
	}
	v := maxV + 1

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("queue: failed to marshal data: %w", err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (v, type, ts, data, result, events, error)
		VALUES (?, ?, ?, ?, NULL, NULL, NULL)
	`, q.config.Table)

	if _, err := tx.ExecContext(ctx, insertQuery, v, typ, ts, string(dataJSON)); err != nil {
		return nil, fmt.Errorf("queue: failed to insert event: %w", err)
	}

	if q.config.Logger != nil {
		q.config.Logger.Debug(ctx, "event enqueued", "v", v, "type", typ)
	}

	return &core.Event{V: v, Type: typ, TS: ts, Data: data}, nil
}

// Set implements Queue.
func (q *SQLiteQueue) Set(ctx context.Context, tx core.DBTX, ev *core.Event) error {
	if ev == nil {
		return fmt.Errorf("queue: cannot set a nil event")
	}

	dataJSON, err := marshalNullable(ev.Data)
	if err != nil {
		return fmt.Errorf("queue: failed to marshal data: %w", err)
	}
	resultJSON, err := marshalNullable(ev.Result)
	if err != nil {
		return fmt.Errorf("queue: failed to marshal result: %w", err)
	}
	eventsJSON, err := marshalNullable(ev.Events)
	if err != nil {
		return fmt.Errorf("queue: failed to marshal events: %w", err)
	}
	errorJSON, err := marshalNullable(ev.Error)
	if err != nil {
		return fmt.Errorf("queue: failed to marshal error: %w", err)
	}

	upsertQuery := fmt.Sprintf(`
		INSERT INTO %s (v, type, ts, data, result, events, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (v) DO UPDATE SET
			type = excluded.type,
			ts = excluded.ts,
			data = excluded.data,
			result = excluded.result,
			events = excluded.events,
			error = excluded.error
	`, q.config.Table)

	_, err = tx.ExecContext(ctx, upsertQuery, ev.V, ev.Type, ev.TS, dataJSON, resultJSON, eventsJSON, errorJSON)
	if err != nil {
		return fmt.Errorf("queue: failed to upsert event %d: %w", ev.V, err)
	}

	if q.config.Logger != nil {
		q.config.Logger.Debug(ctx, "event row written", "v", ev.V, "handled", ev.Handled(), "failed", ev.Failed())
	}
	return nil
}

// Get implements Queue.
func (q *SQLiteQueue) Get(ctx context.Context, tx core.DBTX, v int64) (*core.Event, error) {
	query := fmt.Sprintf(`
		SELECT v, type, ts, data, result, events, error
		FROM %s WHERE v = ?
	`, q.config.Table)
	return q.scanOne(tx.QueryRowContext(ctx, query, v))
}

// GetNext implements Queue.
func (q *SQLiteQueue) GetNext(ctx context.Context, tx core.DBTX, afterV int64) (*core.Event, error) {
	query := fmt.Sprintf(`
		SELECT v, type, ts, data, result, events, error
		FROM %s WHERE v > ?
		ORDER BY v ASC LIMIT 1
	`, q.config.Table)
	return q.scanOne(tx.QueryRowContext(ctx, query, afterV))
}

// GetMaxV implements Queue.
func (q *SQLiteQueue) GetMaxV(ctx context.Context, tx core.DBTX) (int64, error) {
	query := fmt.Sprintf(`SELECT COALESCE(MAX(v), 0) FROM %s`, q.config.Table)
	var maxV int64
	if err := tx.QueryRowContext(ctx, query).Scan(&maxV); err != nil {
		return 0, fmt.Errorf("queue: failed to read max version: %w", err)
	}
	return maxV, nil
}

func (q *SQLiteQueue) scanOne(row *sql.Row) (*core.Event, error) {
	var (
		v                                         int64
		typ                                       string
		ts                                        int64
		dataStr, resultStr, eventsStr, errorStr sql.NullString
	)
	err := row.Scan(&v, &typ, &ts, &dataStr, &resultStr, &eventsStr, &errorStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue: failed to scan event: %w", err)
	}

	ev := &core.Event{V: v, Type: typ, TS: ts}
	if dataStr.Valid {
		if err := json.Unmarshal([]byte(dataStr.String), &ev.Data); err != nil {
			return nil, fmt.Errorf("queue: failed to unmarshal data for v=%d: %w", v, err)
		}
	}
	if resultStr.Valid {
		if err := json.Unmarshal([]byte(resultStr.String), &ev.Result); err != nil {
			return nil, fmt.Errorf("queue: failed to unmarshal result for v=%d: %w", v, err)
		}
	}
	if eventsStr.Valid {
		if err := json.Unmarshal([]byte(eventsStr.String), &ev.Events); err != nil {
			return nil, fmt.Errorf("queue: failed to unmarshal events for v=%d: %w", v, err)
		}
	}
	if errorStr.Valid {
		if err := json.Unmarshal([]byte(errorStr.String), &ev.Error); err != nil {
			return nil, fmt.Errorf("queue: failed to unmarshal error for v=%d: %w", v, err)
		}
	}
	return ev, nil
}

// marshalNullable marshals v to JSON, returning a driver-nil value when v
// is nil so the column stores SQL NULL rather than the literal string
// "null".
func marshalNullable(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return string(b), nil
}
