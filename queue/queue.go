package queue

import (
	"context"

	"github.com/getpup/pupbase/core"
)

// Queue is the append-only, monotonic event log. v is strictly
// monotonic and dense starting from 1; concurrent
// Adds are serialized by the enclosing write-transaction discipline, not
// by the Queue itself.
type Queue interface {
	// Add allocates v = max(v)+1 and inserts a row with a null result.
	// It returns the newly inserted event.
	Add(ctx context.Context, tx core.DBTX, typ string, data any, ts int64) (*core.Event, error)

	// Set upserts a full event row at ev.V. Used both for replay (a
	// caller seeds an existing v with a non-null Events and a null
	// Result) and by the engine to write back Result/Events/Error after
	// processing.
	Set(ctx context.Context, tx core.DBTX, ev *core.Event) error

	// Get returns the event at v, or (nil, nil) if no such row exists.
	Get(ctx context.Context, tx core.DBTX, v int64) (*core.Event, error)

	// GetNext returns the event with the smallest v > afterV, or (nil,
	// nil) if none exists.
	GetNext(ctx context.Context, tx core.DBTX, afterV int64) (*core.Event, error)

	// GetMaxV returns the highest v currently stored, or 0 if the queue
	// is empty.
	GetMaxV(ctx context.Context, tx core.DBTX) (int64, error)
}
