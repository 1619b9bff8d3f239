package core

import "context"

// MetadataStore is the reserved model that tracks the highest applied
// version V and bookkeeping counters, updated in the same transaction as
// every user model. It is not a Model with handlers — the engine drives
// it directly, once per root event, after the ordinary apply phase.
type MetadataStore interface {
	// GetV returns the current persisted version pointer, or 0 if none
	// has been recorded yet.
	GetV(ctx context.Context, tx DBTX) (int64, error)

	// AdvanceV sets V to the given value. The engine calls this exactly
	// once per root event, whether it was handled or failed.
	AdvanceV(ctx context.Context, tx DBTX, v int64) error

	// IncrCounter adds delta to a named bookkeeping counter and returns
	// its new value.
	IncrCounter(ctx context.Context, tx DBTX, name string, delta int64) (int64, error)
}
