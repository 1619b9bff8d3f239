package core

import "context"

// View is the read-only surface of a model, available outside a dispatch
// (served from a separate read connection, seeing only committed state)
// and inside one (seeing post-apply state of prior phases).
type View interface {
	// Get returns the row with the given id, or (nil, nil) if absent.
	Get(ctx context.Context, id string) (*Row, error)

	// SearchOne returns the first row matching a dotted-JSON-path query,
	// or (nil, nil) if none match. An empty query returns an arbitrary row.
	SearchOne(ctx context.Context, query string) (*Row, error)
}

// RWView is the transaction-scoped writable surface of a model. It is
// never exposed to preprocessors or reducers directly — the apply phase
// is the only place Reduction values become writes — but derivers may
// call it to perform additional writes beyond what a Reduction describes.
type RWView interface {
	View

	Set(ctx context.Context, rows []Row) error
	Ins(ctx context.Context, rows []Row) error
	Upd(ctx context.Context, updates []PartialUpdate) error
	Rm(ctx context.Context, ids []string) error
}

// Store gives handlers name-addressed access to every registered model's
// view. Reducers and derivers use it to read (and, for derivers, write)
// state belonging to models other than their own.
type Store interface {
	// View returns the read-only view for a model, or (nil, false) if no
	// such model is registered.
	View(name string) (View, bool)

	// RWView returns the writable view for a model within the current
	// transaction, or (nil, false) if no such model is registered or the
	// store is not transaction-scoped.
	RWView(name string) (RWView, bool)
}
