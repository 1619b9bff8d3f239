package core

import "context"

// DispatchFunc appends a child event of the given type to the current
// event tree node's children, in call order. It is synchronous and
// returns nothing — dispatching from inside a handler is an append, not
// a round trip.
type DispatchFunc func(typ string, data any)

// HandlerContext is passed to every phase handler. IsMainEvent is true
// iff Event is the root (depth 0) of the current dispatch tree.
type HandlerContext struct {
	Event       *Event
	Model       *Model
	Store       Store
	Dispatch    DispatchFunc
	IsMainEvent bool
}

// PreprocessOutcome is what a Preprocessor may return besides an error.
// Replace, if non-nil, substitutes the event entirely (rare — most
// preprocessors mutate hc.Event.Data/Type in place and return a zero
// PreprocessOutcome). ExplicitError, if non-nil, is an {error: ...}
// form: it aborts the event exactly like a returned Go error would, but
// without one.
type PreprocessOutcome struct {
	Replace       *Event
	ExplicitError any
}

// Preprocessor may mutate hc.Event.Data/Type in place, return a
// replacement event, or signal failure via ExplicitError or a returned
// error. It must never delete hc.Event.Type or change hc.Event.V; doing
// so aborts the event with a forbidden-mutation error regardless of the
// preprocessor's own return value.
type Preprocessor func(ctx context.Context, hc *HandlerContext) (PreprocessOutcome, error)

// Reducer describes writes for its model without performing them, and
// may append child events (directly via hc.Dispatch, or via
// Reduction.Events). Reducers must not call RWView methods — the apply
// phase is solely responsible for turning a Reduction into writes.
type Reducer func(ctx context.Context, hc *HandlerContext) (Reduction, error)

// Deriver runs after apply, with access to every model's post-apply
// state through hc.Store. It may write directly via RWView and may
// dispatch further child events.
type Deriver func(ctx context.Context, hc *HandlerContext) error
