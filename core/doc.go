// Package core provides the fundamental types and interfaces shared by the
// event dispatch engine: events, models, the model registry, the in-process
// emitter, and the reserved metadata model.
//
// # Overview
//
// core defines the vocabulary the rest of the module is built on:
//   - Event: an append-only, versioned unit of change
//   - Model: a named document collection with optional pipeline handlers
//   - Registry: an insertion-ordered name -> Model map
//   - Emitter: in-process pub/sub for result/error/begin/end/rollback signals
//   - DBTX: a database transaction abstraction shared with queue/store/sqlconn
//
// # Design Philosophy
//
// Errors are data, not exceptions in flight: a failed event carries a
// phase-keyed map describing exactly what went wrong, and that same map is
// what callers see when a dispatch's handled-version future rejects.
//
// Models are a record of optional handler slots (Preprocessor, Reducer,
// Deriver), not a class hierarchy — a model that only needs a reducer
// leaves the other two nil and pays nothing for them.
//
// # Quick Start
//
// Register a model in the registry that the dispatch engine is built
// around:
//
//	reg := core.NewRegistry()
//	reg.Register(core.Model{
//	    Name: "counters",
//	    Reducer: func(ctx context.Context, hc *core.HandlerContext) (core.Reduction, error) {
//	        // describe writes, never perform them here
//	        return core.Reduction{Upd: []core.PartialUpdate{{ID: "totals", Set: map[string]any{"n": 1}}}}, nil
//	    },
//	})
package core
