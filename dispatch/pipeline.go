package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/getpup/pupbase/core"
)

// runNode executes the preprocess/reduce/apply/derive phases on event,
// then recurses depth-first into every child it accumulates along the
// way. path is the 1-based child-index chain from the root to event,
// used to path-qualify a phase-error key when the failure occurs below
// the root. typeChain is the dot-joined type chain from the root to
// event, used only to render the recursion-guard's "deep" message.
func (e *Engine) runNode(ctx context.Context, tx core.DBTX, st core.Store, event *core.Event, depth int, path []int, typeChain string) error {
	if depth > e.config.MaxDepth {
		return core.PipelineError{"_handle": fmt.Sprintf("%s:deep", typeChain)}
	}

	isMain := depth == 0
	dispatchFn := func(typ string, data any) {
		event.Events = append(event.Events, &core.Event{V: event.V, Type: typ, TS: event.TS, Data: data})
	}

	if err := e.runPreprocess(ctx, event, st, dispatchFn, isMain, path); err != nil {
		return err
	}

	results := make(map[string]any)
	reductions := make(map[string]core.Reduction)
	if err := e.runReduce(ctx, event, st, dispatchFn, isMain, path, results, reductions); err != nil {
		return err
	}

	if err := e.runApply(ctx, tx, st, reductions, path); err != nil {
		return err
	}

	if err := e.runDerive(ctx, event, st, dispatchFn, isMain, path); err != nil {
		return err
	}

	event.Result = results

	for i, child := range event.Events {
		childPath := append(append([]int{}, path...), i+1)
		childChain := typeChain + "." + child.Type
		if err := e.runNode(ctx, tx, st, child, depth+1, childPath, childChain); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) runPreprocess(ctx context.Context, event *core.Event, st core.Store, dispatchFn core.DispatchFunc, isMain bool, path []int) error {
	for _, m := range e.registry.Models() {
		if !m.HasPreprocessor() {
			continue
		}
		origV := event.V
		hc := &core.HandlerContext{Event: event, Model: m, Store: st, Dispatch: dispatchFn, IsMainEvent: isMain}
		outcome, err := m.Preprocessor(ctx, hc)
		if err != nil {
			return phaseError("_preprocess_", m.Name, path, err.Error())
		}
		if event.Type == "" {
			return phaseError("_preprocess_", m.Name, path, "preprocessor deleted event type")
		}
		if event.V != origV {
			// Restore V so the failure is recorded, and its waiters
			// notified, at the event's own version.
			event.V = origV
			return phaseError("_preprocess_", m.Name, path, "preprocessor changed event version")
		}
		if outcome.ExplicitError != nil {
			return phaseError("_preprocess_", m.Name, path, outcome.ExplicitError)
		}
		if outcome.Replace != nil {
			if outcome.Replace.Type == "" {
				return phaseError("_preprocess_", m.Name, path, "replacement event has empty type")
			}
			if outcome.Replace.V != origV {
				return phaseError("_preprocess_", m.Name, path, "replacement event changed version")
			}
			event.Type = outcome.Replace.Type
			event.Data = outcome.Replace.Data
		}
	}
	return nil
}

func (e *Engine) runReduce(ctx context.Context, event *core.Event, st core.Store, dispatchFn core.DispatchFunc, isMain bool, path []int, results map[string]any, reductions map[string]core.Reduction) error {
	writeModel, isSystemWrite := parseSystemWriteType(event.Type)
	var write systemWrite
	if isSystemWrite {
		var err error
		write, err = decodeSystemWrite(event.Data)
		if err != nil {
			return phaseError("_reduce_", writeModel, path, err.Error())
		}
	}

	for _, m := range e.registry.Models() {
		if isSystemWrite && m.Name == writeModel {
			reduction := core.Reduction{Set: write.Set, Ins: write.Ins, Upd: write.Upd, Rm: write.Rm}
			if !reduction.IsEmpty() {
				results[m.Name] = reduction
				reductions[m.Name] = reduction
			}
			continue
		}
		if !m.HasReducer() {
			continue
		}
		hc := &core.HandlerContext{Event: event, Model: m, Store: st, Dispatch: dispatchFn, IsMainEvent: isMain}
		reduction, err := m.Reducer(ctx, hc)
		if err != nil {
			return phaseError("_reduce_", m.Name, path, err.Error())
		}
		// Resolve ids here, before the reduction is captured into
		// results/event.Result, so the id apply actually writes is the
		// same one replay sees in the persisted event — not a second,
		// different random id SQLiteRWView.Ins/Set would otherwise mint.
		reduction.Set = assignIDs(reduction.Set)
		reduction.Ins = assignIDs(reduction.Ins)
		if !reduction.IsEmpty() {
			results[m.Name] = reduction
			reductions[m.Name] = reduction
		}
		for _, spec := range reduction.Events {
			event.Events = append(event.Events, &core.Event{V: event.V, Type: spec.Type, TS: event.TS, Data: spec.Data})
		}
	}
	return nil
}

func (e *Engine) runApply(ctx context.Context, tx core.DBTX, st core.Store, reductions map[string]core.Reduction, path []int) error {
	for _, name := range e.registry.Names() {
		reduction, ok := reductions[name]
		if !ok {
			continue
		}
		rw, ok := st.RWView(name)
		if !ok {
			return phaseError("_apply_", name, path, "model has no writable view")
		}
		if len(reduction.Rm) > 0 {
			if err := rw.Rm(ctx, reduction.Rm); err != nil {
				return phaseError("_apply_", name, path, err.Error())
			}
		}
		if len(reduction.Ins) > 0 {
			if err := rw.Ins(ctx, reduction.Ins); err != nil {
				return phaseError("_apply_", name, path, err.Error())
			}
		}
		if len(reduction.Set) > 0 {
			if err := rw.Set(ctx, reduction.Set); err != nil {
				return phaseError("_apply_", name, path, err.Error())
			}
		}
		if len(reduction.Upd) > 0 {
			if err := rw.Upd(ctx, reduction.Upd); err != nil {
				return phaseError("_apply_", name, path, err.Error())
			}
		}
	}
	return nil
}

func (e *Engine) runDerive(ctx context.Context, event *core.Event, st core.Store, dispatchFn core.DispatchFunc, isMain bool, path []int) error {
	for _, m := range e.registry.Models() {
		if !m.HasDeriver() {
			continue
		}
		hc := &core.HandlerContext{Event: event, Model: m, Store: st, Dispatch: dispatchFn, IsMainEvent: isMain}
		if err := m.Deriver(ctx, hc); err != nil {
			return phaseError("_derive_", m.Name, path, err.Error())
		}
	}
	return nil
}

// phaseError builds a core.PipelineError with a single key: the phase
// prefix and model name, suffixed with a dotted 1-based child-index
// path when the failure occurred below the root event.
func phaseError(prefix, model string, path []int, value any) core.PipelineError {
	return core.PipelineError{prefix + model + pathSuffix(path): value}
}

func pathSuffix(path []int) string {
	if len(path) == 0 {
		return ""
	}
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return "." + strings.Join(parts, ".")
}
