package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/getpup/pupbase/core"
)

// systemWritePrefix tags the synthetic event type RWStore dispatches
// for a write made outside a handler. Neither Registry.Register nor
// Dispatch reserves it: any event whose type starts with this prefix is
// treated as a system write for the model named after it.
const systemWritePrefix = "_write:"

func systemWriteType(model string) string {
	return systemWritePrefix + model
}

// parseSystemWriteType reports whether typ is a synthetic write event
// and, if so, which model it targets.
func parseSystemWriteType(typ string) (model string, ok bool) {
	if !strings.HasPrefix(typ, systemWritePrefix) {
		return "", false
	}
	return typ[len(systemWritePrefix):], true
}

// systemWrite is the literal change recorded as a synthetic write
// event's data — the same fields a Reducer would otherwise have put in
// a Reduction.
type systemWrite struct {
	Set []core.Row           `json:"set,omitempty"`
	Ins []core.Row           `json:"ins,omitempty"`
	Upd []core.PartialUpdate `json:"upd,omitempty"`
	Rm  []string             `json:"rm,omitempty"`
}

// decodeSystemWrite recovers a systemWrite from an event's Data, which
// is either the literal value RWStore dispatched (same process, not
// yet round-tripped through JSON) or a map[string]any left behind by
// Set/Get through the queue (replay).
func decodeSystemWrite(data any) (systemWrite, error) {
	if sw, ok := data.(systemWrite); ok {
		return sw, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return systemWrite{}, fmt.Errorf("dispatch: failed to marshal system write data: %w", err)
	}
	var sw systemWrite
	if err := json.Unmarshal(b, &sw); err != nil {
		return systemWrite{}, fmt.Errorf("dispatch: failed to decode system write data: %w", err)
	}
	return sw, nil
}

// RWStore returns a writable view of model for use outside a dispatch.
// Every write through it is recorded as a dispatched event describing
// the exact change before the write happens, so the queue stays the
// single source every mutation is derived from — the same guarantee a
// reducer's Reduction gives a write made from inside a handler. Reads
// go straight to committed state through a dedicated read connection.
func (e *Engine) RWStore(model string) (core.RWView, error) {
	if _, ok := e.registry.Get(model); !ok {
		return nil, fmt.Errorf("dispatch: model %q is not registered", model)
	}
	return &systemRWView{engine: e, model: model}, nil
}

type systemRWView struct {
	engine *Engine
	model  string
}

var _ core.RWView = (*systemRWView)(nil)

func (v *systemRWView) view(ctx context.Context) (core.View, error) {
	tx, err := v.engine.conn.Reader(ctx)
	if err != nil {
		return nil, err
	}
	view, ok := v.engine.tables.Bind(tx).View(v.model)
	if !ok {
		return nil, fmt.Errorf("dispatch: model %q is not registered", v.model)
	}
	return view, nil
}

func (v *systemRWView) Get(ctx context.Context, id string) (*core.Row, error) {
	view, err := v.view(ctx)
	if err != nil {
		return nil, err
	}
	return view.Get(ctx, id)
}

func (v *systemRWView) SearchOne(ctx context.Context, query string) (*core.Row, error) {
	view, err := v.view(ctx)
	if err != nil {
		return nil, err
	}
	return view.SearchOne(ctx, query)
}

func (v *systemRWView) Set(ctx context.Context, rows []core.Row) error {
	return v.dispatch(ctx, systemWrite{Set: assignIDs(rows)})
}

func (v *systemRWView) Ins(ctx context.Context, rows []core.Row) error {
	return v.dispatch(ctx, systemWrite{Ins: assignIDs(rows)})
}

func (v *systemRWView) Upd(ctx context.Context, updates []core.PartialUpdate) error {
	return v.dispatch(ctx, systemWrite{Upd: updates})
}

func (v *systemRWView) Rm(ctx context.Context, ids []string) error {
	return v.dispatch(ctx, systemWrite{Rm: ids})
}

func (v *systemRWView) dispatch(ctx context.Context, write systemWrite) error {
	_, err := v.engine.Dispatch(ctx, systemWriteType(v.model), write, nil)
	return err
}

// assignIDs fills in an id for any row whose ID is empty before the
// write becomes event data, so the event records exactly what gets
// written rather than a random id the apply phase would otherwise mint
// fresh on every replay.
func assignIDs(rows []core.Row) []core.Row {
	out := make([]core.Row, len(rows))
	for i, row := range rows {
		if row.ID == "" {
			row.ID = uuid.New().String()
		}
		out[i] = row
	}
	return out
}
