package core

import "fmt"

// Event is an immutable-once-handled unit of change in the append-only
// log. V is monotonically increasing, dense, and unique; a root event
// (dispatched externally) advances the persisted version pointer V in the
// metadata model. A child event shares its parent's V and appears in the
// parent's Events slice in depth-first dispatch order.
type Event struct {
	V      int64          `json:"v"`
	Type   string         `json:"type"`
	TS     int64          `json:"ts"`
	Data   any            `json:"data,omitempty"`
	Result map[string]any `json:"result,omitempty"`
	Events []*Event       `json:"events,omitempty"`
	Error  map[string]any `json:"error,omitempty"`
}

// Handled reports whether the event has a populated result and no
// error — the terminal-success state.
func (e *Event) Handled() bool {
	return e != nil && e.Result != nil && e.Error == nil
}

// Failed reports whether the event is in the terminal-failure state.
func (e *Event) Failed() bool {
	return e != nil && e.Error != nil
}

// PipelineError is the Go error form of Event.Error: a phase-keyed map of
// failure causes. It is what HandledVersion's future rejects with, and
// what gets written back verbatim into the event row's error column.
type PipelineError map[string]any

// Error implements the error interface by rendering the failing keys.
func (e PipelineError) Error() string {
	if len(e) == 0 {
		return "pipeline error"
	}
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	return fmt.Sprintf("pipeline error: %v", keys)
}

// Merge folds other into e, overwriting any colliding keys. Used to
// accumulate phase errors onto the root event's error map.
func (e PipelineError) Merge(other map[string]any) {
	for k, v := range other {
		e[k] = v
	}
}
