package core

// Row is a whole document row: an id plus its JSON-valued columns.
type Row struct {
	ID      string         `json:"id"`
	Columns map[string]any `json:"columns"`
}

// PartialUpdate describes a partial write to an existing row: only the
// keys present in Set are touched.
type PartialUpdate struct {
	ID  string         `json:"id"`
	Set map[string]any `json:"set"`
}

// ChildEventSpec is a child event a reducer wants appended at the end of
// the current sibling list, described but not yet dispatched.
type ChildEventSpec struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Reduction is what a reducer returns: a description of writes to apply
// to its model, plus optionally further child events. Absent slices mean
// "no change" for that kind of write. A Reduction with every field empty
// is a no-op and is omitted from the event's Result map entirely.
type Reduction struct {
	Set    []Row            `json:"set,omitempty"`
	Ins    []Row            `json:"ins,omitempty"`
	Upd    []PartialUpdate  `json:"upd,omitempty"`
	Rm     []string         `json:"rm,omitempty"`
	Events []ChildEventSpec `json:"events,omitempty"`
}

// IsEmpty reports whether the reduction describes no writes and no child
// events at all — the "reducer returning a falsy value is a no-op" rule.
func (r Reduction) IsEmpty() bool {
	return len(r.Set) == 0 && len(r.Ins) == 0 && len(r.Upd) == 0 &&
		len(r.Rm) == 0 && len(r.Events) == 0
}
