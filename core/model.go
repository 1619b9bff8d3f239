package core

// ColumnDef describes one JSON-valued column of a model's document
// schema. The id column is implicit and never listed here. Columns
// don't change the backing SQL table, which always has a single doc
// blob regardless of what a model declares — they exist so a store can
// apply per-column defaults.
type ColumnDef struct {
	Name string
	// Default, when non-nil, is used to populate the column on Ins
	// through a model-bound RWView when the caller's row omits it.
	Default any
}

// Model is a named document collection with up to three optional
// pipeline handlers. A capability (has-preprocessor, has-reducer,
// has-deriver) is simply a nil-or-not-nil handler slot rather than a
// type in a class hierarchy — a model that only reduces leaves
// Preprocessor and Deriver nil and costs nothing extra in the pipeline.
type Model struct {
	Name    string
	Columns []ColumnDef

	Preprocessor Preprocessor
	Reducer      Reducer
	Deriver      Deriver
}

// HasPreprocessor reports whether this model participates in the
// preprocess phase.
func (m Model) HasPreprocessor() bool { return m.Preprocessor != nil }

// HasReducer reports whether this model participates in the reduce
// phase.
func (m Model) HasReducer() bool { return m.Reducer != nil }

// HasDeriver reports whether this model participates in the derive
// phase.
func (m Model) HasDeriver() bool { return m.Deriver != nil }
