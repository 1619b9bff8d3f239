package core

import "fmt"

// Registry is an insertion-ordered name -> Model map. Insertion order is
// authoritative for every phase that iterates "all registered models" —
// it is part of the contract, not an implementation detail.
type Registry struct {
	order  []string
	models map[string]*Model
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Model)}
}

// Register adds a model, preserving insertion order. Registering a name
// twice is an error — model identity is load-bearing for apply ordering
// and result keys.
func (r *Registry) Register(m Model) error {
	if m.Name == "" {
		return fmt.Errorf("core: model must have a non-empty name")
	}
	if _, exists := r.models[m.Name]; exists {
		return fmt.Errorf("core: model %q already registered", m.Name)
	}
	mm := m
	r.models[m.Name] = &mm
	r.order = append(r.order, m.Name)
	return nil
}

// Get returns the model with the given name, if registered.
func (r *Registry) Get(name string) (*Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

// Names returns model names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Models returns models in registration order.
func (r *Registry) Models() []*Model {
	out := make([]*Model, len(r.order))
	for i, name := range r.order {
		out[i] = r.models[name]
	}
	return out
}
