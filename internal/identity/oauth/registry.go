package oauth

import "fmt"

// Registry holds all configured federated exchangers and allows
// lookup by name. It performs no auth logic itself.
type Registry struct {
	exchangers map[string]Exchanger
}

// NewRegistry registers the given exchangers by name.
// Names must be unique.
func NewRegistry(list ...Exchanger) *Registry {
	m := make(map[string]Exchanger)
	for _, e := range list {
		m[e.Name()] = e
	}
	return &Registry{exchangers: m}
}

// Get returns the exchanger by name or an error if not registered.
func (r *Registry) Get(name string) (Exchanger, error) {
	e, ok := r.exchangers[name]
	if !ok {
		return nil, fmt.Errorf("unknown oauth provider: %s", name)
	}
	return e, nil
}

// Names lists the registered exchanger names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.exchangers))
	for name := range r.exchangers {
		names = append(names, name)
	}
	return names
}
