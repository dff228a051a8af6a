package scanner

import "fmt"

// Registry manages steps by name and remembers registration order.
type Registry struct {
	scanners map[string]Scanner
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: make(map[string]Scanner)}
}

// Register adds a step. Registering a name twice replaces the step but keeps
// its original position.
func (r *Registry) Register(s Scanner) {
	if _, exists := r.scanners[s.Name()]; !exists {
		r.order = append(r.order, s.Name())
	}
	r.scanners[s.Name()] = s
}

// Get retrieves a step by name.
func (r *Registry) Get(name string) (Scanner, error) {
	s, ok := r.scanners[name]
	if !ok {
		return nil, fmt.Errorf("scanner %q not found", name)
	}
	return s, nil
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// All returns all registered steps in registration order.
func (r *Registry) All() []Scanner {
	result := make([]Scanner, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.scanners[name])
	}
	return result
}
