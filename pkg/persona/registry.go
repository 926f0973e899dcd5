package persona

import (
	"fmt"
	"sync"
)

// Registry manages persona registration and lookup.
type Registry struct {
	mu       sync.RWMutex
	personas map[string]Persona
	order    []string // Maintains registration order
}

// NewRegistry creates a registry pre-loaded with the built-in personas.
func NewRegistry() *Registry {
	r := &Registry{
		personas: make(map[string]Persona),
	}
	for _, p := range Builtins() {
		// Built-ins are well-formed, error impossible
		_ = r.Register(p)
	}
	return r
}

// NewEmptyRegistry creates a registry with no personas.
func NewEmptyRegistry() *Registry {
	return &Registry{
		personas: make(map[string]Persona),
	}
}

// Register adds a persona to the registry.
func (r *Registry) Register(p Persona) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		return fmt.Errorf("persona id cannot be empty")
	}
	if p.System == "" {
		return fmt.Errorf("persona %q has no system prompt", p.ID)
	}

	if _, exists := r.personas[p.ID]; exists {
		return fmt.Errorf("persona %q already registered", p.ID)
	}

	r.personas[p.ID] = p
	r.order = append(r.order, p.ID)
	return nil
}

// Unregister removes a persona from the registry.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.personas[id]; !exists {
		return fmt.Errorf("persona %q not found", id)
	}

	delete(r.personas, id)

	for i, n := range r.order {
		if n == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return nil
}

// Get retrieves a persona by id.
func (r *Registry) Get(id string) (Persona, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.personas[id]
	return p, exists
}

// List returns all personas in registration order.
func (r *Registry) List() []Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()

	personas := make([]Persona, len(r.order))
	for i, id := range r.order {
		personas[i] = r.personas[id]
	}
	return personas
}

// FindByFocus returns the personas carrying the given focus tag.
func (r *Registry) FindByFocus(focus string) []Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Persona
	for _, id := range r.order {
		if r.personas[id].Focus == focus {
			matched = append(matched, r.personas[id])
		}
	}
	return matched
}

// HasFocus reports whether any registered persona carries the focus tag.
func (r *Registry) HasFocus(focus string) bool {
	return len(r.FindByFocus(focus)) > 0
}

// Count returns the number of registered personas.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.personas)
}

// Names returns the ids of all registered personas.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
