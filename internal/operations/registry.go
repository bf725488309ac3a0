package operations

import (
	"fmt"
	"sync"
)

// Registry holds the registered steps and resolves their execution order.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
	order []string
}

// NewRegistry creates an empty step registry.
func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]Step)}
}

// Register adds a step to the registry. Registering the same ID twice is an error.
func (r *Registry) Register(step Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}
	id := step.ID()
	if id == "" {
		return fmt.Errorf("cannot register step with empty ID")
	}
	if _, exists := r.steps[id]; exists {
		return fmt.Errorf("step %s already registered", id)
	}
	r.steps[id] = step
	r.order = append(r.order, id)
	return nil
}

// Get returns a registered step by ID.
func (r *Registry) Get(id string) (Step, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	step, ok := r.steps[id]
	return step, ok
}

// List returns the registered step IDs in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// GetDependencyOrder returns the step IDs in a valid execution order using
// Kahn's algorithm. Ties are broken by registration order so the result is
// deterministic. Unknown dependencies and cycles are reported as errors.
func (r *Registry) GetDependencyOrder() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inDegree := make(map[string]int, len(r.steps))
	dependents := make(map[string][]string, len(r.steps))
	for _, id := range r.order {
		inDegree[id] = 0
	}
	for _, id := range r.order {
		for _, dep := range r.steps[id].GetDependencies() {
			if _, ok := r.steps[dep]; !ok {
				return nil, fmt.Errorf("step %s depends on unknown step %s", id, dep)
			}
			inDegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var queue []string
	for _, id := range r.order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	ordered := make([]string, 0, len(r.steps))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		ordered = append(ordered, id)
		for _, next := range dependents[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(ordered) != len(r.steps) {
		return nil, fmt.Errorf("dependency cycle detected among steps")
	}
	return ordered, nil
}

// Dependents returns the IDs of steps that depend, directly or transitively,
// on the given step.
func (r *Registry) Dependents(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	direct := make(map[string][]string)
	for stepID, step := range r.steps {
		for _, dep := range step.GetDependencies() {
			direct[dep] = append(direct[dep], stepID)
		}
	}

	seen := make(map[string]bool)
	var result []string
	var visit func(string)
	visit = func(current string) {
		for _, dependent := range direct[current] {
			if !seen[dependent] {
				seen[dependent] = true
				result = append(result, dependent)
				visit(dependent)
			}
		}
	}
	visit(id)
	return result
}
