package sampling

import (
	"sort"
	"sync"

	"github.com/san-kum/monte/internal/monte"
)

// Evaluator computes an observable from a state. It must be deterministic and
// must not retain or modify anything reachable from the state.
type Evaluator[C monte.Configuration[C]] func(s *monte.State[C]) ([]float64, error)

// Observable is a named evaluator. Components optionally names each entry of
// the returned vector so criteria can select one by name.
type Observable[C monte.Configuration[C]] struct {
	Name        string
	Description string
	Components  []string
	Evaluate    Evaluator[C]
}

// Registry maps unique names to observables.
type Registry[C monte.Configuration[C]] struct {
	mu          sync.RWMutex
	observables map[string]Observable[C]
}

func NewRegistry[C monte.Configuration[C]]() *Registry[C] {
	return &Registry[C]{observables: make(map[string]Observable[C])}
}

// Register adds an observable. Names must be unique and evaluators non-nil.
func (r *Registry[C]) Register(name, description string, eval Evaluator[C], components ...string) error {
	return r.Add(Observable[C]{
		Name:        name,
		Description: description,
		Components:  components,
		Evaluate:    eval,
	})
}

func (r *Registry[C]) Add(o Observable[C]) error {
	if o.Name == "" {
		return monte.Configf("observable", "empty name")
	}
	if o.Evaluate == nil {
		return monte.Configf("observable", "%q has no evaluator", o.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.observables[o.Name]; ok {
		return monte.Configf("observable", "%q already registered", o.Name)
	}
	o.Components = append([]string(nil), o.Components...)
	r.observables[o.Name] = o
	return nil
}

func (r *Registry[C]) Lookup(name string) (Observable[C], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.observables[name]
	if !ok {
		return Observable[C]{}, monte.Configf("observable", "%q not registered", name)
	}
	return o, nil
}

// Components returns the component names declared for an observable.
func (r *Registry[C]) Components(name string) ([]string, error) {
	o, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), o.Components...), nil
}

// Names returns the registered names, sorted.
func (r *Registry[C]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.observables))
	for name := range r.observables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
