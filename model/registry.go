package model

import (
	"fmt"
	"sort"
	"sync"
)

// Spec names a model together with its parameter and variable labels.
type Spec struct {
	Name   string
	Params []string
	Vars   []string
	Model  Model
}

// Validate checks the spec is self-consistent.
func (s Spec) Validate() error {
	switch {
	case s.Name == "":
		return fmt.Errorf("empty name: %w", ErrBadSpec)
	case s.Model == nil:
		return fmt.Errorf("%s: nil model: %w", s.Name, ErrBadSpec)
	case s.Model.NumParams() <= 0:
		return fmt.Errorf("%s: no parameters: %w", s.Name, ErrBadSpec)
	case len(s.Params) != 0 && len(s.Params) != s.Model.NumParams():
		return fmt.Errorf("%s: %d parameter names for %d parameters: %w",
			s.Name, len(s.Params), s.Model.NumParams(), ErrBadSpec)
	}

	return nil
}

// ParamNames returns the parameter labels, synthesizing p0, p1, ... when none were given.
func (s Spec) ParamNames() []string {
	if len(s.Params) != 0 {
		return append([]string(nil), s.Params...)
	}
	names := make([]string, s.Model.NumParams())
	for i := range names {
		names[i] = fmt.Sprintf("p%d", i)
	}

	return names
}

// Registry is a name → Spec table, safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]Spec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]Spec)}
}

// Register adds spec. Errors: ErrBadSpec, ErrDuplicate.
func (r *Registry) Register(spec Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.specs[spec.Name]; ok {
		return fmt.Errorf("%s: %w", spec.Name, ErrDuplicate)
	}
	r.specs[spec.Name] = spec

	return nil
}

// Lookup returns the spec registered under name. Errors: ErrUnknownModel.
func (r *Registry) Lookup(name string) (Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[name]
	if !ok {
		return Spec{}, fmt.Errorf("%q: %w", name, ErrUnknownModel)
	}

	return s, nil
}

// Names returns the registered names in lexicographic order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.specs))
	for n := range r.specs {
		names = append(names, n)
	}
	sort.Strings(names)

	return names
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the shared registry pre-populated with the built-in catalog.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry()
		for _, s := range builtins() {
			if err := defaultReg.Register(s); err != nil {
				panic(err) // built-in catalog is static
			}
		}
	})

	return defaultReg
}
