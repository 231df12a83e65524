// SPDX-License-Identifier: Apache-2.0

package operator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registry maps operator names to their factories. Operators are registered
// explicitly by the host before any pipeline is built.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

var (
	ErrUnknownOperator    = errors.New("unknown operator")
	ErrDuplicateOperator  = errors.New("operator already registered")
	ErrMissingDownstream  = errors.New("operator requires a downstream processor")
	errInvalidRegistation = errors.New("operator name and factory are required")
)

func NewRegistry() *Registry {
	return &Registry{
		factories: map[string]Factory{},
	}
}

func (r *Registry) Register(name string, factory Factory) error {
	if name == "" || factory == nil {
		return errInvalidRegistation
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.factories[name]; found {
		return fmt.Errorf("%w: %s", ErrDuplicateOperator, name)
	}
	r.factories[name] = factory
	return nil
}

// New builds an instance of the named operator.
func (r *Registry) New(ctx context.Context, name string, params *Params) (Operator, error) {
	r.mu.RLock()
	factory, found := r.factories[name]
	r.mu.RUnlock()
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperator, name)
	}
	if params == nil || params.Next == nil {
		return nil, ErrMissingDownstream
	}
	return factory(ctx, params)
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
