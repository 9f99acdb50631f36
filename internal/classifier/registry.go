package classifier

import (
	"fmt"
	"sort"

	"ThreatMonitor/internal/ports"
)

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	strategies map[string]ports.Classifier
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]ports.Classifier{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(strategy ports.Classifier) {
	if r.strategies == nil {
		r.strategies = map[string]ports.Classifier{}
	}
	r.strategies[strategy.Name()] = strategy
}

// Resolve returns a strategy by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.Classifier, error) {
	if strategy, ok := r.strategies[name]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("classifier %q is not registered (available: %v)", name, r.Names())
}

// Names lists registered strategies in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
