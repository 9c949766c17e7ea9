package strategy

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/yourusername/cryptodash-backtest/internal/models"
)

// Registry maps strategy identifiers to implementations
type Registry struct {
	mu         sync.RWMutex
	strategies map[models.StrategyID]Strategy
	order      []models.StrategyID
}

// NewRegistry returns a registry holding the built-in strategies
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[models.StrategyID]Strategy)}
	r.Register(NewRSI())
	r.Register(NewMACrossover())
	r.Register(NewBollingerBands())
	return r
}

// Register adds or replaces a strategy under its definition ID
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := s.Definition().ID
	if _, exists := r.strategies[id]; !exists {
		r.order = append(r.order, id)
	}
	r.strategies[id] = s
}

// Get returns the strategy registered under id
func (r *Registry) Get(id models.StrategyID) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownStrategy, id)
	}
	return s, nil
}

// Definitions lists registered strategies in registration order
func (r *Registry) Definitions() []models.StrategyDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]models.StrategyDefinition, 0, len(r.order))
	for _, id := range r.order {
		defs = append(defs, r.strategies[id].Definition())
	}
	return defs
}

// Bind resolves id and validates params against its schema. Missing
// parameters take their defaults; the returned set is complete.
func (r *Registry) Bind(id models.StrategyID, params models.Parameters) (Strategy, models.Parameters, error) {
	s, err := r.Get(id)
	if err != nil {
		return nil, nil, err
	}

	bound, err := BindParameters(s.Definition(), params)
	if err != nil {
		return nil, nil, err
	}
	if err := s.Check(bound); err != nil {
		return nil, nil, err
	}
	return s, bound, nil
}

// BindParameters overlays params on the definition defaults and range-checks
// every value.
func BindParameters(def models.StrategyDefinition, params models.Parameters) (models.Parameters, error) {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := def.Parameter(name); !ok {
			return nil, &models.InvalidParametersError{Parameter: name, Reason: "unknown parameter for strategy " + string(def.ID)}
		}
	}

	bound := def.Defaults()
	for _, name := range names {
		bound[name] = params[name]
	}

	for _, spec := range def.Parameters {
		v := bound[spec.Name]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &models.InvalidParametersError{Parameter: spec.Name, Reason: "must be a finite number"}
		}
		if v < spec.Min || v > spec.Max {
			return nil, &models.InvalidParametersError{
				Parameter: spec.Name,
				Reason:    fmt.Sprintf("%g outside valid range [%g, %g]", v, spec.Min, spec.Max),
			}
		}
		if spec.Integer && v != math.Trunc(v) {
			return nil, &models.InvalidParametersError{Parameter: spec.Name, Reason: fmt.Sprintf("%g must be a whole number", v)}
		}
	}
	return bound, nil
}
