package models

import (
	"encoding/json"
	"sort"
)

// StrategyID is the stable identifier of a registered strategy
type StrategyID string

// Registered strategy identifiers
const (
	StrategyRSI         StrategyID = "rsi"
	StrategyMACrossover StrategyID = "ma_crossover"
	StrategyBollinger   StrategyID = "bollinger_bands"
)

// ParameterSpec declares a named numeric strategy parameter
type ParameterSpec struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Default     float64 `json:"default"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Integer     bool    `json:"integer"`
}

// StrategyDefinition describes a strategy and its parameter schema.
// Definitions are immutable once registered.
type StrategyDefinition struct {
	ID          StrategyID      `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterSpec `json:"parameters"`
}

// Defaults returns the default value of every declared parameter
func (d StrategyDefinition) Defaults() Parameters {
	params := make(Parameters, len(d.Parameters))
	for _, p := range d.Parameters {
		params[p.Name] = p.Default
	}
	return params
}

// Parameter returns the spec for name
func (d StrategyDefinition) Parameter(name string) (ParameterSpec, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterSpec{}, false
}

// Parameters holds bound strategy parameter values by name
type Parameters map[string]float64

// Int returns the named parameter truncated to an int
func (p Parameters) Int(name string) int {
	return int(p[name])
}

// Clone returns an independent copy of p
func (p Parameters) Clone() Parameters {
	if p == nil {
		return nil
	}
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Names returns the parameter names in sorted order
func (p Parameters) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// JSON encodes the parameters; encoding/json sorts map keys
func (p Parameters) JSON() json.RawMessage {
	data, _ := json.Marshal(p)
	return data
}
