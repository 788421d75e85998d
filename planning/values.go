package planning

import (
	"github.com/zeu5/rl-planner/types"
)

// ValueInitializer gives the value of a newly discovered non-terminal state
type ValueInitializer func(types.StateKey, types.State) float64

// ConstantValue initializes every state to v
func ConstantValue(v float64) ValueInitializer {
	return func(types.StateKey, types.State) float64 {
		return v
	}
}

// WarmStart initializes states from previously computed values, falling back to def
func WarmStart(values map[types.StateKey]float64, def float64) ValueInitializer {
	return func(key types.StateKey, _ types.State) float64 {
		if v, ok := values[key]; ok {
			return v
		}
		return def
	}
}

// ValueTable maps state keys to their current value estimate.
// Entries are created on discovery and mutated only by backups.
type ValueTable struct {
	values   map[types.StateKey]float64
	init     ValueInitializer
	terminal func(types.StateKey) bool
}

var _ ExplorationListener = &ValueTable{}

func NewValueTable(init ValueInitializer, terminal func(types.StateKey) bool) *ValueTable {
	if init == nil {
		init = ConstantValue(0)
	}
	return &ValueTable{
		values:   make(map[types.StateKey]float64),
		init:     init,
		terminal: terminal,
	}
}

func (v *ValueTable) StateDiscovered(key types.StateKey, s types.State) {
	if _, ok := v.values[key]; ok {
		return
	}
	if v.terminal != nil && v.terminal(key) {
		v.values[key] = 0
		return
	}
	v.values[key] = v.init(key, s)
}

func (v *ValueTable) StateExpanded(types.StateKey, []ActionTransitions) {}

// Get returns the value of the key and whether it has an entry
func (v *ValueTable) Get(key types.StateKey) (float64, bool) {
	val, ok := v.values[key]
	return val, ok
}

// Value returns the value of the key, 0 when unknown
func (v *ValueTable) Value(key types.StateKey) float64 {
	return v.values[key]
}

func (v *ValueTable) Set(key types.StateKey, val float64) {
	v.values[key] = val
}

func (v *ValueTable) Len() int {
	return len(v.values)
}

// Snapshot copies the table
func (v *ValueTable) Snapshot() map[types.StateKey]float64 {
	out := make(map[types.StateKey]float64, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}

func (v *ValueTable) Clear() {
	v.values = make(map[types.StateKey]float64)
}
