package types

// State of the system that the planner discovers
type State interface {
	// Indexed by the Hash
	// Should be deterministic
	Hash() string
}

// Action that can be applied from a state
type Action interface {
	// Index of the action
	// Should be deterministic
	Hash() string
}

// StateKey identifies an equivalence class of states.
// Two states the planner may treat as interchangeable must map to the same key.
type StateKey string

// StateAbstractor maps a state to its canonical key.
// The mapping must be total and must not change during a planning run.
type StateAbstractor func(State) StateKey

// DefaultStateAbstractor keys states by their Hash
func DefaultStateAbstractor() StateAbstractor {
	return func(s State) StateKey {
		return StateKey(s.Hash())
	}
}

// Outcome is one non-zero probability successor of a (state, action) pair
type Outcome struct {
	Next        State
	Probability float64
	Reward      float64
}

// Model is the full transition model of an MDP.
// Transitions must list every successor with probability > 0; the probabilities
// of one (state, action) pair sum to 1.
type Model interface {
	// Actions applicable in the state
	Actions(State) []Action
	// Transitions enumerates the successors of applying the action in the state
	Transitions(State, Action) []Outcome
	// IsTerminal reports absorbing states
	IsTerminal(State) bool
}
