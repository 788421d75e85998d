package planning

import (
	"fmt"
	"math"

	"github.com/zeu5/rl-planner/types"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// Transition is one successor of a (state, action) pair, by key
type Transition struct {
	Next        types.StateKey
	Probability float64
	Reward      float64
}

// ActionTransitions lists the successors of one applicable action
type ActionTransitions struct {
	Action      types.Action
	Transitions []Transition
}

// TransitionCache memoizes the transitions of the model per state key.
// It also remembers one representative state for every key it has seen, so
// transitions can be recomputed when memoization is disabled or invalidated.
type TransitionCache struct {
	model      types.Model
	abstractor types.StateAbstractor
	enabled    bool
	tolerance  float64
	deadEnds   DeadEndPolicy

	states   map[types.StateKey]types.State
	terminal map[types.StateKey]bool
	deadEnd  map[types.StateKey]bool
	entries  map[types.StateKey][]ActionTransitions

	queries int
}

func NewTransitionCache(model types.Model, abstractor types.StateAbstractor, config Config) *TransitionCache {
	if abstractor == nil {
		abstractor = types.DefaultStateAbstractor()
	}
	return &TransitionCache{
		model:      model,
		abstractor: abstractor,
		enabled:    config.CacheTransitions,
		tolerance:  config.ProbabilityTolerance,
		deadEnds:   config.DeadEnds,
		states:     make(map[types.StateKey]types.State),
		terminal:   make(map[types.StateKey]bool),
		deadEnd:    make(map[types.StateKey]bool),
		entries:    make(map[types.StateKey][]ActionTransitions),
	}
}

// Key returns the canonical key of the state
func (c *TransitionCache) Key(s types.State) types.StateKey {
	return c.abstractor(s)
}

// Register records s as the representative of its key if none is known yet.
// Returns the key and whether the key was new.
func (c *TransitionCache) Register(s types.State) (types.StateKey, bool) {
	key := c.abstractor(s)
	if _, ok := c.states[key]; ok {
		return key, false
	}
	c.states[key] = s
	c.terminal[key] = c.model.IsTerminal(s)
	return key, true
}

// State returns the representative state of the key
func (c *TransitionCache) State(key types.StateKey) (types.State, bool) {
	s, ok := c.states[key]
	return s, ok
}

// IsTerminal reports terminal states and dead ends treated as terminal
func (c *TransitionCache) IsTerminal(key types.StateKey) bool {
	return c.terminal[key] || c.deadEnd[key]
}

// IsDeadEnd reports non-terminal states found without applicable actions
func (c *TransitionCache) IsDeadEnd(key types.StateKey) bool {
	return c.deadEnd[key]
}

// Cached reports whether transitions of the key are memoized
func (c *TransitionCache) Cached(key types.StateKey) bool {
	_, ok := c.entries[key]
	return ok
}

// Queries counts the (state, action) transition lists requested from the model
func (c *TransitionCache) Queries() int {
	return c.queries
}

// Transitions returns the transitions of every applicable action of the key,
// querying the model when they are not memoized.
func (c *TransitionCache) Transitions(key types.StateKey) ([]ActionTransitions, error) {
	if entry, ok := c.entries[key]; ok {
		return entry, nil
	}
	s, ok := c.states[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownState, key)
	}
	entry, err := c.compute(key, s)
	if err != nil {
		return nil, err
	}
	if c.enabled {
		c.entries[key] = entry
	}
	return entry, nil
}

func (c *TransitionCache) compute(key types.StateKey, s types.State) ([]ActionTransitions, error) {
	actions := c.model.Actions(s)
	if len(actions) == 0 {
		if c.terminal[key] {
			return []ActionTransitions{}, nil
		}
		if c.deadEnds == DeadEndError {
			return nil, fmt.Errorf("%w: %s", ErrDeadEnd, key)
		}
		c.deadEnd[key] = true
		return []ActionTransitions{}, nil
	}

	result := make([]ActionTransitions, 0, len(actions))
	for _, a := range actions {
		outcomes := c.model.Transitions(s, a)
		c.queries += 1
		if err := c.validate(outcomes); err != nil {
			return nil, fmt.Errorf("state %s, action %s: %w", key, a.Hash(), err)
		}
		transitions := make([]Transition, 0, len(outcomes))
		for _, o := range outcomes {
			if o.Probability == 0 {
				continue
			}
			nextKey, _ := c.Register(o.Next)
			transitions = append(transitions, Transition{
				Next:        nextKey,
				Probability: o.Probability,
				Reward:      o.Reward,
			})
		}
		result = append(result, ActionTransitions{Action: a, Transitions: transitions})
	}
	return result, nil
}

func (c *TransitionCache) validate(outcomes []types.Outcome) error {
	probs := make([]float64, len(outcomes))
	for i, o := range outcomes {
		if math.IsNaN(o.Probability) || o.Probability < 0 {
			return fmt.Errorf("%w: probability %v", ErrInvalidDistribution, o.Probability)
		}
		probs[i] = o.Probability
	}
	sum := floats.Sum(probs)
	if !scalar.EqualWithinAbs(sum, 1, c.tolerance) {
		return fmt.Errorf("%w: probabilities sum to %v", ErrInvalidDistribution, sum)
	}
	return nil
}

// Invalidate drops memoized transitions, for instance after the reward
// function changed. Known states and their representatives are kept.
func (c *TransitionCache) Invalidate() {
	c.entries = make(map[types.StateKey][]ActionTransitions)
}

// Clear forgets everything
func (c *TransitionCache) Clear() {
	c.states = make(map[types.StateKey]types.State)
	c.terminal = make(map[types.StateKey]bool)
	c.deadEnd = make(map[types.StateKey]bool)
	c.entries = make(map[types.StateKey][]ActionTransitions)
	c.queries = 0
}
