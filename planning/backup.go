package planning

import (
	"fmt"
	"math"

	"github.com/zeu5/rl-planner/types"
)

// QValue of one applicable action
type QValue struct {
	Action types.Action
	Value  float64
}

// BellmanOperator performs Bellman backups over the transition cache and the value table
type BellmanOperator struct {
	discount float64
	cache    *TransitionCache
	values   *ValueTable
	explorer *Explorer
}

func NewBellmanOperator(discount float64, cache *TransitionCache, values *ValueTable, explorer *Explorer) *BellmanOperator {
	return &BellmanOperator{
		discount: discount,
		cache:    cache,
		values:   values,
		explorer: explorer,
	}
}

func (b *BellmanOperator) Discount() float64 {
	return b.discount
}

// QValues computes Q(s, a) for every applicable action of the key from the
// current value table. Terminal states have no Q values.
func (b *BellmanOperator) QValues(key types.StateKey) ([]QValue, error) {
	if err := b.check(key); err != nil {
		return nil, err
	}
	if b.cache.IsTerminal(key) {
		return []QValue{}, nil
	}
	transitions, err := b.cache.Transitions(key)
	if err != nil {
		return nil, err
	}
	qs := make([]QValue, len(transitions))
	for i, at := range transitions {
		qs[i] = QValue{Action: at.Action, Value: b.q(at.Transitions)}
	}
	return qs, nil
}

func (b *BellmanOperator) q(transitions []Transition) float64 {
	q := 0.0
	for _, t := range transitions {
		q += t.Probability * (t.Reward + b.discount*b.values.Value(t.Next))
	}
	return q
}

// Backup sets V(s) = max_a Q(s, a) and returns the new value along with the
// Bellman error |new - old|. Terminal states keep the value 0.
func (b *BellmanOperator) Backup(key types.StateKey) (float64, float64, error) {
	if err := b.check(key); err != nil {
		return 0, 0, err
	}
	old := b.values.Value(key)
	if b.cache.IsTerminal(key) {
		b.values.Set(key, 0)
		return 0, math.Abs(old), nil
	}
	transitions, err := b.cache.Transitions(key)
	if err != nil {
		return old, 0, err
	}
	if len(transitions) == 0 {
		// dead end discovered after an invalidation
		b.values.Set(key, 0)
		return 0, math.Abs(old), nil
	}

	// every Q is computed before V(s) is written
	best := math.Inf(-1)
	for _, at := range transitions {
		if q := b.q(at.Transitions); q > best {
			best = q
		}
	}
	b.values.Set(key, best)
	return best, math.Abs(best - old), nil
}

func (b *BellmanOperator) check(key types.StateKey) error {
	if b.explorer.Size() == 0 {
		return ErrNotExplored
	}
	if !b.explorer.Contains(key) {
		return fmt.Errorf("%w: %s", ErrUnknownState, key)
	}
	return nil
}
