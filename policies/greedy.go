package policies

import (
	"time"

	"github.com/zeu5/rl-planner/planning"
	"github.com/zeu5/rl-planner/types"
	"golang.org/x/exp/rand"
)

// GreedyPolicy picks the action with the largest Q value under the planner's
// current values. Ties go to the first action in model order.
type GreedyPolicy struct {
	reader planning.ValueReader
}

var _ Policy = &GreedyPolicy{}

func NewGreedyPolicy(reader planning.ValueReader) *GreedyPolicy {
	return &GreedyPolicy{reader: reader}
}

func (g *GreedyPolicy) Reset() {}

func (g *GreedyPolicy) NextAction(state types.State, actions []types.Action) (types.Action, bool) {
	actions, vals, ok := qValues(g.reader, state, actions)
	if !ok {
		return nil, false
	}
	return actions[argmax(vals)], true
}

// qValues looks up the Q values of the applicable actions, in the order of actions
func qValues(reader planning.ValueReader, state types.State, actions []types.Action) ([]types.Action, []float64, bool) {
	if len(actions) == 0 {
		return nil, nil, false
	}
	qs, err := reader.QValues(reader.Key(state))
	if err != nil || len(qs) == 0 {
		return nil, nil, false
	}
	byHash := make(map[string]float64, len(qs))
	for _, q := range qs {
		byHash[q.Action.Hash()] = q.Value
	}
	applicable := make([]types.Action, 0, len(actions))
	vals := make([]float64, 0, len(actions))
	for _, a := range actions {
		if v, ok := byHash[a.Hash()]; ok {
			applicable = append(applicable, a)
			vals = append(vals, v)
		}
	}
	if len(applicable) == 0 {
		return nil, nil, false
	}
	return applicable, vals, true
}

// EpsilonGreedyPolicy picks a uniformly random action with probability epsilon
// and the greedy action otherwise
type EpsilonGreedyPolicy struct {
	*GreedyPolicy
	epsilon float64
	rand    *rand.Rand
}

var _ Policy = &EpsilonGreedyPolicy{}

func NewEpsilonGreedyPolicy(reader planning.ValueReader, epsilon float64) *EpsilonGreedyPolicy {
	return NewEpsilonGreedyPolicyWithSeed(reader, epsilon, uint64(time.Now().UnixNano()))
}

func NewEpsilonGreedyPolicyWithSeed(reader planning.ValueReader, epsilon float64, seed uint64) *EpsilonGreedyPolicy {
	return &EpsilonGreedyPolicy{
		GreedyPolicy: NewGreedyPolicy(reader),
		epsilon:      epsilon,
		rand:         rand.New(rand.NewSource(seed)),
	}
}

func (e *EpsilonGreedyPolicy) NextAction(state types.State, actions []types.Action) (types.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	if e.rand.Float64() < e.epsilon {
		return actions[e.rand.Intn(len(actions))], true
	}
	return e.GreedyPolicy.NextAction(state, actions)
}

// RandomPolicy ignores the values and picks uniformly
type RandomPolicy struct {
	rand *rand.Rand
}

var _ Policy = &RandomPolicy{}

func NewRandomPolicy(seed uint64) *RandomPolicy {
	return &RandomPolicy{
		rand: rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomPolicy) Reset() {}

func (r *RandomPolicy) NextAction(_ types.State, actions []types.Action) (types.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	return actions[r.rand.Intn(len(actions))], true
}
