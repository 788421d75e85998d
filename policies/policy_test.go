package policies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/rl-planner/planning"
	"github.com/zeu5/rl-planner/types"
)

type label string

func (l label) Hash() string {
	return string(l)
}

// fixedReader serves fixed Q values per state
type fixedReader struct {
	qs map[types.StateKey][]planning.QValue
}

var _ planning.ValueReader = &fixedReader{}

func (f *fixedReader) Key(s types.State) types.StateKey {
	return types.StateKey(s.Hash())
}

func (f *fixedReader) Value(key types.StateKey) float64 {
	return 0
}

func (f *fixedReader) QValues(key types.StateKey) ([]planning.QValue, error) {
	qs, ok := f.qs[key]
	if !ok {
		return nil, planning.ErrUnknownState
	}
	return qs, nil
}

func newFixedReader() *fixedReader {
	return &fixedReader{
		qs: map[types.StateKey][]planning.QValue{
			"s": {
				{Action: label("a"), Value: 1},
				{Action: label("b"), Value: 3},
				{Action: label("c"), Value: 3},
			},
			"terminal": {},
		},
	}
}

var actions = []types.Action{label("a"), label("b"), label("c")}

func TestGreedyPolicy(t *testing.T) {
	g := NewGreedyPolicy(newFixedReader())

	a, ok := g.NextAction(label("s"), actions)
	require.True(t, ok)
	assert.Equal(t, "b", a.Hash(), "ties go to the first action")

	a, ok = g.NextAction(label("s"), []types.Action{label("a"), label("c")})
	require.True(t, ok)
	assert.Equal(t, "c", a.Hash())

	_, ok = g.NextAction(label("terminal"), actions)
	assert.False(t, ok)
	_, ok = g.NextAction(label("unknown"), actions)
	assert.False(t, ok)
	_, ok = g.NextAction(label("s"), nil)
	assert.False(t, ok)
}

func TestEpsilonGreedyPolicy(t *testing.T) {
	greedy := NewEpsilonGreedyPolicyWithSeed(newFixedReader(), 0, 1)
	for i := 0; i < 20; i++ {
		a, ok := greedy.NextAction(label("s"), actions)
		require.True(t, ok)
		assert.Equal(t, "b", a.Hash())
	}

	random := NewEpsilonGreedyPolicyWithSeed(newFixedReader(), 1, 1)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		a, ok := random.NextAction(label("s"), actions)
		require.True(t, ok)
		seen[a.Hash()] = true
	}
	assert.Len(t, seen, 3)
}

func TestBoltzmannWeights(t *testing.T) {
	b := NewBoltzmannPolicy(newFixedReader(), 1, 1)
	weights := b.Weights([]float64{1, 3, 3})
	assert.InDelta(t, 1.0, weights[0]+weights[1]+weights[2], 1e-12)
	assert.InDelta(t, weights[1], weights[2], 1e-12)
	assert.Less(t, weights[0], weights[1])

	// large values do not overflow
	weights = b.Weights([]float64{1000, 1001})
	assert.InDelta(t, 1.0, weights[0]+weights[1], 1e-12)

	cold := NewBoltzmannPolicy(newFixedReader(), 0, 1)
	assert.Equal(t, []float64{0, 1, 0}, cold.Weights([]float64{1, 3, 3}))
}

func TestBoltzmannPolicySamples(t *testing.T) {
	b := NewBoltzmannPolicy(newFixedReader(), 0.5, 7)
	counts := make(map[string]int)
	for i := 0; i < 2000; i++ {
		a, ok := b.NextAction(label("s"), actions)
		require.True(t, ok)
		counts[a.Hash()] += 1
	}
	// exp(-2/0.5) makes "a" about 1% of the samples
	assert.Less(t, counts["a"], 100)
	assert.Greater(t, counts["b"], 700)
	assert.Greater(t, counts["c"], 700)

	_, ok := b.NextAction(label("unknown"), actions)
	assert.False(t, ok)
}

func TestRandomPolicy(t *testing.T) {
	r := NewRandomPolicy(3)
	_, ok := r.NextAction(label("s"), nil)
	assert.False(t, ok)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		a, ok := r.NextAction(label("s"), actions)
		require.True(t, ok)
		seen[a.Hash()] = true
	}
	assert.Len(t, seen, 3)
}
