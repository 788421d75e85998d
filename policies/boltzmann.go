package policies

import (
	"math"

	"github.com/zeu5/rl-planner/planning"
	"github.com/zeu5/rl-planner/types"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// BoltzmannPolicy samples actions with probability proportional to
// exp(Q(s, a) / temperature)
type BoltzmannPolicy struct {
	reader      planning.ValueReader
	temperature float64
	rand        rand.Source
}

var _ Policy = &BoltzmannPolicy{}

func NewBoltzmannPolicy(reader planning.ValueReader, temperature float64, seed uint64) *BoltzmannPolicy {
	return &BoltzmannPolicy{
		reader:      reader,
		temperature: temperature,
		rand:        rand.NewSource(seed),
	}
}

func (b *BoltzmannPolicy) Reset() {}

// Weights returns the normalized sampling weights of the actions
func (b *BoltzmannPolicy) Weights(vals []float64) []float64 {
	weights := make([]float64, len(vals))
	if len(vals) == 0 {
		return weights
	}
	best := argmax(vals)
	if b.temperature <= 0 {
		weights[best] = 1
		return weights
	}
	// shifted by the max so the largest exponent is 0
	max := vals[best]
	sum := 0.0
	for i, v := range vals {
		weights[i] = math.Exp((v - max) / b.temperature)
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

func (b *BoltzmannPolicy) NextAction(state types.State, actions []types.Action) (types.Action, bool) {
	actions, vals, ok := qValues(b.reader, state, actions)
	if !ok {
		return nil, false
	}
	i, ok := sampleuv.NewWeighted(b.Weights(vals), b.rand).Take()
	if !ok {
		return nil, false
	}
	return actions[i], true
}
