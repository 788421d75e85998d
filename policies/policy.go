package policies

import (
	"github.com/zeu5/rl-planner/types"
)

// Policy picks the next action of a rollout among the applicable ones
type Policy interface {
	NextAction(types.State, []types.Action) (types.Action, bool)
	// Reset drops any state kept across episodes
	Reset()
}

// argmax returns the index of the first largest value
func argmax(vals []float64) int {
	best := 0
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return best
}
