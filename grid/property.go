package grid

import "github.com/zeu5/rl-planner/types"

// InPosition holds for states at the given cell of any layer
func InPosition(i, j int) func(types.State) bool {
	return func(s types.State) bool {
		pos, ok := s.(*Position)
		if !ok {
			return false
		}
		return pos.I == i && pos.J == j
	}
}

// AtGoal holds for the goal state of the model
func (g *GridModel) AtGoal() func(types.State) bool {
	return func(s types.State) bool {
		pos, ok := s.(*Position)
		if !ok {
			return false
		}
		return pos.Eq(g.Goal)
	}
}
