package grid

import (
	"fmt"

	"github.com/zeu5/rl-planner/types"
)

// GridModel is a stochastic grid world made of Grids layers of Height x Width
// cells. Doors connect a cell of one layer to a cell of another, taken with the
// Next action. Every move slips with probability Slip, leaving the agent in
// place. Reaching Goal ends the episode.
type GridModel struct {
	Height int
	Width  int
	Grids  int
	Doors  []Door
	Goal   Position

	Slip       float64
	StepReward float64
	GoalReward float64
}

type Door struct {
	From Position
	To   Position
}

var _ types.Model = &GridModel{}

// NewGridModel creates a deterministic grid world with the goal in the far
// corner of the last layer and a reward of -1 per step
func NewGridModel(height, width, grids int, doors ...Door) *GridModel {
	return &GridModel{
		Height:     height,
		Width:      width,
		Grids:      grids,
		Doors:      doors,
		Goal:       Position{I: height - 1, J: width - 1, K: grids - 1},
		Slip:       0,
		StepReward: -1,
		GoalReward: 0,
	}
}

func (g *GridModel) WithSlip(slip float64) *GridModel {
	g.Slip = slip
	return g
}

func (g *GridModel) WithGoal(goal Position, reward float64) *GridModel {
	g.Goal = goal
	g.GoalReward = reward
	return g
}

// Start is the bottom left cell of the first layer
func (g *GridModel) Start() *Position {
	return &Position{0, 0, 0}
}

func (g *GridModel) door(p Position) (Position, bool) {
	for _, d := range g.Doors {
		if d.From.Eq(p) {
			return d.To, true
		}
	}
	return Position{}, false
}

// Actions lists the moves that stay inside the layer, Nothing, and Next when
// the cell has a door
func (g *GridModel) Actions(s types.State) []types.Action {
	pos := s.(*Position)
	actions := make([]types.Action, 0, len(AllMovements))
	if pos.I < g.Height-1 {
		actions = append(actions, MovementUp)
	}
	if pos.I > 0 {
		actions = append(actions, MovementDown)
	}
	if pos.J > 0 {
		actions = append(actions, MovementLeft)
	}
	if pos.J < g.Width-1 {
		actions = append(actions, MovementRight)
	}
	actions = append(actions, NoMovement)
	if _, ok := g.door(*pos); ok {
		actions = append(actions, NextGridMovement)
	}
	return actions
}

func (g *GridModel) move(pos Position, movement *Movement) Position {
	newPos := pos
	switch movement.Direction {
	case "Nothing":
	case "Up":
		newPos.I = min(g.Height-1, pos.I+1)
	case "Down":
		newPos.I = max(0, pos.I-1)
	case "Left":
		newPos.J = max(0, pos.J-1)
	case "Right":
		newPos.J = min(g.Width-1, pos.J+1)
	case "Next":
		if to, ok := g.door(pos); ok {
			newPos = to
		}
	}
	return newPos
}

func (g *GridModel) reward(next Position) float64 {
	if next.Eq(g.Goal) {
		return g.StepReward + g.GoalReward
	}
	return g.StepReward
}

func (g *GridModel) Transitions(s types.State, a types.Action) []types.Outcome {
	pos := *s.(*Position)
	next := g.move(pos, a.(*Movement))
	if next.Eq(pos) || g.Slip == 0 {
		return []types.Outcome{{Next: &next, Probability: 1, Reward: g.reward(next)}}
	}
	return []types.Outcome{
		{Next: &next, Probability: 1 - g.Slip, Reward: g.reward(next)},
		{Next: &pos, Probability: g.Slip, Reward: g.reward(pos)},
	}
}

func (g *GridModel) IsTerminal(s types.State) bool {
	return s.(*Position).Eq(g.Goal)
}

type Position struct {
	I int
	J int
	K int
}

var _ types.State = &Position{}

func (p *Position) Hash() string {
	return fmt.Sprintf("(%d, %d, %d)", p.I, p.J, p.K)
}

func (p *Position) Eq(other Position) bool {
	return p.I == other.I && p.J == other.J && p.K == other.K
}

type Movement struct {
	Direction string
}

var _ types.Action = &Movement{}

func (m *Movement) Hash() string {
	return m.Direction
}

var (
	MovementUp                      = &Movement{"Up"}
	MovementDown                    = &Movement{"Down"}
	MovementLeft                    = &Movement{"Left"}
	MovementRight                   = &Movement{"Right"}
	NoMovement                      = &Movement{"Nothing"}
	NextGridMovement                = &Movement{"Next"}
	AllMovements     []types.Action = []types.Action{
		MovementUp,
		MovementDown,
		MovementLeft,
		MovementRight,
		NoMovement,
		NextGridMovement,
	}
)
