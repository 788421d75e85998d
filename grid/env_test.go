package grid

import (
	"context"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/rl-planner/experiment"
	"github.com/zeu5/rl-planner/planning"
	"github.com/zeu5/rl-planner/policies"
	"github.com/zeu5/rl-planner/types"
)

func hashes(actions []types.Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Hash()
	}
	return out
}

func TestGridActions(t *testing.T) {
	door := Door{From: Position{I: 1, J: 1, K: 0}, To: Position{I: 0, J: 0, K: 1}}
	g := NewGridModel(3, 3, 2, door)

	assert.Equal(t, []string{"Up", "Right", "Nothing"}, hashes(g.Actions(&Position{0, 0, 0})))
	assert.Equal(t, []string{"Down", "Left", "Nothing"}, hashes(g.Actions(&Position{2, 2, 0})))
	assert.Equal(t, []string{"Up", "Down", "Left", "Right", "Nothing", "Next"}, hashes(g.Actions(&Position{1, 1, 0})))
}

func TestGridTransitions(t *testing.T) {
	door := Door{From: Position{I: 1, J: 1, K: 0}, To: Position{I: 0, J: 0, K: 1}}
	g := NewGridModel(3, 3, 2, door).WithSlip(0.2)

	outcomes := g.Transitions(&Position{0, 0, 0}, MovementUp)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "(1, 0, 0)", outcomes[0].Next.Hash())
	assert.Equal(t, 0.8, outcomes[0].Probability)
	assert.Equal(t, "(0, 0, 0)", outcomes[1].Next.Hash())
	assert.Equal(t, 0.2, outcomes[1].Probability)
	assert.Equal(t, -1.0, outcomes[0].Reward)

	outcomes = g.Transitions(&Position{0, 0, 0}, NoMovement)
	require.Len(t, outcomes, 1)
	assert.Equal(t, 1.0, outcomes[0].Probability)

	outcomes = g.Transitions(&Position{1, 1, 0}, NextGridMovement)
	assert.Equal(t, "(0, 0, 1)", outcomes[0].Next.Hash())

	g.WithGoal(Position{I: 1, J: 0, K: 0}, 10)
	outcomes = g.Transitions(&Position{0, 0, 0}, MovementUp)
	assert.Equal(t, 9.0, outcomes[0].Reward)
	assert.Equal(t, -1.0, outcomes[1].Reward)
	assert.True(t, g.IsTerminal(&Position{1, 0, 0}))
	assert.True(t, g.AtGoal()(&Position{1, 0, 0}))
	assert.True(t, InPosition(1, 0)(&Position{1, 0, 1}))
}

func TestGridPlanning(t *testing.T) {
	door := Door{From: Position{I: 2, J: 2, K: 0}, To: Position{I: 0, J: 0, K: 1}}
	cfg := planning.DefaultConfig()
	cfg.Discount = 1
	cfg.Epsilon = 1e-9

	for _, newPlanner := range []func(types.Model, planning.Config, ...planning.Option) (*planning.Planner, error){
		planning.NewValueIterationPlanner,
		planning.NewPrioritizedSweepingPlanner,
	} {
		g := NewGridModel(3, 3, 2, door)
		p, err := newPlanner(g, cfg)
		require.NoError(t, err)
		result, err := p.Plan(context.Background(), g.Start())
		require.NoError(t, err)
		require.True(t, result.Converged())
		assert.Equal(t, 18, result.Reachable)

		// four steps to the door, one through it, four to the goal
		assert.InDelta(t, -9.0, p.StateValue(g.Start()), 1e-9)
		assert.InDelta(t, -4.0, p.StateValue(&Position{0, 0, 1}), 1e-9)
		assert.Equal(t, 0.0, p.StateValue(&Position{2, 2, 1}))

		values := NewValueDataSet(p, g, 1)
		assert.Equal(t, 9, values.Discovered())
		assert.Equal(t, -4.0, values.Min())
		assert.Equal(t, 0.0, values.Max())
		c, r := values.Dims()
		assert.Equal(t, 3, c)
		assert.Equal(t, 3, r)
		assert.InDelta(t, -2.0, values.Z(1, 1), 1e-9)

		delete(values.Values[2], 2)
		assert.Equal(t, 8, values.Discovered())
		assert.Equal(t, -4.0, values.Z(2, 2))
	}
}

func TestGridRollouts(t *testing.T) {
	g := NewGridModel(4, 4, 1).WithSlip(0.1)
	cfg := planning.DefaultConfig()
	cfg.Discount = 0.95
	p, err := planning.NewPrioritizedSweepingPlanner(g, cfg)
	require.NoError(t, err)
	_, err = p.Plan(context.Background(), g.Start())
	require.NoError(t, err)

	agent := experiment.NewAgent(&experiment.AgentConfig{Episodes: 20, Horizon: 100, Seed: 1}, g, policies.NewGreedyPolicy(p))
	traces := agent.Run(context.Background(), g.Start())

	success := experiment.NewSuccessAnalyzer(g.AtGoal())
	visits := NewVisitAnalyzer()
	valueAnalyzer := NewValueAnalyzer(g, 0)
	for _, a := range []experiment.Analyzer{success, visits, valueAnalyzer} {
		a.Analyze(0, "ps", p, planning.Result{}, traces)
	}
	assert.Equal(t, 1.0, success.DataSet())

	visitData := visits.DataSet().(*VisitDataSet)
	assert.GreaterOrEqual(t, visitData.Visits[0][0], 20)
	assert.Zero(t, visitData.Visits[3][3])

	savePath := path.Join(t.TempDir(), "analysis")
	ValueComparator(savePath)(0, []string{"ps"}, []experiment.DataSet{valueAnalyzer.DataSet()})
	VisitComparator(savePath)(0, []string{"ps"}, []experiment.DataSet{visitData})
	assert.FileExists(t, path.Join(savePath, "0_ps_values.json"))
	assert.FileExists(t, path.Join(savePath, "0_ps_values.png"))
	assert.FileExists(t, path.Join(savePath, "0_ps_visits.json"))
}
