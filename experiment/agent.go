package experiment

import (
	"context"

	"github.com/zeu5/rl-planner/policies"
	"github.com/zeu5/rl-planner/types"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

type AgentConfig struct {
	Episodes int
	Horizon  int
	Seed     uint64
}

// Agent rolls out a policy through the transition model, sampling the
// successor of every step by its probability
type Agent struct {
	config *AgentConfig
	model  types.Model
	policy policies.Policy
	rand   rand.Source
}

func NewAgent(config *AgentConfig, model types.Model, policy policies.Policy) *Agent {
	return &Agent{
		config: config,
		model:  model,
		policy: policy,
		rand:   rand.NewSource(config.Seed),
	}
}

// Run the agent for the configured number of episodes, each starting at start.
// Stops early when the context is done.
func (a *Agent) Run(ctx context.Context, start types.State) []*types.Trace {
	traces := make([]*types.Trace, 0, a.config.Episodes)
	for i := 0; i < a.config.Episodes; i++ {
		select {
		case <-ctx.Done():
			return traces
		default:
		}
		traces = append(traces, a.RunEpisode(start))
	}
	a.policy.Reset()
	return traces
}

// RunEpisode runs until a terminal state, a state without actions, or the horizon
func (a *Agent) RunEpisode(start types.State) *types.Trace {
	state := start
	trace := types.NewTrace()

	for i := 0; i < a.config.Horizon; i++ {
		if a.model.IsTerminal(state) {
			break
		}
		actions := a.model.Actions(state)
		if len(actions) == 0 {
			break
		}
		action, ok := a.policy.NextAction(state, actions)
		if !ok {
			break
		}
		outcome, ok := a.sample(a.model.Transitions(state, action))
		if !ok {
			break
		}
		trace.Append(state, action, outcome.Reward, outcome.Next)
		state = outcome.Next
	}
	return trace
}

func (a *Agent) sample(outcomes []types.Outcome) (types.Outcome, bool) {
	if len(outcomes) == 0 {
		return types.Outcome{}, false
	}
	weights := make([]float64, len(outcomes))
	for i, o := range outcomes {
		weights[i] = o.Probability
	}
	i, ok := sampleuv.NewWeighted(weights, a.rand).Take()
	if !ok {
		return types.Outcome{}, false
	}
	return outcomes[i], true
}
