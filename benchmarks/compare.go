package benchmarks

import (
	"context"
	"fmt"
	"path"

	"github.com/spf13/cobra"
	"github.com/zeu5/rl-planner/experiment"
	"github.com/zeu5/rl-planner/grid"
	"github.com/zeu5/rl-planner/planning"
	"github.com/zeu5/rl-planner/policies"
)

// rolloutPolicy returns the constructor of the named rollout policy
func rolloutPolicy(name string, temperature, exploration float64) (experiment.PolicyConstructor, error) {
	switch name {
	case "greedy":
		return func(reader planning.ValueReader) policies.Policy {
			return policies.NewGreedyPolicy(reader)
		}, nil
	case "epsilon-greedy":
		return func(reader planning.ValueReader) policies.Policy {
			return policies.NewEpsilonGreedyPolicyWithSeed(reader, exploration, seed)
		}, nil
	case "boltzmann":
		return func(reader planning.ValueReader) policies.Policy {
			return policies.NewBoltzmannPolicy(reader, temperature, seed)
		}, nil
	default:
		return nil, fmt.Errorf("unknown rollout policy %q", name)
	}
}

// GridCompare plans with value iteration and prioritized sweeping on the same
// grid world and compares the convergence, the rollouts and the value maps
func GridCompare(ctx context.Context, config Config, newPolicy experiment.PolicyConstructor) error {
	planConfig := config.Planning
	planConfig.RecordHistory = true

	c := experiment.NewComparison(&experiment.ComparisonConfig{
		Runs:          runs,
		Episodes:      episodes,
		Horizon:       horizon,
		Seed:          seed,
		RecordPath:    saveFile,
		RecordTraces:  false,
		RecordPlanner: true,
	})

	g := config.Grid.Model()
	c.AddAnalysis("convergence", experiment.NewConvergenceAnalyzer(), experiment.ConvergencePlotter(path.Join(saveFile, "plots")))
	c.AddAnalysis("returns", experiment.NewReturnAnalyzer(planConfig.Discount), experiment.ReturnComparator(saveFile))
	c.AddAnalysis("success", experiment.NewSuccessAnalyzer(g.AtGoal()), experiment.SuccessComparator())
	c.AddAnalysis("values", grid.NewValueAnalyzer(g, g.Grids-1), grid.ValueComparator(path.Join(saveFile, "values")))
	c.AddAnalysis("visits", grid.NewVisitAnalyzer(), grid.VisitComparator(path.Join(saveFile, "visits")))

	for _, e := range []struct {
		name       string
		newPlanner plannerConstructor
	}{
		{"ValueIteration", planning.NewValueIterationPlanner},
		{"PrioritizedSweeping", planning.NewPrioritizedSweepingPlanner},
	} {
		p, err := e.newPlanner(g, planConfig, planning.WithLogger(logger))
		if err != nil {
			return err
		}
		c.AddExperiment(experiment.NewExperiment(e.name, p, g, newPolicy))
	}

	return c.Run(ctx, g.Start())
}

func CompareCommand() *cobra.Command {
	var policy string
	var temperature float64
	var exploration float64

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare value iteration and prioritized sweeping on the grid world",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := commandConfig(cmd)
			if err != nil {
				return err
			}
			newPolicy, err := rolloutPolicy(policy, temperature, exploration)
			if err != nil {
				return err
			}
			ctx, done := interruptContext()
			defer done()

			stop, err := startProfiling()
			defer stop()
			if err != nil {
				return err
			}
			return GridCompare(ctx, config, newPolicy)
		},
	}
	cmd.Flags().StringVar(&policy, "policy", "greedy", "Rollout policy: greedy, epsilon-greedy or boltzmann")
	cmd.Flags().Float64Var(&temperature, "temperature", 0.5, "Temperature of the boltzmann policy")
	cmd.Flags().Float64Var(&exploration, "exploration", 0.1, "Exploration rate of the epsilon-greedy policy")
	return cmd
}
