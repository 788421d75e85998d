package benchmarks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/spf13/cobra"
	"github.com/zeu5/rl-planner/grid"
	"github.com/zeu5/rl-planner/planning"
	"github.com/zeu5/rl-planner/store"
	"github.com/zeu5/rl-planner/types"
	"github.com/zeu5/rl-planner/util"
)

type plannerConstructor func(types.Model, planning.Config, ...planning.Option) (*planning.Planner, error)

// newGridPlanner builds the grid world of the config and a planner over it.
// With a warm start name the initial values are loaded from redis.
func newGridPlanner(ctx context.Context, config Config, newPlanner plannerConstructor, warmStart string, opts ...planning.Option) (*planning.Planner, *grid.GridModel, error) {
	g := config.Grid.Model()
	opts = append([]planning.Option{planning.WithLogger(logger)}, opts...)
	if warmStart != "" {
		values, err := loadValues(ctx, config.Redis, warmStart)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("warm start", "name", warmStart, "values", len(values))
		opts = append(opts, planning.WithValueInitializer(planning.WarmStart(values, 0)))
	}
	p, err := newPlanner(g, config.Planning, opts...)
	if err != nil {
		return nil, nil, err
	}
	return p, g, nil
}

func loadValues(ctx context.Context, config RedisConfig, name string) (map[types.StateKey]float64, error) {
	valueStore := store.NewRedisValueStore(config.Addr, config.Prefix)
	defer valueStore.Close()
	values, err := valueStore.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("warm start %s: %w", name, err)
	}
	return values, nil
}

// printProgress prints the progress reports on one line until the channel is closed
func printProgress(progress <-chan planning.Progress, done chan<- struct{}) {
	for p := range progress {
		fmt.Printf("\r%s, Sweeps:%d, Backups:%d, MaxDelta:%.3e", p.Scheduler, p.Sweeps, p.Backups, p.MaxDelta)
	}
	close(done)
}

// GridPlan plans on the grid world and records the result, the planner and a
// value heat map of every grid in the save folder
func GridPlan(ctx context.Context, config Config, newPlanner plannerConstructor, warmStart string) error {
	progress := make(chan planning.Progress, 16)
	p, g, err := newGridPlanner(ctx, config, newPlanner, warmStart, planning.WithProgress(progress))
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go printProgress(progress, done)
	result, planErr := p.Plan(ctx, g.Start())
	close(progress)
	<-done
	fmt.Println("")

	if planErr != nil && !errors.Is(planErr, context.Canceled) {
		return planErr
	}

	bs, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(bs))
	fmt.Printf("V(start) = %f\n", p.StateValue(g.Start()))

	name := p.Scheduler().Name()
	if err := util.WriteToFile(path.Join(saveFile, name+"_result.json"), string(bs)); err != nil {
		return err
	}
	if err := p.Record(path.Join(saveFile, name+"_planner.json")); err != nil {
		return err
	}
	for k := 0; k < g.Grids; k++ {
		if err := grid.NewValueDataSet(p, g, k).Record(saveFile, fmt.Sprintf("%s_values_%d", name, k)); err != nil {
			return err
		}
	}
	return planErr
}

func gridPlanCommand(use, short string, newPlanner plannerConstructor) *cobra.Command {
	var warmStart string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := commandConfig(cmd)
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
			return GridPlan(ctx, config, newPlanner, warmStart)
		},
	}
	cmd.Flags().StringVar(&warmStart, "warm-start", "", "Initialize the values from the table saved in redis under this name")
	return cmd
}

func ValueIterationCommand() *cobra.Command {
	return gridPlanCommand("vi", "Plan on the grid world with value iteration", planning.NewValueIterationPlanner)
}

func PrioritizedSweepingCommand() *cobra.Command {
	return gridPlanCommand("ps", "Plan on the grid world with prioritized sweeping", planning.NewPrioritizedSweepingPlanner)
}
