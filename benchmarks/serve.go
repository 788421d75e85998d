package benchmarks

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeu5/rl-planner/planning"
	"github.com/zeu5/rl-planner/server"
)

func schedulerPlanner(scheduler string) (plannerConstructor, error) {
	switch scheduler {
	case "vi", "value_iteration":
		return planning.NewValueIterationPlanner, nil
	case "ps", "prioritized_sweeping":
		return planning.NewPrioritizedSweepingPlanner, nil
	default:
		return nil, fmt.Errorf("unknown scheduler %q", scheduler)
	}
}

// GridServe plans on the grid world and serves the values until the context is done
func GridServe(ctx context.Context, config Config, newPlanner plannerConstructor, warmStart, addr string) error {
	p, g, err := newGridPlanner(ctx, config, newPlanner, warmStart)
	if err != nil {
		return err
	}
	s := server.NewValueServer(ctx, addr, p, logger)
	s.Start()
	logger.Info("serving values", "addr", addr)

	result, err := s.Plan(ctx, g.Start())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Printf("Status:%s, Reachable:%d, Sweeps:%d, Backups:%d, Duration:%s\n",
		result.Status, result.Reachable, result.Sweeps, result.Backups, result.Duration)

	<-ctx.Done()
	return nil
}

func ServeCommand() *cobra.Command {
	var addr string
	var scheduler string
	var warmStart string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Plan on the grid world and serve the values over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := commandConfig(cmd)
			if err != nil {
				return err
			}
			newPlanner, err := schedulerPlanner(scheduler)
			if err != nil {
				return err
			}
			ctx, done := interruptContext()
			defer done()
			return GridServe(ctx, config, newPlanner, warmStart, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "Listen address")
	cmd.Flags().StringVar(&scheduler, "scheduler", "ps", "Scheduler: vi or ps")
	cmd.Flags().StringVar(&warmStart, "warm-start", "", "Initialize the values from the table saved in redis under this name")
	return cmd
}
