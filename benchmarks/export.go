package benchmarks

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeu5/rl-planner/store"
)

// GridExport plans on the grid world and saves the values in redis under name
func GridExport(ctx context.Context, config Config, newPlanner plannerConstructor, warmStart, name string) error {
	valueStore := store.NewRedisValueStore(config.Redis.Addr, config.Redis.Prefix)
	defer valueStore.Close()
	if err := valueStore.Ping(ctx); err != nil {
		return fmt.Errorf("redis %s: %w", config.Redis.Addr, err)
	}

	p, g, err := newGridPlanner(ctx, config, newPlanner, warmStart)
	if err != nil {
		return err
	}
	result, err := p.Plan(ctx, g.Start())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("plan cancelled, nothing exported: %w", err)
		}
		return err
	}
	values := p.Values()
	if err := valueStore.Save(ctx, name, values); err != nil {
		return err
	}
	fmt.Printf("Exported %d values as %s, Status:%s, MaxDelta:%.3e\n", len(values), name, result.Status, result.MaxDelta)
	return nil
}

// listExports prints the names of the saved value tables
func listExports(ctx context.Context, config Config) error {
	valueStore := store.NewRedisValueStore(config.Redis.Addr, config.Redis.Prefix)
	defer valueStore.Close()
	names, err := valueStore.List(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func ExportCommand() *cobra.Command {
	var scheduler string
	var warmStart string
	var name string
	var list bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Plan on the grid world and save the values in redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := commandConfig(cmd)
			if err != nil {
				return err
			}
			ctx, done := interruptContext()
			defer done()
			if list {
				return listExports(ctx, config)
			}
			newPlanner, err := schedulerPlanner(scheduler)
			if err != nil {
				return err
			}
			if name == "" {
				name = fmt.Sprintf("grid-%dx%dx%d-%s", config.Grid.Height, config.Grid.Width, config.Grid.Grids, scheduler)
			}
			return GridExport(ctx, config, newPlanner, warmStart, name)
		},
	}
	cmd.Flags().StringVar(&scheduler, "scheduler", "ps", "Scheduler: vi or ps")
	cmd.Flags().StringVar(&warmStart, "warm-start", "", "Initialize the values from the table saved in redis under this name")
	cmd.Flags().StringVar(&name, "name", "", "Name of the saved table, derived from the grid when empty")
	cmd.Flags().BoolVar(&list, "list", false, "List the saved tables instead")
	return cmd
}
