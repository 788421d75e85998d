package benchmarks

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

var (
	episodes   int
	horizon    int
	saveFile   string
	runs       int
	seed       uint64
	configFile string
	verbose    bool
	cpuprofile string
	memprofile string

	// planning overrides, applied over the config file only when set
	gamma      float64
	epsilon    float64
	maxSweeps  int
	maxBackups int
	timeBudget time.Duration

	// grid overrides
	height int
	width  int
	grids  int
	slip   float64

	logger = slog.Default()
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:          "rl-planner",
		Short:        "Plan over lazily explored grid worlds with value iteration and prioritized sweeping",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		},
	}
	rootCommand.PersistentFlags().IntVarP(&episodes, "episodes", "e", 100, "Number of rollout episodes")
	rootCommand.PersistentFlags().IntVar(&horizon, "horizon", 200, "Horizon of each episode")
	rootCommand.PersistentFlags().StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	rootCommand.PersistentFlags().IntVar(&runs, "runs", 1, "Number of experiment runs")
	rootCommand.PersistentFlags().Uint64Var(&seed, "seed", 1, "Seed of the rollout policies and sampling")
	rootCommand.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	rootCommand.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCommand.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "", "Write a CPU profile to this file in the save folder")
	rootCommand.PersistentFlags().StringVar(&memprofile, "memprofile", "", "Write a heap profile to this file in the save folder")

	rootCommand.PersistentFlags().Float64Var(&gamma, "gamma", 0.99, "Discount factor")
	rootCommand.PersistentFlags().Float64Var(&epsilon, "epsilon", 1e-6, "Convergence tolerance on the Bellman error")
	rootCommand.PersistentFlags().IntVar(&maxSweeps, "max-sweeps", 1000, "Sweep budget of value iteration")
	rootCommand.PersistentFlags().IntVar(&maxBackups, "max-backups", -1, "Backup budget of prioritized sweeping, -1 for none")
	rootCommand.PersistentFlags().DurationVar(&timeBudget, "time-budget", 0, "Wall clock budget of a plan request, 0 for none")

	rootCommand.PersistentFlags().IntVar(&height, "height", 10, "Height of each grid")
	rootCommand.PersistentFlags().IntVar(&width, "width", 10, "Width of each grid")
	rootCommand.PersistentFlags().IntVar(&grids, "grids", 2, "Number of grids")
	rootCommand.PersistentFlags().Float64Var(&slip, "slip", 0.1, "Probability that a move leaves the agent in place")

	// adding the subcommands here
	rootCommand.AddCommand(ValueIterationCommand())
	rootCommand.AddCommand(PrioritizedSweepingCommand())
	rootCommand.AddCommand(CompareCommand())
	rootCommand.AddCommand(ServeCommand())
	rootCommand.AddCommand(ExportCommand())
	return rootCommand
}

// interruptContext is cancelled on an interrupt from the os or when done is called
func interruptContext() (context.Context, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	doneCh := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		signal.Stop(sigCh)
		cancel()
	}()
	return ctx, func() { close(doneCh) }
}
