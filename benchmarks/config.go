package benchmarks

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeu5/rl-planner/grid"
	"github.com/zeu5/rl-planner/planning"
	"gopkg.in/yaml.v3"
)

// Config of the benchmark commands, read from a YAML file
//
//	planning:
//	  discount: 0.95
//	  time_budget: 2s
//	grid:
//	  height: 20
//	redis:
//	  addr: localhost:6379
type Config struct {
	Planning planning.Config `json:"planning" yaml:"planning"`
	Grid     GridConfig      `json:"grid" yaml:"grid"`
	Redis    RedisConfig     `json:"redis" yaml:"redis"`
}

// GridConfig describes the grid world. Consecutive grids are connected by a
// door from the far corner of one grid to the start corner of the next.
type GridConfig struct {
	Height     int     `json:"height" yaml:"height"`
	Width      int     `json:"width" yaml:"width"`
	Grids      int     `json:"grids" yaml:"grids"`
	Slip       float64 `json:"slip" yaml:"slip"`
	GoalReward float64 `json:"goal_reward" yaml:"goal_reward"`
}

type RedisConfig struct {
	Addr   string `json:"addr" yaml:"addr"`
	Prefix string `json:"prefix" yaml:"prefix"`
}

func DefaultConfig() Config {
	return Config{
		Planning: planning.DefaultConfig(),
		Grid: GridConfig{
			Height:     10,
			Width:      10,
			Grids:      2,
			Slip:       0.1,
			GoalReward: 0,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "rl-planner",
		},
	}
}

// LoadConfig reads the file over the defaults. An empty path gives the defaults.
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return config, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func (c Config) Validate() error {
	if err := c.Planning.Validate(); err != nil {
		return err
	}
	return c.Grid.Validate()
}

func (g GridConfig) Validate() error {
	if g.Height < 1 || g.Width < 1 || g.Grids < 1 {
		return fmt.Errorf("%w: grid %dx%dx%d is empty", planning.ErrInvalidConfig, g.Height, g.Width, g.Grids)
	}
	if g.Slip < 0 || g.Slip >= 1 {
		return fmt.Errorf("%w: slip %v not in [0, 1)", planning.ErrInvalidConfig, g.Slip)
	}
	return nil
}

// Model builds the grid world
func (g GridConfig) Model() *grid.GridModel {
	doors := make([]grid.Door, 0, g.Grids-1)
	for k := 0; k+1 < g.Grids; k++ {
		doors = append(doors, grid.Door{
			From: grid.Position{I: g.Height - 1, J: g.Width - 1, K: k},
			To:   grid.Position{I: 0, J: 0, K: k + 1},
		})
	}
	model := grid.NewGridModel(g.Height, g.Width, g.Grids, doors...).WithSlip(g.Slip)
	return model.WithGoal(model.Goal, g.GoalReward)
}

// override applies the flags set on the command line
func (c *Config) override(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("gamma") {
		c.Planning.Discount = gamma
	}
	if flags.Changed("epsilon") {
		c.Planning.Epsilon = epsilon
	}
	if flags.Changed("max-sweeps") {
		c.Planning.MaxSweeps = maxSweeps
	}
	if flags.Changed("max-backups") {
		c.Planning.MaxBackups = maxBackups
	}
	if flags.Changed("time-budget") {
		c.Planning.TimeBudget = timeBudget
	}
	if flags.Changed("height") {
		c.Grid.Height = height
	}
	if flags.Changed("width") {
		c.Grid.Width = width
	}
	if flags.Changed("grids") {
		c.Grid.Grids = grids
	}
	if flags.Changed("slip") {
		c.Grid.Slip = slip
	}
}

// commandConfig loads the config file and applies the command line overrides
func commandConfig(cmd *cobra.Command) (Config, error) {
	config, err := LoadConfig(configFile)
	if err != nil {
		return config, err
	}
	config.override(cmd)
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}
