package planning

import (
	"fmt"
	"math"
	"time"
)

// DeadEndPolicy decides how non-terminal states without applicable actions are handled
type DeadEndPolicy string

const (
	// DeadEndTerminal treats the state as terminal with value 0
	DeadEndTerminal DeadEndPolicy = "terminal"
	// DeadEndError fails exploration with ErrDeadEnd
	DeadEndError DeadEndPolicy = "error"
)

// UnlimitedBackups disables the backup budget of prioritized sweeping
const UnlimitedBackups = -1

// Config of a planner. The zero value is not usable, start from DefaultConfig.
type Config struct {
	// Discount factor, fixed for a run
	Discount float64 `json:"discount" yaml:"discount"`
	// Epsilon is the convergence tolerance on the Bellman error
	Epsilon float64 `json:"epsilon" yaml:"epsilon"`
	// MaxSweeps caps value iteration sweeps
	MaxSweeps int `json:"max_sweeps" yaml:"max_sweeps"`
	// MaxBackups caps prioritized sweeping backups, UnlimitedBackups for no cap
	MaxBackups int `json:"max_backups" yaml:"max_backups"`
	// TimeBudget bounds the wall clock time of a plan request, 0 for no bound
	TimeBudget time.Duration `json:"time_budget" yaml:"time_budget"`

	// CacheTransitions memoizes model transitions, otherwise they are
	// recomputed on every query
	CacheTransitions bool `json:"cache_transitions" yaml:"cache_transitions"`
	// PruneTerminals stops exploration at terminal states
	PruneTerminals bool `json:"prune_terminals" yaml:"prune_terminals"`
	// DeadEnds policy for non-terminal states without actions
	DeadEnds DeadEndPolicy `json:"dead_ends" yaml:"dead_ends"`
	// ProbabilityTolerance on the sum of a transition distribution
	ProbabilityTolerance float64 `json:"probability_tolerance" yaml:"probability_tolerance"`

	// ResetBetweenPlans clears every structure at the start of each plan request.
	// When false, the explored states, cached transitions and values are reused.
	ResetBetweenPlans bool `json:"reset_between_plans" yaml:"reset_between_plans"`
	// RecordHistory keeps the Bellman error of every sweep or backup in the result
	RecordHistory bool `json:"record_history" yaml:"record_history"`
	// ProgressEvery is the number of backups between progress reports of
	// prioritized sweeping. Value iteration reports every sweep.
	ProgressEvery int `json:"progress_every" yaml:"progress_every"`
}

func DefaultConfig() Config {
	return Config{
		Discount:             0.99,
		Epsilon:              1e-6,
		MaxSweeps:            1000,
		MaxBackups:           UnlimitedBackups,
		TimeBudget:           0,
		CacheTransitions:     true,
		PruneTerminals:       true,
		DeadEnds:             DeadEndTerminal,
		ProbabilityTolerance: 1e-6,
		ResetBetweenPlans:    false,
		RecordHistory:        false,
		ProgressEvery:        1000,
	}
}

// Validate checks the ranges of the configuration
func (c Config) Validate() error {
	if math.IsNaN(c.Discount) || c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("%w: discount %v not in [0, 1]", ErrInvalidConfig, c.Discount)
	}
	if math.IsNaN(c.Epsilon) || c.Epsilon < 0 {
		return fmt.Errorf("%w: epsilon %v is negative", ErrInvalidConfig, c.Epsilon)
	}
	if c.MaxSweeps < 1 {
		return fmt.Errorf("%w: max sweeps %d < 1", ErrInvalidConfig, c.MaxSweeps)
	}
	if c.MaxBackups == 0 || c.MaxBackups < UnlimitedBackups {
		return fmt.Errorf("%w: max backups %d must be positive or %d", ErrInvalidConfig, c.MaxBackups, UnlimitedBackups)
	}
	if c.TimeBudget < 0 {
		return fmt.Errorf("%w: negative time budget %s", ErrInvalidConfig, c.TimeBudget)
	}
	if c.DeadEnds != DeadEndTerminal && c.DeadEnds != DeadEndError {
		return fmt.Errorf("%w: unknown dead end policy %q", ErrInvalidConfig, c.DeadEnds)
	}
	if math.IsNaN(c.ProbabilityTolerance) || c.ProbabilityTolerance < 0 {
		return fmt.Errorf("%w: probability tolerance %v is negative", ErrInvalidConfig, c.ProbabilityTolerance)
	}
	if c.ProgressEvery < 0 {
		return fmt.Errorf("%w: progress interval %d is negative", ErrInvalidConfig, c.ProgressEvery)
	}
	return nil
}
