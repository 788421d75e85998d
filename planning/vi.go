package planning

import (
	"log/slog"
	"math"
)

// ValueIteration backs up every reachable state once per sweep until the
// largest Bellman error of a sweep drops below epsilon or the sweep budget runs out.
type ValueIteration struct {
	c *Components
}

var _ Scheduler = &ValueIteration{}

func NewValueIteration() *ValueIteration {
	return &ValueIteration{}
}

func (v *ValueIteration) Name() string {
	return "value_iteration"
}

func (v *ValueIteration) Attach(c *Components) {
	v.c = c
}

func (v *ValueIteration) Reset() {}

// Sweep backs up every reachable state once and returns the largest Bellman error.
// States are backed up in reverse discovery order, so successors found later by
// the breadth first search are updated before their predecessors.
func (v *ValueIteration) Sweep() (float64, error) {
	if v.c.Explorer.Size() == 0 {
		return 0, ErrNotExplored
	}
	maxDelta := 0.0
	reachable := v.c.Explorer.Reachable()
	for i := len(reachable) - 1; i >= 0; i-- {
		_, delta, err := v.c.Backup.Backup(reachable[i])
		if err != nil {
			return maxDelta, err
		}
		maxDelta = math.Max(maxDelta, delta)
	}
	return maxDelta, nil
}

func (v *ValueIteration) Run(run *runControl) (Result, error) {
	cfg := v.c.Config
	result := Result{Scheduler: v.Name(), Status: StatusSweeping, MaxDelta: math.Inf(1)}
	if v.c.Explorer.Size() == 0 {
		return result, ErrNotExplored
	}
	if cfg.RecordHistory {
		result.History = make([]float64, 0)
	}

	for result.Sweeps < cfg.MaxSweeps {
		if status, stop := run.interrupted(); stop {
			result.Status = status
			return result, run.err(status)
		}

		maxDelta, err := v.Sweep()
		if err != nil {
			return result, err
		}
		result.Sweeps += 1
		result.Backups += v.c.Explorer.Size()
		result.MaxDelta = maxDelta
		if cfg.RecordHistory {
			result.History = append(result.History, maxDelta)
		}
		sweepsTotal.Inc()
		backupsTotal.WithLabelValues(v.Name()).Add(float64(v.c.Explorer.Size()))

		v.c.Logger.Debug("sweep finished",
			slog.Int("sweep", result.Sweeps),
			slog.Float64("max_delta", maxDelta),
		)
		run.report(Progress{
			Scheduler: v.Name(),
			Sweeps:    result.Sweeps,
			Backups:   result.Backups,
			MaxDelta:  maxDelta,
		})

		if maxDelta < cfg.Epsilon {
			result.Status = StatusConverged
			return result, nil
		}
	}
	result.Status = StatusBudgetExhausted
	return result, nil
}
