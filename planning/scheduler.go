package planning

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"time"
)

// Status of a planner or of a finished plan request
type Status int

const (
	StatusNotPlanned Status = iota
	StatusExplored
	StatusSweeping
	// StatusConverged means the Bellman error dropped below epsilon
	StatusConverged
	// StatusBudgetExhausted means the sweep or backup budget ran out first.
	// Values are usable but not guaranteed to be epsilon optimal.
	StatusBudgetExhausted
	StatusCancelled
	StatusTimedOut
)

func (s Status) String() string {
	switch s {
	case StatusNotPlanned:
		return "not_planned"
	case StatusExplored:
		return "explored"
	case StatusSweeping:
		return "sweeping"
	case StatusConverged:
		return "converged"
	case StatusBudgetExhausted:
		return "budget_exhausted"
	case StatusCancelled:
		return "cancelled"
	case StatusTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result of a plan request
type Result struct {
	Scheduler string        `json:"scheduler"`
	Status    Status        `json:"status"`
	Sweeps    int           `json:"sweeps"`
	Backups   int           `json:"backups"`
	MaxDelta  float64       `json:"max_delta"`
	Reachable int           `json:"reachable"`
	Expanded  int           `json:"expanded"`
	Duration  time.Duration `json:"duration"`
	// History of the Bellman error per sweep (value iteration) or per backup
	// (prioritized sweeping), only when Config.RecordHistory is set
	History []float64 `json:"history,omitempty"`
}

// Converged reports whether the result is epsilon optimal
func (r Result) Converged() bool {
	return r.Status == StatusConverged
}

// MarshalJSON writes an infinite MaxDelta, reported when the budget ran out
// before every state was backed up, as null
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	out := struct {
		plain
		MaxDelta *float64 `json:"max_delta"`
	}{plain: plain(r)}
	if !math.IsInf(r.MaxDelta, 0) && !math.IsNaN(r.MaxDelta) {
		out.MaxDelta = &r.MaxDelta
	}
	return json.Marshal(out)
}

// Progress is a best effort report sent while a scheduler runs
type Progress struct {
	Scheduler string
	Sweeps    int
	Backups   int
	MaxDelta  float64
}

// Components shared by every scheduler of a planner
type Components struct {
	Config   Config
	Cache    *TransitionCache
	Explorer *Explorer
	Values   *ValueTable
	Backup   *BellmanOperator
	Logger   *slog.Logger
}

// Scheduler decides the order of Bellman backups
type Scheduler interface {
	Name() string
	// Attach binds the scheduler to the shared components, before any exploration
	Attach(*Components)
	// Run performs backups until convergence, budget exhaustion or interruption
	Run(*runControl) (Result, error)
	// Reset drops the scheduler's own structures
	Reset()
}

// runControl carries the interruption points of a plan request
type runControl struct {
	ctx      context.Context
	deadline time.Time
	progress chan<- Progress
}

func newRunControl(ctx context.Context, budget time.Duration, progress chan<- Progress) *runControl {
	r := &runControl{ctx: ctx, progress: progress}
	if budget > 0 {
		r.deadline = time.Now().Add(budget)
	}
	return r
}

// interrupted is checked between sweeps and between backups
func (r *runControl) interrupted() (Status, bool) {
	select {
	case <-r.ctx.Done():
		return StatusCancelled, true
	default:
	}
	if !r.deadline.IsZero() && time.Now().After(r.deadline) {
		return StatusTimedOut, true
	}
	return 0, false
}

// err is the error returned along with an interrupted result
func (r *runControl) err(status Status) error {
	if status == StatusCancelled {
		return r.ctx.Err()
	}
	return nil
}

func (r *runControl) report(p Progress) {
	if r.progress == nil {
		return
	}
	select {
	case r.progress <- p:
	default:
	}
}
