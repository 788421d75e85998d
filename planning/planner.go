package planning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/zeu5/rl-planner/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ValueReader is the read-only view of a planner that policies and
// diagnostics consume
type ValueReader interface {
	Key(types.State) types.StateKey
	Value(types.StateKey) float64
	QValues(types.StateKey) ([]QValue, error)
}

type Option func(*Planner)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// WithStateAbstractor sets the state equivalence used to key every structure
func WithStateAbstractor(abstractor types.StateAbstractor) Option {
	return func(p *Planner) {
		p.abstractor = abstractor
	}
}

func WithValueInitializer(init ValueInitializer) Option {
	return func(p *Planner) {
		p.init = init
	}
}

// WithProgress sets a channel receiving best effort progress reports.
// Reports are dropped when the channel is not ready.
func WithProgress(progress chan<- Progress) Option {
	return func(p *Planner) {
		p.progress = progress
	}
}

// Planner plans over the lazily discovered state space of a model.
// The reachability explorer, transition cache, value table and backup operator
// are shared; the scheduler decides the order of backups.
// A planner is not safe for concurrent use.
type Planner struct {
	ID         uuid.UUID
	config     Config
	model      types.Model
	abstractor types.StateAbstractor
	init       ValueInitializer
	logger     *slog.Logger
	progress   chan<- Progress

	c         *Components
	scheduler Scheduler
	status    Status
}

var _ ValueReader = &Planner{}

// NewPlanner creates a planner using the given scheduler
func NewPlanner(model types.Model, scheduler Scheduler, config Config, opts ...Option) (*Planner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", ErrInvalidConfig)
	}
	if scheduler == nil {
		return nil, fmt.Errorf("%w: nil scheduler", ErrInvalidConfig)
	}
	p := &Planner{
		ID:         uuid.New(),
		config:     config,
		model:      model,
		abstractor: types.DefaultStateAbstractor(),
		init:       ConstantValue(0),
		logger:     slog.Default(),
		scheduler:  scheduler,
		status:     StatusNotPlanned,
	}
	for _, o := range opts {
		o(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	cache := NewTransitionCache(model, p.abstractor, config)
	explorer := NewExplorer(cache, config.PruneTerminals, p.logger)
	values := NewValueTable(p.init, cache.IsTerminal)
	explorer.AddListener(values)
	p.c = &Components{
		Config:   config,
		Cache:    cache,
		Explorer: explorer,
		Values:   values,
		Backup:   NewBellmanOperator(config.Discount, cache, values, explorer),
		Logger:   p.logger,
	}
	scheduler.Attach(p.c)
	return p, nil
}

func NewValueIterationPlanner(model types.Model, config Config, opts ...Option) (*Planner, error) {
	return NewPlanner(model, NewValueIteration(), config, opts...)
}

func NewPrioritizedSweepingPlanner(model types.Model, config Config, opts ...Option) (*Planner, error) {
	return NewPlanner(model, NewPrioritizedSweeping(), config, opts...)
}

// Explore runs reachability analysis from the seeds without backing up values
func (p *Planner) Explore(ctx context.Context, seeds ...types.State) (int, error) {
	expanded, err := p.c.Explorer.Explore(ctx, seeds...)
	if err != nil {
		return expanded, err
	}
	if p.c.Explorer.Size() > 0 && p.status == StatusNotPlanned {
		p.status = StatusExplored
	}
	return expanded, nil
}

// Plan explores the states reachable from the seeds, if not explored yet, and
// runs the scheduler. The result tells whether the values converged or the
// budget ran out. The time budget of the configuration starts with the request.
func (p *Planner) Plan(ctx context.Context, seeds ...types.State) (Result, error) {
	start := time.Now()
	name := p.scheduler.Name()
	ctx, span := tracer.Start(ctx, "planning.Planner.Plan",
		trace.WithAttributes(
			attribute.String("scheduler", name),
			attribute.String("planner_id", p.ID.String()),
			attribute.Int("seeds", len(seeds)),
		),
	)
	defer span.End()

	if p.config.ResetBetweenPlans {
		p.Reset()
	}
	if len(seeds) == 0 && p.c.Explorer.Size() == 0 && p.c.Explorer.Pending() == 0 {
		span.RecordError(ErrNoSeeds)
		span.SetStatus(codes.Error, "no seeds")
		return Result{Scheduler: name, Status: p.status}, ErrNoSeeds
	}
	run := newRunControl(ctx, p.config.TimeBudget, p.progress)

	exploreCtx := ctx
	if !run.deadline.IsZero() {
		var cancel context.CancelFunc
		exploreCtx, cancel = context.WithDeadline(ctx, run.deadline)
		defer cancel()
	}
	expanded, err := p.Explore(exploreCtx, seeds...)
	if err != nil {
		result := Result{Scheduler: name, Status: p.status, Expanded: expanded, Reachable: p.c.Explorer.Size(), MaxDelta: math.Inf(1)}
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			// the time budget ran out, the frontier is kept for the next request
			result.Status = StatusTimedOut
			result.Duration = time.Since(start)
			plansTotal.WithLabelValues(name, result.Status.String()).Inc()
			span.SetAttributes(attribute.String("status", result.Status.String()))
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			result.Status = StatusCancelled
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "exploration failed")
		return result, fmt.Errorf("exploration: %w", err)
	}

	p.status = StatusSweeping
	result, err := p.scheduler.Run(run)
	result.Expanded = expanded
	result.Reachable = p.c.Explorer.Size()
	result.Duration = time.Since(start)
	p.status = result.Status

	plansTotal.WithLabelValues(name, result.Status.String()).Inc()
	planDuration.WithLabelValues(name).Observe(result.Duration.Seconds())
	span.SetAttributes(
		attribute.String("status", result.Status.String()),
		attribute.Int("sweeps", result.Sweeps),
		attribute.Int("backups", result.Backups),
		attribute.Int("reachable", result.Reachable),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scheduler failed")
		return result, err
	}
	span.SetStatus(codes.Ok, result.Status.String())

	p.logger.Info("plan finished",
		slog.String("scheduler", name),
		slog.String("status", result.Status.String()),
		slog.Int("reachable", result.Reachable),
		slog.Int("expanded", result.Expanded),
		slog.Int("sweeps", result.Sweeps),
		slog.Int("backups", result.Backups),
		slog.Float64("max_delta", result.MaxDelta),
		slog.Duration("duration", result.Duration),
	)
	return result, nil
}

// Backup performs a single Bellman backup of the key
func (p *Planner) Backup(key types.StateKey) (float64, float64, error) {
	return p.c.Backup.Backup(key)
}

func (p *Planner) Key(s types.State) types.StateKey {
	return p.c.Cache.Key(s)
}

// Value of the key, 0 for keys that were not discovered
func (p *Planner) Value(key types.StateKey) float64 {
	return p.c.Values.Value(key)
}

// StateValue is the value of the state's key
func (p *Planner) StateValue(s types.State) float64 {
	return p.Value(p.Key(s))
}

func (p *Planner) QValues(key types.StateKey) ([]QValue, error) {
	return p.c.Backup.QValues(key)
}

// Values returns a copy of the value table
func (p *Planner) Values() map[types.StateKey]float64 {
	return p.c.Values.Snapshot()
}

// State returns the representative state of a discovered key
func (p *Planner) State(key types.StateKey) (types.State, bool) {
	if !p.c.Explorer.Contains(key) {
		return nil, false
	}
	return p.c.Cache.State(key)
}

func (p *Planner) IsTerminal(key types.StateKey) bool {
	return p.c.Cache.IsTerminal(key)
}

// Reachable returns the discovered keys. The slice must not be modified.
func (p *Planner) Reachable() []types.StateKey {
	return p.c.Explorer.Reachable()
}

func (p *Planner) Expansions() int {
	return p.c.Explorer.Expansions()
}

func (p *Planner) Status() Status {
	return p.status
}

func (p *Planner) Config() Config {
	return p.config
}

func (p *Planner) Scheduler() Scheduler {
	return p.scheduler
}

// Cache exposes the transition cache, for instance to count model queries
func (p *Planner) Cache() *TransitionCache {
	return p.c.Cache
}

// Invalidate drops the memoized transitions, to be called after the model's
// rewards changed. Explored states and values are kept for replanning.
func (p *Planner) Invalidate() {
	p.c.Cache.Invalidate()
}

// Reset clears every structure so the next plan starts from scratch
func (p *Planner) Reset() {
	p.c.Cache.Clear()
	p.c.Explorer.Reset()
	p.c.Values.Clear()
	p.scheduler.Reset()
	p.status = StatusNotPlanned
}
