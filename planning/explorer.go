package planning

import (
	"context"
	"log/slog"

	"github.com/zeu5/rl-planner/types"
)

// ExplorationListener is notified while the explorer discovers the state graph
type ExplorationListener interface {
	// StateDiscovered is called once for every state added to the reachable set
	StateDiscovered(types.StateKey, types.State)
	// StateExpanded is called with the transitions of every expanded state
	StateExpanded(types.StateKey, []ActionTransitions)
}

// Explorer computes the reachable state set with a breadth first search over
// the transition cache. The frontier survives across calls, so an exploration
// interrupted by an error or a cancelled context resumes on the next call.
type Explorer struct {
	cache *TransitionCache
	prune bool

	closed   map[types.StateKey]bool
	opened   map[types.StateKey]bool
	frontier []types.StateKey
	order    []types.StateKey

	expansions int
	listeners  []ExplorationListener
	logger     *slog.Logger
}

func NewExplorer(cache *TransitionCache, pruneTerminals bool, logger *slog.Logger) *Explorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Explorer{
		cache:     cache,
		prune:     pruneTerminals,
		closed:    make(map[types.StateKey]bool),
		opened:    make(map[types.StateKey]bool),
		frontier:  make([]types.StateKey, 0),
		order:     make([]types.StateKey, 0),
		listeners: make([]ExplorationListener, 0),
		logger:    logger,
	}
}

func (e *Explorer) AddListener(l ExplorationListener) {
	e.listeners = append(e.listeners, l)
}

// Explore discovers every state reachable from the seeds.
// Returns the number of states expanded by this call; exploring again from
// explored seeds with an unchanged model expands nothing.
func (e *Explorer) Explore(ctx context.Context, seeds ...types.State) (int, error) {
	for _, s := range seeds {
		key, _ := e.cache.Register(s)
		e.open(key)
	}

	expanded := 0
	for len(e.frontier) > 0 {
		select {
		case <-ctx.Done():
			return expanded, ctx.Err()
		default:
		}

		key := e.frontier[0]
		if e.closed[key] {
			e.frontier = e.frontier[1:]
			continue
		}
		s, _ := e.cache.State(key)

		if e.cache.IsTerminal(key) && e.prune {
			e.frontier = e.frontier[1:]
			e.close(key, s)
			continue
		}

		transitions, err := e.cache.Transitions(key)
		if err != nil {
			return expanded, err
		}
		e.frontier = e.frontier[1:]
		e.close(key, s)
		expanded += 1
		e.expansions += 1
		expansionsTotal.Inc()

		for _, l := range e.listeners {
			l.StateExpanded(key, transitions)
		}
		for _, at := range transitions {
			for _, t := range at.Transitions {
				e.open(t.Next)
			}
		}
	}
	if expanded > 0 {
		e.logger.Debug("exploration finished",
			slog.Int("expanded", expanded),
			slog.Int("reachable", len(e.order)),
		)
	}
	return expanded, nil
}

func (e *Explorer) open(key types.StateKey) {
	if e.opened[key] || e.closed[key] {
		return
	}
	e.opened[key] = true
	e.frontier = append(e.frontier, key)
}

func (e *Explorer) close(key types.StateKey, s types.State) {
	e.closed[key] = true
	delete(e.opened, key)
	e.order = append(e.order, key)
	for _, l := range e.listeners {
		l.StateDiscovered(key, s)
	}
}

// Reachable returns the discovered keys in discovery order.
// The slice is owned by the explorer and must not be modified.
func (e *Explorer) Reachable() []types.StateKey {
	return e.order
}

func (e *Explorer) Contains(key types.StateKey) bool {
	return e.closed[key]
}

func (e *Explorer) Size() int {
	return len(e.order)
}

// Pending is the number of states waiting in the frontier
func (e *Explorer) Pending() int {
	return len(e.frontier)
}

// Expansions counts every expansion since the last reset
func (e *Explorer) Expansions() int {
	return e.expansions
}

func (e *Explorer) Reset() {
	e.closed = make(map[types.StateKey]bool)
	e.opened = make(map[types.StateKey]bool)
	e.frontier = make([]types.StateKey, 0)
	e.order = make([]types.StateKey, 0)
	e.expansions = 0
}
