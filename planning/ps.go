package planning

import (
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/zeu5/rl-planner/types"
	"github.com/zeu5/rl-planner/util"
)

// BackPointer is a predecessor edge u->v stored on v's node
type BackPointer struct {
	// From is the node id of the predecessor u
	From int
	// ForwardProb is the largest P(v|u,a) over the actions of u
	ForwardProb float64
}

// BackPointerNode is a state of the discovered transition graph as seen by
// prioritized sweeping. Nodes live in their owner's arena and are addressed by id.
type BackPointerNode struct {
	Owner                 uuid.UUID
	ID                    int
	Key                   types.StateKey
	Priority              float64
	MaxSelfTransitionProb float64
	Predecessors          []BackPointer

	predIndex map[int]int
}

func newBackPointerNode(owner uuid.UUID, id int, key types.StateKey) *BackPointerNode {
	return &BackPointerNode{
		Owner:        owner,
		ID:           id,
		Key:          key,
		Priority:     math.Inf(1),
		Predecessors: make([]BackPointer, 0),
		predIndex:    make(map[int]int),
	}
}

// Equal compares nodes by owner and key
func (n *BackPointerNode) Equal(other *BackPointerNode) bool {
	return n.Owner == other.Owner && n.Key == other.Key
}

// addPredecessor records the edge from the predecessor, keeping the largest
// forward probability seen so far
func (n *BackPointerNode) addPredecessor(from int, prob float64) {
	if i, ok := n.predIndex[from]; ok {
		if prob > n.Predecessors[i].ForwardProb {
			n.Predecessors[i].ForwardProb = prob
		}
		return
	}
	n.predIndex[from] = len(n.Predecessors)
	n.Predecessors = append(n.Predecessors, BackPointer{From: from, ForwardProb: prob})
}

// forwardProb returns the stored probability of the edge from the predecessor
func (n *BackPointerNode) forwardProb(from int) (float64, bool) {
	i, ok := n.predIndex[from]
	if !ok {
		return 0, false
	}
	return n.Predecessors[i].ForwardProb, true
}

// PrioritizedSweeping backs up states in the order of the expected magnitude of
// their next change. A backup of n with error δ re-queues n with priority
// δ·maxSelfTransitionProb and raises every predecessor p to at least
// forwardProb(p->n)·δ.
type PrioritizedSweeping struct {
	id    uuid.UUID
	c     *Components
	nodes []*BackPointerNode
	ids   map[types.StateKey]int
	heap  *util.IndexedHeap[int]
}

var _ Scheduler = &PrioritizedSweeping{}
var _ ExplorationListener = &PrioritizedSweeping{}

func NewPrioritizedSweeping() *PrioritizedSweeping {
	return &PrioritizedSweeping{
		id:    uuid.New(),
		nodes: make([]*BackPointerNode, 0),
		ids:   make(map[types.StateKey]int),
		heap:  util.NewMaxHeap[int](),
	}
}

func (p *PrioritizedSweeping) Name() string {
	return "prioritized_sweeping"
}

func (p *PrioritizedSweeping) Attach(c *Components) {
	p.c = c
	c.Explorer.AddListener(p)
}

func (p *PrioritizedSweeping) Reset() {
	p.nodes = make([]*BackPointerNode, 0)
	p.ids = make(map[types.StateKey]int)
	p.heap.Clear()
}

func (p *PrioritizedSweeping) node(key types.StateKey) *BackPointerNode {
	if id, ok := p.ids[key]; ok {
		return p.nodes[id]
	}
	n := newBackPointerNode(p.id, len(p.nodes), key)
	p.nodes = append(p.nodes, n)
	p.ids[key] = n.ID
	return n
}

// Node returns the back-pointer node of the key
func (p *PrioritizedSweeping) Node(key types.StateKey) (*BackPointerNode, bool) {
	id, ok := p.ids[key]
	if !ok {
		return nil, false
	}
	return p.nodes[id], true
}

// Priority returns the queued priority of the key
func (p *PrioritizedSweeping) Priority(key types.StateKey) (float64, bool) {
	id, ok := p.ids[key]
	if !ok {
		return 0, false
	}
	return p.heap.Priority(id)
}

func (p *PrioritizedSweeping) StateDiscovered(key types.StateKey, _ types.State) {
	n := p.node(key)
	p.heap.Push(n.ID, n.Priority)
}

func (p *PrioritizedSweeping) StateExpanded(key types.StateKey, transitions []ActionTransitions) {
	from := p.node(key)
	for _, at := range transitions {
		// the same successor key may appear more than once for one action
		perAction := make(map[types.StateKey]float64)
		order := make([]types.StateKey, 0)
		for _, t := range at.Transitions {
			if _, ok := perAction[t.Next]; !ok {
				order = append(order, t.Next)
			}
			perAction[t.Next] += t.Probability
		}
		for _, next := range order {
			prob := perAction[next]
			if next == key {
				from.MaxSelfTransitionProb = math.Max(from.MaxSelfTransitionProb, prob)
				continue
			}
			p.node(next).addPredecessor(from.ID, prob)
		}
	}
}

// raise sets the node priority to at least priority and restores the heap order.
// Nodes that are not queued keep the raised priority for when they are pushed.
func (p *PrioritizedSweeping) raise(n *BackPointerNode, priority float64) {
	if priority <= n.Priority {
		return
	}
	n.Priority = priority
	p.heap.Update(n.ID, priority)
}

// requeueAll gives every node an infinite priority, so each state is backed up
// at least once per plan request
func (p *PrioritizedSweeping) requeueAll() {
	for _, n := range p.nodes {
		if !p.c.Explorer.Contains(n.Key) {
			continue
		}
		n.Priority = math.Inf(1)
		p.heap.Push(n.ID, n.Priority)
	}
}

func (p *PrioritizedSweeping) Run(run *runControl) (Result, error) {
	cfg := p.c.Config
	result := Result{Scheduler: p.Name(), Status: StatusSweeping, MaxDelta: math.Inf(1)}
	if p.c.Explorer.Size() == 0 {
		return result, ErrNotExplored
	}
	if cfg.RecordHistory {
		result.History = make([]float64, 0)
	}
	p.requeueAll()

	for {
		_, top, ok := p.heap.Peek()
		if !ok || top <= cfg.Epsilon {
			if ok {
				result.MaxDelta = top
			} else {
				result.MaxDelta = 0
			}
			result.Status = StatusConverged
			break
		}
		result.MaxDelta = top
		if cfg.MaxBackups != UnlimitedBackups && result.Backups >= cfg.MaxBackups {
			result.Status = StatusBudgetExhausted
			break
		}
		if status, stop := run.interrupted(); stop {
			result.Status = status
			return result, run.err(status)
		}

		id, _, _ := p.heap.Poll()
		n := p.nodes[id]
		_, delta, err := p.c.Backup.Backup(n.Key)
		if err != nil {
			return result, err
		}

		n.Priority = delta * n.MaxSelfTransitionProb
		p.heap.Push(n.ID, n.Priority)
		for _, bp := range n.Predecessors {
			p.raise(p.nodes[bp.From], bp.ForwardProb*delta)
		}

		result.Backups += 1
		backupsTotal.WithLabelValues(p.Name()).Inc()
		if cfg.RecordHistory {
			result.History = append(result.History, delta)
		}
		if cfg.ProgressEvery > 0 && result.Backups%cfg.ProgressEvery == 0 {
			p.c.Logger.Debug("backups progress",
				slog.Int("backups", result.Backups),
				slog.Float64("top_priority", top),
			)
			run.report(Progress{
				Scheduler: p.Name(),
				Backups:   result.Backups,
				MaxDelta:  top,
			})
		}
	}
	return result, nil
}
