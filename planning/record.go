package planning

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/zeu5/rl-planner/types"
)

// GraphNode is the recorded view of one explored state
type GraphNode struct {
	Key      types.StateKey `json:"key"`
	Value    float64        `json:"value"`
	Terminal bool           `json:"terminal"`
	// Next maps an action hash to the successor keys and probabilities
	Next map[string]map[types.StateKey]float64 `json:"next,omitempty"`
}

// Recording of a planner after a plan request
type Recording struct {
	Planner   string                       `json:"planner"`
	Scheduler string                       `json:"scheduler"`
	Status    Status                       `json:"status"`
	Config    Config                       `json:"config"`
	Nodes     map[types.StateKey]GraphNode `json:"nodes"`
}

// Recording builds the explored graph along with the values. Transitions are
// read from the cache only, nothing is recomputed.
func (p *Planner) Recording() *Recording {
	r := &Recording{
		Planner:   p.ID.String(),
		Scheduler: p.scheduler.Name(),
		Status:    p.status,
		Config:    p.config,
		Nodes:     make(map[types.StateKey]GraphNode),
	}
	for _, key := range p.c.Explorer.Reachable() {
		node := GraphNode{
			Key:      key,
			Value:    p.c.Values.Value(key),
			Terminal: p.c.Cache.IsTerminal(key),
		}
		if p.c.Cache.Cached(key) {
			transitions, _ := p.c.Cache.Transitions(key)
			node.Next = make(map[string]map[types.StateKey]float64)
			for _, at := range transitions {
				next := make(map[types.StateKey]float64)
				for _, t := range at.Transitions {
					next[t.Next] += t.Probability
				}
				node.Next[at.Action.Hash()] = next
			}
		}
		r.Nodes[key] = node
	}
	return r
}

// Record writes the recording as JSON to filePath
func (p *Planner) Record(filePath string) error {
	bs, err := json.Marshal(p.Recording())
	if err != nil {
		return err
	}
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()
	writer := bufio.NewWriter(file)
	if _, err := writer.Write(bs); err != nil {
		return err
	}
	return writer.Flush()
}
