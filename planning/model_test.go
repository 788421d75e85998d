package planning

import (
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/zeu5/rl-planner/types"
)

type label string

func (n label) Hash() string {
	return string(n)
}

// tableModel is an MDP given by explicit transition tables
type tableModel struct {
	outcomes map[string]map[string][]types.Outcome
	terminal map[string]bool
	delay    time.Duration
}

var _ types.Model = &tableModel{}

func newTableModel() *tableModel {
	return &tableModel{
		outcomes: make(map[string]map[string][]types.Outcome),
		terminal: make(map[string]bool),
	}
}

func (m *tableModel) add(from, action, to string, prob, reward float64) *tableModel {
	if _, ok := m.outcomes[from]; !ok {
		m.outcomes[from] = make(map[string][]types.Outcome)
	}
	m.outcomes[from][action] = append(m.outcomes[from][action], types.Outcome{
		Next:        label(to),
		Probability: prob,
		Reward:      reward,
	})
	return m
}

func (m *tableModel) setTerminal(states ...string) *tableModel {
	for _, s := range states {
		m.terminal[s] = true
	}
	return m
}

func (m *tableModel) Actions(s types.State) []types.Action {
	names := make([]string, 0)
	for a := range m.outcomes[s.Hash()] {
		names = append(names, a)
	}
	sort.Strings(names)
	actions := make([]types.Action, len(names))
	for i, a := range names {
		actions[i] = label(a)
	}
	return actions
}

func (m *tableModel) Transitions(s types.State, a types.Action) []types.Outcome {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	outcomes := m.outcomes[s.Hash()][a.Hash()]
	out := make([]types.Outcome, len(outcomes))
	copy(out, outcomes)
	return out
}

func (m *tableModel) IsTerminal(s types.State) bool {
	return m.terminal[s.Hash()]
}

// setReward changes the reward of every outcome of the action
func (m *tableModel) setReward(from, action string, reward float64) {
	for i := range m.outcomes[from][action] {
		m.outcomes[from][action][i].Reward = reward
	}
}

// chainModel is S0 -> S1 -> S2 (terminal), reward -1 per step
func chainModel() *tableModel {
	return newTableModel().
		add("S0", "go", "S1", 1, -1).
		add("S1", "go", "S2", 1, -1).
		setTerminal("S2")
}

// selfLoopModel is S0 looping on itself with 0.9 and reaching terminal S1 with 0.1
func selfLoopModel() *tableModel {
	return newTableModel().
		add("S0", "go", "S0", 0.9, -1).
		add("S0", "go", "S1", 0.1, -1).
		setTerminal("S1")
}

// randomModel builds a cyclic stochastic MDP where every state can reach the
// terminal state "T"
func randomModel(seed int64, states, actions int) *tableModel {
	r := rand.New(rand.NewSource(seed))
	m := newTableModel().setTerminal("T")
	stateName := func(i int) string {
		return "s" + strconv.Itoa(i)
	}
	for i := 0; i < states; i++ {
		for a := 0; a < actions; a++ {
			action := "a" + strconv.Itoa(a)
			succ := 1 + r.Intn(3)
			weights := make([]float64, succ+1)
			total := 0.0
			for j := range weights {
				weights[j] = r.Float64() + 0.05
				total += weights[j]
			}
			for j := 0; j < succ; j++ {
				m.add(stateName(i), action, stateName(r.Intn(states)), weights[j]/total, r.Float64()*2-1)
			}
			m.add(stateName(i), action, "T", weights[succ]/total, r.Float64()*2-1)
		}
	}
	return m
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Discount = 0.9
	cfg.Epsilon = 1e-9
	cfg.MaxSweeps = 10000
	return cfg
}
