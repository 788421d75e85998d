package types

// Trace of an episode as (state, action, reward, nextState) steps
type Trace struct {
	states     []State
	actions    []Action
	rewards    []float64
	nextStates []State
}

func NewTrace() *Trace {
	return &Trace{
		states:     make([]State, 0),
		actions:    make([]Action, 0),
		rewards:    make([]float64, 0),
		nextStates: make([]State, 0),
	}
}

func (t *Trace) Append(state State, action Action, reward float64, nextState State) {
	t.states = append(t.states, state)
	t.actions = append(t.actions, action)
	t.rewards = append(t.rewards, reward)
	t.nextStates = append(t.nextStates, nextState)
}

func (t *Trace) Len() int {
	return len(t.states)
}

func (t *Trace) Get(i int) (State, Action, float64, State, bool) {
	if i < 0 || i >= len(t.states) {
		return nil, nil, 0, nil, false
	}
	return t.states[i], t.actions[i], t.rewards[i], t.nextStates[i], true
}

func (t *Trace) Last() (State, Action, float64, State, bool) {
	return t.Get(len(t.states) - 1)
}

// Return is the discounted sum of the rewards in the trace
func (t *Trace) Return(discount float64) float64 {
	total := 0.0
	factor := 1.0
	for _, r := range t.rewards {
		total += factor * r
		factor *= discount
	}
	return total
}

// MarshalableTrace is the JSON form of a trace, states and actions by hash
type MarshalableTrace struct {
	States  []string  `json:"states"`
	Actions []string  `json:"actions"`
	Rewards []float64 `json:"rewards"`
}

func (t *Trace) Marshalable() MarshalableTrace {
	out := MarshalableTrace{
		States:  make([]string, 0, len(t.states)+1),
		Actions: make([]string, len(t.actions)),
		Rewards: make([]float64, len(t.rewards)),
	}
	for i, s := range t.states {
		out.States = append(out.States, s.Hash())
		out.Actions[i] = t.actions[i].Hash()
	}
	copy(out.Rewards, t.rewards)
	if len(t.nextStates) > 0 {
		out.States = append(out.States, t.nextStates[len(t.nextStates)-1].Hash())
	}
	return out
}
