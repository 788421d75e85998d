package planning

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/rl-planner/types"
)

func TestTransitionCacheMemoizes(t *testing.T) {
	cfg := testConfig()
	c := NewTransitionCache(chainModel(), nil, cfg)
	key, isNew := c.Register(label("S0"))
	require.True(t, isNew)
	_, isNew = c.Register(label("S0"))
	require.False(t, isNew)

	first, err := c.Transitions(key)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, types.StateKey("S1"), first[0].Transitions[0].Next)
	assert.Equal(t, 1, c.Queries())

	_, err = c.Transitions(key)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Queries())
	assert.True(t, c.Cached(key))

	// successors are registered with a representative
	s, ok := c.State("S1")
	require.True(t, ok)
	assert.Equal(t, "S1", s.Hash())
}

func TestTransitionCacheDisabledRecomputes(t *testing.T) {
	cfg := testConfig()
	cfg.CacheTransitions = false
	c := NewTransitionCache(chainModel(), nil, cfg)
	key, _ := c.Register(label("S0"))

	for i := 0; i < 3; i++ {
		_, err := c.Transitions(key)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, c.Queries())
	assert.False(t, c.Cached(key))
}

func TestTransitionCacheInvalidate(t *testing.T) {
	c := NewTransitionCache(chainModel(), nil, testConfig())
	key, _ := c.Register(label("S0"))
	_, err := c.Transitions(key)
	require.NoError(t, err)

	c.Invalidate()
	assert.False(t, c.Cached(key))
	_, ok := c.State(key)
	assert.True(t, ok)

	_, err = c.Transitions(key)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Queries())
}

func TestTransitionCacheRejectsInvalidDistributions(t *testing.T) {
	tests := []struct {
		name  string
		model *tableModel
	}{
		{
			name: "sum below one",
			model: newTableModel().
				add("S0", "go", "S1", 0.5, 0).
				add("S0", "go", "S2", 0.4, 0),
		},
		{
			name: "sum above one",
			model: newTableModel().
				add("S0", "go", "S1", 0.7, 0).
				add("S0", "go", "S2", 0.7, 0),
		},
		{
			name: "negative probability",
			model: newTableModel().
				add("S0", "go", "S1", 1.5, 0).
				add("S0", "go", "S2", -0.5, 0),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewTransitionCache(tt.model, nil, testConfig())
			key, _ := c.Register(label("S0"))
			_, err := c.Transitions(key)
			require.ErrorIs(t, err, ErrInvalidDistribution)
			assert.True(t, strings.Contains(err.Error(), "S0"))
			assert.False(t, c.Cached(key))
		})
	}
}

func TestTransitionCacheToleratesRounding(t *testing.T) {
	m := newTableModel().
		add("S0", "go", "S1", 1.0/3, 0).
		add("S0", "go", "S2", 1.0/3, 0).
		add("S0", "go", "S3", 1.0/3+1e-9, 0)
	c := NewTransitionCache(m, nil, testConfig())
	key, _ := c.Register(label("S0"))
	_, err := c.Transitions(key)
	require.NoError(t, err)
}

func TestTransitionCacheOmitsZeroProbabilities(t *testing.T) {
	m := newTableModel().
		add("S0", "go", "S1", 1, 0).
		add("S0", "go", "S2", 0, 0)
	c := NewTransitionCache(m, nil, testConfig())
	key, _ := c.Register(label("S0"))
	transitions, err := c.Transitions(key)
	require.NoError(t, err)
	require.Len(t, transitions[0].Transitions, 1)
	_, ok := c.State("S2")
	assert.False(t, ok)
}

func TestTransitionCacheDeadEnds(t *testing.T) {
	m := newTableModel().add("S0", "go", "S1", 1, -1)

	cfg := testConfig()
	c := NewTransitionCache(m, nil, cfg)
	c.Register(label("S1"))
	transitions, err := c.Transitions("S1")
	require.NoError(t, err)
	assert.Empty(t, transitions)
	assert.True(t, c.IsDeadEnd("S1"))
	assert.True(t, c.IsTerminal("S1"))

	cfg.DeadEnds = DeadEndError
	c = NewTransitionCache(m, nil, cfg)
	c.Register(label("S1"))
	_, err = c.Transitions("S1")
	require.ErrorIs(t, err, ErrDeadEnd)

	// terminal states without actions are not dead ends
	m.setTerminal("S1")
	c = NewTransitionCache(m, nil, cfg)
	c.Register(label("S1"))
	_, err = c.Transitions("S1")
	require.NoError(t, err)
	assert.False(t, c.IsDeadEnd("S1"))
}

func TestTransitionCacheUsesAbstractor(t *testing.T) {
	m := newTableModel().
		add("S0", "go", "A1", 0.5, 0).
		add("S0", "go", "A2", 0.5, 0).
		add("A1", "go", "S0", 1, 0).
		add("A2", "go", "S0", 1, 0)
	abstractor := func(s types.State) types.StateKey {
		if strings.HasPrefix(s.Hash(), "A") {
			return "A"
		}
		return types.StateKey(s.Hash())
	}
	c := NewTransitionCache(m, abstractor, testConfig())
	key, _ := c.Register(label("S0"))
	transitions, err := c.Transitions(key)
	require.NoError(t, err)
	for _, tr := range transitions[0].Transitions {
		assert.Equal(t, types.StateKey("A"), tr.Next)
	}
	s, ok := c.State("A")
	require.True(t, ok)
	assert.Equal(t, "A1", s.Hash())

	_, err = c.Transitions("missing")
	require.ErrorIs(t, err, ErrUnknownState)
}
