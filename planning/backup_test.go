package planning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupRequiresExploration(t *testing.T) {
	p, err := NewValueIterationPlanner(chainModel(), testConfig())
	require.NoError(t, err)

	_, _, err = p.Backup("S0")
	require.ErrorIs(t, err, ErrNotExplored)
	_, err = p.QValues("S0")
	require.ErrorIs(t, err, ErrNotExplored)

	_, err = p.Explore(context.Background(), label("S0"))
	require.NoError(t, err)
	_, _, err = p.Backup("unknown")
	require.ErrorIs(t, err, ErrUnknownState)
}

func TestBackupUsesSnapshotOfSelf(t *testing.T) {
	p, err := NewValueIterationPlanner(selfLoopModel(), testConfig())
	require.NoError(t, err)
	_, err = p.Explore(context.Background(), label("S0"))
	require.NoError(t, err)

	v, delta, err := p.Backup("S0")
	require.NoError(t, err)
	assert.InDelta(t, -1.0, v, 1e-12)
	assert.InDelta(t, 1.0, delta, 1e-12)

	// Q is computed from V(S0) = -1, not from a partially written value
	v, delta, err = p.Backup("S0")
	require.NoError(t, err)
	assert.InDelta(t, -1.81, v, 1e-12)
	assert.InDelta(t, 0.81, delta, 1e-12)
}

func TestBackupTerminalStaysZero(t *testing.T) {
	p, err := NewValueIterationPlanner(chainModel(), testConfig(), WithValueInitializer(ConstantValue(5)))
	require.NoError(t, err)
	_, err = p.Explore(context.Background(), label("S0"))
	require.NoError(t, err)

	assert.Equal(t, 5.0, p.Value("S0"))
	assert.Equal(t, 0.0, p.Value("S2"))

	v, delta, err := p.Backup("S2")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
	assert.Equal(t, 0.0, delta)

	qs, err := p.QValues("S2")
	require.NoError(t, err)
	assert.Empty(t, qs)
}

func TestBackupTakesBestAction(t *testing.T) {
	m := newTableModel().
		add("S0", "a", "S1", 1, 1).
		add("S0", "b", "S1", 0.5, 3).
		add("S0", "b", "S1", 0.5, 3).
		setTerminal("S1")
	p, err := NewValueIterationPlanner(m, testConfig())
	require.NoError(t, err)
	_, err = p.Explore(context.Background(), label("S0"))
	require.NoError(t, err)

	qs, err := p.QValues("S0")
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "a", qs[0].Action.Hash())
	assert.InDelta(t, 1.0, qs[0].Value, 1e-12)
	assert.Equal(t, "b", qs[1].Action.Hash())
	assert.InDelta(t, 3.0, qs[1].Value, 1e-12)

	v, _, err := p.Backup("S0")
	require.NoError(t, err)
	assert.InDelta(t, 3.0, v, 1e-12)
}

func TestBackupDeadEndIsZero(t *testing.T) {
	m := newTableModel().add("S0", "go", "S1", 1, -1)
	p, err := NewValueIterationPlanner(m, testConfig(), WithValueInitializer(ConstantValue(7)))
	require.NoError(t, err)
	_, err = p.Explore(context.Background(), label("S0"))
	require.NoError(t, err)

	assert.True(t, p.IsTerminal("S1"))
	assert.Equal(t, 0.0, p.Value("S1"))

	v, _, err := p.Backup("S0")
	require.NoError(t, err)
	assert.InDelta(t, -1.0, v, 1e-12)
}
