package scrollaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestScroll_EnforcesPhaseOrder(t *testing.T) {
	ts := NewTestScroll()

	err := ts.Update(Velocity{})
	assert.ErrorIs(t, err, ErrPhaseOrder)

	err = ts.End()
	assert.ErrorIs(t, err, ErrPhaseOrder)

	require.NoError(t, ts.Begin(Velocity{VX: 1}))
	assert.ErrorIs(t, ts.Begin(Velocity{}), ErrPhaseOrder)

	require.NoError(t, ts.Update(Velocity{VX: 2}))
	require.NoError(t, ts.End())
	assert.ErrorIs(t, ts.End(), ErrPhaseOrder)

	calls := ts.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "begin", calls[0].Phase)
	assert.Equal(t, "change", calls[1].Phase)
	assert.Equal(t, "end", calls[2].Phase)
}

func TestTestScroll_Reset(t *testing.T) {
	ts := NewTestScroll()
	require.NoError(t, ts.Begin(Velocity{}))
	ts.Reset()

	assert.Empty(t, ts.Calls())
	require.NoError(t, ts.Begin(Velocity{}))
}

func TestTestScroll_SetFailBegin(t *testing.T) {
	ts := NewTestScroll()
	ts.SetFailBegin(ErrPhaseOrder)

	err := ts.Begin(Velocity{})
	assert.ErrorIs(t, err, ErrPhaseOrder)
	assert.Empty(t, ts.Calls())
}

func TestNullScroll_AlwaysSucceeds(t *testing.T) {
	ns := NewNullScroll()
	assert.NoError(t, ns.Begin(Velocity{VX: 1, VY: 1}))
	assert.NoError(t, ns.Update(Velocity{VX: 2}))
	assert.NoError(t, ns.End())
}
