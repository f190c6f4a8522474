package ctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopReversionGroupLifo(t *testing.T) {
	tc := NewTransactionContext()
	tc.PushReversionGroup(ReversionGroup{CallID: 1, SdbSnapshot: 0})
	tc.PushReversionGroup(ReversionGroup{CallID: 2, SdbSnapshot: 3})

	g, ok := tc.PopReversionGroup(2)
	require.True(t, ok)
	assert.Equal(t, 3, g.SdbSnapshot)

	_, ok = tc.PopReversionGroup(2)
	assert.False(t, ok)
}

func TestPopReversionGroupOutOfOrder(t *testing.T) {
	tc := NewTransactionContext()
	tc.PushReversionGroup(ReversionGroup{CallID: 1})
	tc.PushReversionGroup(ReversionGroup{CallID: 2})

	_, ok := tc.PopReversionGroup(1)
	assert.True(t, ok, "sibling opened earlier can still close first")
}

func TestNextLogIndexIncrements(t *testing.T) {
	tc := NewTransactionContext()
	assert.Equal(t, 0, tc.NextLogIndex())
	assert.Equal(t, 1, tc.NextLogIndex())
	assert.Equal(t, 2, tc.LogIndex)
}
