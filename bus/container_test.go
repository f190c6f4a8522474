package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerPushAssignsStableRefs(t *testing.T) {
	c := NewContainer()
	r1 := c.Push(Op{RWC: 1, RW: WRITE, Kind: Start, Payload: StartPayload{}}, "")
	r2 := c.Push(Op{RWC: 2, RW: WRITE, Kind: Stack, Payload: StackPayload{CallID: 1}}, "")

	assert.Equal(t, Ref{Kind: Start, Idx: 0}, r1)
	assert.Equal(t, Ref{Kind: Stack, Idx: 0}, r2)
	assert.Equal(t, 2, c.TotalLen())
	assert.Equal(t, uint64(2), c.Get(r2).RWC)
}

func TestContainerPushPanicsOnNonMonotonicRwc(t *testing.T) {
	c := NewContainer()
	c.Push(Op{RWC: 5, Kind: Stack}, "")
	assert.Panics(t, func() {
		c.Push(Op{RWC: 4, Kind: Stack}, "")
	})
}

func TestContainerIndexByKey(t *testing.T) {
	c := NewContainer()
	c.Push(Op{RWC: 1, Kind: Storage}, "addr|slot")
	c.Push(Op{RWC: 2, Kind: Storage}, "addr|slot")
	c.Push(Op{RWC: 3, Kind: Storage}, "other")

	positions := c.Positions(Storage, "addr|slot")
	require.Len(t, positions, 2)
	assert.Equal(t, []int{0, 1}, positions)
}

func TestPatchCallContextValue(t *testing.T) {
	c := NewContainer()
	ref := c.Push(Op{RWC: 1, Kind: CallContext, Payload: CallContextPayload{CallID: 7, Field: FieldRwCounterEndOfReversion, Value: 0}}, "")
	c.PatchCallContextValue(ref.Idx, 42)

	got := c.Get(ref).Payload.(CallContextPayload)
	assert.Equal(t, uint64(42), got.Value)
	assert.Equal(t, 7, got.CallID)
}

func TestEachCallContext(t *testing.T) {
	c := NewContainer()
	c.Push(Op{RWC: 1, Kind: CallContext, Payload: CallContextPayload{CallID: 1}}, "")
	c.Push(Op{RWC: 2, Kind: CallContext, Payload: CallContextPayload{CallID: 2}}, "")

	var ids []int
	c.EachCallContext(func(idx int, op Op) {
		ids = append(ids, op.Payload.(CallContextPayload).CallID)
	})
	assert.Equal(t, []int{1, 2}, ids)
}
