package stateref

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scroll-tech/bus-mapping-go/block"
	"github.com/scroll-tech/bus-mapping-go/bus"
	"github.com/scroll-tech/bus-mapping-go/cdb"
	"github.com/scroll-tech/bus-mapping-go/ctx"
	"github.com/scroll-tech/bus-mapping-go/sdb"
)

func newRef(t *testing.T) (*StateRef, *ctx.Call) {
	t.Helper()
	s := sdb.New()
	cd := cdb.New()
	b := block.NewBlock(block.DefaultCircuitsParams())
	bc := ctx.NewBlockContext()

	tx := &block.Transaction{ID: 1}
	call := ctx.NewRootCall(int(bc.RWC.Peek()), common.HexToAddress("0x01"), common.HexToAddress("0x02"), false, uint256.NewInt(0), false)
	call.Enter()
	tx.Calls = append(tx.Calls, call)
	bc.RegisterCall(call.CallID, 0, 0)

	tc := ctx.NewTransactionContext()
	return New(s, cd, b, bc, tx, tc), call
}

func TestCallAndCallerNavigation(t *testing.T) {
	r, root := newRef(t)
	assert.Equal(t, root, r.Call())
	assert.Nil(t, r.Caller())

	child := &ctx.Call{CallID: 99, CallerID: root.CallID}
	r.Tx.Calls = append(r.Tx.Calls, child)
	assert.Equal(t, child, r.Call())
	assert.Equal(t, root, r.Caller())
}

func TestCallCtxIsCreatedOncePerCall(t *testing.T) {
	r, _ := newRef(t)
	a := r.CallCtx()
	b := r.CallCtx()
	assert.Same(t, a, b)
}

func TestPushOpStampsMonotonicRwcAndAppendsToStep(t *testing.T) {
	r, _ := newRef(t)
	step := &block.ExecStep{}

	first := r.PushOp(step, bus.READ, bus.Stack, bus.StackPayload{}, "")
	second := r.PushOp(step, bus.READ, bus.Stack, bus.StackPayload{}, "")

	op1 := r.Block.Container.Get(first)
	op2 := r.Block.Container.Get(second)
	assert.Less(t, op1.RWC, op2.RWC)
	assert.Len(t, step.BusMappingInstance, 2)
}

func TestCallContextReadWriteRecordKindAndRW(t *testing.T) {
	r, root := newRef(t)
	step := &block.ExecStep{}

	writeRef := r.CallContextWrite(step, root.CallID, bus.FieldDepth, 1)
	readRef := r.CallContextRead(step, root.CallID, bus.FieldDepth, 1)

	assert.Equal(t, bus.WRITE, r.Block.Container.Get(writeRef).RW)
	assert.Equal(t, bus.READ, r.Block.Container.Get(readRef).RW)
}

func TestStorageWriteAppliesToSDBAndTracksReversibleCounter(t *testing.T) {
	r, root := newRef(t)
	root.IsPersistent = false
	step := &block.ExecStep{}
	addr := common.HexToAddress("0x03")
	key := common.HexToHash("0x01")
	value := common.HexToHash("0x2a")

	r.StorageWrite(step, addr, key, value)

	assert.Equal(t, value, r.SDB.GetStorage(addr, key))
	assert.Equal(t, 1, root.ReversibleWriteCounter)
	require.Len(t, root.Reversals, 1)
	assert.Equal(t, bus.Storage, root.Reversals[0].Kind)
	compensated := root.Reversals[0].Payload.(bus.StoragePayload)
	assert.Equal(t, common.Hash{}, compensated.Value) // flips back to the pre-write value
	assert.Equal(t, value, compensated.ValuePrev)
}

func TestStorageWritePersistentCallDoesNotCountReversible(t *testing.T) {
	r, root := newRef(t)
	root.IsPersistent = true
	step := &block.ExecStep{}

	r.StorageWrite(step, common.HexToAddress("0x03"), common.HexToHash("0x01"), common.HexToHash("0x2a"))
	assert.Equal(t, 0, root.ReversibleWriteCounter)
}

func TestTransientStorageWriteNeverTouchesPersistentStorage(t *testing.T) {
	r, _ := newRef(t)
	step := &block.ExecStep{}
	addr := common.HexToAddress("0x04")
	key := common.HexToHash("0x01")

	r.TransientStorageWrite(step, addr, key, common.HexToHash("0x05"), common.Hash{})
	assert.Equal(t, common.Hash{}, r.SDB.GetStorage(addr, key))
}

func TestReversibleWriteSchedulesCompensationForNonPersistentCall(t *testing.T) {
	r, root := newRef(t)
	root.IsPersistent = false
	step := &block.ExecStep{}

	r.ReversibleWrite(step, common.HexToAddress("0x05"), bus.AccountFieldNonce, [32]byte{1}, [32]byte{})
	assert.Equal(t, 1, root.ReversibleWriteCounter)
	require.Len(t, root.Reversals, 1)
	assert.Equal(t, bus.Account, root.Reversals[0].Kind)
	compensated := root.Reversals[0].Payload.(bus.AccountPayload)
	assert.Equal(t, [32]byte{}, compensated.Value) // flips back to the pre-write value
	assert.Equal(t, [32]byte{1}, compensated.ValuePrev)
}

func TestMemoryReadWriteRecordSingleByteOps(t *testing.T) {
	r, _ := newRef(t)
	step := &block.ExecStep{}

	writeRef := r.MemoryWrite(step, 1, 0, 0xff)
	op := r.Block.Container.Get(writeRef)
	assert.Equal(t, bus.Memory, op.Kind)
	assert.Equal(t, bus.WRITE, op.RW)
}

func TestLogIndexReflectsTxCtx(t *testing.T) {
	r, _ := newRef(t)
	assert.Equal(t, 0, r.LogIndex())
	r.TxCtx.NextLogIndex()
	assert.Equal(t, 1, r.LogIndex())
}

func TestStackReadWriteRoundTripValue(t *testing.T) {
	r, _ := newRef(t)
	step := &block.ExecStep{}
	v := *uint256.NewInt(123)

	ref := r.StackWrite(step, 1, 0, v)
	op := r.Block.Container.Get(ref)
	payload, ok := op.Payload.(bus.StackPayload)
	require.True(t, ok)
	assert.Equal(t, v.Bytes32(), payload.Value)
}
