package opcodes

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/scroll-tech/bus-mapping-go/block"
	"github.com/scroll-tech/bus-mapping-go/bus"
	"github.com/scroll-tech/bus-mapping-go/ctx"
	"github.com/scroll-tech/bus-mapping-go/errs"
	"github.com/scroll-tech/bus-mapping-go/keccak"
	"github.com/scroll-tech/bus-mapping-go/stateref"
	"github.com/scroll-tech/bus-mapping-go/trace"
)

// genericHandler records no opcode-specific bus operations; it exists so
// GenAssociatedOps always returns at least one ExecStep per trace step,
// which S1-S6 and the invariants only require for opcodes this module
// implements bespoke semantics for.
func genericHandler(r *stateref.StateRef, steps []trace.GethExecStep) ([]*block.ExecStep, error) {
	return []*block.ExecStep{newStep(r, steps[0])}, nil
}

func stackArg(s trace.GethExecStep, fromTop int) (uint256.Int, error) {
	n := len(s.Stack)
	if fromTop >= n {
		return uint256.Int{}, errs.New(errs.KindTraceError, "stack underflow relative to opcode")
	}
	return s.Stack[n-1-fromTop], nil
}

// opStop and opReturn close the current call on a successful terminator at
// the same depth (spec §4.6 "Entered -> Returned"), discarding the call's
// SDB snapshot mark without reverting anything: an ancestor that later
// reverts will unwind this call's mutations along with its own (spec S3).
func opStop(r *stateref.StateRef, steps []trace.GethExecStep) ([]*block.ExecStep, error) {
	step := newStep(r, steps[0])
	call := r.Call()
	call.Return(true)
	r.TxCtx.PopReversionGroup(call.CallID)
	return []*block.ExecStep{step}, nil
}

func opReturn(r *stateref.StateRef, steps []trace.GethExecStep) ([]*block.ExecStep, error) {
	step := newStep(r, steps[0])
	offset, err := stackArg(steps[0], 0)
	if err != nil {
		return nil, err
	}
	length, err := stackArg(steps[0], 1)
	if err != nil {
		return nil, err
	}
	r.CallCtx().GrowMemory(offset.Uint64() + length.Uint64())
	call := r.Call()
	call.Return(true)
	r.TxCtx.PopReversionGroup(call.CallID)
	return []*block.ExecStep{step}, nil
}

// opRevert closes the current call as Reverted (spec §4.6 "Entered ->
// Reverted") and physically unwinds every SDB mutation made since the call
// opened, using the snapshot mark recorded in its reversion group (spec S3:
// "storage slot at SDB level unchanged"). The compensating bus write is
// scheduled separately, at RwCounterEndOfReversion during finalization
// (spec §9, P3).
func opRevert(r *stateref.StateRef, steps []trace.GethExecStep) ([]*block.ExecStep, error) {
	step := newStep(r, steps[0])
	call := r.Call()
	call.Revert()
	if g, ok := r.TxCtx.PopReversionGroup(call.CallID); ok {
		r.SDB.RevertToSnapshot(g.SdbSnapshot)
	}
	return []*block.ExecStep{step}, nil
}

func opInvalid(r *stateref.StateRef, steps []trace.GethExecStep) ([]*block.ExecStep, error) {
	step := newStep(r, steps[0])
	call := r.Call()
	call.Fail()
	if g, ok := r.TxCtx.PopReversionGroup(call.CallID); ok {
		r.SDB.RevertToSnapshot(g.SdbSnapshot)
	}
	return []*block.ExecStep{step}, nil
}

// opSload marks the slot warm (pushing a TxAccessListAccountStorage write)
// and pushes a Storage READ, per EIP-2929 warm/cold accounting, grounded on
// core/vm/operations_acl.go's gasSLoadEIP2929. The shadow stack in the
// call context is not updated.
func opSload(r *stateref.StateRef, steps []trace.GethExecStep) ([]*block.ExecStep, error) {
	step := newStep(r, steps[0])
	slotWord, err := stackArg(steps[0], 0)
	if err != nil {
		return nil, err
	}
	addr := r.Call().Address
	slot := common.Hash(slotWord.Bytes32())

	wasCold := r.SDB.AddAccountStorageToAccessList(addr, slot)
	_ = wasCold // gas accounting lives in the (out-of-scope) gas module; recorded for completeness of the access-list bus below

	r.PushOp(step, bus.WRITE, bus.TxAccessListAccountStorage, bus.TxAccessListAccountStoragePayload{
		TxID: r.Tx.ID, Address: addr, Key: slot, IsWarm: true, IsWarmPrev: !wasCold,
	}, "")

	value := r.SDB.GetStorage(addr, slot)
	r.PushOp(step, bus.READ, bus.Storage, bus.StoragePayload{
		CallID: r.Call().CallID, Address: addr, Key: slot, Value: value, ValuePrev: value, CommittedValue: value, TxID: r.Tx.ID,
	}, addr.Hex()+"|"+slot.Hex())

	return []*block.ExecStep{step}, nil
}

// opSstore writes a storage slot, matching spec S2's expected
// (key, value, value_prev, committed_value) witness and marking the slot
// warm (spec I6), grounded on core/vm/operations_acl.go's makeGasSStoreFunc.
func opSstore(r *stateref.StateRef, steps []trace.GethExecStep) ([]*block.ExecStep, error) {
	step := newStep(r, steps[0])
	slotWord, err := stackArg(steps[0], 0)
	if err != nil {
		return nil, err
	}
	valueWord, err := stackArg(steps[0], 1)
	if err != nil {
		return nil, err
	}
	addr := r.Call().Address
	slot := common.Hash(slotWord.Bytes32())
	value := common.Hash(valueWord.Bytes32())

	wasCold := r.SDB.AddAccountStorageToAccessList(addr, slot)
	r.PushOp(step, bus.WRITE, bus.TxAccessListAccountStorage, bus.TxAccessListAccountStoragePayload{
		TxID: r.Tx.ID, Address: addr, Key: slot, IsWarm: true, IsWarmPrev: !wasCold,
	}, "")

	r.StorageWrite(step, addr, slot, value)
	return []*block.ExecStep{step}, nil
}

// opSha3 hashes the memory span on top of the stack and records the
// preimage in block.Sha3Inputs (spec §4.5 item 3).
func opSha3(r *stateref.StateRef, steps []trace.GethExecStep) ([]*block.ExecStep, error) {
	step := newStep(r, steps[0])
	offset, err := stackArg(steps[0], 0)
	if err != nil {
		return nil, err
	}
	length, err := stackArg(steps[0], 1)
	if err != nil {
		return nil, err
	}
	cc := r.CallCtx()
	cc.GrowMemory(offset.Uint64() + length.Uint64())
	off, ln := offset.Uint64(), length.Uint64()
	var preimage []byte
	if off+ln <= uint64(len(steps[0].Memory)) {
		preimage = steps[0].Memory[off : off+ln]
	}
	r.Block.AddSha3Input(preimage)
	return []*block.ExecStep{step}, nil
}

// opLog records a log's address and topics onto the TxLog bus. The log's
// data bytes are not recorded, and no TxReceipt operation is pushed.
func opLog(r *stateref.StateRef, steps []trace.GethExecStep) ([]*block.ExecStep, error) {
	step := newStep(r, steps[0])
	numTopics := int(steps[0].Op - opLOG0)
	addr := r.Call().Address
	idx := r.TxCtx.NextLogIndex()

	r.PushOp(step, bus.WRITE, bus.TxLog, bus.TxLogPayload{
		TxID: r.Tx.ID, LogIndex: idx, Field: bus.TxLogAddress, Value: addr.Bytes(),
	}, "")
	for i := 0; i < numTopics; i++ {
		topic, err := stackArg(steps[0], 2+i)
		if err != nil {
			return nil, err
		}
		tb := topic.Bytes32()
		r.PushOp(step, bus.WRITE, bus.TxLog, bus.TxLogPayload{
			TxID: r.Tx.ID, LogIndex: idx, Field: bus.TxLogTopic, Index: i, Value: tb[:],
		}, "")
	}
	return []*block.ExecStep{step}, nil
}

// opCall handles CALL/CALLCODE/DELEGATECALL/STATICCALL: it opens a new call
// frame as a child of the current one (spec §3 Call "opened by ... a
// CALL*/CREATE* opcode") and marks the callee warm per EIP-2929.
func opCall(r *stateref.StateRef, steps []trace.GethExecStep) ([]*block.ExecStep, error) {
	step := newStep(r, steps[0])
	addrWord, err := stackArg(steps[0], 1)
	if err != nil {
		return nil, err
	}
	addrBytes := addrWord.Bytes32()
	addr := common.BytesToAddress(addrBytes[12:])

	wasCold := r.SDB.AddAccountToAccessList(addr)
	r.PushOp(step, bus.WRITE, bus.TxAccessListAccount, bus.TxAccessListAccountPayload{
		TxID: r.Tx.ID, Address: addr, IsWarm: true, IsWarmPrev: !wasCold,
	}, "")

	kind := callKindFor(steps[0].Op)
	caller := r.Call()
	newCall := newChildCall(r, caller, addr, kind)
	r.Tx.Calls = append(r.Tx.Calls, newCall)
	r.BlockCtx.RegisterCall(newCall.CallID, txIdxOf(r), len(r.Tx.Calls)-1)
	newCall.Enter()
	openReversionPlaceholder(r, step, newCall)
	r.TxCtx.PushReversionGroup(ctx.ReversionGroup{CallID: newCall.CallID, SdbSnapshot: r.SDB.Snapshot()})

	r.CallContextWrite(step, newCall.CallID, bus.FieldCallerID, uint64(caller.CallID))
	r.CallContextWrite(step, newCall.CallID, bus.FieldDepth, uint64(newCall.Depth))
	return []*block.ExecStep{step}, nil
}

// opCreate and opCreate2 open a CREATE-kind call. CREATE2 additionally
// records its address-derivation preimage (spec S4).
func opCreate(r *stateref.StateRef, steps []trace.GethExecStep) ([]*block.ExecStep, error) {
	step := newStep(r, steps[0])
	caller := r.Call()
	newCall := newChildCall(r, caller, common.Address{}, ctx.Create)
	r.Tx.Calls = append(r.Tx.Calls, newCall)
	r.BlockCtx.RegisterCall(newCall.CallID, txIdxOf(r), len(r.Tx.Calls)-1)
	newCall.Enter()
	openReversionPlaceholder(r, step, newCall)
	r.TxCtx.PushReversionGroup(ctx.ReversionGroup{CallID: newCall.CallID, SdbSnapshot: r.SDB.Snapshot()})
	return []*block.ExecStep{step}, nil
}

func opCreate2(r *stateref.StateRef, steps []trace.GethExecStep) ([]*block.ExecStep, error) {
	step := newStep(r, steps[0])
	offset, err := stackArg(steps[0], 1)
	if err != nil {
		return nil, err
	}
	length, err := stackArg(steps[0], 2)
	if err != nil {
		return nil, err
	}
	saltWord, err := stackArg(steps[0], 3)
	if err != nil {
		return nil, err
	}
	off, ln := offset.Uint64(), length.Uint64()
	var initCode []byte
	if off+ln <= uint64(len(steps[0].Memory)) {
		initCode = steps[0].Memory[off : off+ln]
	}
	caller := r.Call()
	preimage := keccak.Create2Preimage(caller.Address, saltWord.Bytes32(), initCode)
	r.Block.AddSha3Input(preimage)

	newCall := newChildCall(r, caller, common.Address{}, ctx.Create2)
	r.Tx.Calls = append(r.Tx.Calls, newCall)
	r.BlockCtx.RegisterCall(newCall.CallID, txIdxOf(r), len(r.Tx.Calls)-1)
	newCall.Enter()
	openReversionPlaceholder(r, step, newCall)
	r.TxCtx.PushReversionGroup(ctx.ReversionGroup{CallID: newCall.CallID, SdbSnapshot: r.SDB.Snapshot()})
	return []*block.ExecStep{step}, nil
}
