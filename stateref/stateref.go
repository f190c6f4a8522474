// Package stateref implements CircuitInputStateRef: the short-lived
// capability bundle {sdb, code_db, block, block_ctx, tx, tx_ctx} that every
// opcode handler is given, exposing the atomic primitives needed to push
// bus operations (spec §4.3).
//
// Grounded on core/vm/evm.go's Call/CallCode/DelegateCall/StaticCall/
// Create/Create2 methods (one exclusive capability bundle per frame) and
// core/vm/operations_acl.go's narrow gas-function signature
// (evm, contract, stack, mem, memorySize) as the model for handlers taking
// an explicit, narrow capability set rather than the whole builder.
package stateref

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/scroll-tech/bus-mapping-go/block"
	"github.com/scroll-tech/bus-mapping-go/bus"
	"github.com/scroll-tech/bus-mapping-go/cdb"
	"github.com/scroll-tech/bus-mapping-go/ctx"
	"github.com/scroll-tech/bus-mapping-go/sdb"
)

// StateRef is a transient exclusive borrow of the builder's sdb, code_db,
// and block, plus one tx/tx-ctx pair (spec §5: "only one such reference may
// exist at any instant").
type StateRef struct {
	SDB      *sdb.StateDB
	CodeDB   *cdb.CodeDB
	Block    *block.Block
	BlockCtx *ctx.BlockContext
	Tx       *block.Transaction
	TxCtx    *ctx.TransactionContext

	callContexts map[int]*ctx.CallContext
}

// New builds a StateRef over the given scope.
func New(s *sdb.StateDB, c *cdb.CodeDB, b *block.Block, bc *ctx.BlockContext, tx *block.Transaction, tc *ctx.TransactionContext) *StateRef {
	return &StateRef{
		SDB: s, CodeDB: c, Block: b, BlockCtx: bc, Tx: tx, TxCtx: tc,
		callContexts: make(map[int]*ctx.CallContext),
	}
}

// Call returns the current (innermost) call frame.
func (r *StateRef) Call() *ctx.Call {
	return r.Tx.LastCall()
}

// Caller returns the call frame that invoked the current call, or nil at
// the root.
func (r *StateRef) Caller() *ctx.Call {
	cur := r.Call()
	if cur == nil {
		return nil
	}
	for _, c := range r.Tx.Calls {
		if c.CallID == cur.CallerID {
			return c
		}
	}
	return nil
}

// CallCtx returns (creating if absent) the working-memory mirror for the
// current call.
func (r *StateRef) CallCtx() *ctx.CallContext {
	cur := r.Call()
	cc, ok := r.callContexts[cur.CallID]
	if !ok {
		cc = ctx.NewCallContext()
		r.callContexts[cur.CallID] = cc
	}
	return cc
}

// LogIndex returns the tx's next log index without advancing it.
func (r *StateRef) LogIndex() int {
	return r.TxCtx.LogIndex
}

// pushOp is the single choke point every other primitive funnels through:
// it stamps the next RWC and appends to the container. Compensating records
// for non-persistent calls are enqueued by StorageWrite and ReversibleWrite,
// not here.
func (r *StateRef) pushOp(rw bus.RW, op bus.Op, key string) bus.Ref {
	op.RWC = r.BlockCtx.RWC.Inc()
	op.RW = rw
	return r.Block.Container.Push(op, key)
}

// PushOp is the public entry point opcode handlers use to record an
// arbitrary bus operation onto the current step, matching spec §4.3
// "push_op".
func (r *StateRef) PushOp(step *block.ExecStep, rw bus.RW, kind bus.Kind, payload interface{}, key string) bus.Ref {
	ref := r.pushOp(rw, bus.Op{Kind: kind, Payload: payload}, key)
	step.PushRef(ref)
	return ref
}

// CallContextRead/Write push a CallContext bus operation recording or
// asserting one static or dynamic field of the given call (spec §4.3
// "call_context_read/write").
func (r *StateRef) CallContextRead(step *block.ExecStep, callID int, field bus.CallContextField, value uint64) bus.Ref {
	return r.PushOp(step, bus.READ, bus.CallContext, bus.CallContextPayload{CallID: callID, Field: field, Value: value}, "")
}

func (r *StateRef) CallContextWrite(step *block.ExecStep, callID int, field bus.CallContextField, value uint64) bus.Ref {
	return r.PushOp(step, bus.WRITE, bus.CallContext, bus.CallContextPayload{CallID: callID, Field: field, Value: value}, "")
}

// StackRead/StackWrite push a Stack bus operation (spec §4.3 "stack_read").
func (r *StateRef) StackRead(step *block.ExecStep, callID int, sp uint64, value uint256.Int) bus.Ref {
	return r.PushOp(step, bus.READ, bus.Stack, bus.StackPayload{CallID: callID, StackPointer: sp, Value: value.Bytes32()}, "")
}

func (r *StateRef) StackWrite(step *block.ExecStep, callID int, sp uint64, value uint256.Int) bus.Ref {
	return r.PushOp(step, bus.WRITE, bus.Stack, bus.StackPayload{CallID: callID, StackPointer: sp, Value: value.Bytes32()}, "")
}

// MemoryWrite pushes a single-byte Memory bus write (spec §4.3
// "memory_write"); the EVM's memory bus is byte-addressed.
func (r *StateRef) MemoryWrite(step *block.ExecStep, callID int, addr uint64, b byte) bus.Ref {
	return r.PushOp(step, bus.WRITE, bus.Memory, bus.MemoryPayload{CallID: callID, MemoryAddress: addr, Byte: b}, "")
}

func (r *StateRef) MemoryRead(step *block.ExecStep, callID int, addr uint64, b byte) bus.Ref {
	return r.PushOp(step, bus.READ, bus.Memory, bus.MemoryPayload{CallID: callID, MemoryAddress: addr, Byte: b}, "")
}

// StorageWrite pushes a Storage bus write and applies it to the SDB,
// enqueueing a compensating record on the owning call's reversion list if
// the call is not persistent (spec §4.3 "storage_write", §4.6 Reverted).
func (r *StateRef) StorageWrite(step *block.ExecStep, addr common.Address, key, value common.Hash) bus.Ref {
	call := r.Call()
	prev := r.SDB.GetStorage(addr, key)
	committed := prev // committed_value is the slot's value just before this
	// write; it equals the value at tx start only for the first write to the
	// slot in the tx (the EIP-2200 "original" value is not tracked here).
	storageKey := addr.Hex() + "|" + key.Hex()
	ref := r.PushOp(step, bus.WRITE, bus.Storage, bus.StoragePayload{
		CallID: call.CallID, Address: addr, Key: key, Value: value,
		ValuePrev: prev, CommittedValue: committed, TxID: r.Tx.ID,
	}, storageKey)
	r.SDB.SetStorage(addr, key, value)
	if !call.IsPersistent {
		call.ReversibleWriteCounter++
		call.Reversals = append(call.Reversals, bus.Reversal{
			Kind: bus.Storage,
			Key:  storageKey,
			Payload: bus.StoragePayload{
				CallID: call.CallID, Address: addr, Key: key, Value: prev,
				ValuePrev: value, CommittedValue: committed, TxID: r.Tx.ID,
			},
		})
	}
	return ref
}

// TransientStorageWrite pushes a TransientStorage bus write (EIP-1153); it
// never touches the SDB's persistent storage map and never survives past
// the owning transaction (spec §4.3 "transient_storage_write").
func (r *StateRef) TransientStorageWrite(step *block.ExecStep, addr common.Address, key, value, prev common.Hash) bus.Ref {
	call := r.Call()
	return r.PushOp(step, bus.WRITE, bus.TransientStorage, bus.TransientStoragePayload{
		CallID: call.CallID, Address: addr, Key: key, Value: value, ValuePrev: prev, TxID: r.Tx.ID,
	}, "")
}

// ReversibleWrite pushes an arbitrary reversible Account-bus write (nonce,
// balance, code hash, ...) and schedules its compensation if the owning
// call is not persistent (spec §4.3 "reversible_write").
func (r *StateRef) ReversibleWrite(step *block.ExecStep, addr common.Address, field bus.AccountField, value, prev [32]byte) bus.Ref {
	call := r.Call()
	ref := r.PushOp(step, bus.WRITE, bus.Account, bus.AccountPayload{
		Address: addr, Field: field, Value: value, ValuePrev: prev, TxID: r.Tx.ID,
	}, addr.Hex())
	if !call.IsPersistent {
		call.ReversibleWriteCounter++
		call.Reversals = append(call.Reversals, bus.Reversal{
			Kind: bus.Account,
			Key:  addr.Hex(),
			Payload: bus.AccountPayload{
				Address: addr, Field: field, Value: prev, ValuePrev: value, TxID: r.Tx.ID,
			},
		})
	}
	return ref
}
