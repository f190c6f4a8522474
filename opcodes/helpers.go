package opcodes

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/scroll-tech/bus-mapping-go/block"
	"github.com/scroll-tech/bus-mapping-go/bus"
	"github.com/scroll-tech/bus-mapping-go/ctx"
	"github.com/scroll-tech/bus-mapping-go/stateref"
)

// callKindFor maps a CALL-family opcode byte to its ctx.CallKind.
func callKindFor(op byte) ctx.CallKind {
	switch op {
	case opCALLCODE:
		return ctx.CallCode
	case opDELEGATECALL:
		return ctx.DelegateCall
	case opSTATICCALL:
		return ctx.StaticCall
	default:
		return ctx.Call
	}
}

// newChildCall opens a new call frame one depth below caller. Its call_id
// is minted the same way new_tx mints the root call's (spec §4.2:
// "call_id = block_ctx.rwc.0"): the next free RWC value, which is unique
// for the life of the block and never reused even though it is not itself
// consumed from the counter.
func newChildCall(r *stateref.StateRef, caller *ctx.Call, addr common.Address, kind ctx.CallKind) *ctx.Call {
	return &ctx.Call{
		CallID:       int(r.BlockCtx.RWC.Peek()),
		CallerID:     caller.CallID,
		Kind:         kind,
		Address:      addr,
		CodeAddress:  addr,
		Depth:        caller.Depth + 1,
		Value:        uint256.NewInt(0),
		IsPersistent: caller.IsPersistent,
		State:        ctx.Created,
	}
}

// openReversionPlaceholder pushes a CallContext write recording a zero
// RwCounterEndOfReversion and remembers its position so the builder can
// patch it in place during finalization, once the true value is known
// (spec §9 "placeholder-then-patch").
func openReversionPlaceholder(r *stateref.StateRef, step *block.ExecStep, call *ctx.Call) {
	ref := r.CallContextWrite(step, call.CallID, bus.FieldRwCounterEndOfReversion, 0)
	call.RwcEorRefIdx = ref.Idx
	call.HasRwcEorRef = true
}

// txIdxOf returns the index of r.Tx within the block it belongs to, used to
// populate BlockContext.CallMap (spec I3).
func txIdxOf(r *stateref.StateRef) int {
	for i, t := range r.Block.Txs {
		if t == r.Tx {
			return i
		}
	}
	return len(r.Block.Txs) // tx not yet appended: it will land at this index
}
