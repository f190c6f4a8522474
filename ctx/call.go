// Package ctx implements the nested runtime contexts described in spec §3
// and the call/transaction lifecycle state machines of §4.6: Call,
// CallContext, TransactionContext, and BlockContext.
//
// The call lifecycle (Created -> Entered -> {Returned, Reverted, Failed})
// is modeled after eth/tracers/native/gas_dimension.go's CallGasDimensionStack,
// which pushes a frame on CALL*/CREATE* and pops it on the matching return
// at the same depth.
package ctx

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/scroll-tech/bus-mapping-go/bus"
)

// CallKind enumerates how a call frame was opened.
type CallKind uint8

const (
	Call CallKind = iota
	CallCode
	DelegateCall
	StaticCall
	Create
	Create2
)

func (k CallKind) String() string {
	switch k {
	case Call:
		return "Call"
	case CallCode:
		return "CallCode"
	case DelegateCall:
		return "DelegateCall"
	case StaticCall:
		return "StaticCall"
	case Create:
		return "Create"
	case Create2:
		return "Create2"
	default:
		return "Unknown"
	}
}

// CallState is the lifecycle stage of a Call frame (spec §4.6).
type CallState uint8

const (
	Created CallState = iota
	Entered
	Returned
	Reverted
	Failed
)

// Call is one call frame; its lifecycle runs Created -> Entered ->
// (Returned | Reverted | Failed), opened by gen_begin_tx_ops or a
// CALL*/CREATE* opcode and closed on the matching terminator at the same
// depth.
type Call struct {
	CallID   int
	CallerID int
	Kind     CallKind
	Address  common.Address
	// CodeAddress is the address whose code actually executes: equal to
	// Address except under DELEGATECALL/CALLCODE.
	CodeAddress common.Address
	CodeHash    common.Hash
	Depth       int
	Value       *uint256.Int
	IsSuccess   bool
	IsPersistent bool
	IsStatic    bool

	// RwCounterEndOfReversion is patched during finalization (spec §9
	// placeholder-then-patch); zero until then.
	RwCounterEndOfReversion uint64
	// RwcEorRefIdx is the index into the CallContext bus of this call's
	// RwCounterEndOfReversion placeholder op, pushed at call creation and
	// overwritten in place once the final value is known. HasRwcEorRef is
	// false for calls that never got a placeholder (shouldn't happen past
	// construction, but guards PatchCallContextValue against a stray 0).
	RwcEorRefIdx int
	HasRwcEorRef bool
	// ReversibleWriteCounter counts reversible writes issued inside this
	// call, used to size the compensating-write schedule.
	ReversibleWriteCounter int
	// Reversals holds one compensating-write descriptor per reversible write
	// issued while this call was not persistent, in the order they were
	// made; pushed onto the bus at RwCounterEndOfReversion during
	// finalization (spec §4.3, §9, P3).
	Reversals []bus.Reversal

	LastCalleeID                   int
	LastCalleeReturnDataOffset     uint64
	LastCalleeReturnDataLength     uint64

	State CallState
}

// NewRootCall builds the root call of a transaction: a Call or Create kind
// per EVM rules (caller = tx sender, callee = tx.to or the computed CREATE
// address), per spec §4.2 new_tx.
func NewRootCall(callID int, sender, to common.Address, isCreate bool, value *uint256.Int, isStatic bool) *Call {
	kind := Call
	addr := to
	if isCreate {
		kind = Create
		addr = to // caller supplies the pre-computed CREATE address
	}
	return &Call{
		CallID:       callID,
		CallerID:     0,
		Kind:         kind,
		Address:      addr,
		CodeAddress:  addr,
		Depth:        1,
		Value:        value,
		IsPersistent: true,
		IsStatic:     isStatic,
		State:        Created,
	}
}

// Enter transitions Created -> Entered, called on the first step at this
// call's depth.
func (c *Call) Enter() {
	c.State = Entered
}

// Return transitions Entered -> Returned on a matching RETURN/STOP/
// successful precompile completion at the same depth.
func (c *Call) Return(isSuccess bool) {
	c.State = Returned
	c.IsSuccess = isSuccess
}

// Revert transitions Entered -> Reverted on REVERT at the same depth,
// marking the call non-persistent; rwCounterEndOfReversion is filled in once
// known (spec §9).
func (c *Call) Revert() {
	c.State = Reverted
	c.IsPersistent = false
	c.IsSuccess = false
}

// Fail transitions Entered -> Failed on INVALID, out-of-gas, depth
// overflow, or stack error: treated as Reverted but with no return data.
func (c *Call) Fail() {
	c.State = Failed
	c.IsPersistent = false
	c.IsSuccess = false
}

// IsReverted reports whether the call ended in Reverted or Failed.
func (c *Call) IsReverted() bool {
	return c.State == Reverted || c.State == Failed
}
