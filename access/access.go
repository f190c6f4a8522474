// Package access implements the access-trace analyzer: a pure pre-pass over
// a raw trace that extracts the accounts, storage slots, and code touched
// by a transaction or block, without mutating any state (spec §4.4).
//
// Grounded on eth/tracers/native/gas_dimension.go's OnOpcode hook, which
// itself only *observes* opcode execution (reads pc/op/gas/stack context)
// and never mutates EVM state - the same read-only re-walk shape spec §4.4
// requires of gen_state_access_trace.
package access

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"

	"github.com/scroll-tech/bus-mapping-go/block"
	"github.com/scroll-tech/bus-mapping-go/errs"
	"github.com/scroll-tech/bus-mapping-go/trace"
)

// RW marks whether an Access records a read or a write touch.
type RW uint8

const (
	AccessRead RW = iota
	AccessWrite
)

// ValueKind discriminates the three shapes an Access.Value may take.
type ValueKind uint8

const (
	ValueAccount ValueKind = iota
	ValueStorage
	ValueCode
)

// Access is one touch recorded by the analyzer (spec §4.4 "Access(step_index?, rw, value)").
type Access struct {
	StepIndex int // -1 when not tied to a specific trace step (e.g. the coinbase synthetic write)
	RW        RW
	ValueKind ValueKind
	Address   common.Address
	Slot      common.Hash
}

type storageKey struct {
	addr common.Address
	slot common.Hash
}

// AccessSet folds a slice of Access into deduplicated per-kind sets (spec §4.4).
type AccessSet struct {
	state mapset.Set[storageKey] // storage touches: (addr, slot)
	addrs mapset.Set[common.Address]
	code  mapset.Set[common.Address]
}

// NewAccessSet folds accesses into an AccessSet, deduplicating.
func NewAccessSet(accesses []Access) *AccessSet {
	set := &AccessSet{
		state: mapset.NewThreadUnsafeSet[storageKey](),
		addrs: mapset.NewThreadUnsafeSet[common.Address](),
		code:  mapset.NewThreadUnsafeSet[common.Address](),
	}
	for _, a := range accesses {
		switch a.ValueKind {
		case ValueAccount:
			set.addrs.Add(a.Address)
		case ValueStorage:
			set.addrs.Add(a.Address)
			set.state.Add(storageKey{a.Address, a.Slot})
		case ValueCode:
			set.code.Add(a.Address)
		}
	}
	return set
}

// Addresses returns every account address touched.
func (s *AccessSet) Addresses() []common.Address {
	return s.addrs.ToSlice()
}

// Storage returns every (address, slot) pair touched.
func (s *AccessSet) Storage() map[common.Address][]common.Hash {
	out := make(map[common.Address][]common.Hash)
	for _, k := range s.state.ToSlice() {
		out[k.addr] = append(out[k.addr], k.slot)
	}
	return out
}

// Code returns every address whose code was touched.
func (s *AccessSet) Code() []common.Address {
	return s.code.ToSlice()
}

// opcodes relevant to access-list analysis, named the way core/vm's
// jump_table enumerates them.
const (
	opSLOAD         = 0x54
	opSSTORE        = 0x55
	opBALANCE       = 0x31
	opEXTCODEHASH   = 0x3f
	opEXTCODESIZE   = 0x3b
	opEXTCODECOPY   = 0x3c
	opCALL          = 0xf1
	opCALLCODE      = 0xf2
	opDELEGATECALL  = 0xf4
	opSTATICCALL    = 0xfa
	opSELFDESTRUCT  = 0xff
)

// stackTop returns the i-th element from the top of a step's stack (0 =
// top), used to pull the address/slot operands off trace snapshots.
func stackTop(s trace.GethExecStep, i int) (v [32]byte, ok bool) {
	n := len(s.Stack)
	if i >= n {
		return v, false
	}
	return s.Stack[n-1-i].Bytes32(), true
}

// GenStateAccessTrace re-walks geth_trace without mutating any state,
// emitting Access records for every account, storage slot, and code body
// the transaction's steps reference (spec §4.4).
func GenStateAccessTrace(sender, to common.Address, isCreate bool, geth *trace.GethExecTrace) ([]Access, error) {
	var out []Access
	out = append(out, Access{StepIndex: -1, RW: AccessWrite, ValueKind: ValueAccount, Address: sender})
	if !isCreate {
		out = append(out, Access{StepIndex: -1, RW: AccessWrite, ValueKind: ValueAccount, Address: to})
	}

	for i, step := range geth.StructLogs {
		switch step.Op {
		case opSLOAD:
			// Storage touches are attributed to the tx's callee; nested call
			// frames are not tracked, so slots touched inside a sub-call are
			// recorded against `to`, not against the sub-call's contract.
			addr := to
			slotBytes, ok := stackTop(step, 0)
			if !ok {
				return nil, errs.New(errs.KindInvalidAccess, "SLOAD missing stack operand")
			}
			out = append(out, Access{StepIndex: i, RW: AccessRead, ValueKind: ValueStorage, Address: addr, Slot: common.Hash(slotBytes)})
		case opSSTORE:
			addr := to
			slotBytes, ok := stackTop(step, 0)
			if !ok {
				return nil, errs.New(errs.KindInvalidAccess, "SSTORE missing stack operand")
			}
			out = append(out, Access{StepIndex: i, RW: AccessWrite, ValueKind: ValueStorage, Address: addr, Slot: common.Hash(slotBytes)})
		case opBALANCE, opEXTCODEHASH, opEXTCODESIZE, opEXTCODECOPY:
			addrBytes, ok := stackTop(step, 0)
			if !ok {
				return nil, errs.New(errs.KindInvalidAccess, "account-query opcode missing stack operand")
			}
			addr := common.BytesToAddress(addrBytes[12:])
			kind := ValueAccount
			if step.Op == opEXTCODEHASH || step.Op == opEXTCODESIZE || step.Op == opEXTCODECOPY {
				kind = ValueCode
			}
			out = append(out, Access{StepIndex: i, RW: AccessRead, ValueKind: kind, Address: addr})
		case opCALL, opCALLCODE, opDELEGATECALL, opSTATICCALL:
			addrBytes, ok := stackTop(step, 1)
			if !ok {
				return nil, errs.New(errs.KindInvalidAccess, "CALL* missing callee operand")
			}
			addr := common.BytesToAddress(addrBytes[12:])
			out = append(out, Access{StepIndex: i, RW: AccessRead, ValueKind: ValueAccount, Address: addr})
			out = append(out, Access{StepIndex: i, RW: AccessRead, ValueKind: ValueCode, Address: addr})
		case opSELFDESTRUCT:
			addrBytes, ok := stackTop(step, 0)
			if !ok {
				return nil, errs.New(errs.KindInvalidAccess, "SELFDESTRUCT missing beneficiary operand")
			}
			addr := common.BytesToAddress(addrBytes[12:])
			out = append(out, Access{StepIndex: i, RW: AccessWrite, ValueKind: ValueAccount, Address: addr})
		}
	}
	return out, nil
}

// GenBlockAccessTrace folds every transaction's access trace together and
// injects the synthetic coinbase-credit write (spec §4.4 "The block-level
// pre-pass also injects a synthetic WRITE access on block.author").
func GenBlockAccessTrace(head *block.BlockHead, senders, tos []common.Address, isCreates []bool, traces []*trace.GethExecTrace) ([]Access, error) {
	var all []Access
	for i, tr := range traces {
		acc, err := GenStateAccessTrace(senders[i], tos[i], isCreates[i], tr)
		if err != nil {
			return nil, err
		}
		all = append(all, acc...)
	}
	all = append(all, Access{StepIndex: -1, RW: AccessWrite, ValueKind: ValueAccount, Address: head.Coinbase})
	return all, nil
}
