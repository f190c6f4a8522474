// Package opcodes implements the per-opcode step generators: handlers that
// translate one trace step into zero or more ExecSteps and bus operations
// (spec §4.2 step 4, §9 "Look-ahead opcode handlers").
//
// Grounded on eth/tracers/native/gas_dimension.go's
// getCalcGasDimensionFunc(op)/getFinishCalcGasDimensionFunc(op) dispatch
// table keyed by vm.OpCode, and on core/vm/operations_acl.go's per-opcode
// gas functions (SSTORE's warm/cold accounting is reused near-verbatim).
package opcodes

import (
	"github.com/scroll-tech/bus-mapping-go/block"
	"github.com/scroll-tech/bus-mapping-go/errs"
	"github.com/scroll-tech/bus-mapping-go/stateref"
	"github.com/scroll-tech/bus-mapping-go/trace"
)

// Handler translates trace step steps[0] (plus, if it looks ahead, some
// contiguous suffix of steps) into the ExecSteps it produces. Implementors
// must document how many of steps they consume beyond steps[0] (spec §9).
type Handler func(r *stateref.StateRef, steps []trace.GethExecStep) ([]*block.ExecStep, error)

// table maps an opcode byte to its handler. Opcodes with no entry fall back
// to genericHandler, which emits one ExecStep (pc, gas, stack size, memory
// size) and no bus operations - sufficient for opcodes the spec's scope
// doesn't require bespoke handling for for (the full set is, per spec §2,
// "a separate, much larger module").
var table = map[byte]Handler{
	opSTOP:         opStop,
	opRETURN:       opReturn,
	opREVERT:       opRevert,
	opINVALID:      opInvalid,
	opSSTORE:       opSstore,
	opSLOAD:        opSload,
	opSHA3:         opSha3,
	opLOG0:         opLog,
	opLOG1:         opLog,
	opLOG2:         opLog,
	opLOG3:         opLog,
	opLOG4:         opLog,
	opCALL:         opCall,
	opSTATICCALL:   opCall,
	opDELEGATECALL: opCall,
	opCALLCODE:     opCall,
	opCREATE:       opCreate,
	opCREATE2:      opCreate2,
}

// GenAssociatedOps dispatches one trace step to its handler, per spec §4.2
// step 4 "dispatch(opcode, state, struct_logs[i..])". The handler receives
// the full suffix starting at this step so multi-step opcodes can consume
// contiguous steps atomically (spec §9).
func GenAssociatedOps(r *stateref.StateRef, steps []trace.GethExecStep) ([]*block.ExecStep, error) {
	if len(steps) == 0 {
		return nil, errs.New(errs.KindTraceError, "gen_associated_ops: empty step suffix")
	}
	op := steps[0].Op
	h, ok := table[op]
	if !ok {
		h = genericHandler
	}
	return h(r, steps)
}

// newStep starts a fresh ExecStep for one opcode, stamping RWCAtEntry at
// the current counter value (I2's lower bound).
func newStep(r *stateref.StateRef, s trace.GethExecStep) *block.ExecStep {
	return &block.ExecStep{
		ExecState:  block.OpcodeState(s.Op, opName(s.Op)),
		Pc:         s.Pc,
		Gas:        s.Gas,
		GasCost:    s.GasCost,
		StackSize:  len(s.Stack),
		MemorySize: uint64(len(s.Memory)),
		RWCAtEntry: r.BlockCtx.RWC.Peek(),
	}
}
