// Package trace defines the input shape the CIB consumes: one GethExecTrace
// per transaction, each carrying an ordered sequence of opcode-granular
// GethExecStep snapshots (spec §6 "Input: GethExecTrace").
package trace

import "github.com/holiman/uint256"

// GethExecStep is one opcode-granular trace step: a snapshot of pc, op,
// gas, stack, memory, storage and depth emitted by the instrumented node.
type GethExecStep struct {
	Pc      uint64
	Op      byte
	Gas     uint64
	GasCost uint64
	Depth   int
	Stack   []uint256.Int
	Memory  []byte
	Storage map[[32]byte][32]byte
	Refund  uint64
	Error   string // empty when the step succeeded
}

// GethExecTrace is the per-tx trace object (spec §6).
type GethExecTrace struct {
	Failed      bool
	Gas         uint64
	ReturnValue []byte
	StructLogs  []GethExecStep
}
