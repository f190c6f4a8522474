// Package block holds the top-level aggregate types of spec §3: ExecStep,
// Transaction, BlockHead, Block, and the CircuitsParams configuration
// surface of spec §6.
package block

import (
	"github.com/scroll-tech/bus-mapping-go/bus"
)

// ExecState names the kind of execution step: begin/end-of-tx markers, an
// opcode variant, end-of-block, a precompile variant, or a copy-to-memory
// pseudo-step (spec §3 "ExecStep.exec_state").
type ExecState struct {
	// Opcode is set when this step corresponds to a single EVM opcode
	// (spec §3's "opcode variant").
	Opcode  byte
	IsOpcode bool
	Name    string // BeginTx, EndTx, EndBlock, CopyToMemory, or a precompile name
}

func OpcodeState(op byte, name string) ExecState {
	return ExecState{Opcode: op, IsOpcode: true, Name: name}
}

func NamedState(name string) ExecState {
	return ExecState{Name: name}
}

var (
	BeginTx      = NamedState("BeginTx")
	EndTx        = NamedState("EndTx")
	EndBlock     = NamedState("EndBlock")
	CopyToMemory = NamedState("CopyToMemory")
)

// ExecStep is one entry in a transaction's step vector: the witness row
// produced by translating one trace step (spec §3 "ExecStep").
type ExecStep struct {
	ExecState   ExecState
	Pc          uint64
	Gas         uint64
	GasCost     uint64
	StackSize   int
	MemorySize  uint64
	RWCAtEntry  uint64
	// BusMappingInstance is the ordered list of operation references this
	// step issued, resolved against the block's Container.
	BusMappingInstance []bus.Ref
	// AuxData carries opcode-specific auxiliary witness data not captured
	// by a bus operation (e.g. a copy event's source/destination spans).
	AuxData interface{}
}

// PushRef appends an operation reference to this step's bus-mapping
// instance, preserving I2 (every ref's rwc must be >= RWCAtEntry, enforced
// by the caller since RWCAtEntry is stamped before the first push).
func (s *ExecStep) PushRef(ref bus.Ref) {
	s.BusMappingInstance = append(s.BusMappingInstance, ref)
}
