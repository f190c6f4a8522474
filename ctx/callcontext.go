package ctx

import "github.com/holiman/uint256"

// CallContext is per-call working memory: a mirror of the traced EVM state,
// refreshed from each step (spec §3).
type CallContext struct {
	Memory     []byte // grows 32-byte-aligned
	ReturnData []byte
	Stack      []uint256.Int
}

// NewCallContext returns an empty call context.
func NewCallContext() *CallContext {
	return &CallContext{}
}

// GrowMemory extends Memory to at least size bytes, 32-byte-aligned, zero
// filling the new region, matching the EVM's own memory growth rule.
func (cc *CallContext) GrowMemory(size uint64) {
	if uint64(len(cc.Memory)) >= size {
		return
	}
	aligned := ((size + 31) / 32) * 32
	grown := make([]byte, aligned)
	copy(grown, cc.Memory)
	cc.Memory = grown
}

// SetReturnData replaces the call's return-data buffer, e.g. after a nested
// CALL* or CREATE* returns.
func (cc *CallContext) SetReturnData(data []byte) {
	cc.ReturnData = make([]byte, len(data))
	copy(cc.ReturnData, data)
}

// PushStack appends a value to the shadow stack mirror.
func (cc *CallContext) PushStack(v uint256.Int) {
	cc.Stack = append(cc.Stack, v)
}

// PopStack removes and returns the top of the shadow stack mirror.
func (cc *CallContext) PopStack() uint256.Int {
	n := len(cc.Stack)
	v := cc.Stack[n-1]
	cc.Stack = cc.Stack[:n-1]
	return v
}
