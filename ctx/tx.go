package ctx

import (
	"github.com/gammazero/deque"
)

// ReversionGroup is a call frame's SDB snapshot mark, pushed when the call
// opens and popped on its matching terminator. A call that ends in Revert or
// Failed uses the popped mark to physically unwind every SDB mutation made
// since it opened (spec §4.6 "Entered -> Reverted/Failed", S3); a call that
// returns normally just discards its mark. Grounded on the
// CallGasDimensionStack push/pop pattern in
// eth/tracers/native/gas_dimension.go, generalized from a LIFO call stack to
// a deque since reversion groups can close out of order relative to how
// they were opened (an inner call can revert while an outer sibling that
// opened earlier is still executing).
type ReversionGroup struct {
	CallID      int
	SdbSnapshot int
}

// TransactionContext carries per-tx counters: log index and nested revert
// frames (spec §3 "TransactionContext").
type TransactionContext struct {
	LogIndex        int
	reversionGroups deque.Deque[ReversionGroup]
	IsSuccess       bool
}

// NewTransactionContext returns a fresh per-tx context.
func NewTransactionContext() *TransactionContext {
	return &TransactionContext{}
}

// PushReversionGroup opens a new nested revert frame when a call begins.
func (t *TransactionContext) PushReversionGroup(g ReversionGroup) {
	t.reversionGroups.PushBack(g)
}

// PopReversionGroup closes the most recently opened still-open frame whose
// CallID matches callID, searching from the back since nested calls close
// before their parents but siblings can close in any order.
func (t *TransactionContext) PopReversionGroup(callID int) (ReversionGroup, bool) {
	for i := t.reversionGroups.Len() - 1; i >= 0; i-- {
		g := t.reversionGroups.At(i)
		if g.CallID == callID {
			t.reversionGroups.Remove(i)
			return g, true
		}
	}
	return ReversionGroup{}, false
}

// NextLogIndex returns the next log index and advances the counter.
func (t *TransactionContext) NextLogIndex() int {
	idx := t.LogIndex
	t.LogIndex++
	return idx
}
