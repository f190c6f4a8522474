package builder

import (
	"github.com/scroll-tech/bus-mapping-go/block"
	"github.com/scroll-tech/bus-mapping-go/bus"
	"github.com/scroll-tech/bus-mapping-go/errs"
)

// setValueOpsCallContextRwcEOR assigns RwCounterEndOfReversion to every
// non-persistent call, patches the placeholder CallContext op recorded when
// that call was opened (spec §9 "placeholder-then-patch"), and materializes
// each call's scheduled compensating writes onto their buses (P3: "each such
// write has a compensating operation at RWC c.rw_counter_end_of_reversion").
// Within one tx, calls are walked from the last-opened to the first: the
// deepest, latest-opened reverted call claims the counter value closest to
// the transaction's end, and each call's own reversible-write count steps
// the counter back for the next (earlier-opened) call to claim - which
// means a call's N compensating writes occupy the N RWCs ending at (and
// including) its RwCounterEndOfReversion, and walking tx.Calls in call-open order
// (ascending index) pushes every compensating write in strictly ascending
// RWC order, satisfying the container's per-bus monotonicity.
func (b *Builder) setValueOpsCallContextRwcEOR() {
	for _, tx := range b.Block.Txs {
		revCount := tx.EndRwc
		for i := len(tx.Calls) - 1; i >= 0; i-- {
			call := tx.Calls[i]
			if call.IsPersistent {
				continue
			}
			call.RwCounterEndOfReversion = revCount
			if call.HasRwcEorRef {
				b.Block.Container.PatchCallContextValue(call.RwcEorRefIdx, revCount)
			}
			revCount -= uint64(call.ReversibleWriteCounter)
		}

		var endStep *block.ExecStep
		if n := len(tx.Steps); n > 0 {
			endStep = tx.Steps[n-1]
		}
		for _, call := range tx.Calls {
			if call.IsPersistent || len(call.Reversals) == 0 {
				continue
			}
			base := call.RwCounterEndOfReversion - uint64(len(call.Reversals)) + 1
			for j, rev := range call.Reversals {
				ref := b.Block.Container.Push(bus.Op{
					RWC: base + uint64(j), RW: bus.WRITE, Kind: rev.Kind, Payload: rev.Payload,
				}, rev.Key)
				if endStep != nil {
					endStep.PushRef(ref)
				}
			}
		}
	}
}

// setEndBlock materializes the two synthetic EndBlock steps and closes out
// the RW table with exactly two Start rows: RWCounter(1), the row already
// reserved at block start, and RWCounter(max_rws-total_rws), the last slot
// before capacity (spec §4.2 "set_end_block", I5), mirroring
// circuit_input_builder.rs's set_end_block rather than padding one row per
// remaining slot. A zero MaxRws means "no capacity declared", so the Start
// rows are skipped outright (spec §9 Open Question (a)).
func (b *Builder) setEndBlock() error {
	maxRws := b.Block.CircuitsParams.MaxRws
	total := b.blockCtx.RWC.Total()

	if maxRws > 0 && total+1 > uint64(maxRws) {
		return errs.New(errs.KindContractError, "set_end_block: block rw count exceeds MaxRws capacity")
	}

	notLast := &block.ExecStep{ExecState: block.EndBlock, RWCAtEntry: b.blockCtx.RWC.Peek()}
	b.Block.BlockSteps.EndBlockNotLast = notLast

	last := &block.ExecStep{ExecState: block.EndBlock, RWCAtEntry: b.blockCtx.RWC.Peek()}
	b.Block.BlockSteps.EndBlockLast = last

	if len(b.Block.Txs) > 0 {
		callID := b.Block.Txs[len(b.Block.Txs)-1].Calls[0].CallID
		ref := b.Block.Container.Push(bus.Op{
			RWC:  b.blockCtx.RWC.Inc(),
			RW:   bus.READ,
			Kind: bus.CallContext,
			Payload: bus.CallContextPayload{
				CallID: callID, Field: bus.FieldTxID, Value: uint64(len(b.Block.Txs)),
			},
		}, "")
		last.PushRef(ref)
	}

	if maxRws > 0 {
		firstRef := b.Block.Container.Push(bus.Op{RWC: 1, RW: bus.READ, Kind: bus.Start, Payload: bus.StartPayload{}}, "")
		last.PushRef(firstRef)

		secondRef := b.Block.Container.Push(bus.Op{
			RWC: uint64(maxRws) - total, RW: bus.READ, Kind: bus.Start, Payload: bus.StartPayload{},
		}, "")
		last.PushRef(secondRef)
	}

	return nil
}
