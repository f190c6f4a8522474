package ctx

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CallLocation identifies where a call_id lives: which transaction (by
// index into block.Txs) and which call within that transaction's Calls
// slice (spec §3 "call_map", §9 "back-references without cycles").
type CallLocation struct {
	TxIdx   int
	CallIdx int
}

// RWCounter is the strictly monotonic 1-indexed read-write counter (spec §3
// "RWC"). RWC value 1 is reserved for the block's Start padding row.
type RWCounter struct {
	next uint64
}

// NewRWCounter returns a counter seeded so the next issued value is 2,
// reserving RWC=1 for the block's Start row (spec §4.2 "new").
func NewRWCounter() *RWCounter {
	return &RWCounter{next: 2}
}

// Peek returns the next RWC that would be issued, without consuming it.
func (r *RWCounter) Peek() uint64 {
	return r.next
}

// Inc consumes and returns the next RWC.
func (r *RWCounter) Inc() uint64 {
	v := r.next
	r.next++
	return v
}

// Total returns the number of RWCs issued so far through Inc (next - 2,
// since issuing starts at 2: Start's reserved RWC=1 isn't "issued").
func (r *RWCounter) Total() uint64 {
	return r.next - 2
}

// BlockContext carries per-block state shared across every transaction:
// the RWC, the call_id -> (tx_idx, call_idx) back-reference table, and the
// block's header fields (spec §3 "BlockContext").
type BlockContext struct {
	RWC     *RWCounter
	CallMap map[int]CallLocation

	Coinbase   common.Address
	GasLimit   uint64
	Number     *big.Int
	Timestamp  uint64
	Difficulty *big.Int
	BaseFee    *big.Int
	ChainID    *big.Int
}

// NewBlockContext returns a BlockContext with RWC seeded per spec §4.2 new:
// RWC=1 is reserved for Start, so the counter's first issued value is 2.
func NewBlockContext() *BlockContext {
	return &BlockContext{
		RWC:     NewRWCounter(),
		CallMap: make(map[int]CallLocation),
	}
}

// RegisterCall records call_map[callID] = (txIdx, callIdx), per spec I3.
func (b *BlockContext) RegisterCall(callID, txIdx, callIdx int) {
	b.CallMap[callID] = CallLocation{TxIdx: txIdx, CallIdx: callIdx}
}
