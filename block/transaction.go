package block

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/scroll-tech/bus-mapping-go/ctx"
)

// AccessListEntry mirrors an EIP-2930 access-list tuple (spec §3
// "Transaction.access_list").
type AccessListEntry struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// Signature is the tx's ECDSA signature components, kept separately from
// go-ethereum's *types.Transaction so the CIB's Transaction stays a plain
// value type independent of RLP encoding concerns.
type Signature struct {
	V byte
	R *uint256.Int
	S *uint256.Int
}

// Transaction is the builder's per-tx aggregate: its static fields plus the
// calls and steps produced by replay (spec §3 "Transaction").
type Transaction struct {
	ID         int
	Nonce      uint64
	Gas        uint64
	GasPrice   *uint256.Int
	Caller     common.Address
	Callee     common.Address
	IsCreate   bool
	Value      *uint256.Int
	CallData   []byte
	AccessList []AccessListEntry
	Signature  Signature

	Calls []*ctx.Call
	Steps []*ExecStep

	IsSuccess bool

	// EndRwc is the block's RW counter value immediately after this tx's
	// last step, captured so finalization can compute each call's
	// RwCounterEndOfReversion without re-walking the container (spec §9
	// "placeholder-then-patch").
	EndRwc uint64
}

// LastCall returns the most recently opened call of this tx (the last entry
// of Calls), or nil when Calls is empty.
func (t *Transaction) LastCall() *ctx.Call {
	if len(t.Calls) == 0 {
		return nil
	}
	return t.Calls[len(t.Calls)-1]
}
