// Package sdb implements the state database: a mapping from address to
// account record plus a per-block transient access list, matching spec §3
// "StateDB". It is deliberately a plain in-memory map, not a Merkle trie —
// the CIB never commits persistent state (spec §1 Non-goals).
//
// Grounded on core/state/statedb_arbitrum.go (account map, journal-based
// reversible mutation) and core/vm/operations_acl.go (warm/cold access-list
// bookkeeping, reused near-verbatim for AddAccountToAccessList /
// AddAccountStorageToAccessList).
package sdb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// EmptyKeccakCodeHash and EmptyPoseidonCodeHash are the sentinels a
// zero-account carries for its two code hashes (spec §3 "Zero-account").
// EmptyKeccakCodeHash is Keccak256(nil), matching the EVM's EXTCODEHASH
// result for accounts with no code. EmptyPoseidonCodeHash is the distinct
// sentinel the Poseidon-hashed code commitment uses for the same case; the
// CIB never computes Poseidon hashes itself (that belongs to the proving
// circuit), so it is carried here as an opaque, non-zero marker.
var (
	EmptyKeccakCodeHash   = crypto.Keccak256Hash(nil)
	EmptyPoseidonCodeHash = common.HexToHash("0x2098f5fb9e239eab3ceac3f27b81e481dc3124d55ffed523a839ee8446b64864")
)

// Account is the per-address record tracked by the StateDB.
type Account struct {
	Nonce             uint64
	Balance           *uint256.Int
	Storage           map[common.Hash]common.Hash
	KeccakCodeHash    common.Hash
	PoseidonCodeHash  common.Hash
	CodeSize          uint64
}

// NewZeroAccount returns the zero-account: every field zero, both code
// hashes set to the empty-code sentinels.
func NewZeroAccount() Account {
	return Account{
		Balance:          uint256.NewInt(0),
		Storage:          make(map[common.Hash]common.Hash),
		KeccakCodeHash:   EmptyKeccakCodeHash,
		PoseidonCodeHash: EmptyPoseidonCodeHash,
	}
}

// Clone returns a deep copy. StateDB snapshots are journal marks and do not
// use it.
func (a Account) Clone() Account {
	storage := make(map[common.Hash]common.Hash, len(a.Storage))
	for k, v := range a.Storage {
		storage[k] = v
	}
	balance := new(uint256.Int)
	if a.Balance != nil {
		balance.Set(a.Balance)
	}
	return Account{
		Nonce:            a.Nonce,
		Balance:          balance,
		Storage:          storage,
		KeccakCodeHash:   a.KeccakCodeHash,
		PoseidonCodeHash: a.PoseidonCodeHash,
		CodeSize:         a.CodeSize,
	}
}

// IsEmpty reports whether the account matches EIP-161 emptiness: zero
// nonce, zero balance, and no code.
func (a Account) IsEmpty() bool {
	return a.Nonce == 0 && (a.Balance == nil || a.Balance.IsZero()) && a.CodeSize == 0
}
