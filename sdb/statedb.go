package sdb

import (
	"github.com/ethereum/go-ethereum/common"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/uint256"
)

type storageKey struct {
	addr common.Address
	slot common.Hash
}

// accessList is the per-block EIP-2929 transient warm set (spec §3).
type accessList struct {
	addresses mapset.Set[common.Address]
	slots     mapset.Set[storageKey]
}

func newAccessList() *accessList {
	return &accessList{
		addresses: mapset.NewThreadUnsafeSet[common.Address](),
		slots:     mapset.NewThreadUnsafeSet[storageKey](),
	}
}

// journalEntry is a single reversible mutation, grounded on
// core/state/journal_arbitrum.go's typed-entry-with-revert-method pattern.
type journalEntry interface {
	revert(s *StateDB)
}

type (
	nonceChange struct {
		addr common.Address
		prev uint64
	}
	balanceChange struct {
		addr common.Address
		prev *uint256.Int
	}
	storageChange struct {
		addr       common.Address
		key        common.Hash
		prev       common.Hash
		prevExists bool
	}
	accountCreated struct {
		addr common.Address
	}
	accessListAddrChange struct {
		addr common.Address
	}
	accessListSlotChange struct {
		addr common.Address
		slot common.Hash
	}
)

func (c nonceChange) revert(s *StateDB)   { s.mustGet(c.addr).Nonce = c.prev }
func (c balanceChange) revert(s *StateDB) { s.mustGet(c.addr).Balance = c.prev }
func (c storageChange) revert(s *StateDB) {
	acc := s.mustGet(c.addr)
	if c.prevExists {
		acc.Storage[c.key] = c.prev
	} else {
		delete(acc.Storage, c.key)
	}
}
func (c accountCreated) revert(s *StateDB) { delete(s.accounts, c.addr) }
func (c accessListAddrChange) revert(s *StateDB) {
	s.accessList.addresses.Remove(c.addr)
}
func (c accessListSlotChange) revert(s *StateDB) {
	s.accessList.slots.Remove(storageKey{c.addr, c.slot})
}

// StateDB holds every account touched during a block plus the block's
// transient access list. It supports commit/revert per tx (spec §3).
type StateDB struct {
	accounts   map[common.Address]*Account
	accessList *accessList

	// journal accumulates this tx's reversible mutations; Commit/Revert
	// drain it. A fresh journal starts at each new_tx.
	journal []journalEntry
}

// New returns an empty StateDB with a freshly reset access list, as at
// block start (spec §3 "reset at block start").
func New() *StateDB {
	return &StateDB{
		accounts:   make(map[common.Address]*Account),
		accessList: newAccessList(),
	}
}

func (s *StateDB) mustGet(addr common.Address) *Account {
	a, ok := s.accounts[addr]
	if !ok {
		panic("sdb: mustGet on unknown account " + addr.Hex())
	}
	return a
}

// SetAccount overwrites addr's record wholesale (used to seed state from an
// eth_getProof response during prefetch; not itself journaled since it
// happens before any tx begins).
func (s *StateDB) SetAccount(addr common.Address, acc Account) {
	s.accounts[addr] = &acc
}

// GetAccount returns addr's account, creating and storing the zero-account
// (journaled as accountCreated) if absent.
func (s *StateDB) GetAccount(addr common.Address) *Account {
	if a, ok := s.accounts[addr]; ok {
		return a
	}
	zero := NewZeroAccount()
	s.accounts[addr] = &zero
	s.journal = append(s.journal, accountCreated{addr})
	return s.accounts[addr]
}

// GetAccountMut is GetAccount, but documents the caller's intent to mutate
// the returned pointer directly; callers that do so are responsible for
// journaling the specific field changes themselves via the helpers below.
func (s *StateDB) GetAccountMut(addr common.Address) *Account {
	return s.GetAccount(addr)
}

// IncreaseNonce bumps addr's nonce by one, journaling the reversal.
func (s *StateDB) IncreaseNonce(addr common.Address) uint64 {
	acc := s.GetAccount(addr)
	s.journal = append(s.journal, nonceChange{addr, acc.Nonce})
	acc.Nonce++
	return acc.Nonce
}

// SetBalance journals and overwrites addr's balance.
func (s *StateDB) SetBalance(addr common.Address, balance *uint256.Int) {
	acc := s.GetAccount(addr)
	s.journal = append(s.journal, balanceChange{addr, acc.Balance})
	acc.Balance = balance
}

// SetStorage journals and overwrites a single storage slot.
func (s *StateDB) SetStorage(addr common.Address, key, value common.Hash) {
	acc := s.GetAccount(addr)
	prev, exists := acc.Storage[key]
	s.journal = append(s.journal, storageChange{addr, key, prev, exists})
	acc.Storage[key] = value
}

// GetStorage reads a storage slot, defaulting to the zero hash.
func (s *StateDB) GetStorage(addr common.Address, key common.Hash) common.Hash {
	acc := s.GetAccount(addr)
	return acc.Storage[key]
}

// AddAccountToAccessList marks addr warm, returning whether it was
// previously cold. Idempotent (spec I6).
func (s *StateDB) AddAccountToAccessList(addr common.Address) (wasCold bool) {
	if s.accessList.addresses.Contains(addr) {
		return false
	}
	s.accessList.addresses.Add(addr)
	s.journal = append(s.journal, accessListAddrChange{addr})
	return true
}

// AddAccountStorageToAccessList marks (addr, slot) warm, returning whether
// it was previously cold. Idempotent (spec I6).
func (s *StateDB) AddAccountStorageToAccessList(addr common.Address, slot common.Hash) (wasCold bool) {
	key := storageKey{addr, slot}
	if s.accessList.slots.Contains(key) {
		return false
	}
	s.accessList.slots.Add(key)
	s.journal = append(s.journal, accessListSlotChange{addr, slot})
	return true
}

// AddressInAccessList reports whether addr is currently warm.
func (s *StateDB) AddressInAccessList(addr common.Address) bool {
	return s.accessList.addresses.Contains(addr)
}

// SlotInAccessList reports whether (addr, slot) is currently warm. The
// two-value return mirrors go-ethereum's StateDB.SlotInAccessList signature:
// the first value reports whether the address itself is warm, the second
// whether the slot is.
func (s *StateDB) SlotInAccessList(addr common.Address, slot common.Hash) (addressOk, slotOk bool) {
	return s.AddressInAccessList(addr), s.accessList.slots.Contains(storageKey{addr, slot})
}

// Snapshot returns an opaque mark for the current journal length, used by
// RevertToSnapshot to unwind exactly the mutations issued since the mark.
func (s *StateDB) Snapshot() int {
	return len(s.journal)
}

// RevertToSnapshot unwinds every journal entry recorded since snap,
// in reverse order, matching the teacher's journal.revert convention.
func (s *StateDB) RevertToSnapshot(snap int) {
	for i := len(s.journal) - 1; i >= snap; i-- {
		s.journal[i].revert(s)
	}
	s.journal = s.journal[:snap]
}

// CommitTx promotes every tentative write of a successful tx by simply
// discarding the journal: mutations already landed directly on s.accounts,
// so "commit" is "stop tracking them for revert."
func (s *StateDB) CommitTx() {
	s.journal = s.journal[:0]
}

// RevertTx discards every mutation issued since the transaction began.
func (s *StateDB) RevertTx() {
	s.RevertToSnapshot(0)
}
