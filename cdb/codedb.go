// Package cdb implements the code database: a mapping from Keccak(code) to
// contract bytecode, matching spec §3 "CodeDB".
//
// Grounded on crypto/keccak_state.go's NewLegacyKeccak256 construction,
// here driven through the upstream crypto.Keccak256Hash helper.
package cdb

import "github.com/ethereum/go-ethereum/common"
import "github.com/ethereum/go-ethereum/crypto"

// CodeDB maps a Keccak code hash to the bytecode it hashes to.
type CodeDB struct {
	codes map[common.Hash][]byte
}

// New returns an empty CodeDB.
func New() *CodeDB {
	return &CodeDB{codes: make(map[common.Hash][]byte)}
}

// Insert stores code keyed by Keccak256(code), idempotently, and returns
// the hash.
func (c *CodeDB) Insert(code []byte) common.Hash {
	hash := crypto.Keccak256Hash(code)
	if _, ok := c.codes[hash]; !ok {
		stored := make([]byte, len(code))
		copy(stored, code)
		c.codes[hash] = stored
	}
	return hash
}

// Get returns the bytecode for hash, or nil if absent.
func (c *CodeDB) Get(hash common.Hash) ([]byte, bool) {
	code, ok := c.codes[hash]
	return code, ok
}

// Len reports how many distinct code bodies are stored.
func (c *CodeDB) Len() int {
	return len(c.codes)
}

// Each iterates every (hash, code) pair in the database. Iteration order is
// map order and is not meant to be stable; callers needing deterministic
// order (e.g. keccak.Collector) should sort the hashes themselves.
func (c *CodeDB) Each(fn func(hash common.Hash, code []byte)) {
	for h, code := range c.codes {
		fn(h, code)
	}
}

// Hashes returns every stored code hash.
func (c *CodeDB) Hashes() []common.Hash {
	hashes := make([]common.Hash, 0, len(c.codes))
	for h := range c.codes {
		hashes = append(hashes, h)
	}
	return hashes
}
