// Package keccak implements the Keccak preimage collector (spec §4.5): the
// ordered, deterministic, non-deduplicated concatenation of every preimage
// whose hash the proving circuit must verify.
//
// Grounded on crypto/ecrecover_nocgo.go's public-key recovery from a
// signature for the tx-circuit signing preimages, and on
// core/state/statedb_arbitrum.go's use of the rlp package elsewhere in this
// codebase as the model for RLP-touching code here.
package keccak

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/scroll-tech/bus-mapping-go/block"
	"github.com/scroll-tech/bus-mapping-go/cdb"
)

// signingTuple is what a tx's signing payload RLP-encodes to: the fields
// covered by the ECDSA signature, per EIP-155/2930/1559 (simplified here to
// the legacy shape; access-list/fee-market txs extend it with the same
// trailing v/r/s-less encoding).
type signingTuple struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *common.Address `rlp:"nil"`
	Value    *big.Int
	Data     []byte
	ChainID  *big.Int
}

// TxPreimage returns the RLP-encoded signing bytes for tx plus the
// byte-swapped public key recovered from its signature, the two preimages
// the tx-circuit needs per transaction (spec §4.5 item 1).
func TxPreimage(tx *block.Transaction, chainID *big.Int) ([]byte, []byte, error) {
	var to *common.Address
	if !tx.IsCreate {
		c := tx.Callee
		to = &c
	}
	signingBytes, err := rlp.EncodeToBytes(signingTuple{
		Nonce:    tx.Nonce,
		GasPrice: tx.GasPrice.ToBig(),
		Gas:      tx.Gas,
		To:       to,
		Value:    tx.Value.ToBig(),
		Data:     tx.CallData,
		ChainID:  chainID,
	})
	if err != nil {
		return nil, nil, err
	}

	hash := crypto.Keccak256(signingBytes)
	sig := make([]byte, 65)
	rBytes := tx.Signature.R.Bytes32()
	sBytes := tx.Signature.S.Bytes32()
	copy(sig[0:32], rBytes[:])
	copy(sig[32:64], sBytes[:])
	sig[64] = tx.Signature.V
	pub, err := crypto.Ecrecover(hash, sig)
	if err != nil {
		return nil, nil, err
	}
	// byte-swap endianness once, as required by the circuit's word layout
	// (spec §4.5 item 1 "byte-swapped endianness applied once").
	swapped := make([]byte, len(pub))
	for i, b := range pub {
		swapped[len(pub)-1-i] = b
	}
	return signingBytes, swapped, nil
}

// defaultSignerPubKeyPadding is the synthetic padding entry always appended
// for the default signer (spec §4.5 item 1 "One synthetic padding entry").
var defaultSignerPubKeyPadding = make([]byte, 64)

// Create2Preimage builds the (0xff || sender || salt || keccak(init_code))
// address-derivation preimage (spec §4.5 item 3 / S4).
func Create2Preimage(sender common.Address, salt [32]byte, initCode []byte) []byte {
	initCodeHash := crypto.Keccak256(initCode)
	buf := make([]byte, 0, 1+20+32+32)
	buf = append(buf, 0xff)
	buf = append(buf, sender.Bytes()...)
	buf = append(buf, salt[:]...)
	buf = append(buf, initCodeHash...)
	return buf
}

// Collector assembles keccak_inputs() in the stable, deterministic order
// spec §4.5 requires: tx-circuit preimages, then every stored bytecode,
// then every preimage accumulated on block.Sha3Inputs during replay.
type Collector struct {
	ChainID *big.Int
}

// Inputs returns the full ordered concatenation (spec §4.5). Order is
// stable; duplicates are never deduplicated, matching §4.5 "the consumer
// circuit pads."
func (c *Collector) Inputs(b *block.Block, cd *cdb.CodeDB) ([][]byte, error) {
	var out [][]byte

	for _, tx := range b.Txs {
		signing, pub, err := TxPreimage(tx, c.ChainID)
		if err != nil {
			return nil, err
		}
		out = append(out, signing, pub)
	}
	out = append(out, defaultSignerPubKeyPadding)

	hashes := cd.Hashes()
	sortHashes(hashes)
	for _, h := range hashes {
		code, _ := cd.Get(h)
		out = append(out, code)
	}

	out = append(out, b.Sha3Inputs...)
	return out, nil
}

// sortHashes gives CodeDB.Hashes() (map iteration order) a deterministic
// order so Inputs() is reproducible (spec P6/R2).
func sortHashes(hs []common.Hash) {
	sort.Slice(hs, func(i, j int) bool {
		return bytes.Compare(hs[i][:], hs[j][:]) < 0
	})
}
