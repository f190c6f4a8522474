package block

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/scroll-tech/bus-mapping-go/bus"
)

// BlockHead is the subset of a block header the CIB needs (spec §3
// "BlockHead").
type BlockHead struct {
	Number     *big.Int
	Hash       common.Hash
	ParentHash common.Hash
	Coinbase   common.Address
	GasLimit   uint64
	Timestamp  uint64
	Difficulty *big.Int
	BaseFee    *big.Int
}

// CircuitsParams is the configuration surface of spec §6.
type CircuitsParams struct {
	// MaxRws is the RW-table capacity. Zero means "no padding / no cap"
	// (spec §9 Open Question (a)).
	MaxRws int
	// MaxTxs is the tx-circuit slot count (default 20, spec Part D.1).
	MaxTxs int
	// KeccakPadding, if non-nil, is the Keccak circuit's static capacity
	// (spec Part D.2); nil means no padding. It is carried as configuration
	// only: keccak.Collector neither pads nor reports a deficit against it.
	KeccakPadding *int
}

// DefaultCircuitsParams matches spec §6's stated default for MaxTxs.
func DefaultCircuitsParams() CircuitsParams {
	return CircuitsParams{MaxTxs: 20}
}

// BlockSteps holds the two synthetic end-of-block steps materialized by
// finalization (spec §4.2 set_end_block).
type BlockSteps struct {
	EndBlockNotLast *ExecStep
	EndBlockLast    *ExecStep
}

// Block is the full per-block aggregate (spec §3 "Block").
type Block struct {
	Headers map[uint64]*BlockHead // keyed by number; look up via HeaderByNumber
	headerOrder []uint64

	Txs       []*Transaction
	Container *bus.Container

	BlockSteps BlockSteps

	// Sha3Inputs accumulates Keccak preimage bytes observed during opcode
	// replay (spec §4.5 item 3): SHA3 inputs, CREATE2 address-derivation
	// preimages, and log-topic preimages where applicable.
	Sha3Inputs [][]byte

	PrevStateRoot common.Hash
	CircuitsParams CircuitsParams
}

// NewBlock returns an empty block with a fresh container.
func NewBlock(params CircuitsParams) *Block {
	return &Block{
		Headers:        make(map[uint64]*BlockHead),
		Container:      bus.NewContainer(),
		CircuitsParams: params,
	}
}

// AddHeader registers a header and records each new number's
// first-insertion order in headerOrder (spec Part D.3: "ordered-map<number,
// BlockHead>"); HeaderByNumber is a plain lookup by number and does not use
// that order.
func (b *Block) AddHeader(h *BlockHead) {
	n := h.Number.Uint64()
	if _, exists := b.Headers[n]; !exists {
		b.headerOrder = append(b.headerOrder, n)
	}
	b.Headers[n] = h
}

// HeaderByNumber looks up a previously-added header.
func (b *Block) HeaderByNumber(n uint64) (*BlockHead, bool) {
	h, ok := b.Headers[n]
	return h, ok
}

// AddSha3Input appends a Keccak preimage observed during replay.
func (b *Block) AddSha3Input(preimage []byte) {
	cp := make([]byte, len(preimage))
	copy(cp, preimage)
	b.Sha3Inputs = append(b.Sha3Inputs, cp)
}
