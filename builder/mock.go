package builder

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/scroll-tech/bus-mapping-go/block"
	"github.com/scroll-tech/bus-mapping-go/cdb"
	"github.com/scroll-tech/bus-mapping-go/sdb"
	"github.com/scroll-tech/bus-mapping-go/trace"
)

// mockOldStateRoot stands in for a real prev_state_root fetch, matching
// mock.rs's MOCK_OLD_STATE_ROOT placeholder (Part D.4).
var mockOldStateRoot = common.HexToHash("0xcafe")

// MockAccount seeds one account's initial state for a test fixture.
type MockAccount struct {
	Address common.Address
	Nonce   uint64
	Balance *uint256.Int
	Code    []byte
	Storage map[common.Hash]common.Hash
}

// MockData bundles everything new_circuit_input_builder needs, mirroring
// mock.rs's BlockData: an sdb/code_db pre-seeded with zero-accounts for
// every address the block touches, plus the eth block and its traces.
type MockData struct {
	SDB      *sdb.StateDB
	CodeDB   *cdb.CodeDB
	ChainID  uint64
	HistoryHashes []common.Hash
	EthBlock EthBlock
	Traces   []*trace.GethExecTrace
	Params   block.CircuitsParams
}

// NewMockData seeds sdb/code_db with zero-accounts for the block's author,
// every tx's sender/recipient, and the supplied account fixtures, matching
// mock.rs's new_from_geth_data_with_params.
func NewMockData(eth EthBlock, traces []*trace.GethExecTrace, accounts []MockAccount, params block.CircuitsParams) MockData {
	s := sdb.New()
	cd := cdb.New()

	s.GetAccount(eth.Head.Coinbase)
	for _, tx := range eth.Txs {
		s.GetAccount(tx.From)
		if tx.To != nil {
			s.GetAccount(*tx.To)
		}
	}

	for _, a := range accounts {
		acc := sdb.NewZeroAccount()
		acc.Nonce = a.Nonce
		if a.Balance != nil {
			acc.Balance = a.Balance
		}
		if a.Storage != nil {
			acc.Storage = a.Storage
		}
		if len(a.Code) > 0 {
			acc.KeccakCodeHash = cd.Insert(a.Code)
			acc.CodeSize = uint64(len(a.Code))
		}
		s.SetAccount(a.Address, acc)
	}

	return MockData{
		SDB: s, CodeDB: cd, EthBlock: eth, Traces: traces, Params: params,
	}
}

// NewCircuitInputBuilder builds a Builder seeded from this fixture,
// matching mock.rs's new_circuit_input_builder: one BlockHead, a mock
// prev_state_root, and the fixture's circuits params.
func (m MockData) NewCircuitInputBuilder() *Builder {
	b := block.NewBlock(m.Params)
	b.PrevStateRoot = mockOldStateRoot
	return New(m.SDB, m.CodeDB, b)
}
