package builder

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/scroll-tech/bus-mapping-go/block"
	"github.com/scroll-tech/bus-mapping-go/cdb"
	"github.com/scroll-tech/bus-mapping-go/sdb"
	"github.com/scroll-tech/bus-mapping-go/trace"
)

// fakeClient is an in-memory Client stand-in, letting FetchInputs/SeedState
// be exercised without a live JSON-RPC endpoint.
type fakeClient struct {
	blocks map[uint64]EthBlock
	heads  map[common.Hash]*block.BlockHead
	traces map[uint64][]*trace.GethExecTrace
	proofs map[common.Address]Proof
	code   map[common.Address][]byte
}

func (f *fakeClient) GetBlockByNumber(_ context.Context, n uint64) (EthBlock, error) {
	return f.blocks[n], nil
}

func (f *fakeClient) GetBlockByHash(_ context.Context, h common.Hash) (*block.BlockHead, error) {
	return f.heads[h], nil
}

func (f *fakeClient) TraceBlockByNumber(_ context.Context, n uint64) ([]*trace.GethExecTrace, error) {
	return f.traces[n], nil
}

func (f *fakeClient) TraceTxByHash(_ context.Context, _ common.Hash) ([]*trace.GethExecTrace, error) {
	return nil, nil
}

func (f *fakeClient) GetProof(_ context.Context, addr common.Address, _ []common.Hash, _ uint64) (Proof, error) {
	return f.proofs[addr], nil
}

func (f *fakeClient) GetCode(_ context.Context, addr common.Address, _ uint64) ([]byte, error) {
	return f.code[addr], nil
}

func (f *fakeClient) GetChainID(_ context.Context) (uint64, error) {
	return 1, nil
}

func newFakeClient() *fakeClient {
	parentHash := common.HexToHash("0xaa")
	head := &block.BlockHead{Number: big.NewInt(10), ParentHash: parentHash}
	return &fakeClient{
		blocks: map[uint64]EthBlock{10: {Head: head}},
		heads: map[common.Hash]*block.BlockHead{
			parentHash: {Number: big.NewInt(9), Hash: parentHash, ParentHash: common.Hash{}},
		},
		traces: map[uint64][]*trace.GethExecTrace{10: {{}}},
		proofs: map[common.Address]Proof{},
		code:   map[common.Address][]byte{},
	}
}

func TestFetchInputsAssemblesOrderedTuple(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	fc := newFakeClient()
	eth, traces, hashes, err := FetchInputs(context.Background(), fc, 10)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), eth.Head.Number)
	assert.Len(t, traces, 1)
	assert.Len(t, hashes, 1)
}

func TestFetchHistoryHashesStopsAtBlockZero(t *testing.T) {
	hashes, err := fetchHistoryHashes(context.Background(), &fakeClient{
		blocks: map[uint64]EthBlock{0: {Head: &block.BlockHead{Number: big.NewInt(0)}}},
	}, 0)
	require.NoError(t, err)
	assert.Nil(t, hashes)
}

func TestSeedStatePopulatesAccountAndCode(t *testing.T) {
	addr := common.HexToAddress("0x01")
	fc := &fakeClient{
		proofs: map[common.Address]Proof{addr: {Nonce: 3, Balance: big.NewInt(500)}},
		code:   map[common.Address][]byte{addr: {0xfe}},
	}
	s := sdb.New()
	cd := cdb.New()

	require.NoError(t, SeedState(context.Background(), fc, s, cd, []common.Address{addr}, 1))

	acc := s.GetAccount(addr)
	assert.Equal(t, uint64(3), acc.Nonce)
	assert.Equal(t, uint64(500), acc.Balance.Uint64())
	assert.Equal(t, uint64(1), acc.CodeSize)
}
