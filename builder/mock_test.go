package builder

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scroll-tech/bus-mapping-go/block"
)

func TestNewMockDataSeedsTouchedAddressesAndFixtures(t *testing.T) {
	from := common.HexToAddress("0x01")
	to := common.HexToAddress("0x02")
	coinbase := common.HexToAddress("0x09")
	fixture := common.HexToAddress("0x03")

	eth := EthBlock{
		Head: &block.BlockHead{Coinbase: coinbase},
		Txs:  []EthTx{{From: from, To: &to}},
	}

	md := NewMockData(eth, nil, []MockAccount{
		{Address: fixture, Nonce: 7, Balance: uint256.NewInt(42), Code: []byte{0xfe}},
	}, block.DefaultCircuitsParams())

	assert.NotNil(t, md.SDB.GetAccount(coinbase))
	assert.NotNil(t, md.SDB.GetAccount(from))
	assert.NotNil(t, md.SDB.GetAccount(to))

	acc := md.SDB.GetAccount(fixture)
	require.NotNil(t, acc)
	assert.Equal(t, uint64(7), acc.Nonce)
	assert.Equal(t, uint256.NewInt(42), acc.Balance)
	assert.Equal(t, uint64(1), acc.CodeSize)
}

func TestNewCircuitInputBuilderSeedsMockPrevStateRoot(t *testing.T) {
	eth := EthBlock{Head: &block.BlockHead{Coinbase: common.HexToAddress("0x09")}}
	md := NewMockData(eth, nil, nil, block.DefaultCircuitsParams())

	b := md.NewCircuitInputBuilder()
	assert.Equal(t, mockOldStateRoot, b.Block.PrevStateRoot)
	assert.Same(t, md.SDB, b.SDB)
}
