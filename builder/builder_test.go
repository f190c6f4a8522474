package builder

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scroll-tech/bus-mapping-go/block"
	"github.com/scroll-tech/bus-mapping-go/cdb"
	"github.com/scroll-tech/bus-mapping-go/errs"
	"github.com/scroll-tech/bus-mapping-go/sdb"
	"github.com/scroll-tech/bus-mapping-go/trace"
)

var (
	sender   = common.HexToAddress("0x01")
	receiver = common.HexToAddress("0x02")
)

func newTestBuilder() *Builder {
	s := sdb.New()
	cd := cdb.New()
	s.SetAccount(sender, sdb.Account{Nonce: 0, Balance: uint256.NewInt(1_000_000)})
	s.SetAccount(receiver, sdb.Account{Nonce: 0, Balance: uint256.NewInt(0)})
	b := block.NewBlock(block.DefaultCircuitsParams())
	return New(s, cd, b)
}

func testHead() *block.BlockHead {
	return &block.BlockHead{
		Number:     big.NewInt(1),
		Coinbase:   common.HexToAddress("0x09"),
		GasLimit:   30_000_000,
		Difficulty: big.NewInt(0),
		BaseFee:    big.NewInt(0),
	}
}

func idx(i int) *int { return &i }

func TestNewTxRejectsMissingTransactionIndex(t *testing.T) {
	b := newTestBuilder()
	_, err := b.NewTx(EthTx{}, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.IncompleteBlock)
}

func TestNewTxMintsSequentialIDsAndRegistersCallMap(t *testing.T) {
	b := newTestBuilder()
	tx, err := b.NewTx(EthTx{
		TransactionIndex: idx(0),
		From:             sender,
		To:               &receiver,
		Value:            uint256.NewInt(0),
		GasPrice:         uint256.NewInt(0),
	}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, tx.ID)
	assert.Len(t, tx.Calls, 1)

	loc, ok := b.blockCtx.CallMap[tx.Calls[0].CallID]
	require.True(t, ok)
	assert.Equal(t, 0, loc.TxIdx)
}

func TestHandlePureTransferMovesBalanceAndNonce(t *testing.T) {
	b := newTestBuilder()
	eth := EthTx{
		TransactionIndex: idx(0),
		From:             sender,
		To:               &receiver,
		Value:            uint256.NewInt(100),
		GasPrice:         uint256.NewInt(1),
		Gas:              30000, // gas limit; must NOT be the figure debited
	}
	geth := &trace.GethExecTrace{Gas: 21000} // actual gas used
	require.NoError(t, b.handlePureTransfer(eth, geth))

	assert.Equal(t, uint64(1), b.SDB.GetAccount(sender).Nonce)
	assert.Equal(t, uint256.NewInt(100), b.SDB.GetAccount(receiver).Balance)
	assert.Equal(t, uint256.NewInt(1_000_000-100-21000), b.SDB.GetAccount(sender).Balance)
}

func TestHandleBlockEnforcesMaxTxs(t *testing.T) {
	b := newTestBuilder()
	b.Block.CircuitsParams.MaxTxs = 1
	eth := EthBlock{
		Head: testHead(),
		Txs: []EthTx{
			{TransactionIndex: idx(0), From: sender, To: &receiver, Value: uint256.NewInt(0), GasPrice: uint256.NewInt(0)},
			{TransactionIndex: idx(1), From: sender, To: &receiver, Value: uint256.NewInt(0), GasPrice: uint256.NewInt(0)},
		},
	}
	traces := []*trace.GethExecTrace{{}, {}}
	err := b.HandleBlock(eth, traces)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ContractError)
}

func TestHandleTxEmitsBeginAndEndTxAndPatchesReversionPlaceholder(t *testing.T) {
	b := newTestBuilder()
	eth := EthTx{
		TransactionIndex: idx(0),
		From:             sender,
		To:               &receiver,
		Value:            uint256.NewInt(0),
		GasPrice:         uint256.NewInt(0),
		Gas:              21000,
	}
	geth := &trace.GethExecTrace{
		StructLogs: []trace.GethExecStep{
			{Op: 0x00, Gas: 21000}, // STOP
		},
	}
	require.NoError(t, b.HandleTx(eth, geth, true))

	require.Len(t, b.Block.Txs, 1)
	tx := b.Block.Txs[0]
	assert.Equal(t, block.BeginTx, tx.Steps[0].ExecState)
	assert.Equal(t, block.EndTx, tx.Steps[len(tx.Steps)-1].ExecState)
	assert.True(t, tx.Calls[0].HasRwcEorRef)

	// Only non-persistent calls are assigned an end-of-reversion counter, so
	// mark the root non-persistent before finalization.
	tx.Calls[0].IsPersistent = false
	b.setValueOpsCallContextRwcEOR()
	assert.Equal(t, tx.EndRwc, tx.Calls[0].RwCounterEndOfReversion)
}

func TestHandleBlockRunsFullPipeline(t *testing.T) {
	b := newTestBuilder()
	eth := EthBlock{
		Head: testHead(),
		Txs: []EthTx{
			{TransactionIndex: idx(0), From: sender, To: &receiver, Value: uint256.NewInt(1), GasPrice: uint256.NewInt(0), Gas: 21000},
		},
	}
	traces := []*trace.GethExecTrace{{}}
	require.NoError(t, b.HandleBlock(eth, traces))
	assert.NotNil(t, b.Block.BlockSteps.EndBlockLast)
}
