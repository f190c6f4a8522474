package block

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scroll-tech/bus-mapping-go/bus"
)

func TestAddHeaderIsLookupableByNumber(t *testing.T) {
	b := NewBlock(DefaultCircuitsParams())
	h := &BlockHead{Number: big.NewInt(5), Coinbase: common.HexToAddress("0x01")}
	b.AddHeader(h)

	got, ok := b.HeaderByNumber(5)
	require.True(t, ok)
	assert.Equal(t, h, got)
}

func TestHeaderByNumberMissing(t *testing.T) {
	b := NewBlock(DefaultCircuitsParams())
	_, ok := b.HeaderByNumber(1)
	assert.False(t, ok)
}

func TestAddSha3InputCopiesBytes(t *testing.T) {
	b := NewBlock(DefaultCircuitsParams())
	preimage := []byte{1, 2, 3}
	b.AddSha3Input(preimage)

	preimage[0] = 0xff
	assert.Equal(t, []byte{1, 2, 3}, b.Sha3Inputs[0])
}

func TestDefaultCircuitsParamsSetsMaxTxs(t *testing.T) {
	p := DefaultCircuitsParams()
	assert.Equal(t, 20, p.MaxTxs)
	assert.Equal(t, 0, p.MaxRws)
}

func TestExecStepPushRefAppendsInOrder(t *testing.T) {
	s := &ExecStep{}
	s.PushRef(bus.Ref{Kind: bus.Stack, Idx: 0})
	s.PushRef(bus.Ref{Kind: bus.Stack, Idx: 1})
	require.Len(t, s.BusMappingInstance, 2)
	assert.Equal(t, 0, s.BusMappingInstance[0].Idx)
	assert.Equal(t, 1, s.BusMappingInstance[1].Idx)
}
