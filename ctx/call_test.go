package ctx

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestNewRootCallIsCallKindForValueTransfer(t *testing.T) {
	sender := common.HexToAddress("0x01")
	to := common.HexToAddress("0x02")
	c := NewRootCall(2, sender, to, false, uint256.NewInt(100), false)

	assert.Equal(t, Call, c.Kind)
	assert.Equal(t, 1, c.Depth)
	assert.True(t, c.IsPersistent)
	assert.Equal(t, Created, c.State)
}

func TestNewRootCallIsCreateKindForContractCreation(t *testing.T) {
	c := NewRootCall(2, common.Address{}, common.HexToAddress("0x03"), true, uint256.NewInt(0), false)
	assert.Equal(t, Create, c.Kind)
}

func TestCallLifecycleRevertMarksNonPersistent(t *testing.T) {
	c := NewRootCall(2, common.Address{}, common.Address{}, false, uint256.NewInt(0), false)
	c.Enter()
	assert.Equal(t, Entered, c.State)

	c.Revert()
	assert.Equal(t, Reverted, c.State)
	assert.False(t, c.IsPersistent)
	assert.False(t, c.IsSuccess)
	assert.True(t, c.IsReverted())
}

func TestCallLifecycleReturnSuccess(t *testing.T) {
	c := NewRootCall(2, common.Address{}, common.Address{}, false, uint256.NewInt(0), false)
	c.Enter()
	c.Return(true)
	assert.Equal(t, Returned, c.State)
	assert.True(t, c.IsSuccess)
	assert.False(t, c.IsReverted())
}
