package ctx

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestGrowMemoryAligns32Bytes(t *testing.T) {
	cc := NewCallContext()
	cc.GrowMemory(33)
	assert.Len(t, cc.Memory, 64)
}

func TestGrowMemoryNeverShrinks(t *testing.T) {
	cc := NewCallContext()
	cc.GrowMemory(64)
	cc.GrowMemory(1)
	assert.Len(t, cc.Memory, 64)
}

func TestPushPopStackOrder(t *testing.T) {
	cc := NewCallContext()
	cc.PushStack(*uint256.NewInt(1))
	cc.PushStack(*uint256.NewInt(2))
	top := cc.PopStack()
	assert.Equal(t, uint256.NewInt(2), &top)
	assert.Len(t, cc.Stack, 1)
}
