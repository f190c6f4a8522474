package ctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRWCounterReservesOneForStart(t *testing.T) {
	rwc := NewRWCounter()
	assert.Equal(t, uint64(2), rwc.Peek())
	assert.Equal(t, uint64(0), rwc.Total())
}

func TestRWCounterIncIsMonotonic(t *testing.T) {
	rwc := NewRWCounter()
	a := rwc.Inc()
	b := rwc.Inc()
	assert.Equal(t, uint64(2), a)
	assert.Equal(t, uint64(3), b)
	assert.Equal(t, uint64(2), rwc.Total())
}

func TestRegisterCallPopulatesCallMap(t *testing.T) {
	bc := NewBlockContext()
	bc.RegisterCall(5, 0, 1)
	loc, ok := bc.CallMap[5]
	assert.True(t, ok)
	assert.Equal(t, CallLocation{TxIdx: 0, CallIdx: 1}, loc)
}
