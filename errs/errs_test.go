package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorStringIncludesKindAndOp(t *testing.T) {
	err := New(KindTraceError, "gen_associated_ops")
	assert.Equal(t, "TraceError: gen_associated_ops", err.Error())
}

func TestWrapPreservesUnderlyingErrorViaUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(KindRpcError, "eth_getBlockByNumber", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}

func TestWrapOfNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(KindRpcError, "op", nil))
}

func TestIsMatchesSentinelByKindOnly(t *testing.T) {
	err := New(KindContractError, "set_end_block: exceeds capacity")
	assert.ErrorIs(t, err, ContractError)
	assert.False(t, errors.Is(err, IncompleteBlock))
}

func TestErrTooManyTxsIsContractError(t *testing.T) {
	assert.ErrorIs(t, ErrTooManyTxs, ContractError)
}
