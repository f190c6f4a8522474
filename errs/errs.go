// Package errs defines the abstract error taxonomy the circuit input builder
// reports to its caller: missing trace data, an opcode handler unable to
// reconcile the trace with its local model, an unknown access-list opcode, a
// propagated RPC failure, and fatal builder-invariant violations.
package errs

import "github.com/pkg/errors"

// Kind classifies an error returned by the builder.
type Kind int

const (
	// KindIncompleteBlock means the trace or block is missing fields
	// required for replay (transaction index, author, block hash, ...).
	KindIncompleteBlock Kind = iota
	// KindTraceError means an opcode handler could not reconcile the trace
	// with its local model (stack underflow, memory truncation, unexpected
	// step at depth).
	KindTraceError
	// KindInvalidAccess means the access-trace analyzer hit an opcode with
	// unknown semantics.
	KindInvalidAccess
	// KindRpcError wraps an upstream client failure, propagated verbatim.
	KindRpcError
	// KindContractError means a builder invariant (I1-I6) was violated; it
	// is fatal and terminates replay.
	KindContractError
)

func (k Kind) String() string {
	switch k {
	case KindIncompleteBlock:
		return "IncompleteBlock"
	case KindTraceError:
		return "TraceError"
	case KindInvalidAccess:
		return "InvalidAccess"
	case KindRpcError:
		return "RpcError"
	case KindContractError:
		return "ContractError"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by every builder entry point.
type Error struct {
	Kind Kind
	Op   string // the operation that failed, e.g. "gen_begin_tx_ops"
	err  error
}

func (e *Error) Error() string {
	if e.err == nil {
		return e.Kind.String() + ": " + e.Op
	}
	return e.Kind.String() + ": " + e.Op + ": " + e.err.Error()
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is a Kind sentinel (an *Error with an empty Op)
// of the same Kind, letting callers write errors.Is(err, errs.IncompleteBlock).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == ""
}

func newKind(kind Kind) *Error { return &Error{Kind: kind} }

// Sentinels usable with errors.Is(err, errs.IncompleteBlock) and friends.
var (
	IncompleteBlock = newKind(KindIncompleteBlock)
	TraceError      = newKind(KindTraceError)
	InvalidAccess   = newKind(KindInvalidAccess)
	RpcError        = newKind(KindRpcError)
	ContractError   = newKind(KindContractError)

	// ErrTooManyTxs is raised when a block carries more transactions than
	// CircuitsParams.MaxTxs reserves slots for (Part D.1 of SPEC_FULL.md).
	ErrTooManyTxs = New(KindContractError, "too many transactions for max_txs capacity")
)

// New builds a new *Error of the given kind for operation op.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// Wrap annotates err with a kind and the failing operation name, preserving
// the original error via errors.Unwrap and a stack trace via pkg/errors.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, err: errors.WithStack(err)}
}

// Wrapf is Wrap with a formatted op string.
func Wrapf(kind Kind, err error, format string, args ...interface{}) *Error {
	return Wrap(kind, sprintfOp(format, args...), err)
}

func sprintfOp(format string, args ...interface{}) string {
	return errors.Errorf(format, args...).Error()
}
