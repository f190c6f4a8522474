// Package bus implements the operation container: an append-only, per-bus
// log of typed read/write records against the EVM's logical state channels,
// each stamped with a strictly monotonic read-write counter (RWC).
//
// Grounded on core/state/journal_arbitrum.go's pattern of typed entries
// appended to an ordered log, generalized here to one log per bus instead
// of a single undifferentiated journal, per spec §4.1.
package bus

import "github.com/ethereum/go-ethereum/common"

// RW is the direction of a bus operation.
type RW uint8

const (
	READ RW = iota
	WRITE
)

func (rw RW) String() string {
	if rw == WRITE {
		return "WRITE"
	}
	return "READ"
}

// Kind identifies which bus an operation belongs to.
type Kind uint8

const (
	Start Kind = iota
	Stack
	Memory
	Storage
	TransientStorage
	AccountStorage
	CallContext
	Account
	TxRefund
	TxAccessListAccount
	TxAccessListAccountStorage
	TxLog
	TxReceipt
	AccountDestructed

	numKinds
)

func (k Kind) String() string {
	switch k {
	case Start:
		return "Start"
	case Stack:
		return "Stack"
	case Memory:
		return "Memory"
	case Storage:
		return "Storage"
	case TransientStorage:
		return "TransientStorage"
	case AccountStorage:
		return "AccountStorage"
	case CallContext:
		return "CallContext"
	case Account:
		return "Account"
	case TxRefund:
		return "TxRefund"
	case TxAccessListAccount:
		return "TxAccessListAccount"
	case TxAccessListAccountStorage:
		return "TxAccessListAccountStorage"
	case TxLog:
		return "TxLog"
	case TxReceipt:
		return "TxReceipt"
	case AccountDestructed:
		return "AccountDestructed"
	default:
		return "Unknown"
	}
}

// CallContextField enumerates the fields a CallContext operation's payload
// may carry, per spec §3 "CallContext{ call_id, field, value }".
type CallContextField uint8

const (
	FieldRwCounterEndOfReversion CallContextField = iota
	FieldCallerID
	FieldTxID
	FieldDepth
	FieldIsSuccess
	FieldIsPersistent
	FieldIsStatic
	FieldCalleeAddress
	FieldLastCalleeID
	FieldLastCalleeReturnDataOffset
	FieldLastCalleeReturnDataLength
)

// Op is a single bus-mapping operation: a tagged (rwc, rw, kind, payload)
// record. Payload is one of the *Payload types below, selected by Kind.
type Op struct {
	RWC     uint64
	RW      RW
	Kind    Kind
	Payload interface{}
}

// Ref is a stable reference to a previously inserted operation: the bus it
// lives on plus its index within that bus's vector. It is what ExecStep's
// BusMappingInstance stores (spec §3 "operation reference").
type Ref struct {
	Kind Kind
	Idx  int
}

// --- Payload types, one per bus ---

type StackPayload struct {
	CallID int
	StackPointer uint64
	Value        [32]byte
}

type MemoryPayload struct {
	CallID int
	MemoryAddress uint64
	Byte          byte
}

type StoragePayload struct {
	CallID         int
	Address        common.Address
	Key            common.Hash
	Value          common.Hash
	ValuePrev      common.Hash
	CommittedValue common.Hash
	TxID           int
}

type TransientStoragePayload struct {
	CallID    int
	Address   common.Address
	Key       common.Hash
	Value     common.Hash
	ValuePrev common.Hash
	TxID      int
}

// AccountStoragePayload backs the "AccountStorage" bus used by block-level
// (non call-scoped) storage bookkeeping such as end-of-reversion snapshots.
type AccountStoragePayload struct {
	Address        common.Address
	Key            common.Hash
	Value          common.Hash
	ValuePrev      common.Hash
	TxID           int
}

type CallContextPayload struct {
	CallID int
	Field  CallContextField
	Value  uint64 // numeric fields; address/bool fields pack into this
	Addr   common.Address
}

type AccountField uint8

const (
	AccountFieldNonce AccountField = iota
	AccountFieldBalance
	AccountFieldKeccakCodeHash
	AccountFieldPoseidonCodeHash
	AccountFieldCodeSize
	AccountFieldNonExisting
)

type AccountPayload struct {
	Address   common.Address
	Field     AccountField
	Value     [32]byte
	ValuePrev [32]byte
	TxID      int
}

type TxRefundPayload struct {
	TxID      int
	Value     uint64
	ValuePrev uint64
}

type TxAccessListAccountPayload struct {
	TxID      int
	Address   common.Address
	IsWarm    bool
	IsWarmPrev bool
}

type TxAccessListAccountStoragePayload struct {
	TxID       int
	Address    common.Address
	Key        common.Hash
	IsWarm     bool
	IsWarmPrev bool
}

type TxLogField uint8

const (
	TxLogAddress TxLogField = iota
	TxLogTopic
	TxLogData
)

type TxLogPayload struct {
	TxID     int
	LogIndex int
	Field    TxLogField
	Index    int // topic index, or byte offset into data
	Value    []byte
}

type TxReceiptField uint8

const (
	TxReceiptPostStateOrStatus TxReceiptField = iota
	TxReceiptCumulativeGasUsed
	TxReceiptLogLength
)

type TxReceiptPayload struct {
	TxID  int
	Field TxReceiptField
	Value uint64
}

// StartPayload marks a padding row (spec §4.2 set_end_block, I5).
type StartPayload struct{}

// Reversal is a pending compensating bus write, recorded when a reversible
// write lands inside a non-persistent call. It carries the already-flipped
// payload (Value/ValuePrev swapped relative to the original write) and is
// materialized onto its bus once the owning call's RwCounterEndOfReversion
// is known (spec §4.3, §9 "placeholder-then-patch", P3).
type Reversal struct {
	Kind    Kind
	Key     string
	Payload interface{}
}

type AccountDestructedPayload struct {
	Address common.Address
	TxID    int
}
