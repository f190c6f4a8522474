// Package builder implements the CircuitInputBuilder orchestrator (spec
// §4.2): the top-level driver that seeds contexts, walks every transaction
// in a block, and finalizes the container with padding and reversion
// patch-ups.
//
// Grounded on eth/tracers/native/gas_dimension.go's OnTxStart/OnOpcode/
// OnTxEnd lifecycle as the model for handle_tx's BeginTx -> per-step
// dispatch -> EndTx shape.
package builder

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/holiman/uint256"

	"github.com/scroll-tech/bus-mapping-go/block"
	"github.com/scroll-tech/bus-mapping-go/bus"
	"github.com/scroll-tech/bus-mapping-go/cdb"
	"github.com/scroll-tech/bus-mapping-go/ctx"
	"github.com/scroll-tech/bus-mapping-go/errs"
	"github.com/scroll-tech/bus-mapping-go/opcodes"
	"github.com/scroll-tech/bus-mapping-go/sdb"
	"github.com/scroll-tech/bus-mapping-go/stateref"
	"github.com/scroll-tech/bus-mapping-go/trace"
)

var (
	rwcGauge     = metrics.NewRegisteredGauge("cib/rwc/total", nil)
	txCountGauge = metrics.NewRegisteredGauge("cib/block/txs", nil)
)

// EthBlock is the minimal shape of an upstream block the builder needs
// (spec §6's "block" argument to handle_block).
type EthBlock struct {
	Head *block.BlockHead
	Txs  []EthTx
}

// EthTx is the minimal shape of an upstream transaction.
type EthTx struct {
	TransactionIndex *int `json:"transactionIndex"` // nil => IncompleteBlock (spec §4.2 new_tx)
	Nonce            uint64                         `json:"nonce"`
	Gas              uint64                         `json:"gas"`
	GasPrice         *uint256.Int                   `json:"gasPrice"`
	From             common.Address                 `json:"from"`
	To               *common.Address                `json:"to"` // nil => contract creation
	Value            *uint256.Int                    `json:"value"`
	Data             []byte                          `json:"input"`
	AccessList       []block.AccessListEntry          `json:"accessList"`
	Signature        block.Signature                 `json:"-"`
}

// Builder is the CircuitInputBuilder (spec §4.2).
type Builder struct {
	SDB    *sdb.StateDB
	CodeDB *cdb.CodeDB
	Block  *block.Block

	blockCtx *ctx.BlockContext
	err      error
}

// New seeds contexts with RWC=1 reserved for Start, empty containers, and
// an empty call map (spec §4.2 "new").
func New(s *sdb.StateDB, c *cdb.CodeDB, b *block.Block) *Builder {
	return &Builder{
		SDB:      s,
		CodeDB:   c,
		Block:    b,
		blockCtx: ctx.NewBlockContext(),
	}
}

// Err returns the first ContractError encountered during replay, or nil;
// the transient SDB access list and partial container are never rewound on
// failure (spec §7), so callers distinguish "clean stop" from "invariant
// violated mid-block" via this accessor instead of a panic (Part D.5).
func (b *Builder) Err() error { return b.err }

// NewTx allocates a fresh call_id, records call_map[call_id] =
// (eth_tx.transaction_index, 0), and initializes the root Call per EVM
// rules (spec §4.2 "new_tx").
func (b *Builder) NewTx(eth EthTx, isSuccess bool) (*block.Transaction, error) {
	if eth.TransactionIndex == nil {
		return nil, errs.New(errs.KindIncompleteBlock, "new_tx: missing transaction_index")
	}
	txIdx := *eth.TransactionIndex
	callID := int(b.blockCtx.RWC.Peek())

	isCreate := eth.To == nil
	var callee common.Address
	if eth.To != nil {
		callee = *eth.To
	} else {
		callee = computeCreateAddress(eth.From, eth.Nonce)
	}

	root := ctx.NewRootCall(callID, eth.From, callee, isCreate, eth.Value, false)
	b.blockCtx.RegisterCall(callID, txIdx, 0)

	tx := &block.Transaction{
		ID:         len(b.Block.Txs) + 1, // I3: block.txs[i].id == i+1
		Nonce:      eth.Nonce,
		Gas:        eth.Gas,
		GasPrice:   eth.GasPrice,
		Caller:     eth.From,
		Callee:     callee,
		IsCreate:   isCreate,
		Value:      eth.Value,
		CallData:   eth.Data,
		AccessList: eth.AccessList,
		Signature:  eth.Signature,
		Calls:      []*ctx.Call{root},
		IsSuccess:  isSuccess,
	}
	return tx, nil
}

// computeCreateAddress derives the address a CREATE (not CREATE2) opcode
// would assign, per the standard RLP(sender, nonce) rule.
func computeCreateAddress(sender common.Address, nonce uint64) common.Address {
	return crypto.CreateAddress(sender, nonce)
}

// HandleBlock drives every transaction in eth_block in enumeration order
// (spec §4.2 "handle_block").
func (b *Builder) HandleBlock(eth EthBlock, traces []*trace.GethExecTrace) (err error) {
	defer func() {
		if e, ok := err.(*errs.Error); ok && e.Kind == errs.KindContractError && b.err == nil {
			b.err = err
		}
	}()
	b.Block.AddHeader(eth.Head)
	b.blockCtx.Coinbase = eth.Head.Coinbase
	b.blockCtx.GasLimit = eth.Head.GasLimit
	b.blockCtx.Number = eth.Head.Number
	b.blockCtx.Timestamp = eth.Head.Timestamp
	b.blockCtx.Difficulty = eth.Head.Difficulty
	b.blockCtx.BaseFee = eth.Head.BaseFee

	if b.Block.CircuitsParams.MaxTxs > 0 && len(eth.Txs) > b.Block.CircuitsParams.MaxTxs {
		return errs.ErrTooManyTxs
	}

	for i, ethTx := range eth.Txs {
		gethTrace := traces[i]
		if len(gethTrace.StructLogs) == 0 {
			if err := b.handlePureTransfer(ethTx, gethTrace); err != nil {
				return err
			}
			continue
		}
		isLast := i == len(eth.Txs)-1
		if err := b.HandleTx(ethTx, gethTrace, isLast); err != nil {
			return err
		}
	}

	b.setValueOpsCallContextRwcEOR()
	if err := b.setEndBlock(); err != nil {
		return err
	}
	rwcGauge.Update(int64(b.blockCtx.RWC.Total()))
	txCountGauge.Update(int64(len(eth.Txs)))
	return nil
}

// handlePureTransfer implements the empty-struct_logs shortcut (spec §4.2
// "If geth_trace.struct_logs is empty"): increase sender nonce, credit
// receiver, debit sender by value + gas_used*gas_price, checking sender
// solvency before the debit: an insolvent sender is only logged at debug
// level and the debit still proceeds. No steps are emitted (spec S1). gas_used comes
// from the trace's reported gas, not the tx's gas limit (circuit_input_
// builder.rs:213's `U256::from(geth_trace.gas.0) * tx.gas_price`).
func (b *Builder) handlePureTransfer(eth EthTx, gethTrace *trace.GethExecTrace) error {
	sender := b.SDB.GetAccount(eth.From)
	gasUsed := gethTrace.Gas
	gasCost := new(uint256.Int).Mul(uint256.NewInt(gasUsed), eth.GasPrice)
	debit := new(uint256.Int).Add(eth.Value, gasCost)

	// Intrinsic-gas underflow is a debug-assert only; production builds
	// continue (spec §7).
	if sender.Balance.Cmp(debit) < 0 {
		log.Debug("pure transfer: sender balance would go negative", "sender", eth.From, "debit", debit)
	}

	newSenderBalance := new(uint256.Int).Sub(sender.Balance, debit)
	b.SDB.SetBalance(eth.From, newSenderBalance)
	b.SDB.IncreaseNonce(eth.From)

	if eth.To != nil {
		receiver := b.SDB.GetAccount(*eth.To)
		newReceiverBalance := new(uint256.Int).Add(receiver.Balance, eth.Value)
		b.SDB.SetBalance(*eth.To, newReceiverBalance)
	}
	b.SDB.CommitTx()
	return nil
}

// HandleTx creates the tx, seeds its access list, emits BeginTx, dispatches
// every trace step, emits EndTx, then commits the SDB journal if the tx
// succeeded or reverts it (RevertTx) if it failed (spec §4.2 "handle_tx").
func (b *Builder) HandleTx(eth EthTx, geth *trace.GethExecTrace, isLastTx bool) error {
	tx, err := b.NewTx(eth, !geth.Failed)
	if err != nil {
		return err
	}
	txCtx := ctx.NewTransactionContext()

	for _, entry := range eth.AccessList {
		b.SDB.AddAccountToAccessList(entry.Address)
		for _, slot := range entry.StorageKeys {
			b.SDB.AddAccountStorageToAccessList(entry.Address, slot)
		}
	}

	ref := stateref.New(b.SDB, b.CodeDB, b.Block, b.blockCtx, tx, txCtx)

	beginStep := &block.ExecStep{
		ExecState:  block.BeginTx,
		RWCAtEntry: b.blockCtx.RWC.Peek(),
	}
	if len(geth.StructLogs) > 0 {
		beginStep.GasCost = eth.Gas - geth.StructLogs[0].Gas
	}
	tx.Steps = append(tx.Steps, beginStep)
	root := tx.Calls[0]
	root.Enter()
	rootRef := ref.CallContextWrite(beginStep, root.CallID, bus.FieldRwCounterEndOfReversion, 0)
	root.RwcEorRefIdx = rootRef.Idx
	root.HasRwcEorRef = true
	txCtx.PushReversionGroup(ctx.ReversionGroup{CallID: root.CallID, SdbSnapshot: b.SDB.Snapshot()})

	for i := 0; i < len(geth.StructLogs); i++ {
		suffix := geth.StructLogs[i:]
		steps, err := opcodes.GenAssociatedOps(ref, suffix)
		if err != nil {
			return errs.Wrap(errs.KindTraceError, "gen_associated_ops", err)
		}
		tx.Steps = append(tx.Steps, steps...)
	}

	endStep := &block.ExecStep{
		ExecState:  block.EndTx,
		RWCAtEntry: b.blockCtx.RWC.Peek(),
	}
	tx.Steps = append(tx.Steps, endStep)
	tx.EndRwc = b.blockCtx.RWC.Peek()

	if tx.IsSuccess {
		b.SDB.CommitTx()
	} else {
		b.SDB.RevertTx()
	}

	b.Block.Txs = append(b.Block.Txs, tx)
	return nil
}
