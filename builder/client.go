package builder

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"

	"github.com/scroll-tech/bus-mapping-go/block"
	"github.com/scroll-tech/bus-mapping-go/cdb"
	"github.com/scroll-tech/bus-mapping-go/errs"
	"github.com/scroll-tech/bus-mapping-go/sdb"
	"github.com/scroll-tech/bus-mapping-go/trace"
)

// Proof is the subset of an EIP-1186 getProof response the CIB needs to
// seed SDB/CodeDB prior to replay.
type Proof struct {
	Address     common.Address
	Nonce       uint64
	Balance     *big.Int
	CodeHash    common.Hash
	StorageHash common.Hash
	StorageProof []struct {
		Key   common.Hash
		Value common.Hash
	}
}

// Client is the async façade over a JSON-RPC endpoint exposing the
// trace-producing node's methods (spec §6 "Upstream client (BuilderClient)").
type Client interface {
	GetBlockByNumber(ctx context.Context, n uint64) (EthBlock, error)
	GetBlockByHash(ctx context.Context, h common.Hash) (*block.BlockHead, error)
	TraceBlockByNumber(ctx context.Context, n uint64) ([]*trace.GethExecTrace, error)
	TraceTxByHash(ctx context.Context, h common.Hash) ([]*trace.GethExecTrace, error)
	GetProof(ctx context.Context, addr common.Address, keys []common.Hash, at uint64) (Proof, error)
	GetCode(ctx context.Context, addr common.Address, at uint64) ([]byte, error)
	GetChainID(ctx context.Context) (uint64, error)
}

// RPCClient implements Client against a real JSON-RPC endpoint.
type RPCClient struct {
	rpc *rpc.Client
}

// Dial opens a JSON-RPC connection to rawurl.
func Dial(ctx context.Context, rawurl string) (*RPCClient, error) {
	c, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, errs.Wrap(errs.KindRpcError, "dial", err)
	}
	return &RPCClient{rpc: c}, nil
}

func (c *RPCClient) GetBlockByNumber(ctx context.Context, n uint64) (EthBlock, error) {
	var raw struct {
		Number     *big.Int
		Hash       common.Hash
		ParentHash common.Hash
		Coinbase   common.Address `json:"miner"`
		GasLimit   uint64
		Timestamp  uint64
		Difficulty *big.Int
		BaseFee    *big.Int
		Txs        []EthTx `json:"transactions"`
	}
	if err := c.rpc.CallContext(ctx, &raw, "eth_getBlockByNumber", hexutilBlockNumber(n), true); err != nil {
		return EthBlock{}, errs.Wrap(errs.KindRpcError, "eth_getBlockByNumber", err)
	}
	return EthBlock{
		Head: &block.BlockHead{
			Number: raw.Number, Hash: raw.Hash, ParentHash: raw.ParentHash,
			Coinbase: raw.Coinbase, GasLimit: raw.GasLimit, Timestamp: raw.Timestamp,
			Difficulty: raw.Difficulty, BaseFee: raw.BaseFee,
		},
		Txs: raw.Txs,
	}, nil
}

func (c *RPCClient) GetBlockByHash(ctx context.Context, h common.Hash) (*block.BlockHead, error) {
	var head block.BlockHead
	if err := c.rpc.CallContext(ctx, &head, "eth_getBlockByHash", h, false); err != nil {
		return nil, errs.Wrap(errs.KindRpcError, "eth_getBlockByHash", err)
	}
	return &head, nil
}

func (c *RPCClient) TraceBlockByNumber(ctx context.Context, n uint64) ([]*trace.GethExecTrace, error) {
	var traces []*trace.GethExecTrace
	if err := c.rpc.CallContext(ctx, &traces, "debug_traceBlockByNumber", hexutilBlockNumber(n), traceOpts()); err != nil {
		return nil, errs.Wrap(errs.KindRpcError, "debug_traceBlockByNumber", err)
	}
	return traces, nil
}

func (c *RPCClient) TraceTxByHash(ctx context.Context, h common.Hash) ([]*trace.GethExecTrace, error) {
	var t trace.GethExecTrace
	if err := c.rpc.CallContext(ctx, &t, "debug_traceTransaction", h, traceOpts()); err != nil {
		return nil, errs.Wrap(errs.KindRpcError, "debug_traceTransaction", err)
	}
	return []*trace.GethExecTrace{&t}, nil
}

func (c *RPCClient) GetProof(ctx context.Context, addr common.Address, keys []common.Hash, at uint64) (Proof, error) {
	var p Proof
	if err := c.rpc.CallContext(ctx, &p, "eth_getProof", addr, keys, hexutilBlockNumber(at)); err != nil {
		return Proof{}, errs.Wrap(errs.KindRpcError, "eth_getProof", err)
	}
	return p, nil
}

func (c *RPCClient) GetCode(ctx context.Context, addr common.Address, at uint64) ([]byte, error) {
	var code []byte
	if err := c.rpc.CallContext(ctx, &code, "eth_getCode", addr, hexutilBlockNumber(at)); err != nil {
		return nil, errs.Wrap(errs.KindRpcError, "eth_getCode", err)
	}
	return code, nil
}

func (c *RPCClient) GetChainID(ctx context.Context) (uint64, error) {
	var id uint64
	if err := c.rpc.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return 0, errs.Wrap(errs.KindRpcError, "eth_chainId", err)
	}
	return id, nil
}

func uint256MustFromBig(b *big.Int) *uint256.Int {
	v, _ := uint256.FromBig(b)
	return v
}

func hexutilBlockNumber(n uint64) string {
	return "0x" + big.NewInt(0).SetUint64(n).Text(16)
}

func traceOpts() map[string]interface{} {
	return map[string]interface{}{"disableStorage": false, "disableStack": false}
}

// FetchInputs is the concurrent-fetch phase described in spec §5: it issues
// the block, trace, and up to 256 ancestor header requests concurrently via
// errgroup, joining them into the ordered tuple replay requires before any
// synchronous work begins.
func FetchInputs(ctx context.Context, c Client, number uint64) (eth EthBlock, traces []*trace.GethExecTrace, historyHashes []common.Hash, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var e error
		eth, e = c.GetBlockByNumber(gctx, number)
		return e
	})
	g.Go(func() error {
		var e error
		traces, e = c.TraceBlockByNumber(gctx, number)
		return e
	})
	g.Go(func() error {
		hh, e := fetchHistoryHashes(gctx, c, number)
		historyHashes = hh
		return e
	})

	if err = g.Wait(); err != nil {
		return EthBlock{}, nil, nil, err
	}
	return eth, traces, historyHashes, nil
}

// fetchHistoryHashes walks up to 256 ancestors by parent hash, per spec §6,
// stopping early when the client returns no header for a parent hash.
func fetchHistoryHashes(ctx context.Context, c Client, number uint64) ([]common.Hash, error) {
	if number == 0 {
		return nil, nil
	}
	limit := uint64(256)
	if number < limit {
		limit = number
	}
	hashes := make([]common.Hash, 0, limit)
	cur, err := c.GetBlockByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	h := cur.Head.ParentHash
	for i := uint64(0); i < limit; i++ {
		head, err := c.GetBlockByHash(ctx, h)
		if err != nil {
			return nil, err
		}
		if head == nil {
			break
		}
		hashes = append(hashes, head.Hash)
		h = head.ParentHash
	}
	return hashes, nil
}

// SeedState fetches proofs and code for every address the builder will
// touch and loads them into sdb/code_db before replay begins.
func SeedState(ctx context.Context, c Client, s *sdb.StateDB, cd *cdb.CodeDB, addrs []common.Address, at uint64) error {
	for _, addr := range addrs {
		p, err := c.GetProof(ctx, addr, nil, at)
		if err != nil {
			return err
		}
		acc := s.GetAccountMut(addr)
		acc.Nonce = p.Nonce
		if p.Balance != nil {
			acc.Balance = uint256MustFromBig(p.Balance)
		}
		code, err := c.GetCode(ctx, addr, at)
		if err != nil {
			return err
		}
		if len(code) > 0 {
			h := cd.Insert(code)
			acc.KeccakCodeHash = h
			acc.CodeSize = uint64(len(code))
		}
	}
	return nil
}
