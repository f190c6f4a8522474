// Command cib drives the circuit input builder against a live JSON-RPC
// endpoint: fetch one block's header, transactions, and execution traces,
// replay them, and report the resulting bus-mapping operation counts.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/scroll-tech/bus-mapping-go/block"
	"github.com/scroll-tech/bus-mapping-go/builder"
)

var (
	rpcURLFlag = &cli.StringFlag{
		Name:     "rpc-url",
		Usage:    "JSON-RPC endpoint of the trace-producing node",
		Required: true,
	}
	blockNumberFlag = &cli.Uint64Flag{
		Name:     "block",
		Usage:    "block number to build circuit inputs for",
		Required: true,
	}
	maxRwsFlag = &cli.IntFlag{
		Name:  "max-rws",
		Usage: "RW-table capacity; 0 means no padding/no cap",
		Value: 0,
	}
	maxTxsFlag = &cli.IntFlag{
		Name:  "max-txs",
		Usage: "tx-circuit slot count",
		Value: 20,
	}
)

func main() {
	app := &cli.App{
		Name:   "cib",
		Usage:  "build circuit inputs (witnesses) from an EVM block and its execution traces",
		Flags:  []cli.Flag{rpcURLFlag, blockNumberFlag, maxRwsFlag, maxTxsFlag},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "cib:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	ctx := context.Background()
	number := c.Uint64(blockNumberFlag.Name)

	client, err := builder.Dial(ctx, c.String(rpcURLFlag.Name))
	if err != nil {
		return err
	}

	eth, traces, historyHashes, err := builder.FetchInputs(ctx, client, number)
	if err != nil {
		return err
	}
	log.Info("fetched block", "number", number, "txs", len(eth.Txs), "ancestors", len(historyHashes))

	params := block.CircuitsParams{
		MaxRws: c.Int(maxRwsFlag.Name),
		MaxTxs: c.Int(maxTxsFlag.Name),
	}
	mock := builder.NewMockData(eth, traces, nil, params)
	b := mock.NewCircuitInputBuilder()

	if err := b.HandleBlock(eth, traces); err != nil {
		return err
	}

	log.Info("circuit input built",
		"number", number,
		"txs", len(b.Block.Txs),
		"total_rws", b.Block.Container.TotalLen(),
		"sha3_inputs", len(b.Block.Sha3Inputs),
	)
	return nil
}
