package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

var tracerConfig = map[string]interface{}{"tracer": "callTracer"}

// Client wraps go-ethereum RPC and provides helper methods.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// BlockByNumber returns the block with its transactions.
func (c *Client) BlockByNumber(ctx context.Context, number uint64) (*types.Block, error) {
	return c.ethClient.BlockByNumber(ctx, new(big.Int).SetUint64(number))
}

// HeaderByNumber returns the block header by number.
func (c *Client) HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error) {
	return c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
}

// BlockHash returns the canonical hash at a height as seen by the node.
func (c *Client) BlockHash(ctx context.Context, number uint64) (common.Hash, error) {
	header, err := c.HeaderByNumber(ctx, number)
	if err != nil {
		return common.Hash{}, err
	}
	return header.Hash(), nil
}

// BlockReceipts returns all receipts of a block. Nodes without
// eth_getBlockReceipts are served one receipt per transaction.
func (c *Client) BlockReceipts(ctx context.Context, block *types.Block) ([]*types.Receipt, error) {
	receipts, err := c.ethClient.BlockReceipts(ctx, rpc.BlockNumberOrHashWithHash(block.Hash(), false))
	if err == nil {
		return receipts, nil
	}
	if !isMethodNotFound(err) {
		return nil, err
	}

	receipts = make([]*types.Receipt, 0, len(block.Transactions()))
	for _, tx := range block.Transactions() {
		receipt, err := c.TransactionReceipt(ctx, tx.Hash())
		if err != nil {
			return nil, fmt.Errorf("receipt %s: %w", tx.Hash().Hex(), err)
		}
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}

// TransactionReceipt returns the receipt of one transaction.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return c.ethClient.TransactionReceipt(ctx, txHash)
}

// TransactionTrace returns the callTracer frame of one transaction.
func (c *Client) TransactionTrace(ctx context.Context, txHash common.Hash) (*CallFrame, error) {
	var frame *CallFrame
	if err := c.rpcClient.CallContext(ctx, &frame, "debug_traceTransaction", txHash, tracerConfig); err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, ethereum.NotFound
	}
	return frame, nil
}

// BlockTraces returns the callTracer frames of every transaction in a block.
func (c *Client) BlockTraces(ctx context.Context, number uint64) ([]TxTrace, error) {
	var traces []TxTrace
	if err := c.rpcClient.CallContext(ctx, &traces, "debug_traceBlockByNumber", hexutil.EncodeUint64(number), tracerConfig); err != nil {
		return nil, err
	}
	return traces, nil
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}

func isMethodNotFound(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode() == -32601
	}
	return false
}
