package dex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"chainSync/internal/model"
)

var errEmptyResult = errors.New("empty call result")

// ContractCaller performs eth_call.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// PoolCache caches pool details by address.
type PoolCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.PoolDetails
}

func NewPoolCache() *PoolCache {
	return &PoolCache{data: make(map[common.Address]model.PoolDetails)}
}

func (c *PoolCache) Get(address common.Address) (model.PoolDetails, bool) {
	c.mu.RLock()
	details, ok := c.data[address]
	c.mu.RUnlock()
	return details, ok
}

func (c *PoolCache) Set(address common.Address, details model.PoolDetails) {
	c.mu.Lock()
	c.data[address] = details
	c.mu.Unlock()
}

// PoolDetailsFetcher resolves pool details over eth_call, caching results.
type PoolDetailsFetcher struct {
	caller ContractCaller
	cache  *PoolCache
	logger *zap.Logger
}

func NewPoolDetailsFetcher(caller ContractCaller, cache *PoolCache, logger *zap.Logger) *PoolDetailsFetcher {
	if cache == nil {
		cache = NewPoolCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolDetailsFetcher{caller: caller, cache: cache, logger: logger}
}

// PoolDetails returns cached details or loads them from chain.
func (f *PoolDetailsFetcher) PoolDetails(ctx context.Context, pool common.Address) (model.PoolDetails, error) {
	if details, ok := f.cache.Get(pool); ok {
		return details, nil
	}
	details, err := FetchPoolDetails(ctx, f.caller, pool, f.logger)
	if err != nil {
		return model.PoolDetails{}, err
	}
	f.cache.Set(pool, details)
	return details, nil
}

// FetchPoolDetails loads immutable pool parameters. A pool whose token()
// call reverts or returns nothing trades the native currency. Any other
// token() failure is returned, so PoolDetailsFetcher does not cache it.
func FetchPoolDetails(ctx context.Context, caller ContractCaller, pool common.Address, logger *zap.Logger) (model.PoolDetails, error) {
	if caller == nil {
		return model.PoolDetails{}, fmt.Errorf("contract caller is nil")
	}

	poolABI, err := CollectionPoolABI()
	if err != nil {
		return model.PoolDetails{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := callPoolMethod(ctx, caller, pool, poolABI, "nft", nil)
	if err != nil {
		return model.PoolDetails{}, err
	}
	nft, err := asAddress(values[0])
	if err != nil {
		return model.PoolDetails{}, fmt.Errorf("nft: %w", err)
	}

	details := model.PoolDetails{Address: pool, NFT: nft}

	values, err = callPoolMethod(ctx, caller, pool, poolABI, "token", nil)
	switch {
	case err == nil:
	case isReverted(err), errors.Is(err, errEmptyResult):
		if logger != nil {
			logger.Debug("token call reverted, assuming native pool", zap.String("pool", pool.Hex()), zap.Error(err))
		}
		return details, nil
	default:
		return model.PoolDetails{}, err
	}
	token, err := asAddress(values[0])
	if err != nil {
		return model.PoolDetails{}, fmt.Errorf("token: %w", err)
	}
	details.Token = token

	return details, nil
}

func callPoolMethod(ctx context.Context, caller ContractCaller, pool common.Address, poolABI abi.ABI, method string, block *big.Int) ([]interface{}, error) {
	data, err := poolABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &pool, Data: data}
	resp, err := caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("call %s: %w", method, errEmptyResult)
	}
	values, err := poolABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return values, nil
}

// FetchTokenMeta loads token metadata via ERC20 calls.
func FetchTokenMeta(ctx context.Context, caller ContractCaller, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if caller == nil {
		return meta, fmt.Errorf("contract caller is nil")
	}

	stringABI, err := ERC20ABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		msg := ethereum.CallMsg{To: &token, Data: data}
		resp, err := caller.CallContract(ctx, msg, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("unpack %s: empty result", method)
		}
		return values, nil
	}

	values, err := call("decimals", stringABI)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	if values, err := call("symbol", stringABI); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := call("symbol", bytes32ABI); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else if logger != nil {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := call("name", stringABI); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := call("name", bytes32ABI); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else if logger != nil {
		logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

// isReverted reports whether the node rejected a call because the contract
// reverted, as opposed to a transport or node failure.
func isReverted(err error) bool {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asBigInts(value interface{}) ([]*big.Int, error) {
	switch v := value.(type) {
	case []*big.Int:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported int slice type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
