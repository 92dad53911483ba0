package dex

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"

	"chainSync/internal/model"
)

// CollectionOrderID derives the synthetic order id of a pool side. Sell
// orders are per token id, buy orders are per pool.
func CollectionOrderID(pool common.Address, side model.OrderSide, tokenID *big.Int) string {
	parts := [][]byte{
		[]byte(model.KindCollectionXyz),
		pool.Bytes(),
		[]byte(side),
	}
	if tokenID != nil {
		parts = append(parts, math.U256Bytes(new(big.Int).Set(tokenID)))
	}
	return crypto.Keccak256Hash(parts...).Hex()
}
