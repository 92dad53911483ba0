package model

import "github.com/ethereum/go-ethereum/common"

// PoolDetails are the immutable parameters of an AMM NFT pool.
type PoolDetails struct {
	Address common.Address `json:"address"`
	NFT     common.Address `json:"nft"`
	// Token is the zero address when the pool trades the native currency.
	Token common.Address `json:"token"`
}
