package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const collectionPoolABIJSON = `[
  {"anonymous": false, "inputs": [
    {"indexed": false, "name": "nftIds", "type": "uint256[]"},
    {"indexed": false, "name": "outputAmount", "type": "uint256"},
    {"indexed": false, "name": "tradeFee", "type": "uint256"},
    {"indexed": false, "name": "protocolFee", "type": "uint256"}
  ], "name": "SwapNFTInPool", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": false, "name": "nftIds", "type": "uint256[]"},
    {"indexed": false, "name": "inputAmount", "type": "uint256"},
    {"indexed": false, "name": "tradeFee", "type": "uint256"},
    {"indexed": false, "name": "protocolFee", "type": "uint256"}
  ], "name": "SwapNFTOutPool", "type": "event"},
  {"anonymous": false, "inputs": [{"indexed": false, "name": "newSpotPrice", "type": "uint128"}], "name": "SpotPriceUpdate", "type": "event"},
  {"anonymous": false, "inputs": [{"indexed": false, "name": "newDelta", "type": "uint128"}], "name": "DeltaUpdate", "type": "event"},
  {"anonymous": false, "inputs": [{"indexed": false, "name": "newProps", "type": "bytes"}], "name": "PropsUpdate", "type": "event"},
  {"anonymous": false, "inputs": [{"indexed": false, "name": "newState", "type": "bytes"}], "name": "StateUpdate", "type": "event"},
  {"anonymous": false, "inputs": [{"indexed": false, "name": "newRoyaltyNumerator", "type": "uint256"}], "name": "RoyaltyNumeratorUpdate", "type": "event"},
  {"anonymous": false, "inputs": [{"indexed": true, "name": "newFallback", "type": "address"}], "name": "RoyaltyRecipientFallbackUpdate", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "collection", "type": "address"},
    {"indexed": true, "name": "filterAddress", "type": "address"}
  ], "name": "ExternalFilterSet", "type": "event"},
  {"anonymous": false, "inputs": [{"indexed": false, "name": "newFee", "type": "uint96"}], "name": "FeeUpdate", "type": "event"},
  {"anonymous": false, "inputs": [{"indexed": false, "name": "newMultiplier", "type": "uint24"}], "name": "ProtocolFeeMultiplierUpdate", "type": "event"},
  {"anonymous": false, "inputs": [{"indexed": false, "name": "newMultiplier", "type": "uint24"}], "name": "CarryFeeMultiplierUpdate", "type": "event"},
  {"anonymous": false, "inputs": [{"indexed": true, "name": "a", "type": "address"}], "name": "AssetRecipientChange", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "collection", "type": "address"},
    {"indexed": true, "name": "token", "type": "address"},
    {"indexed": false, "name": "amount", "type": "uint256"}
  ], "name": "AccruedTradeFeeWithdrawal", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "collection", "type": "address"},
    {"indexed": true, "name": "token", "type": "address"},
    {"indexed": false, "name": "amount", "type": "uint256"}
  ], "name": "TokenDeposit", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "collection", "type": "address"},
    {"indexed": true, "name": "token", "type": "address"},
    {"indexed": false, "name": "amount", "type": "uint256"}
  ], "name": "TokenWithdrawal", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "collection", "type": "address"},
    {"indexed": false, "name": "numNFTs", "type": "uint256"},
    {"indexed": false, "name": "rawBalance", "type": "uint256"}
  ], "name": "NFTDeposit", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "collection", "type": "address"},
    {"indexed": false, "name": "numNFTs", "type": "uint256"},
    {"indexed": false, "name": "rawBalance", "type": "uint256"}
  ], "name": "NFTWithdrawal", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "_collection", "type": "address"},
    {"indexed": true, "name": "_root", "type": "bytes32"},
    {"indexed": false, "name": "_data", "type": "bytes"}
  ], "name": "AcceptsTokenIDs", "type": "event"},
  {
    "inputs": [
      {"name": "numNFTs", "type": "uint256"},
      {"name": "maxExpectedTokenInput", "type": "uint256"},
      {"name": "nftRecipient", "type": "address"},
      {"name": "isRouter", "type": "bool"},
      {"name": "routerCaller", "type": "address"}
    ],
    "name": "swapTokenForAnyNFTs",
    "outputs": [{"name": "inputAmount", "type": "uint256"}],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [
      {"name": "nftIds", "type": "uint256[]"},
      {"name": "maxExpectedTokenInput", "type": "uint256"},
      {"name": "nftRecipient", "type": "address"},
      {"name": "isRouter", "type": "bool"},
      {"name": "routerCaller", "type": "address"}
    ],
    "name": "swapTokenForSpecificNFTs",
    "outputs": [{"name": "inputAmount", "type": "uint256"}],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [
      {"components": [
        {"name": "ids", "type": "uint256[]"},
        {"name": "proof", "type": "bytes32[]"},
        {"name": "proofFlags", "type": "bool[]"}
      ], "name": "nfts", "type": "tuple"},
      {"name": "minExpectedTokenOutput", "type": "uint256"},
      {"name": "tokenRecipient", "type": "address"},
      {"name": "isRouter", "type": "bool"},
      {"name": "routerCaller", "type": "address"},
      {"name": "externalFilterContext", "type": "bytes"}
    ],
    "name": "swapNFTsForToken",
    "outputs": [{"name": "outputAmount", "type": "uint256"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {"inputs": [], "name": "nft", "outputs": [{"name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "token", "outputs": [{"name": "", "type": "address"}], "stateMutability": "view", "type": "function"}
]`

const collectionFactoryABIJSON = `[
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "collection", "type": "address"},
    {"indexed": false, "name": "poolAddress", "type": "address"}
  ], "name": "NewPool", "type": "event"}
]`

var (
	collectionPoolABI     abi.ABI
	collectionPoolABIOnce sync.Once
	collectionPoolABIErr  error

	collectionFactoryABI     abi.ABI
	collectionFactoryABIOnce sync.Once
	collectionFactoryABIErr  error
)

// CollectionPoolABI returns the parsed collection.xyz pool ABI.
func CollectionPoolABI() (abi.ABI, error) {
	collectionPoolABIOnce.Do(func() {
		collectionPoolABI, collectionPoolABIErr = abi.JSON(strings.NewReader(collectionPoolABIJSON))
	})
	return collectionPoolABI, collectionPoolABIErr
}

// CollectionFactoryABI returns the parsed collection.xyz factory ABI.
func CollectionFactoryABI() (abi.ABI, error) {
	collectionFactoryABIOnce.Do(func() {
		collectionFactoryABI, collectionFactoryABIErr = abi.JSON(strings.NewReader(collectionFactoryABIJSON))
	})
	return collectionFactoryABI, collectionFactoryABIErr
}
