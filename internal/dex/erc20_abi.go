package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20ABIStringJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "from", "type": "address"},
    {"indexed": true, "name": "to", "type": "address"},
    {"indexed": false, "name": "value", "type": "uint256"}
  ], "name": "Transfer", "type": "event"}
]`

const erc20ABIBytes32JSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

const erc721ABIJSON = `[
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "from", "type": "address"},
    {"indexed": true, "name": "to", "type": "address"},
    {"indexed": true, "name": "tokenId", "type": "uint256"}
  ], "name": "Transfer", "type": "event"}
]`

const erc1155ABIJSON = `[
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "operator", "type": "address"},
    {"indexed": true, "name": "from", "type": "address"},
    {"indexed": true, "name": "to", "type": "address"},
    {"indexed": false, "name": "id", "type": "uint256"},
    {"indexed": false, "name": "value", "type": "uint256"}
  ], "name": "TransferSingle", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "operator", "type": "address"},
    {"indexed": true, "name": "from", "type": "address"},
    {"indexed": true, "name": "to", "type": "address"},
    {"indexed": false, "name": "ids", "type": "uint256[]"},
    {"indexed": false, "name": "values", "type": "uint256[]"}
  ], "name": "TransferBatch", "type": "event"}
]`

var (
	erc20ABIString      abi.ABI
	erc20ABIStringOnce  sync.Once
	erc20ABIStringErr   error
	erc20ABIBytes32     abi.ABI
	erc20ABIBytes32Once sync.Once
	erc20ABIBytes32Err  error
	erc721ABI           abi.ABI
	erc721ABIOnce       sync.Once
	erc721ABIErr        error
	erc1155ABI          abi.ABI
	erc1155ABIOnce      sync.Once
	erc1155ABIErr       error
)

// ERC20ABI returns the ERC20 ABI with string metadata getters and Transfer.
func ERC20ABI() (abi.ABI, error) {
	erc20ABIStringOnce.Do(func() {
		erc20ABIString, erc20ABIStringErr = abi.JSON(strings.NewReader(erc20ABIStringJSON))
	})
	return erc20ABIString, erc20ABIStringErr
}

func erc20ABIBytes32Instance() (abi.ABI, error) {
	erc20ABIBytes32Once.Do(func() {
		erc20ABIBytes32, erc20ABIBytes32Err = abi.JSON(strings.NewReader(erc20ABIBytes32JSON))
	})
	return erc20ABIBytes32, erc20ABIBytes32Err
}

// ERC721ABI returns the ERC721 Transfer event ABI.
func ERC721ABI() (abi.ABI, error) {
	erc721ABIOnce.Do(func() {
		erc721ABI, erc721ABIErr = abi.JSON(strings.NewReader(erc721ABIJSON))
	})
	return erc721ABI, erc721ABIErr
}

// ERC1155ABI returns the ERC1155 transfer event ABI.
func ERC1155ABI() (abi.ABI, error) {
	erc1155ABIOnce.Do(func() {
		erc1155ABI, erc1155ABIErr = abi.JSON(strings.NewReader(erc1155ABIJSON))
	})
	return erc1155ABI, erc1155ABIErr
}
