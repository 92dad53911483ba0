package model

import (
	"github.com/ethereum/go-ethereum/common"
)

// Block is the persisted block header and digest.
type Block struct {
	Hash             common.Hash    `json:"hash"`
	Number           uint64         `json:"number"`
	Timestamp        uint64         `json:"timestamp"`
	ParentHash       common.Hash    `json:"parent_hash"`
	Nonce            uint64         `json:"nonce"`
	UncleHash        common.Hash    `json:"uncles_hash"`
	LogsBloom        []byte         `json:"logs_bloom"`
	TxRoot           common.Hash    `json:"transactions_root"`
	StateRoot        common.Hash    `json:"state_root"`
	MixHash          common.Hash    `json:"mix_hash"`
	ReceiptsRoot     common.Hash    `json:"receipts_root"`
	Miner            common.Address `json:"miner"`
	Difficulty       string         `json:"difficulty"`
	ExtraData        []byte         `json:"extra_data"`
	Size             uint64         `json:"size"`
	GasLimit         uint64         `json:"gas_limit"`
	GasUsed          uint64         `json:"gas_used"`
	BaseFee          string         `json:"base_fee,omitempty"`
	Uncles           []common.Hash  `json:"uncles"`
	TransactionCount int            `json:"transaction_count"`
}

// Transaction is the persisted transaction row.
type Transaction struct {
	Hash        common.Hash     `json:"hash"`
	BlockNumber uint64          `json:"block_number"`
	BlockHash   common.Hash     `json:"block_hash"`
	BlockTime   uint64          `json:"block_timestamp"`
	Index       uint64          `json:"index"`
	From        common.Address  `json:"from"`
	To          *common.Address `json:"to,omitempty"`
	Value       string          `json:"value"`
	Data        []byte          `json:"data"`
	Nonce       uint64          `json:"nonce"`
	GasPrice    string          `json:"gas_price"`
	GasUsed     uint64          `json:"gas_used"`
	Status      uint64          `json:"status"`
}

// BlockJob asks the processor to sync one height.
type BlockJob struct {
	Block uint64 `json:"block"`
}
