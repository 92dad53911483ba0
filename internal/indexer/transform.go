package indexer

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"chainSync/internal/model"
)

func buildBlock(block *types.Block) model.Block {
	header := block.Header()
	uncles := make([]common.Hash, 0, len(block.Uncles()))
	for _, uncle := range block.Uncles() {
		uncles = append(uncles, uncle.Hash())
	}

	out := model.Block{
		Hash:             block.Hash(),
		Number:           block.NumberU64(),
		Timestamp:        block.Time(),
		ParentHash:       header.ParentHash,
		Nonce:            header.Nonce.Uint64(),
		UncleHash:        header.UncleHash,
		LogsBloom:        header.Bloom.Bytes(),
		TxRoot:           header.TxHash,
		StateRoot:        header.Root,
		MixHash:          header.MixDigest,
		ReceiptsRoot:     header.ReceiptHash,
		Miner:            header.Coinbase,
		Difficulty:       bigString(header.Difficulty),
		ExtraData:        header.Extra,
		Size:             block.Size(),
		GasLimit:         header.GasLimit,
		GasUsed:          header.GasUsed,
		Uncles:           uncles,
		TransactionCount: len(block.Transactions()),
	}
	if header.BaseFee != nil {
		out.BaseFee = header.BaseFee.String()
	}
	return out
}

// buildTransactions joins block transactions with their receipts. Senders
// that cannot be recovered are left zero.
func buildTransactions(signer types.Signer, block *types.Block, receipts map[common.Hash]*types.Receipt) []model.Transaction {
	out := make([]model.Transaction, 0, len(block.Transactions()))
	for i, tx := range block.Transactions() {
		from, _ := types.Sender(signer, tx)
		row := model.Transaction{
			Hash:        tx.Hash(),
			BlockNumber: block.NumberU64(),
			BlockHash:   block.Hash(),
			BlockTime:   block.Time(),
			Index:       uint64(i),
			From:        from,
			To:          tx.To(),
			Value:       bigString(tx.Value()),
			Data:        tx.Data(),
			Nonce:       tx.Nonce(),
			GasPrice:    bigString(tx.GasPrice()),
		}
		if receipt, ok := receipts[tx.Hash()]; ok {
			row.GasUsed = receipt.GasUsed
			row.Status = receipt.Status
			if receipt.EffectiveGasPrice != nil {
				row.GasPrice = receipt.EffectiveGasPrice.String()
			}
		}
		out = append(out, row)
	}
	return out
}

// collectLogs flattens receipt logs in log index order, filling in block
// coordinates some nodes omit.
func collectLogs(block *types.Block, receipts []*types.Receipt) []types.Log {
	var logs []types.Log
	for _, receipt := range receipts {
		for _, log := range receipt.Logs {
			if log == nil {
				continue
			}
			l := *log
			if l.BlockHash == (common.Hash{}) {
				l.BlockHash = block.Hash()
			}
			if l.BlockNumber == 0 {
				l.BlockNumber = block.NumberU64()
			}
			if l.TxHash == (common.Hash{}) {
				l.TxHash = receipt.TxHash
			}
			logs = append(logs, l)
		}
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Index < logs[j].Index })
	return logs
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
