package dex

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"chainSync/internal/model"
)

// TransferHandler decodes token transfers of one token standard.
type TransferHandler struct {
	kind    model.EventKind
	erc20   abi.ABI
	erc1155 abi.ABI
}

// NewTransferHandler builds a handler for erc20, erc721 or erc1155 transfers.
func NewTransferHandler(kind model.EventKind) (*TransferHandler, error) {
	switch kind {
	case model.KindERC20, model.KindERC721, model.KindERC1155:
	default:
		return nil, fmt.Errorf("unsupported transfer kind %s", kind)
	}
	erc20, err := ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	erc1155, err := ERC1155ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc1155 abi: %w", err)
	}
	return &TransferHandler{kind: kind, erc20: erc20, erc1155: erc1155}, nil
}

func (h *TransferHandler) Kind() model.EventKind {
	return h.kind
}

func (h *TransferHandler) Handle(hctx HandlerContext, events []model.CandidateEvent, data *model.OnChainData) error {
	for _, ev := range events {
		if err := hctx.ctx().Err(); err != nil {
			return err
		}
		if ev.Kind != h.kind {
			continue
		}
		if err := h.handleEvent(ev, data); err != nil {
			handlerSkipped.WithLabelValues(string(ev.Kind), "error").Inc()
			hctx.logger().Warn("transfer event skipped",
				zap.String("sub_kind", string(ev.SubKind)),
				zap.String("tx_hash", ev.Base.TxHash.Hex()),
				zap.Uint("log_index", ev.Base.LogIndex),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (h *TransferHandler) handleEvent(ev model.CandidateEvent, data *model.OnChainData) error {
	topics := ev.Log.Topics
	switch ev.SubKind {
	case model.SubKindERC20Transfer:
		fields := make(map[string]interface{})
		if err := h.erc20.Events["Transfer"].Inputs.UnpackIntoMap(fields, ev.Log.Data); err != nil {
			return fmt.Errorf("decode erc20 transfer: %w", err)
		}
		value, err := asBigInt(fields["value"])
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}
		data.FtTransferEvents = append(data.FtTransferEvents, model.FtTransferEvent{
			From:   topicAddress(topics[1]),
			To:     topicAddress(topics[2]),
			Amount: value.String(),
			Base:   ev.Base,
		})
	case model.SubKindERC721Transfer:
		data.NftTransferEvents = append(data.NftTransferEvents, model.NftTransferEvent{
			Kind:    model.KindERC721,
			From:    topicAddress(topics[1]),
			To:      topicAddress(topics[2]),
			TokenID: topics[3].Big().String(),
			Amount:  "1",
			Base:    ev.Base,
		})
	case model.SubKindERC1155TransferSingle:
		fields := make(map[string]interface{})
		if err := h.erc1155.Events["TransferSingle"].Inputs.UnpackIntoMap(fields, ev.Log.Data); err != nil {
			return fmt.Errorf("decode erc1155 transfer single: %w", err)
		}
		id, err := asBigInt(fields["id"])
		if err != nil {
			return fmt.Errorf("id: %w", err)
		}
		value, err := asBigInt(fields["value"])
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}
		data.NftTransferEvents = append(data.NftTransferEvents, model.NftTransferEvent{
			Kind:    model.KindERC1155,
			From:    topicAddress(topics[2]),
			To:      topicAddress(topics[3]),
			TokenID: id.String(),
			Amount:  value.String(),
			Base:    ev.Base,
		})
	case model.SubKindERC1155TransferBatch:
		fields := make(map[string]interface{})
		if err := h.erc1155.Events["TransferBatch"].Inputs.UnpackIntoMap(fields, ev.Log.Data); err != nil {
			return fmt.Errorf("decode erc1155 transfer batch: %w", err)
		}
		ids, err := asBigInts(fields["ids"])
		if err != nil {
			return fmt.Errorf("ids: %w", err)
		}
		values, err := asBigInts(fields["values"])
		if err != nil {
			return fmt.Errorf("values: %w", err)
		}
		if len(ids) != len(values) {
			return fmt.Errorf("ids/values length mismatch: %d != %d", len(ids), len(values))
		}
		for i := range ids {
			data.NftTransferEvents = append(data.NftTransferEvents, model.NftTransferEvent{
				Kind:    model.KindERC1155,
				From:    topicAddress(topics[2]),
				To:      topicAddress(topics[3]),
				TokenID: ids[i].String(),
				Amount:  values[i].String(),
				Base:    ev.Base.WithBatchIndex(i + 1),
			})
		}
	default:
		return fmt.Errorf("unsupported sub kind %s", ev.SubKind)
	}
	return nil
}

func topicAddress(topic common.Hash) common.Address {
	return common.BytesToAddress(topic.Bytes())
}

func lowerHex(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
