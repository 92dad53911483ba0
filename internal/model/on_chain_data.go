package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// OrderSide is the side of the maker order that was filled.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderParams describes a pool-backed order change.
type OrderParams struct {
	Pool        common.Address `json:"pool"`
	TxHash      common.Hash    `json:"tx_hash"`
	TxTimestamp uint64         `json:"tx_timestamp"`
	TxBlock     uint64         `json:"tx_block"`
	LogIndex    uint           `json:"log_index"`
	// EncodedTokenIDs is nil when the event does not touch the accepted id set
	// and empty (non-nil) when the pool accepts any token id.
	EncodedTokenIDs *hexutil.Bytes `json:"encoded_token_ids,omitempty"`
	IsModifierEvent bool           `json:"is_modifier_event"`
}

// Order is an order-book change produced by a handler.
type Order struct {
	Kind     EventKind         `json:"kind"`
	Params   OrderParams       `json:"order_params"`
	Metadata map[string]string `json:"metadata"`
}

// FillEvent is a single executed trade of one token.
type FillEvent struct {
	OrderKind          EventKind       `json:"order_kind"`
	OrderSide          OrderSide       `json:"order_side"`
	OrderID            string          `json:"order_id"`
	Maker              common.Address  `json:"maker"`
	Taker              common.Address  `json:"taker"`
	Price              string          `json:"price"`
	CurrencyPrice      string          `json:"currency_price"`
	USDPrice           string          `json:"usd_price,omitempty"`
	Currency           common.Address  `json:"currency"`
	Contract           common.Address  `json:"contract"`
	TokenID            string          `json:"token_id"`
	Amount             string          `json:"amount"`
	OrderSourceID      *int            `json:"order_source_id,omitempty"`
	AggregatorSourceID *int            `json:"aggregator_source_id,omitempty"`
	FillSourceID       *int            `json:"fill_source_id,omitempty"`
	Base               BaseEventParams `json:"base_event_params"`
}

// FillInfo feeds last-sale bookkeeping. Context is unique per physical fill.
type FillInfo struct {
	Context   string         `json:"context"`
	OrderSide OrderSide      `json:"order_side"`
	Contract  common.Address `json:"contract"`
	TokenID   string         `json:"token_id"`
	Amount    string         `json:"amount"`
	Price     string         `json:"price"`
	Timestamp uint64         `json:"timestamp"`
	Maker     common.Address `json:"maker"`
	Taker     common.Address `json:"taker"`
}

// OrderTrigger describes what caused an order status refresh.
type OrderTrigger struct {
	Kind        string      `json:"kind"`
	TxHash      common.Hash `json:"tx_hash"`
	TxTimestamp uint64      `json:"tx_timestamp"`
}

// OrderInfo requests an order status refresh.
type OrderInfo struct {
	Context string       `json:"context"`
	ID      string       `json:"id"`
	Trigger OrderTrigger `json:"trigger"`
}

// FtTransferEvent is a fungible token transfer.
type FtTransferEvent struct {
	From   common.Address  `json:"from"`
	To     common.Address  `json:"to"`
	Amount string          `json:"amount"`
	Base   BaseEventParams `json:"base_event_params"`
}

// NftTransferEvent is a non-fungible (or semi-fungible) token transfer.
type NftTransferEvent struct {
	Kind    EventKind       `json:"kind"`
	From    common.Address  `json:"from"`
	To      common.Address  `json:"to"`
	TokenID string          `json:"token_id"`
	Amount  string          `json:"amount"`
	Base    BaseEventParams `json:"base_event_params"`
}

// OnChainData accumulates handler output for one batch. Handlers only append.
type OnChainData struct {
	BatchID           string             `json:"batch_id"`
	Orders            []Order            `json:"orders"`
	FillEventsOnChain []FillEvent        `json:"fill_events_on_chain"`
	FillEventsPartial []FillEvent        `json:"fill_events_partial"`
	FillInfos         []FillInfo         `json:"fill_infos"`
	OrderInfos        []OrderInfo        `json:"order_infos"`
	FtTransferEvents  []FtTransferEvent  `json:"ft_transfer_events"`
	NftTransferEvents []NftTransferEvent `json:"nft_transfer_events"`
}

// NewOnChainData returns an empty accumulator for a batch.
func NewOnChainData(batchID string) *OnChainData {
	return &OnChainData{BatchID: batchID}
}

// Empty reports whether no handler produced anything.
func (d *OnChainData) Empty() bool {
	return len(d.Orders) == 0 &&
		len(d.FillEventsOnChain) == 0 &&
		len(d.FillEventsPartial) == 0 &&
		len(d.FillInfos) == 0 &&
		len(d.OrderInfos) == 0 &&
		len(d.FtTransferEvents) == 0 &&
		len(d.NftTransferEvents) == 0
}
