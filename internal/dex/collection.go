package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"chainSync/internal/chain"
	"chainSync/internal/model"
)

type swapSpec struct {
	event          string
	amountField    string
	selectors      []string
	recipientField string
	side           model.OrderSide
	partial        bool
	perTokenOrder  bool
}

var (
	swapOutSpec = swapSpec{
		event:          "SwapNFTOutPool",
		amountField:    "inputAmount",
		selectors:      []string{"swapTokenForAnyNFTs", "swapTokenForSpecificNFTs"},
		recipientField: "nftRecipient",
		side:           model.OrderSideSell,
		perTokenOrder:  true,
	}
	swapInSpec = swapSpec{
		event:          "SwapNFTInPool",
		amountField:    "outputAmount",
		selectors:      []string{"swapNFTsForToken"},
		recipientField: "tokenRecipient",
		side:           model.OrderSideBuy,
		partial:        true,
	}
)

// CollectionHandler decodes collection.xyz pool and factory events.
type CollectionHandler struct {
	poolABI    abi.ABI
	factoryABI abi.ABI
	selectors  map[string][][]byte
}

// NewCollectionHandler builds the collection.xyz handler.
func NewCollectionHandler() (*CollectionHandler, error) {
	poolABI, err := CollectionPoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	factoryABI, err := CollectionFactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}

	selectors := make(map[string][][]byte)
	for _, spec := range []swapSpec{swapOutSpec, swapInSpec} {
		for _, name := range spec.selectors {
			method, ok := poolABI.Methods[name]
			if !ok {
				return nil, fmt.Errorf("pool abi missing method %s", name)
			}
			selectors[spec.event] = append(selectors[spec.event], method.ID)
		}
	}

	return &CollectionHandler{poolABI: poolABI, factoryABI: factoryABI, selectors: selectors}, nil
}

func (h *CollectionHandler) Kind() model.EventKind {
	return model.KindCollectionXyz
}

// Handle processes the collection bucket of one batch. Trade ranks are
// scoped to this call.
func (h *CollectionHandler) Handle(hctx HandlerContext, events []model.CandidateEvent, data *model.OnChainData) error {
	buys := make(map[string]int)
	sells := make(map[string]int)

	for _, ev := range events {
		if err := hctx.ctx().Err(); err != nil {
			return err
		}

		switch ev.SubKind {
		case model.SubKindCollectionSwapNFTOutPool:
			key := rankKey(ev.Base)
			rank := buys[key]
			h.guard(hctx, ev, func() error { return h.handleSwap(hctx, ev, swapOutSpec, rank, data) })
			buys[key] = rank + 1
		case model.SubKindCollectionSwapNFTInPool:
			key := rankKey(ev.Base)
			rank := sells[key]
			h.guard(hctx, ev, func() error { return h.handleSwap(hctx, ev, swapInSpec, rank, data) })
			sells[key] = rank + 1
		case model.SubKindCollectionNewPool:
			h.guard(hctx, ev, func() error { return h.handleNewPool(hctx, ev, data) })
		case model.SubKindCollectionAcceptsTokenIDs:
			h.guard(hctx, ev, func() error { return h.handleAcceptsTokenIDs(ev, data) })
		case model.SubKindCollectionSpotPriceUpdate,
			model.SubKindCollectionDeltaUpdate,
			model.SubKindCollectionPropsUpdate,
			model.SubKindCollectionStateUpdate,
			model.SubKindCollectionRoyaltyNumeratorUpdate,
			model.SubKindCollectionRoyaltyRecipientFallbackUpdate,
			model.SubKindCollectionExternalFilterSet,
			model.SubKindCollectionFeeUpdate,
			model.SubKindCollectionProtocolFeeMultiplierUpdate,
			model.SubKindCollectionCarryFeeMultiplierUpdate,
			model.SubKindCollectionAssetRecipientChange,
			model.SubKindCollectionAccruedTradeFeeWithdrawal,
			model.SubKindCollectionTokenDeposit,
			model.SubKindCollectionTokenWithdrawal,
			model.SubKindCollectionNFTDeposit,
			model.SubKindCollectionNFTWithdrawal:
			data.Orders = append(data.Orders, poolOrder(ev.Base.Address, ev.Base, nil, true))
		}
	}
	return nil
}

// guard runs one event and turns failures and panics into a logged skip.
func (h *CollectionHandler) guard(hctx HandlerContext, ev model.CandidateEvent, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			handlerSkipped.WithLabelValues(string(ev.Kind), "panic").Inc()
			hctx.logger().Error("collection event panicked",
				zap.String("sub_kind", string(ev.SubKind)),
				zap.String("tx_hash", ev.Base.TxHash.Hex()),
				zap.Uint("log_index", ev.Base.LogIndex),
				zap.Any("panic", r),
			)
		}
	}()
	if err := fn(); err != nil {
		handlerSkipped.WithLabelValues(string(ev.Kind), "error").Inc()
		hctx.logger().Warn("collection event skipped",
			zap.String("sub_kind", string(ev.SubKind)),
			zap.Uint64("block", ev.Base.Block),
			zap.String("tx_hash", ev.Base.TxHash.Hex()),
			zap.Uint("log_index", ev.Base.LogIndex),
			zap.Error(err),
		)
	}
}

func (h *CollectionHandler) handleSwap(hctx HandlerContext, ev model.CandidateEvent, spec swapSpec, rank int, data *model.OnChainData) error {
	base := ev.Base
	logger := hctx.logger().With(
		zap.String("sub_kind", string(ev.SubKind)),
		zap.Uint64("block", base.Block),
		zap.String("tx_hash", base.TxHash.Hex()),
	)

	data.Orders = append(data.Orders, poolOrder(base.Address, base, nil, true))

	if hctx.Traces == nil {
		return fmt.Errorf("no trace source")
	}
	trace, err := hctx.Traces.TransactionTrace(hctx.ctx(), base.TxHash)
	if err != nil || trace == nil {
		handlerSkipped.WithLabelValues(string(ev.Kind), "no_trace").Inc()
		logger.Warn("trace unavailable, skipping swap", zap.Error(err))
		return nil
	}

	call := chain.SearchCall(trace, chain.CallCriteria{
		To:        base.Address,
		Type:      "CALL",
		Selectors: h.selectors[spec.event],
	}, rank)
	if call == nil {
		handlerSkipped.WithLabelValues(string(ev.Kind), "no_call").Inc()
		logger.Debug("no matching pool call", zap.Int("rank", rank))
		return nil
	}
	if len(call.Output) == 0 {
		logger.Error("trace missing output", zap.Int("rank", rank))
	}

	method, err := h.poolABI.MethodById(call.Selector())
	if err != nil {
		return fmt.Errorf("lookup method: %w", err)
	}
	args := make(map[string]interface{})
	if err := method.Inputs.UnpackIntoMap(args, call.Input[4:]); err != nil {
		return fmt.Errorf("decode %s input: %w", method.Name, err)
	}
	taker, err := asAddress(args[spec.recipientField])
	if err != nil {
		return fmt.Errorf("%s: %w", spec.recipientField, err)
	}

	fields := make(map[string]interface{})
	if err := h.poolABI.Events[spec.event].Inputs.UnpackIntoMap(fields, ev.Log.Data); err != nil {
		return fmt.Errorf("decode %s log: %w", spec.event, err)
	}
	nftIDs, err := asBigInts(fields["nftIds"])
	if err != nil {
		return fmt.Errorf("nftIds: %w", err)
	}
	amount, err := asBigInt(fields[spec.amountField])
	if err != nil {
		return fmt.Errorf("%s: %w", spec.amountField, err)
	}
	if len(nftIDs) == 0 {
		return fmt.Errorf("swap without nft ids")
	}

	if hctx.Pools == nil {
		return fmt.Errorf("no pool source")
	}
	pool, err := hctx.Pools.PoolDetails(hctx.ctx(), base.Address)
	if err != nil {
		return fmt.Errorf("pool details: %w", err)
	}

	price := new(big.Int).Div(amount, big.NewInt(int64(len(nftIDs))))

	var attribution model.Attribution
	if hctx.Attributor != nil {
		attribution, err = hctx.Attributor.Extract(hctx.ctx(), base.TxHash, model.KindCollectionXyz)
		if err != nil {
			logger.Debug("attribution failed", zap.Error(err))
		}
	}
	if attribution.Taker != nil {
		taker = *attribution.Taker
	}

	if hctx.Pricer == nil {
		return fmt.Errorf("no pricer")
	}
	prices, err := hctx.Pricer.NativeAndUSDPrice(hctx.ctx(), pool.Token, price, base.Timestamp)
	if err != nil {
		return fmt.Errorf("price lookup: %w", err)
	}
	if prices.NativePrice == nil {
		handlerSkipped.WithLabelValues(string(ev.Kind), "no_native_price").Inc()
		logger.Debug("no native price, dropping fills", zap.String("currency", pool.Token.Hex()))
		return nil
	}

	usdPrice := ""
	if prices.USDPrice != nil {
		usdPrice = prices.USDPrice.String()
	}

	for i, tokenID := range nftIDs {
		var orderID string
		if spec.perTokenOrder {
			orderID = CollectionOrderID(base.Address, spec.side, tokenID)
		} else {
			orderID = CollectionOrderID(base.Address, spec.side, nil)
		}

		fill := model.FillEvent{
			OrderKind:          model.KindCollectionXyz,
			OrderSide:          spec.side,
			OrderID:            orderID,
			Maker:              base.Address,
			Taker:              taker,
			Price:              prices.NativePrice.String(),
			CurrencyPrice:      price.String(),
			USDPrice:           usdPrice,
			Currency:           pool.Token,
			Contract:           pool.NFT,
			TokenID:            tokenID.String(),
			Amount:             "1",
			OrderSourceID:      attribution.OrderSource.IDPtr(),
			AggregatorSourceID: attribution.AggregatorSource.IDPtr(),
			FillSourceID:       attribution.FillSource.IDPtr(),
			Base:               base.WithBatchIndex(i + 1),
		}
		if spec.partial {
			data.FillEventsPartial = append(data.FillEventsPartial, fill)
		} else {
			data.FillEventsOnChain = append(data.FillEventsOnChain, fill)
		}

		data.FillInfos = append(data.FillInfos, model.FillInfo{
			Context:   fmt.Sprintf("collection-%s-%s-%s", lowerHex(pool.NFT), tokenID.String(), base.TxHash.Hex()),
			OrderSide: spec.side,
			Contract:  pool.NFT,
			TokenID:   tokenID.String(),
			Amount:    "1",
			Price:     prices.NativePrice.String(),
			Timestamp: base.Timestamp,
			Maker:     base.Address,
			Taker:     taker,
		})

		data.OrderInfos = append(data.OrderInfos, model.OrderInfo{
			Context: fmt.Sprintf("filled-%s-%s", orderID, base.TxHash.Hex()),
			ID:      orderID,
			Trigger: model.OrderTrigger{
				Kind:        "sale",
				TxHash:      base.TxHash,
				TxTimestamp: base.Timestamp,
			},
		})
	}

	return nil
}

func (h *CollectionHandler) handleNewPool(hctx HandlerContext, ev model.CandidateEvent, data *model.OnChainData) error {
	fields := make(map[string]interface{})
	if err := h.factoryABI.Events["NewPool"].Inputs.UnpackIntoMap(fields, ev.Log.Data); err != nil {
		return fmt.Errorf("decode NewPool log: %w", err)
	}
	pool, err := asAddress(fields["poolAddress"])
	if err != nil {
		return fmt.Errorf("poolAddress: %w", err)
	}

	if hctx.Receipts == nil {
		return fmt.Errorf("no receipt source")
	}
	// Without the receipt the filter is unknown, and an empty encoding would
	// mark the pool unfiltered, so the order is dropped.
	receipt, err := hctx.Receipts.TransactionReceipt(hctx.ctx(), ev.Base.TxHash)
	if err != nil {
		return fmt.Errorf("receipt: %w", err)
	}

	// Empty means unfiltered; nil is reserved for events that leave the filter alone.
	encoded := hexutil.Bytes{}
	accepts := h.poolABI.Events["AcceptsTokenIDs"]
	for _, log := range receipt.Logs {
		if len(log.Topics) != 3 || log.Topics[0] != accepts.ID {
			continue
		}
		raw, err := h.decodeAcceptsTokenIDs(log.Data)
		if err != nil {
			continue
		}
		encoded = raw
		break
	}

	data.Orders = append(data.Orders, poolOrder(pool, ev.Base, &encoded, false))
	return nil
}

func (h *CollectionHandler) handleAcceptsTokenIDs(ev model.CandidateEvent, data *model.OnChainData) error {
	encoded, err := h.decodeAcceptsTokenIDs(ev.Log.Data)
	if err != nil {
		return err
	}
	data.Orders = append(data.Orders, poolOrder(ev.Base.Address, ev.Base, &encoded, true))
	return nil
}

func (h *CollectionHandler) decodeAcceptsTokenIDs(logData []byte) (hexutil.Bytes, error) {
	fields := make(map[string]interface{})
	if err := h.poolABI.Events["AcceptsTokenIDs"].Inputs.UnpackIntoMap(fields, logData); err != nil {
		return nil, fmt.Errorf("decode AcceptsTokenIDs log: %w", err)
	}
	raw, ok := fields["_data"].([]byte)
	if !ok {
		return nil, fmt.Errorf("unsupported _data type %T", fields["_data"])
	}
	return append(hexutil.Bytes{}, raw...), nil
}

func poolOrder(pool common.Address, base model.BaseEventParams, encoded *hexutil.Bytes, modifier bool) model.Order {
	return model.Order{
		Kind: model.KindCollectionXyz,
		Params: model.OrderParams{
			Pool:            pool,
			TxHash:          base.TxHash,
			TxTimestamp:     base.Timestamp,
			TxBlock:         base.Block,
			LogIndex:        base.LogIndex,
			EncodedTokenIDs: encoded,
			IsModifierEvent: modifier,
		},
		Metadata: map[string]string{},
	}
}

func rankKey(base model.BaseEventParams) string {
	return base.TxHash.Hex() + "-" + lowerHex(base.Address)
}
