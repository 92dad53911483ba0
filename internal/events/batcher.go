package events

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"chainSync/internal/model"
)

var batchNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("chainsync/events-batch"))

type kindSpec struct {
	kind model.EventKind
	// before and after list sub-kinds of the same transaction that are copied
	// around the kind's own events when the kind has any.
	before []model.EventSubKind
	after  []model.EventSubKind
}

var bidValidation = []model.EventSubKind{model.SubKindERC20Transfer}

var kindOrder = []kindSpec{
	{kind: model.KindERC20},
	{kind: model.KindERC721},
	{kind: model.KindERC1155},
	{kind: model.KindBlur},
	{kind: model.KindCryptoPunks},
	{kind: model.KindDecentraland},
	{kind: model.KindElement},
	{kind: model.KindFoundation},
	{kind: model.KindLooksRare, after: bidValidation},
	{kind: model.KindNftx},
	{kind: model.KindNouns},
	{kind: model.KindQuixotic},
	{kind: model.KindSeaport, after: bidValidation},
	{kind: model.KindSudoswap},
	{kind: model.KindSudoswapV2},
	{kind: model.KindCaviarV1},
	{kind: model.KindWyvern, before: []model.EventSubKind{model.SubKindERC721Transfer}, after: bidValidation},
	{kind: model.KindX2Y2, after: bidValidation},
	{kind: model.KindZeroExV4, after: bidValidation},
	{kind: model.KindZora},
	{kind: model.KindRarible, after: bidValidation},
	{kind: model.KindManifold},
	{kind: model.KindTofu},
	{kind: model.KindBendDao},
	{kind: model.KindNftTrader},
	{kind: model.KindOkex},
	{kind: model.KindSuperRare},
	{kind: model.KindZeroExV2},
	{kind: model.KindZeroExV3},
	{kind: model.KindTreasure},
	{kind: model.KindLooksRareV2},
	{kind: model.KindBlend},
	{kind: model.KindCollectionXyz},
	{kind: model.KindPaymentProcessor},
	{kind: model.KindThirdweb},
	{kind: model.KindSeadrop},
	{kind: model.KindBlurV2},
}

// Kinds returns the bucket order of a batch.
func Kinds() []model.EventKind {
	out := make([]model.EventKind, 0, len(kindOrder))
	for _, spec := range kindOrder {
		out = append(out, spec.kind)
	}
	return out
}

// BuildBatches groups candidate events into one batch per transaction.
// The result does not depend on the order of the input.
func BuildBatches(events []model.CandidateEvent) []model.EventsBatch {
	byTx := make(map[common.Hash][]model.CandidateEvent)
	for _, ev := range events {
		byTx[ev.Base.TxHash] = append(byTx[ev.Base.TxHash], ev)
	}

	batches := make([]model.EventsBatch, 0, len(byTx))
	for txHash, txEvents := range byTx {
		sortEvents(txEvents)
		first := txEvents[0].Base

		byKind := make(map[model.EventKind][]model.CandidateEvent)
		for _, ev := range txEvents {
			byKind[ev.Kind] = append(byKind[ev.Kind], ev)
		}

		buckets := make([]model.EventsByKind, 0, len(kindOrder))
		for _, spec := range kindOrder {
			own := byKind[spec.kind]
			bucket := model.EventsByKind{Kind: spec.kind, Events: []model.CandidateEvent{}}
			if len(own) > 0 {
				bucket.Events = append(bucket.Events, filterSubKinds(txEvents, spec.before)...)
				bucket.Events = append(bucket.Events, own...)
				bucket.Events = append(bucket.Events, filterSubKinds(txEvents, spec.after)...)
			}
			buckets = append(buckets, bucket)
		}

		batches = append(batches, model.EventsBatch{
			ID:        BatchID(txHash, first.LogIndex, first.BatchIndex, first.BlockHash),
			TxHash:    txHash,
			Block:     first.Block,
			BlockHash: first.BlockHash,
			Events:    buckets,
		})
	}

	sort.Slice(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		ai, bi := txIndexOf(a), txIndexOf(b)
		if ai != bi {
			return ai < bi
		}
		return a.TxHash.Hex() < b.TxHash.Hex()
	})

	return batches
}

// BatchID derives the deterministic batch identifier.
func BatchID(txHash common.Hash, logIndex uint, batchIndex int, blockHash common.Hash) string {
	name := fmt.Sprintf("%s:%d:%d:%s", txHash.Hex(), logIndex, batchIndex, blockHash.Hex())
	return uuid.NewSHA1(batchNamespace, []byte(name)).String()
}

func sortEvents(events []model.CandidateEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Base.LogIndex != b.Base.LogIndex {
			return a.Base.LogIndex < b.Base.LogIndex
		}
		if a.Base.BatchIndex != b.Base.BatchIndex {
			return a.Base.BatchIndex < b.Base.BatchIndex
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.SubKind < b.SubKind
	})
}

func filterSubKinds(events []model.CandidateEvent, subKinds []model.EventSubKind) []model.CandidateEvent {
	if len(subKinds) == 0 {
		return nil
	}
	var out []model.CandidateEvent
	for _, ev := range events {
		for _, sk := range subKinds {
			if ev.SubKind == sk {
				out = append(out, ev)
				break
			}
		}
	}
	return out
}

func txIndexOf(b model.EventsBatch) uint {
	for _, bucket := range b.Events {
		if len(bucket.Events) > 0 {
			return bucket.Events[0].Base.TxIndex
		}
	}
	return 0
}
