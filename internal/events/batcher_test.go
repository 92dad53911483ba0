package events

import (
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"chainSync/internal/model"
)

func candidate(kind model.EventKind, subKind model.EventSubKind, tx common.Hash, txIndex, logIndex uint) model.CandidateEvent {
	return model.CandidateEvent{
		Kind:    kind,
		SubKind: subKind,
		Base: model.BaseEventParams{
			TxHash:     tx,
			TxIndex:    txIndex,
			Block:      50,
			BlockHash:  testBlock,
			LogIndex:   logIndex,
			BatchIndex: 1,
		},
	}
}

func bucket(batch model.EventsBatch, kind model.EventKind) []model.CandidateEvent {
	for _, b := range batch.Events {
		if b.Kind == kind {
			return b.Events
		}
	}
	return nil
}

func TestBuildBatchesAuxiliaryEvents(t *testing.T) {
	tx := common.HexToHash("0x01")
	events := []model.CandidateEvent{
		candidate(model.KindERC721, model.SubKindERC721Transfer, tx, 0, 0),
		candidate(model.KindERC20, model.SubKindERC20Transfer, tx, 0, 1),
		candidate(model.KindWyvern, "wyvern-orders-matched", tx, 0, 2),
		candidate(model.KindSeaport, "seaport-order-filled", tx, 0, 3),
	}

	batches := BuildBatches(events)
	if len(batches) != 1 {
		t.Fatalf("expected one batch, got %d", len(batches))
	}
	batch := batches[0]
	if len(batch.Events) != len(Kinds()) {
		t.Fatalf("expected %d buckets, got %d", len(Kinds()), len(batch.Events))
	}

	wyvern := bucket(batch, model.KindWyvern)
	wantWyvern := []model.EventSubKind{model.SubKindERC721Transfer, "wyvern-orders-matched", model.SubKindERC20Transfer}
	if len(wyvern) != len(wantWyvern) {
		t.Fatalf("wyvern bucket size %d", len(wyvern))
	}
	for i, sk := range wantWyvern {
		if wyvern[i].SubKind != sk {
			t.Fatalf("wyvern[%d] = %s, want %s", i, wyvern[i].SubKind, sk)
		}
	}

	seaport := bucket(batch, model.KindSeaport)
	if len(seaport) != 2 || seaport[1].SubKind != model.SubKindERC20Transfer {
		t.Fatalf("seaport bucket mismatch: %+v", seaport)
	}

	if len(bucket(batch, model.KindERC20)) != 1 || len(bucket(batch, model.KindERC721)) != 1 {
		t.Fatalf("token buckets should keep their own events")
	}
	if len(bucket(batch, model.KindLooksRare)) != 0 {
		t.Fatalf("looks-rare bucket should stay empty without looks-rare events")
	}

	wantID := BatchID(tx, 0, 1, testBlock)
	if batch.ID != wantID {
		t.Fatalf("batch id %s, want %s", batch.ID, wantID)
	}
}

func TestBuildBatchesDeterministic(t *testing.T) {
	txA := common.HexToHash("0xaa")
	txB := common.HexToHash("0xbb")
	events := []model.CandidateEvent{
		candidate(model.KindCollectionXyz, model.SubKindCollectionSwapNFTOutPool, txA, 1, 4),
		candidate(model.KindERC20, model.SubKindERC20Transfer, txA, 1, 3),
		candidate(model.KindERC721, model.SubKindERC721Transfer, txB, 0, 1),
		candidate(model.KindCollectionXyz, model.SubKindCollectionSpotPriceUpdate, txA, 1, 2),
		candidate(model.KindERC721, model.SubKindERC721Transfer, txB, 0, 0),
	}

	first := BuildBatches(events)

	reversed := make([]model.CandidateEvent, len(events))
	for i := range events {
		reversed[len(events)-1-i] = events[i]
	}
	second := BuildBatches(reversed)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("batches depend on input order")
	}
	if len(first) != 2 || first[0].TxHash != txB || first[1].TxHash != txA {
		t.Fatalf("batches should be ordered by tx index")
	}
	if first[1].ID != BatchID(txA, 2, 1, testBlock) {
		t.Fatalf("batch id should use the lowest log index")
	}
	collection := bucket(first[1], model.KindCollectionXyz)
	if len(collection) != 2 || collection[0].Base.LogIndex != 2 || collection[1].Base.LogIndex != 4 {
		t.Fatalf("collection events out of order: %+v", collection)
	}
}

func TestBatchIDStable(t *testing.T) {
	tx := common.HexToHash("0x01")
	if BatchID(tx, 1, 1, testBlock) != BatchID(tx, 1, 1, testBlock) {
		t.Fatalf("batch id should be deterministic")
	}
	if BatchID(tx, 1, 1, testBlock) == BatchID(tx, 1, 1, common.HexToHash("0x0c")) {
		t.Fatalf("batch id should depend on block hash")
	}
}
