package chain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func addrPtr(hex string) *common.Address {
	a := common.HexToAddress(hex)
	return &a
}

func TestSearchCallRank(t *testing.T) {
	pool := "0x1111111111111111111111111111111111111111"
	other := "0x2222222222222222222222222222222222222222"
	sel := []byte{0x28, 0xb8, 0xae, 0xe1}

	root := &CallFrame{
		Type:  "CALL",
		To:    addrPtr(other),
		Input: []byte{0x01, 0x02, 0x03, 0x04},
		Calls: []CallFrame{
			{Type: "CALL", To: addrPtr(pool), Input: append(append([]byte{}, sel...), 0xaa)},
			{Type: "STATICCALL", To: addrPtr(pool), Input: append([]byte{}, sel...)},
			{
				Type:  "DELEGATECALL",
				To:    addrPtr(other),
				Input: []byte{0x09, 0x09, 0x09, 0x09},
				Calls: []CallFrame{
					{Type: "CALL", To: addrPtr(pool), Input: append(append([]byte{}, sel...), 0xbb)},
				},
			},
			{Type: "CALL", To: addrPtr(pool), Input: append(append([]byte{}, sel...), 0xcc)},
		},
	}

	criteria := CallCriteria{To: common.HexToAddress(pool), Type: "CALL", Selectors: [][]byte{sel}}

	wantSuffix := []byte{0xaa, 0xbb, 0xcc}
	for rank, suffix := range wantSuffix {
		got := SearchCall(root, criteria, rank)
		if got == nil {
			t.Fatalf("rank %d: no call found", rank)
		}
		if got.Input[4] != suffix {
			t.Fatalf("rank %d: got input %x", rank, []byte(got.Input))
		}
	}

	if got := SearchCall(root, criteria, 3); got != nil {
		t.Fatalf("rank 3 should be nil, got %+v", got)
	}
}

func TestSearchCallIncludesRoot(t *testing.T) {
	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	sel := []byte{0xa6, 0xad, 0x64, 0xb2}
	root := &CallFrame{Type: "CALL", To: &pool, Input: sel}

	got := SearchCall(root, CallCriteria{To: pool, Type: "call", Selectors: [][]byte{sel}}, 0)
	if got != root {
		t.Fatalf("expected root frame")
	}
	if SearchCall(root, CallCriteria{To: pool, Selectors: [][]byte{{0, 0, 0, 0}}}, 0) != nil {
		t.Fatalf("selector mismatch should not match")
	}
	if SearchCall(nil, CallCriteria{}, 0) != nil {
		t.Fatalf("nil root should return nil")
	}
}
