package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

func TestOrderParamsEncodedTokenIDs(t *testing.T) {
	unset := OrderParams{IsModifierEvent: true}
	data, err := json.Marshal(unset)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(data), "encoded_token_ids") {
		t.Fatalf("unset token ids should be omitted: %s", data)
	}

	empty := hexutil.Bytes{}
	unfiltered := OrderParams{EncodedTokenIDs: &empty}
	data, err = json.Marshal(unfiltered)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"encoded_token_ids":"0x"`) {
		t.Fatalf("empty token ids should encode as 0x: %s", data)
	}
}

func TestOnChainDataEmpty(t *testing.T) {
	data := NewOnChainData("batch")
	if !data.Empty() {
		t.Fatalf("new accumulator should be empty")
	}
	data.OrderInfos = append(data.OrderInfos, OrderInfo{ID: "x"})
	if data.Empty() {
		t.Fatalf("accumulator with order info should not be empty")
	}
}
