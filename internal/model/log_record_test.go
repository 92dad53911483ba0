package model

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func TestLogRecordJSONRoundTrip(t *testing.T) {
	original := LogRecord{
		ChainID:     1,
		BlockNumber: 17000000,
		BlockHash:   "0xabc123",
		TxHash:      "0xdef456",
		TxIndex:     7,
		LogIndex:    12,
		Address:     "0x1111111111111111111111111111111111111111",
		Topics:      []string{"0xaaa", "0xbbb"},
		Data:        "0xdeadbeef",
		Removed:     false,
		Timestamp:   1700000000,
		IngestedAt:  "2024-01-01T00:00:00Z",
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded LogRecord
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}

func TestNewLogRecordLowercasesAddress(t *testing.T) {
	log := types.Log{
		Address:     common.HexToAddress("0xABCDEFabcdefABCDEFabcdefABCDEFabcdefABCD"),
		Topics:      []common.Hash{common.HexToHash("0x01")},
		Data:        []byte{0xde, 0xad},
		BlockNumber: 10,
		TxHash:      common.HexToHash("0x02"),
		TxIndex:     3,
		BlockHash:   common.HexToHash("0x03"),
		Index:       4,
	}

	record := NewLogRecord(1, log, 99, time.Unix(0, 0))
	if record.Address != "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd" {
		t.Fatalf("address not lowercased: %s", record.Address)
	}
	if record.Data != "0xdead" || record.LogIndex != 4 || record.TxIndex != 3 || record.Timestamp != 99 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if len(record.Topics) != 1 || record.Topics[0] != common.HexToHash("0x01").Hex() {
		t.Fatalf("topics mismatch: %v", record.Topics)
	}
}
