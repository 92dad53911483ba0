package indexer

import (
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestParseAddresses(t *testing.T) {
	got, err := ParseAddresses([]string{
		" 0xb16c1342E617A5B6E4b631EB114483FDB289c0A4 ",
		"",
		"0xB16C1342E617A5B6E4B631EB114483FDB289C0A4",
		"0x0000000000000000000000000000000000000001",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []common.Address{
		common.HexToAddress("0xb16c1342E617A5B6E4b631EB114483FDB289c0A4"),
		common.HexToAddress("0x0000000000000000000000000000000000000001"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("addresses mismatch: %v != %v", got, want)
	}

	if _, err := ParseAddresses([]string{"0x1234"}); err == nil {
		t.Fatalf("expected error for short address")
	}
}
