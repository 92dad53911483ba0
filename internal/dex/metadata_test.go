package dex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// revertError mirrors the node error for a reverted eth_call.
type revertError struct{}

func (revertError) Error() string { return "execution reverted" }
func (revertError) ErrorCode() int { return 3 }
func (revertError) ErrorData() interface{} { return "0x" }

type fakeCaller struct {
	responses map[string][]byte
	errs      map[string]error
	calls     int
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	poolABI, _ := CollectionPoolABI()
	for method, err := range f.errs {
		if m, ok := poolABI.Methods[method]; ok && bytes.Equal(msg.Data[:4], m.ID) {
			return nil, err
		}
	}
	for method, resp := range f.responses {
		if m, ok := poolABI.Methods[method]; ok && bytes.Equal(msg.Data[:4], m.ID) {
			return resp, nil
		}
	}
	return nil, revertError{}
}

func TestPoolDetailsNativeWhenTokenReverts(t *testing.T) {
	caller := &fakeCaller{responses: map[string][]byte{
		"nft": common.LeftPadBytes(testNFT.Bytes(), 32),
	}}
	fetcher := NewPoolDetailsFetcher(caller, nil, nil)

	details, err := fetcher.PoolDetails(context.Background(), testPool)
	if err != nil {
		t.Fatalf("pool details: %v", err)
	}
	if details.NFT != testNFT || details.Token != (common.Address{}) || details.Address != testPool {
		t.Fatalf("details mismatch: %+v", details)
	}

	calls := caller.calls
	if _, err := fetcher.PoolDetails(context.Background(), testPool); err != nil {
		t.Fatalf("cached pool details: %v", err)
	}
	if caller.calls != calls {
		t.Fatalf("second lookup should be served from cache")
	}
}

func TestPoolDetailsERC20Token(t *testing.T) {
	token := common.HexToAddress("0x6666666666666666666666666666666666666666")
	caller := &fakeCaller{responses: map[string][]byte{
		"nft":   common.LeftPadBytes(testNFT.Bytes(), 32),
		"token": common.LeftPadBytes(token.Bytes(), 32),
	}}

	details, err := FetchPoolDetails(context.Background(), caller, testPool, nil)
	if err != nil {
		t.Fatalf("pool details: %v", err)
	}
	if details.Token != token {
		t.Fatalf("token mismatch: %s", details.Token.Hex())
	}
}

func TestPoolDetailsRequiresNFT(t *testing.T) {
	caller := &fakeCaller{responses: map[string][]byte{}}
	if _, err := FetchPoolDetails(context.Background(), caller, testPool, nil); err == nil {
		t.Fatalf("expected error when nft() fails")
	}
}

func TestPoolDetailsNativeWhenTokenReturnsNothing(t *testing.T) {
	caller := &fakeCaller{responses: map[string][]byte{
		"nft":   common.LeftPadBytes(testNFT.Bytes(), 32),
		"token": {},
	}}

	details, err := FetchPoolDetails(context.Background(), caller, testPool, nil)
	if err != nil {
		t.Fatalf("pool details: %v", err)
	}
	if details.Token != (common.Address{}) {
		t.Fatalf("expected native pool, got token %s", details.Token.Hex())
	}
}

func TestPoolDetailsTransientTokenErrorNotCached(t *testing.T) {
	token := common.HexToAddress("0x6666666666666666666666666666666666666666")
	caller := &fakeCaller{
		responses: map[string][]byte{
			"nft":   common.LeftPadBytes(testNFT.Bytes(), 32),
			"token": common.LeftPadBytes(token.Bytes(), 32),
		},
		errs: map[string]error{"token": errors.New("i/o timeout")},
	}
	fetcher := NewPoolDetailsFetcher(caller, nil, nil)

	if _, err := fetcher.PoolDetails(context.Background(), testPool); err == nil {
		t.Fatalf("expected transient token() failure to surface")
	}

	caller.errs = nil
	details, err := fetcher.PoolDetails(context.Background(), testPool)
	if err != nil {
		t.Fatalf("pool details after recovery: %v", err)
	}
	if details.Token != token {
		t.Fatalf("token = %s, want %s", details.Token.Hex(), token.Hex())
	}
}

func TestIsReverted(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{revertError{}, true},
		{fmt.Errorf("call token: %w", revertError{}), true},
		{errors.New("execution reverted: not supported"), true},
		{errors.New("context deadline exceeded"), false},
		{errors.New("429 Too Many Requests"), false},
	}
	for _, tc := range cases {
		if got := isReverted(tc.err); got != tc.want {
			t.Fatalf("isReverted(%q) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
