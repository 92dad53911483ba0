package pricing

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

type decimalsCaller struct {
	decimals uint8
	calls    int
}

func (d *decimalsCaller) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	d.calls++
	return common.LeftPadBytes([]byte{d.decimals}, 32), nil
}

func mustRate(t *testing.T, s string) *big.Rat {
	t.Helper()
	r, err := ParseRate(s)
	if err != nil {
		t.Fatalf("parse rate: %v", err)
	}
	return r
}

func TestNativeAndUSDPriceNative(t *testing.T) {
	weth := common.HexToAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	pricer := NewStaticPricer(Config{WrappedNative: weth, NativeUSD: mustRate(t, "2000")}, nil, nil)

	amount, _ := new(big.Int).SetString("1500000000000000000", 10)
	for _, currency := range []common.Address{{}, weth} {
		prices, err := pricer.NativeAndUSDPrice(context.Background(), currency, amount, 0)
		if err != nil {
			t.Fatalf("price: %v", err)
		}
		if prices.NativePrice.Cmp(amount) != 0 {
			t.Fatalf("native price mismatch: %s", prices.NativePrice)
		}
		if prices.USDPrice.String() != "3000000000" {
			t.Fatalf("usd price mismatch: %s", prices.USDPrice)
		}
	}
}

func TestNativeAndUSDPriceRated(t *testing.T) {
	usdc := common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	caller := &decimalsCaller{decimals: 6}
	pricer := NewStaticPricer(Config{Rates: map[common.Address]*big.Rat{usdc: mustRate(t, "0.0005")}}, caller, nil)

	prices, err := pricer.NativeAndUSDPrice(context.Background(), usdc, big.NewInt(2_000_000), 0)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if prices.NativePrice.String() != "1000000000000000" {
		t.Fatalf("native price mismatch: %s", prices.NativePrice)
	}
	if prices.USDPrice != nil {
		t.Fatalf("usd price should be nil without a native usd rate")
	}

	calls := caller.calls
	if _, err := pricer.NativeAndUSDPrice(context.Background(), usdc, big.NewInt(1), 0); err != nil {
		t.Fatalf("price: %v", err)
	}
	if caller.calls != calls {
		t.Fatalf("decimals should be cached, got %d extra calls", caller.calls-calls)
	}
}

func TestNativeAndUSDPriceUnknownCurrency(t *testing.T) {
	pricer := NewStaticPricer(Config{}, nil, nil)
	prices, err := pricer.NativeAndUSDPrice(context.Background(), common.HexToAddress("0x01"), big.NewInt(5), 0)
	if err != nil {
		t.Fatalf("unknown currency should not error: %v", err)
	}
	if prices.NativePrice != nil {
		t.Fatalf("unknown currency should have no native price")
	}
}

func TestParseRateRejectsGarbage(t *testing.T) {
	if _, err := ParseRate("abc"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := ParseRate("-1"); err == nil {
		t.Fatalf("expected error for negative rate")
	}
}
