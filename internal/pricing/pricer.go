package pricing

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"chainSync/internal/dex"
	"chainSync/internal/model"
)

const (
	nativeDecimals = 18
	// USDDecimals is the fixed-point scale of USD prices.
	USDDecimals = 6
)

// Config holds static conversion rates.
type Config struct {
	WrappedNative common.Address
	// NativeUSD is USD per whole native unit; nil disables USD prices.
	NativeUSD *big.Rat
	// Rates is native units per whole token unit, keyed by token.
	Rates map[common.Address]*big.Rat
}

// StaticPricer converts amounts with configured rates. The native currency
// (zero address) and the wrapped native token convert one to one.
type StaticPricer struct {
	cfg      Config
	caller   dex.ContractCaller
	decimals *TokenDecimalsCache
	logger   *zap.Logger
}

func NewStaticPricer(cfg Config, caller dex.ContractCaller, logger *zap.Logger) *StaticPricer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaticPricer{cfg: cfg, caller: caller, decimals: NewTokenDecimalsCache(), logger: logger}
}

// NativeAndUSDPrice converts amount of currency. Unknown currencies yield
// empty prices, not an error.
func (p *StaticPricer) NativeAndUSDPrice(ctx context.Context, currency common.Address, amount *big.Int, timestamp uint64) (model.Prices, error) {
	if amount == nil {
		return model.Prices{}, fmt.Errorf("amount is nil")
	}

	var native *big.Int
	switch {
	case currency == (common.Address{}) || currency == p.cfg.WrappedNative:
		native = new(big.Int).Set(amount)
	default:
		rate, ok := p.cfg.Rates[currency]
		if !ok || rate == nil {
			p.logger.Debug("no rate for currency", zap.String("currency", currency.Hex()), zap.Uint64("timestamp", timestamp))
			return model.Prices{}, nil
		}
		decimals, err := p.tokenDecimals(ctx, currency)
		if err != nil {
			return model.Prices{}, fmt.Errorf("token decimals %s: %w", currency.Hex(), err)
		}
		native = scale(new(big.Rat).Mul(new(big.Rat).SetInt(amount), rate), int(nativeDecimals)-int(decimals))
		p.logger.Debug("converted currency amount",
			zap.String("currency", currency.Hex()),
			zap.String("amount", formatTokenAmount(amount, decimals)),
			zap.String("native", formatTokenAmount(native, nativeDecimals)),
		)
	}

	prices := model.Prices{NativePrice: native}
	if p.cfg.NativeUSD != nil {
		usd := new(big.Rat).Mul(new(big.Rat).SetInt(native), p.cfg.NativeUSD)
		prices.USDPrice = scale(usd, USDDecimals-nativeDecimals)
	}
	return prices, nil
}

func (p *StaticPricer) tokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	if decimals, ok := p.decimals.Get(token); ok {
		return decimals, nil
	}
	decimals, err := FetchTokenDecimals(ctx, p.caller, token)
	if err != nil {
		return 0, err
	}
	p.decimals.Set(token, decimals)
	return decimals, nil
}

// scale multiplies by 10^exp (exp may be negative) and truncates.
func scale(value *big.Rat, exp int) *big.Int {
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs(exp))), nil)
	out := new(big.Rat).Set(value)
	if exp >= 0 {
		out.Mul(out, new(big.Rat).SetInt(factor))
	} else {
		out.Quo(out, new(big.Rat).SetInt(factor))
	}
	return new(big.Int).Quo(out.Num(), out.Denom())
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func formatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	sign := value.Sign()
	absValue := new(big.Int).Abs(value)
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat := new(big.Rat).SetFrac(absValue, denom)
	text := rat.FloatString(int(decimals))
	if sign < 0 {
		return "-" + text
	}
	return text
}

// ParseRate parses a decimal rate such as "0.00042".
func ParseRate(input string) (*big.Rat, error) {
	rate, ok := new(big.Rat).SetString(input)
	if !ok {
		return nil, fmt.Errorf("invalid rate: %s", input)
	}
	if rate.Sign() < 0 {
		return nil, fmt.Errorf("negative rate: %s", input)
	}
	return rate, nil
}
