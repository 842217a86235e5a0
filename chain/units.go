package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	EtherDecimals = 18
	GweiDecimals  = 9
)

// ToDecimal scales a raw integer amount down by the token's decimals.
func ToDecimal(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// FromDecimal scales a decimal amount back into the token's smallest unit.
// Digits below the smallest unit are truncated.
func FromDecimal(amount decimal.Decimal, decimals uint8) *big.Int {
	return amount.Shift(int32(decimals)).BigInt()
}

// FormatAmount renders a raw amount with a fixed number of fraction digits.
func FormatAmount(raw *big.Int, decimals uint8, places int32) string {
	return ToDecimal(raw, decimals).StringFixed(places)
}

func WeiToGwei(wei *big.Int) string {
	return ToDecimal(wei, GweiDecimals).String()
}

// ParseUnits converts a human amount like "0.01" into base units.
func ParseUnits(input string, decimals uint8) (*big.Int, error) {
	clean := strings.TrimSpace(input)
	if clean == "" {
		return nil, fmt.Errorf("amount is required")
	}
	amount, err := decimal.NewFromString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", clean, err)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %s", clean)
	}
	if !amount.Equal(amount.Truncate(int32(decimals))) {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", clean, decimals)
	}
	return FromDecimal(amount, decimals), nil
}

// MinOutput applies a slippage tolerance in basis points, rounding down.
func MinOutput(quoted *big.Int, slippageBps int64) *big.Int {
	out := new(big.Int).Mul(quoted, big.NewInt(10_000-slippageBps))
	return out.Div(out, big.NewInt(10_000))
}

// BufferGas inflates a gas estimate by percent, rounding up.
func BufferGas(estimate uint64, percent uint64) uint64 {
	if percent == 0 {
		return estimate
	}
	factor := decimal.NewFromInt(int64(100 + percent)).Div(decimal.NewFromInt(100))
	buffered := decimal.NewFromBigInt(new(big.Int).SetUint64(estimate), 0).Mul(factor).Ceil()
	return buffered.BigInt().Uint64()
}
