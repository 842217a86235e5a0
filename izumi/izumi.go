// Package izumi builds quoter and swap calls for iZiSwap periphery contracts.
package izumi

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultDeadline matches the far-future deadline used by the iZiSwap SDK.
var DefaultDeadline = big.NewInt(0xffffffff)

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

type SwapParams struct {
	TokenChain      []common.Address
	FeeChain        []uint32
	InputAmount     *big.Int
	MinOutputAmount *big.Int
	Recipient       common.Address
	// StrictERC20 keeps a wrapped native input as ERC-20. When false it is
	// paid with native value and the excess refunded. The output is always
	// delivered as a token.
	StrictERC20 bool
	Deadline    *big.Int
}

type swapAmountParams struct {
	Path        []byte         `abi:"path"`
	Recipient   common.Address `abi:"recipient"`
	Amount      *big.Int       `abi:"amount"`
	MinAcquired *big.Int       `abi:"minAcquired"`
	Deadline    *big.Int       `abi:"deadline"`
}

// EncodePath packs token0 | fee0 | token1 | fee1 | ... with 3-byte fees.
func EncodePath(tokens []common.Address, fees []uint32) ([]byte, error) {
	if len(tokens) < 2 {
		return nil, fmt.Errorf("path needs at least two tokens, got %d", len(tokens))
	}
	if len(fees) != len(tokens)-1 {
		return nil, fmt.Errorf("path with %d tokens needs %d fees, got %d", len(tokens), len(tokens)-1, len(fees))
	}
	path := make([]byte, 0, len(tokens)*common.AddressLength+len(fees)*3)
	for i, token := range tokens {
		path = append(path, token.Bytes()...)
		if i < len(fees) {
			fee := fees[i]
			if fee >= 1<<24 {
				return nil, fmt.Errorf("fee %d does not fit uint24", fee)
			}
			path = append(path, byte(fee>>16), byte(fee>>8), byte(fee))
		}
	}
	return path, nil
}

type ContractCaller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

type Quoter struct {
	caller  ContractCaller
	address common.Address
}

func NewQuoter(caller ContractCaller, address common.Address) *Quoter {
	return &Quoter{caller: caller, address: address}
}

// QuoteExactInput returns the output amount for spending amount along the path.
func (q *Quoter) QuoteExactInput(ctx context.Context, tokens []common.Address, fees []uint32, amount *big.Int) (*big.Int, error) {
	if err := checkUint128(amount); err != nil {
		return nil, err
	}
	path, err := EncodePath(tokens, fees)
	if err != nil {
		return nil, err
	}
	data, err := quoterABI.Pack("swapAmount", amount, path)
	if err != nil {
		return nil, fmt.Errorf("pack quoter calldata: %w", err)
	}
	out, err := q.caller.CallContract(ctx, q.address, data)
	if err != nil {
		return nil, fmt.Errorf("quote failed: %w", err)
	}
	decoded, err := quoterABI.Unpack("swapAmount", out)
	if err != nil {
		return nil, fmt.Errorf("decode quote: %w", err)
	}
	if len(decoded) == 0 {
		return nil, fmt.Errorf("empty quote response")
	}
	acquire, ok := decoded[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("invalid quote response")
	}
	return acquire, nil
}

// SwapCall is the calldata and native value to send to the swap contract.
type SwapCall struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

// BuildSwapCall encodes swapAmount for params, wrapping it in multicall with
// refundETH when the native coin is paid in.
func BuildSwapCall(swap, wrappedNative common.Address, params SwapParams) (SwapCall, error) {
	if err := checkUint128(params.InputAmount); err != nil {
		return SwapCall{}, err
	}
	if params.MinOutputAmount == nil {
		return SwapCall{}, fmt.Errorf("min output amount is required")
	}
	path, err := EncodePath(params.TokenChain, params.FeeChain)
	if err != nil {
		return SwapCall{}, err
	}
	deadline := params.Deadline
	if deadline == nil {
		deadline = DefaultDeadline
	}

	inputIsNative := !params.StrictERC20 && params.TokenChain[0] == wrappedNative

	swapData, err := swapABI.Pack("swapAmount", swapAmountParams{
		Path:        path,
		Recipient:   params.Recipient,
		Amount:      params.InputAmount,
		MinAcquired: params.MinOutputAmount,
		Deadline:    deadline,
	})
	if err != nil {
		return SwapCall{}, fmt.Errorf("pack swap calldata: %w", err)
	}

	if !inputIsNative {
		return SwapCall{To: swap, Value: big.NewInt(0), Data: swapData}, nil
	}

	refund, err := swapABI.Pack("refundETH")
	if err != nil {
		return SwapCall{}, fmt.Errorf("pack refundETH: %w", err)
	}
	data, err := swapABI.Pack("multicall", [][]byte{swapData, refund})
	if err != nil {
		return SwapCall{}, fmt.Errorf("pack multicall: %w", err)
	}
	return SwapCall{To: swap, Value: new(big.Int).Set(params.InputAmount), Data: data}, nil
}

func checkUint128(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("input amount must be positive")
	}
	if amount.Cmp(maxUint128) > 0 {
		return fmt.Errorf("input amount %s exceeds uint128", amount)
	}
	return nil
}
