package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Token is fetched once per run and treated as immutable.
type Token struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
}

func (t Token) Format(raw *big.Int) string {
	return FormatAmount(raw, t.Decimals, 5)
}

func (c *Client) FetchToken(ctx context.Context, address common.Address) (Token, error) {
	return fetchToken(ctx, c.eth, address)
}

func fetchToken(ctx context.Context, caller bind.ContractCaller, address common.Address) (Token, error) {
	contract := bind.NewBoundContract(address, ERC20ABI, caller, nil, nil)
	opts := &bind.CallOpts{Context: ctx}

	var symbolOut []interface{}
	if err := contract.Call(opts, &symbolOut, "symbol"); err != nil {
		return Token{}, fmt.Errorf("failed to read symbol of %s: %w", address.Hex(), err)
	}
	symbol, ok := firstAs[string](symbolOut)
	if !ok {
		return Token{}, fmt.Errorf("invalid symbol returned by %s", address.Hex())
	}

	var decimalsOut []interface{}
	if err := contract.Call(opts, &decimalsOut, "decimals"); err != nil {
		return Token{}, fmt.Errorf("failed to read decimals of %s: %w", address.Hex(), err)
	}
	decimals, ok := firstAs[uint8](decimalsOut)
	if !ok {
		return Token{}, fmt.Errorf("invalid decimals returned by %s", address.Hex())
	}

	return Token{Address: address, Symbol: symbol, Decimals: decimals}, nil
}

func firstAs[T any](values []interface{}) (T, bool) {
	var zero T
	if len(values) == 0 {
		return zero, false
	}
	v, ok := values[0].(T)
	return v, ok
}

func TxURL(explorerBase string, hash common.Hash) string {
	return explorerBase + hash.Hex()
}

func ShortHash(hash string) string {
	if len(hash) < 16 {
		return hash
	}
	return hash[:8] + "..." + hash[len(hash)-8:]
}
