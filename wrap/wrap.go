// Package wrap deposits native ETH into WETH9 and withdraws it back.
package wrap

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/nekowawolf/taiko-swap-bot/chain"
)

var (
	cyan    = color.New(color.FgCyan).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	red     = color.New(color.FgRed).SprintFunc()
	blue    = color.New(color.FgBlue).SprintFunc()
	magenta = color.New(color.FgMagenta).SprintFunc()
)

const (
	DirectionWrap    = "ETH_to_WETH"
	DirectionUnwrap  = "WETH_to_ETH"
	// DirectionUnknown marks a cycle that failed before choosing a direction.
	DirectionUnknown = "WETH_balance"
)

type Ledger interface {
	NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	Send(ctx context.Context, from *chain.Account, call chain.Call) (*chain.TxResult, error)
}

type Result struct {
	Success     bool
	Reverted    bool
	WalletIndex int
	Cycle       int
	Direction   string
	TxHash      string
	Fee         string
	Amount      string
	// Balance is the account's "ETH | WETH" line after the transaction, empty
	// when it could not be read.
	Balance     string
	Error       error
}

type Executor struct {
	ledger        Ledger
	weth          common.Address
	explorerTxURL string
	out           io.Writer
}

func NewExecutor(ledger Ledger, weth common.Address, explorerTxURL string, out io.Writer) *Executor {
	return &Executor{ledger: ledger, weth: weth, explorerTxURL: explorerTxURL, out: out}
}

// Step unwraps the whole WETH balance when there is one, otherwise wraps amount.
func (e *Executor) Step(ctx context.Context, account *chain.Account, amount *big.Int) []Result {
	balance, err := e.ledger.TokenBalance(ctx, e.weth, account.Address)
	if err != nil {
		return []Result{{Direction: DirectionUnknown, Error: err}}
	}
	if balance.Sign() > 0 {
		return []Result{e.Unwrap(ctx, account, balance)}
	}
	return []Result{e.Wrap(ctx, account, amount)}
}

// RoundTrip unwraps any WETH balance and then wraps amount again.
func (e *Executor) RoundTrip(ctx context.Context, account *chain.Account, amount *big.Int) []Result {
	balance, err := e.ledger.TokenBalance(ctx, e.weth, account.Address)
	if err != nil {
		return []Result{{Direction: DirectionUnknown, Error: err}}
	}
	var results []Result
	if balance.Sign() > 0 {
		res := e.Unwrap(ctx, account, balance)
		results = append(results, res)
		if !res.Success {
			return results
		}
	}
	return append(results, e.Wrap(ctx, account, amount))
}

func (e *Executor) Wrap(ctx context.Context, account *chain.Account, amount *big.Int) Result {
	data, err := chain.WETH9ABI.Pack("deposit")
	if err != nil {
		return Result{Direction: DirectionWrap, Error: fmt.Errorf("failed to pack deposit data: %w", err)}
	}
	return e.send(ctx, account, DirectionWrap, amount, chain.Call{To: e.weth, Value: amount, Data: data})
}

func (e *Executor) Unwrap(ctx context.Context, account *chain.Account, amount *big.Int) Result {
	data, err := chain.WETH9ABI.Pack("withdraw", amount)
	if err != nil {
		return Result{Direction: DirectionUnwrap, Error: fmt.Errorf("failed to pack withdraw data: %w", err)}
	}
	return e.send(ctx, account, DirectionUnwrap, amount, chain.Call{To: e.weth, Data: data})
}

func (e *Executor) send(ctx context.Context, account *chain.Account, direction string, amount *big.Int, call chain.Call) Result {
	gasPrice, err := e.ledger.GasPrice(ctx)
	if err != nil {
		return Result{Direction: direction, Error: err}
	}
	fmt.Fprintf(e.out, "%s %s\n", blue("Gas price in GWEI:"), green(chain.WeiToGwei(gasPrice)))
	call.GasPrice = gasPrice

	tx, err := e.ledger.Send(ctx, account, call)
	if err != nil {
		return Result{Direction: direction, Error: err}
	}

	fee := new(big.Int).Mul(new(big.Int).SetUint64(tx.GasUsed), gasPrice)
	symbol := "ETH"
	if direction == DirectionUnwrap {
		symbol = "WETH"
	}
	return Result{
		Success:   true,
		Reverted:  !tx.Succeeded(),
		Direction: direction,
		TxHash:    tx.Hash.Hex(),
		Fee:       fmt.Sprintf("%s ETH", chain.FormatAmount(fee, chain.EtherDecimals, 6)),
		Amount:    fmt.Sprintf("%s %s", chain.FormatAmount(amount, chain.EtherDecimals, 4), symbol),
		Balance:   e.balanceLine(ctx, account.Address),
	}
}

func (e *Executor) balanceLine(ctx context.Context, owner common.Address) string {
	native, err := e.ledger.NativeBalance(ctx, owner)
	if err != nil {
		return ""
	}
	wrapped, err := e.ledger.TokenBalance(ctx, e.weth, owner)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s ETH | %s WETH",
		chain.FormatAmount(native, chain.EtherDecimals, 4),
		chain.FormatAmount(wrapped, chain.EtherDecimals, 4))
}
