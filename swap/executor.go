package swap

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nekowawolf/taiko-swap-bot/chain"
	"github.com/nekowawolf/taiko-swap-bot/izumi"
)

// approveAmount mirrors the allowance the iZiSwap SDK grants its router.
var approveAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

type Ledger interface {
	TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, from common.Address, call chain.Call) (uint64, error)
	Send(ctx context.Context, from *chain.Account, call chain.Call) (*chain.TxResult, error)
}

type Quoter interface {
	QuoteExactInput(ctx context.Context, tokens []common.Address, fees []uint32, amount *big.Int) (*big.Int, error)
}

type ExecutorConfig struct {
	Router           common.Address
	WrappedNative    common.Address
	Fee              uint32
	SlippageBps      int64
	GasBufferPercent uint64
	StrictERC20      bool
	ExplorerTxURL    string
}

type Result struct {
	From      chain.Token
	To        chain.Token
	AmountIn  *big.Int
	QuotedOut *big.Int
	MinOut    *big.Int
	Tx        *chain.TxResult
}

// Executor performs one exact-input swap of the account's whole balance.
type Executor struct {
	ledger  Ledger
	quoter  Quoter
	account *chain.Account
	cfg     ExecutorConfig
	out     io.Writer
}

func NewExecutor(ledger Ledger, quoter Quoter, account *chain.Account, cfg ExecutorConfig, out io.Writer) *Executor {
	return &Executor{ledger: ledger, quoter: quoter, account: account, cfg: cfg, out: out}
}

func (e *Executor) Swap(ctx context.Context, from, to chain.Token) (*Result, error) {
	owner := e.account.Address

	fromBefore, err := e.ledger.TokenBalance(ctx, from.Address, owner)
	if err != nil {
		return nil, err
	}
	toBefore, err := e.ledger.TokenBalance(ctx, to.Address, owner)
	if err != nil {
		return nil, err
	}

	amountIn := chain.FromDecimal(chain.ToDecimal(fromBefore, from.Decimals), from.Decimals)
	if amountIn.Sign() == 0 {
		return nil, fmt.Errorf("no %s balance to swap", from.Symbol)
	}

	tokens := []common.Address{from.Address, to.Address}
	fees := []uint32{e.cfg.Fee}
	quoted, err := e.quoter.QuoteExactInput(ctx, tokens, fees, amountIn)
	if err != nil {
		return nil, err
	}
	printField(e.out, "Output amount:", fmt.Sprintf("%s %s", to.Format(quoted), to.Symbol))

	minOut := chain.MinOutput(quoted, e.cfg.SlippageBps)

	gasPrice, err := e.ledger.GasPrice(ctx)
	if err != nil {
		return nil, err
	}
	printField(e.out, "Gas price in GWEI:", chain.WeiToGwei(gasPrice))
	printField(e.out, fmt.Sprintf("%s balance before swap:", to.Symbol), to.Format(toBefore))
	printField(e.out, fmt.Sprintf("%s balance before swap:", from.Symbol), from.Format(fromBefore))

	if e.cfg.StrictERC20 || from.Address != e.cfg.WrappedNative {
		if err := e.ensureAllowance(ctx, from, amountIn, gasPrice); err != nil {
			return nil, err
		}
	}

	call, err := izumi.BuildSwapCall(e.cfg.Router, e.cfg.WrappedNative, izumi.SwapParams{
		TokenChain:      tokens,
		FeeChain:        fees,
		InputAmount:     amountIn,
		MinOutputAmount: minOut,
		Recipient:       owner,
		StrictERC20:     e.cfg.StrictERC20,
	})
	if err != nil {
		return nil, err
	}

	swapCall := chain.Call{To: call.To, Value: call.Value, Data: call.Data, GasPrice: gasPrice}
	estimate, err := e.ledger.EstimateGas(ctx, owner, swapCall)
	if err != nil {
		return nil, err
	}
	swapCall.GasLimit = chain.BufferGas(estimate, e.cfg.GasBufferPercent)
	printField(e.out, "Estimated gas:", estimate)
	printField(e.out, "Gas limit:", swapCall.GasLimit)

	tx, err := e.ledger.Send(ctx, e.account, swapCall)
	if err != nil {
		return nil, err
	}
	if tx.Succeeded() {
		printField(e.out, "Status:", "success")
	} else {
		fmt.Fprintf(e.out, "%s %s\n", blue("Status:"), red("reverted"))
	}

	fromAfter, err := e.ledger.TokenBalance(ctx, from.Address, owner)
	if err != nil {
		return nil, err
	}
	toAfter, err := e.ledger.TokenBalance(ctx, to.Address, owner)
	if err != nil {
		return nil, err
	}

	printBalanceTable(e.out, []balanceRow{
		{Token: to.Symbol, Before: to.Format(toBefore), After: to.Format(toAfter)},
		{Token: from.Symbol, Before: from.Format(fromBefore), After: from.Format(fromAfter)},
	})
	fmt.Fprintf(e.out, "%s %s\n", yellow("Explorer:"), blue(chain.TxURL(e.cfg.ExplorerTxURL, tx.Hash)))

	return &Result{
		From:      from,
		To:        to,
		AmountIn:  amountIn,
		QuotedOut: quoted,
		MinOut:    minOut,
		Tx:        tx,
	}, nil
}

func (e *Executor) ensureAllowance(ctx context.Context, token chain.Token, amount, gasPrice *big.Int) error {
	allowance, err := e.ledger.Allowance(ctx, token.Address, e.account.Address, e.cfg.Router)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) >= 0 {
		return nil
	}

	data, err := chain.ERC20ABI.Pack("approve", e.cfg.Router, approveAmount)
	if err != nil {
		return fmt.Errorf("pack approve calldata: %w", err)
	}
	fmt.Fprintf(e.out, "%s %s\n", yellow("Approving"), cyan(token.Symbol))
	tx, err := e.ledger.Send(ctx, e.account, chain.Call{
		To:               token.Address,
		Data:             data,
		GasPrice:         gasPrice,
		GasBufferPercent: e.cfg.GasBufferPercent,
	})
	if err != nil {
		return fmt.Errorf("approve %s: %w", token.Symbol, err)
	}
	fmt.Fprintf(e.out, "%s %s\n", yellow("Approve tx:"), blue(chain.TxURL(e.cfg.ExplorerTxURL, tx.Hash)))
	return nil
}
