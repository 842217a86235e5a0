package swap

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/nekowawolf/taiko-swap-bot/chain"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type swapCall struct {
	from string
	to   string
}

// fakeSwapper moves the whole balance of the input token into the output
// token and fails on the call numbers listed in failOn (1-based).
type fakeSwapper struct {
	balances *fakeBalances
	failOn   map[int]error
	revert   bool
	calls    []swapCall
}

func (f *fakeSwapper) Swap(_ context.Context, from, to chain.Token) (*Result, error) {
	f.calls = append(f.calls, swapCall{from: from.Symbol, to: to.Symbol})
	if err, ok := f.failOn[len(f.calls)]; ok {
		return nil, err
	}
	amount, ok := f.balances.values[from.Address]
	if !ok {
		amount = big.NewInt(0)
	}
	f.balances.values[to.Address] = new(big.Int).Add(big.NewInt(1), amount)
	f.balances.values[from.Address] = big.NewInt(0)

	status := types.ReceiptStatusSuccessful
	if f.revert {
		status = types.ReceiptStatusFailed
	}
	tx := &chain.TxResult{Hash: common.BigToHash(big.NewInt(int64(len(f.calls)))), Status: status, GasUsed: 90_000}
	return &Result{From: from, To: to, Tx: tx}, nil
}

type fakeBalances struct {
	values map[common.Address]*big.Int
	err    error
}

func (f *fakeBalances) TokenBalance(_ context.Context, token, _ common.Address) (*big.Int, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.values[token]; ok {
		return v, nil
	}
	return big.NewInt(0), nil
}

func newTestBot(swapper Swapper, balances BalanceReader, maxTx int) (*Bot, *test.Hook) {
	log, hook := test.NewNullLogger()
	bot := NewBot(swapper, balances, common.Address{}, testPair, BotConfig{Interval: time.Millisecond, MaxTx: maxTx}, log, io.Discard)
	return bot, hook
}

func TestBotStopsAtTransactionCap(t *testing.T) {
	balances := &fakeBalances{values: map[common.Address]*big.Int{testPair.A.Address: big.NewInt(5)}}
	swapper := &fakeSwapper{balances: balances}
	bot, _ := newTestBot(swapper, balances, 100)

	require.NoError(t, bot.Run(context.Background()))
	assert.Equal(t, 100, bot.Count())
	assert.Len(t, swapper.calls, 100)
}

func TestBotAlternatesDirectionFromBalance(t *testing.T) {
	balances := &fakeBalances{values: map[common.Address]*big.Int{testPair.A.Address: big.NewInt(5)}}
	swapper := &fakeSwapper{balances: balances}
	bot, _ := newTestBot(swapper, balances, 4)

	require.NoError(t, bot.Run(context.Background()))
	assert.Equal(t, []swapCall{
		{"USDC", "WETH"},
		{"WETH", "USDC"},
		{"USDC", "WETH"},
		{"WETH", "USDC"},
	}, swapper.calls)
}

func TestBotRetriesFailedCycleWithoutCounting(t *testing.T) {
	balances := &fakeBalances{values: map[common.Address]*big.Int{testPair.A.Address: big.NewInt(5)}}
	rpcErr := errors.New("rpc unavailable")
	swapper := &fakeSwapper{balances: balances, failOn: map[int]error{2: rpcErr, 3: rpcErr}}
	bot, hook := newTestBot(swapper, balances, 3)

	require.NoError(t, bot.Run(context.Background()))
	assert.Equal(t, 3, bot.Count())
	assert.Len(t, swapper.calls, 5)

	var failures []*logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			failures = append(failures, entry)
		}
	}
	require.Len(t, failures, 2)
	assert.Equal(t, rpcErr, failures[0].Data[logrus.ErrorKey])
	assert.Equal(t, 1, failures[0].Data["completed"])
}

func TestBotCountsBalanceReadFailureAsFailedCycle(t *testing.T) {
	balances := &fakeBalances{err: errors.New("balance call failed")}
	swapper := &fakeSwapper{balances: balances}
	bot, hook := newTestBot(swapper, balances, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for len(hook.AllEntries()) < 3 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	err := bot.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, bot.Count())
	assert.Empty(t, swapper.calls)
}

func TestBotRunHonoursCancellation(t *testing.T) {
	balances := &fakeBalances{values: map[common.Address]*big.Int{}}
	log, _ := test.NewNullLogger()
	bot := NewBot(&fakeSwapper{balances: balances}, balances, common.Address{}, testPair, BotConfig{Interval: time.Hour, MaxTx: 100}, log, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("bot did not stop after cancellation")
	}
	assert.Equal(t, 1, bot.Count())
}

func TestBotCountsRevertedSwapAndWarns(t *testing.T) {
	balances := &fakeBalances{values: map[common.Address]*big.Int{testPair.A.Address: big.NewInt(5)}}
	swapper := &fakeSwapper{balances: balances, revert: true}
	bot, hook := newTestBot(swapper, balances, 1)

	require.NoError(t, bot.Run(context.Background()))
	assert.Equal(t, 1, bot.Count())

	var warned []*logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warned = append(warned, entry)
		}
	}
	require.Len(t, warned, 1)
	assert.Equal(t, "USDC to WETH", warned[0].Data["direction"])
}
