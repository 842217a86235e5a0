package swap

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/nekowawolf/taiko-swap-bot/chain"
	"github.com/nekowawolf/taiko-swap-bot/izumi"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var router = common.HexToAddress("0x04830cfCED9772b8ACbAF76Cfc7A630Ad82c9148")

type fakeLedger struct {
	balances  map[common.Address]*big.Int
	allowance *big.Int
	gasPrice  *big.Int
	sendErr   error
	status    *uint64
	sent      []chain.Call
	// afterSwaps are applied to balances in order, one per swap sent to the
	// router.
	afterSwaps []map[common.Address]*big.Int
}

func (f *fakeLedger) TokenBalance(_ context.Context, token, _ common.Address) (*big.Int, error) {
	if b, ok := f.balances[token]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeLedger) Allowance(_ context.Context, _, _, _ common.Address) (*big.Int, error) {
	return f.allowance, nil
}

func (f *fakeLedger) GasPrice(context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeLedger) EstimateGas(context.Context, common.Address, chain.Call) (uint64, error) {
	return 100_000, nil
}

func (f *fakeLedger) Send(_ context.Context, _ *chain.Account, call chain.Call) (*chain.TxResult, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, call)
	if call.To == router && len(f.afterSwaps) > 0 {
		for token, b := range f.afterSwaps[0] {
			f.balances[token] = b
		}
		f.afterSwaps = f.afterSwaps[1:]
	}
	status := types.ReceiptStatusSuccessful
	if f.status != nil {
		status = *f.status
	}
	return &chain.TxResult{
		Hash:     common.BigToHash(big.NewInt(int64(len(f.sent)))),
		Status:   status,
		GasLimit: call.GasLimit,
	}, nil
}

type fakeQuoter struct {
	out       *big.Int
	err       error
	gotAmount *big.Int
	gotTokens []common.Address
}

func (f *fakeQuoter) QuoteExactInput(_ context.Context, tokens []common.Address, _ []uint32, amount *big.Int) (*big.Int, error) {
	f.gotTokens = tokens
	f.gotAmount = amount
	return f.out, f.err
}

func testAccount(t *testing.T) *chain.Account {
	t.Helper()
	key, err := crypto.HexToECDSA("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	return chain.NewAccount(key)
}

func testExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Router:           router,
		WrappedNative:    testPair.B.Address,
		Fee:              3000,
		SlippageBps:      50,
		GasBufferPercent: 10,
		StrictERC20:      true,
		ExplorerTxURL:    "https://taikoscan.network/tx/",
	}
}

func TestExecutorSwapsWholeBalanceWithSlippageBound(t *testing.T) {
	account := testAccount(t)
	ledger := &fakeLedger{
		balances: map[common.Address]*big.Int{
			testPair.A.Address: big.NewInt(2_500_000),
			testPair.B.Address: big.NewInt(0),
		},
		allowance: new(big.Int).Lsh(big.NewInt(1), 200),
		gasPrice:  big.NewInt(10_000_000),
		afterSwaps: []map[common.Address]*big.Int{{
			testPair.A.Address: big.NewInt(0),
			testPair.B.Address: big.NewInt(1_000_000),
		}},
	}
	quoter := &fakeQuoter{out: big.NewInt(1_000_000)}
	var out bytes.Buffer

	res, err := NewExecutor(ledger, quoter, account, testExecutorConfig(), &out).Swap(context.Background(), testPair.A, testPair.B)
	require.NoError(t, err)

	assert.Equal(t, int64(2_500_000), quoter.gotAmount.Int64())
	assert.Equal(t, []common.Address{testPair.A.Address, testPair.B.Address}, quoter.gotTokens)
	assert.Equal(t, int64(995_000), res.MinOut.Int64())
	assert.Equal(t, uint64(110_000), res.Tx.GasLimit)

	require.Len(t, ledger.sent, 1, "allowance is sufficient, no approve expected")
	want, err := izumi.BuildSwapCall(router, testPair.B.Address, izumi.SwapParams{
		TokenChain:      []common.Address{testPair.A.Address, testPair.B.Address},
		FeeChain:        []uint32{3000},
		InputAmount:     big.NewInt(2_500_000),
		MinOutputAmount: big.NewInt(995_000),
		Recipient:       account.Address,
		StrictERC20:     true,
	})
	require.NoError(t, err)
	sent := ledger.sent[0]
	assert.Equal(t, want.Data, sent.Data)
	assert.Equal(t, router, sent.To)
	assert.Equal(t, int64(10_000_000), sent.GasPrice.Int64())
	assert.Equal(t, uint64(110_000), sent.GasLimit)

	text := out.String()
	assert.Less(t, strings.Index(text, "Gas limit:"), strings.Index(text, "Status:"))
	assert.Contains(t, text, "success")
	assert.Contains(t, text, "0.00000")
	assert.Contains(t, text, "2.50000")
	assert.Contains(t, text, "Before Swap")
	assert.Contains(t, text, "https://taikoscan.network/tx/")
}

func TestExecutorApprovesWhenAllowanceTooLow(t *testing.T) {
	ledger := &fakeLedger{
		balances:  map[common.Address]*big.Int{testPair.B.Address: big.NewInt(1e15)},
		allowance: big.NewInt(0),
		gasPrice:  big.NewInt(1),
	}
	_, err := NewExecutor(ledger, &fakeQuoter{out: big.NewInt(3_000_000)}, testAccount(t), testExecutorConfig(), &bytes.Buffer{}).
		Swap(context.Background(), testPair.B, testPair.A)
	require.NoError(t, err)

	require.Len(t, ledger.sent, 2)
	approve := ledger.sent[0]
	assert.Equal(t, testPair.B.Address, approve.To)
	assert.Equal(t, chain.ERC20ABI.Methods["approve"].ID, approve.Data[:4])
	assert.Equal(t, router, ledger.sent[1].To)
}

func TestExecutorFailsWithoutInputBalance(t *testing.T) {
	ledger := &fakeLedger{balances: map[common.Address]*big.Int{}, allowance: big.NewInt(0), gasPrice: big.NewInt(1)}
	quoter := &fakeQuoter{out: big.NewInt(1)}

	_, err := NewExecutor(ledger, quoter, testAccount(t), testExecutorConfig(), &bytes.Buffer{}).
		Swap(context.Background(), testPair.B, testPair.A)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no WETH balance")
	assert.Nil(t, quoter.gotAmount)
	assert.Empty(t, ledger.sent)
}

func TestExecutorPropagatesFailures(t *testing.T) {
	quoteErr := errors.New("quoter reverted")
	ledger := &fakeLedger{
		balances:  map[common.Address]*big.Int{testPair.A.Address: big.NewInt(10)},
		allowance: big.NewInt(100),
		gasPrice:  big.NewInt(1),
	}
	_, err := NewExecutor(ledger, &fakeQuoter{err: quoteErr}, testAccount(t), testExecutorConfig(), &bytes.Buffer{}).
		Swap(context.Background(), testPair.A, testPair.B)
	assert.ErrorIs(t, err, quoteErr)
	assert.Empty(t, ledger.sent)

	sendErr := errors.New("nonce too low")
	ledger.sendErr = sendErr
	_, err = NewExecutor(ledger, &fakeQuoter{out: big.NewInt(10)}, testAccount(t), testExecutorConfig(), &bytes.Buffer{}).
		Swap(context.Background(), testPair.A, testPair.B)
	assert.ErrorIs(t, err, sendErr)
}

func TestExecutorNativeInputSkipsApproval(t *testing.T) {
	cfg := testExecutorConfig()
	cfg.StrictERC20 = false
	ledger := &fakeLedger{
		balances:  map[common.Address]*big.Int{testPair.B.Address: big.NewInt(1e15)},
		allowance: big.NewInt(0),
		gasPrice:  big.NewInt(1),
	}
	_, err := NewExecutor(ledger, &fakeQuoter{out: big.NewInt(3_000_000)}, testAccount(t), cfg, &bytes.Buffer{}).
		Swap(context.Background(), testPair.B, testPair.A)
	require.NoError(t, err)

	require.Len(t, ledger.sent, 1)
	assert.Equal(t, int64(1e15), ledger.sent[0].Value.Int64())
}

func TestExecutorReportsRevertedSwap(t *testing.T) {
	reverted := types.ReceiptStatusFailed
	ledger := &fakeLedger{
		balances:  map[common.Address]*big.Int{testPair.A.Address: big.NewInt(10)},
		allowance: big.NewInt(100),
		gasPrice:  big.NewInt(1),
		status:    &reverted,
	}
	var out bytes.Buffer
	res, err := NewExecutor(ledger, &fakeQuoter{out: big.NewInt(10)}, testAccount(t), testExecutorConfig(), &out).
		Swap(context.Background(), testPair.A, testPair.B)
	require.NoError(t, err)
	assert.False(t, res.Tx.Succeeded())
	assert.Contains(t, out.String(), "reverted")
}

func TestBotCompletesBothLegsWithNativeInput(t *testing.T) {
	cfg := testExecutorConfig()
	cfg.StrictERC20 = false
	ledger := &fakeLedger{
		balances: map[common.Address]*big.Int{
			testPair.A.Address: big.NewInt(2_500_000),
			testPair.B.Address: big.NewInt(0),
		},
		allowance: new(big.Int).Lsh(big.NewInt(1), 200),
		gasPrice:  big.NewInt(1),
		afterSwaps: []map[common.Address]*big.Int{
			{testPair.A.Address: big.NewInt(0), testPair.B.Address: big.NewInt(1e15)},
			{testPair.A.Address: big.NewInt(2_400_000), testPair.B.Address: big.NewInt(0)},
		},
	}
	account := testAccount(t)
	exec := NewExecutor(ledger, &fakeQuoter{out: big.NewInt(1_000)}, account, cfg, io.Discard)
	bot, hook := newTestBot(exec, ledger, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, bot.Run(ctx))
	assert.Equal(t, 2, bot.Count())
	for _, entry := range hook.AllEntries() {
		assert.NotEqual(t, logrus.ErrorLevel, entry.Level, entry.Message)
	}

	require.Len(t, ledger.sent, 2)
	wethOut, err := izumi.BuildSwapCall(router, testPair.B.Address, izumi.SwapParams{
		TokenChain:      []common.Address{testPair.A.Address, testPair.B.Address},
		FeeChain:        []uint32{3000},
		InputAmount:     big.NewInt(2_500_000),
		MinOutputAmount: big.NewInt(995),
		Recipient:       account.Address,
	})
	require.NoError(t, err)
	assert.Equal(t, wethOut.Data, ledger.sent[0].Data, "WETH output stays an ERC-20 balance")
	assert.Equal(t, 0, ledger.sent[0].Value.Sign())
	assert.Equal(t, int64(1e15), ledger.sent[1].Value.Int64(), "WETH input is paid as native value")
}
