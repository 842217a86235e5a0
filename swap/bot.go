package swap

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nekowawolf/taiko-swap-bot/chain"
	"github.com/sirupsen/logrus"
)

type Swapper interface {
	Swap(ctx context.Context, from, to chain.Token) (*Result, error)
}

type BalanceReader interface {
	TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

type BotConfig struct {
	Interval time.Duration
	MaxTx    int
}

// Bot swaps back and forth on a fixed timer until MaxTx swaps succeed.
type Bot struct {
	swapper  Swapper
	balances BalanceReader
	owner    common.Address
	pair     Pair
	cfg      BotConfig
	log      logrus.FieldLogger
	out      io.Writer
	now      func() time.Time

	count int
}

func NewBot(swapper Swapper, balances BalanceReader, owner common.Address, pair Pair, cfg BotConfig, log logrus.FieldLogger, out io.Writer) *Bot {
	return &Bot{
		swapper:  swapper,
		balances: balances,
		owner:    owner,
		pair:     pair,
		cfg:      cfg,
		log:      log,
		out:      out,
		now:      time.Now,
	}
}

// Count is the number of completed swaps.
func (b *Bot) Count() int {
	return b.count
}

// Cycle runs a single swap in the direction picked from the balance of A.
func (b *Bot) Cycle(ctx context.Context) error {
	stamp := b.now().Format("2006-01-02 15:04:05")
	fmt.Fprintln(b.out, yellow(fmt.Sprintf("\n[%s] Executing swap...", stamp)))

	balanceA, err := b.balances.TokenBalance(ctx, b.pair.A.Address, b.owner)
	if err != nil {
		return err
	}
	direction := SelectDirection(balanceA)
	fmt.Fprintln(b.out, cyan(fmt.Sprintf("[%s] Swapping %s", stamp, direction.Label(b.pair))))

	from, to := direction.Tokens(b.pair)
	res, err := b.swapper.Swap(ctx, from, to)
	if err != nil {
		return err
	}

	entry := b.log.WithFields(logrus.Fields{
		"direction": direction.Label(b.pair),
		"tx":        res.Tx.Hash.Hex(),
		"gas_used":  res.Tx.GasUsed,
	})
	if !res.Tx.Succeeded() {
		entry.Warn("swap transaction reverted")
	} else {
		entry.Debug("swap transaction mined")
	}
	fmt.Fprintln(b.out, green("Swap completed!"))
	return nil
}

// Run cycles immediately and then every Interval. A failed cycle is logged
// and retried after the same interval without touching the counter. Run
// returns nil once MaxTx swaps completed, or ctx.Err() when cancelled.
func (b *Bot) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if err := b.Cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.log.WithError(err).WithField("completed", b.count).Error("swap cycle failed")
			fmt.Fprintln(b.out, red("An error occurred during swap: ")+err.Error())
			fmt.Fprintln(b.out, yellow(fmt.Sprintf("Retrying swap in %s...", b.cfg.Interval)))
			timer.Reset(b.cfg.Interval)
			continue
		}

		b.count++
		b.log.WithField("completed", b.count).Info("swap cycle done")
		if b.count >= b.cfg.MaxTx {
			fmt.Fprintln(b.out, red(fmt.Sprintf("Reached %d transactions. Stopping the bot.", b.cfg.MaxTx)))
			return nil
		}
		fmt.Fprintln(b.out, cyan(fmt.Sprintf("Total tx count: %d", b.count)))
		fmt.Fprintln(b.out, yellow(fmt.Sprintf("Next swap in %s.", b.cfg.Interval)))
		timer.Reset(b.cfg.Interval)
	}
}
