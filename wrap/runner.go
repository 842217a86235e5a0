package wrap

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/nekowawolf/taiko-swap-bot/chain"
	"github.com/sirupsen/logrus"
)

// Job is one account and the amount it wraps per cycle.
type Job struct {
	Account *chain.Account
	Amount  *big.Int
}

type Summary struct {
	Succeeded int
	Failed    int
}

type Runner struct {
	exec          *Executor
	delay         time.Duration
	roundTrip     bool
	explorerTxURL string
	log           logrus.FieldLogger
	out           io.Writer
}

func NewRunner(exec *Executor, delay time.Duration, roundTrip bool, log logrus.FieldLogger, out io.Writer) *Runner {
	return &Runner{
		exec:          exec,
		delay:         delay,
		roundTrip:     roundTrip,
		explorerTxURL: exec.explorerTxURL,
		log:           log,
		out:           out,
	}
}

// Run performs totalTx cycles for every job in order, pausing delay after
// each one. Failed cycles are logged and skipped.
func (r *Runner) Run(ctx context.Context, jobs []Job, totalTx int) (Summary, error) {
	var summary Summary
	for i := 0; i < totalTx; i++ {
		for walletIdx, job := range jobs {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			fmt.Fprintln(r.out, blue(fmt.Sprintf("Transaction: %d for account %s", i+1, job.Account.Address.Hex())))

			var results []Result
			if r.roundTrip {
				results = r.exec.RoundTrip(ctx, job.Account, job.Amount)
			} else {
				results = r.exec.Step(ctx, job.Account, job.Amount)
			}

			for _, res := range results {
				res.WalletIndex = walletIdx + 1
				res.Cycle = i + 1
				r.report(res, totalTx)
				if res.Success {
					summary.Succeeded++
				} else {
					summary.Failed++
				}
			}

			if err := sleep(ctx, r.delay); err != nil {
				return summary, err
			}
		}
	}

	fmt.Fprintf(r.out, "%s %d/%d\n", yellow("Total successful transactions:"), summary.Succeeded, summary.Succeeded+summary.Failed)
	return summary, nil
}

func (r *Runner) report(res Result, totalTx int) {
	if !res.Success {
		r.log.WithError(res.Error).WithFields(logrus.Fields{
			"wallet":    res.WalletIndex,
			"cycle":     res.Cycle,
			"direction": res.Direction,
		}).Error("wrap transaction failed")
		fmt.Fprintf(r.out, "%s %s\n", red("❌ TRANSACTION FAILED"), yellow(fmt.Sprintf("[Wallet #%d] (Cycle %d/%d)", res.WalletIndex, res.Cycle, totalTx)))
		fmt.Fprintf(r.out, "%s %v\n\n", red("Error:"), res.Error)
		return
	}

	fmt.Fprintf(r.out, "%s %s %s\n", green(fmt.Sprintf("[Wallet #%d]", res.WalletIndex)), cyan(res.Direction), green(fmt.Sprintf("(Cycle %d/%d)", res.Cycle, totalTx)))
	fmt.Fprintf(r.out, "%s %s\n", yellow("Amount:"), magenta(res.Amount))
	fmt.Fprintf(r.out, "%s %s\n", yellow("TxHash:"), blue(chain.ShortHash(res.TxHash)))
	fmt.Fprintf(r.out, "%s %s\n", yellow("Fee:"), magenta(res.Fee))
	fmt.Fprintf(r.out, "%s %s%s\n", yellow("Explorer:"), blue(r.explorerTxURL), blue(res.TxHash))

	fields := logrus.Fields{
		"wallet":    res.WalletIndex,
		"cycle":     res.Cycle,
		"direction": res.Direction,
		"tx":        res.TxHash,
	}
	if res.Reverted {
		r.log.WithFields(fields).Warn("wrap transaction reverted")
		fmt.Fprintf(r.out, "%s %s\n", yellow("Status:"), red("reverted"))
	} else {
		r.log.WithFields(fields).Debug("wrap transaction mined")
		fmt.Fprintf(r.out, "%s %s\n", yellow("Status:"), green("success"))
	}
	if res.Balance != "" {
		fmt.Fprintf(r.out, "%s %s %s\n", green("New Balance:"), cyan("=>"), magenta(res.Balance))
	}
	fmt.Fprintln(r.out)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
