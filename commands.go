package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/fatih/color"
	"github.com/nekowawolf/taiko-swap-bot/chain"
	"github.com/nekowawolf/taiko-swap-bot/config"
	"github.com/nekowawolf/taiko-swap-bot/izumi"
	"github.com/nekowawolf/taiko-swap-bot/logger"
	"github.com/nekowawolf/taiko-swap-bot/prompt"
	"github.com/nekowawolf/taiko-swap-bot/swap"
	"github.com/nekowawolf/taiko-swap-bot/wrap"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type app struct {
	opts config.Options
	cfg  config.Config
	log  *logrus.Logger
	in   io.Reader
	out  io.Writer
}

func newApp(in io.Reader, out io.Writer) *app {
	return &app{in: in, out: out}
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "taiko-bot",
		Short:         "Swap and wrap bots for Taiko mainnet",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.opts)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			a.cfg = cfg
			a.log = logger.New(cfg.Log.Level, cfg.Log.File)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&a.opts.ConfigPath, "config", "", "Path to config file (default ./config.yaml)")
	cmd.PersistentFlags().StringVar(&a.opts.EnvFile, "env-file", "", "Path to .env file (default ./.env)")
	cmd.PersistentFlags().StringVar(&a.opts.RPCURL, "rpc-url", "", "JSON-RPC endpoint override")
	cmd.PersistentFlags().StringVar(&a.opts.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&a.opts.LogFile, "log-file", "", "Also write logs to this rotating file")

	cmd.AddCommand(newSwapCommand(a))
	cmd.AddCommand(newWrapCommand(a))
	cmd.AddCommand(newTradeCommand(a))
	return cmd
}

func newSwapCommand(a *app) *cobra.Command {
	var (
		interval time.Duration
		maxTx    int
	)
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap token A and token B back and forth through iZiSwap",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			account, err := config.LoadAccount()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("interval") {
				a.cfg.Swap.Interval = interval
			}
			if cmd.Flags().Changed("max-tx") {
				a.cfg.Swap.MaxTx = maxTx
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			client, err := chain.Dial(ctx, a.cfg.RPCURL, a.cfg.ChainID)
			if err != nil {
				return err
			}
			defer client.Close()
			a.printAddress(account)

			tokenA, err := client.FetchToken(ctx, a.cfg.TokenA)
			if err != nil {
				return fmt.Errorf("an error occurred during initialization: %w", err)
			}
			tokenB, err := client.FetchToken(ctx, a.cfg.TokenB)
			if err != nil {
				return fmt.Errorf("an error occurred during initialization: %w", err)
			}

			executor := swap.NewExecutor(client, izumi.NewQuoter(client, a.cfg.Quoter), account, swap.ExecutorConfig{
				Router:           a.cfg.SwapRouter,
				WrappedNative:    a.cfg.WrappedNative,
				Fee:              a.cfg.Fee,
				SlippageBps:      a.cfg.Swap.SlippageBps,
				GasBufferPercent: a.cfg.Swap.GasBufferPercent,
				StrictERC20:      a.cfg.Swap.StrictERC20,
				ExplorerTxURL:    a.cfg.ExplorerTxURL,
			}, a.out)
			bot := swap.NewBot(executor, client, account.Address, swap.Pair{A: tokenA, B: tokenB}, swap.BotConfig{
				Interval: a.cfg.Swap.Interval,
				MaxTx:    a.cfg.Swap.MaxTx,
			}, a.log, a.out)

			fmt.Fprintln(a.out, color.GreenString("Starting swap bot..."))
			if err := bot.Run(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}

			// The cap stops scheduling only; stay up until asked to exit.
			fmt.Fprintln(a.out, color.YellowString("Bot is idle. Press Ctrl+C to exit."))
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Delay between swaps (default 30s)")
	cmd.Flags().IntVar(&maxTx, "max-tx", 0, "Stop scheduling after this many swaps (default 100)")
	return cmd
}

func newWrapCommand(a *app) *cobra.Command {
	var (
		amount string
		count  int
	)
	cmd := &cobra.Command{
		Use:   "wrap",
		Short: "Alternate between wrapping ETH and unwrapping WETH on one account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := config.LoadAccount()
			if err != nil {
				return err
			}
			ask := prompt.New(a.in, a.out)

			wei, err := resolveAmount(ask, amount, "Please enter the total amount in ether: ")
			if err != nil {
				return err
			}
			if count <= 0 {
				if count, err = ask.AskCount("Please enter the total number of transactions: "); err != nil {
					return err
				}
			}

			return a.runWrap(cmd.Context(), []wrap.Job{{Account: account, Amount: wei}}, count, a.cfg.Wrap.Delay, false)
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "Amount of ETH to wrap per transaction")
	cmd.Flags().IntVar(&count, "count", 0, "Total number of transactions")
	return cmd
}

func newTradeCommand(a *app) *cobra.Command {
	var (
		count     int
		roundTrip bool
	)
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Wrap and unwrap for every configured account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := config.LoadAccounts()
			if err != nil {
				return err
			}
			ask := prompt.New(a.in, a.out)

			if count <= 0 {
				if count, err = ask.AskCount("Please enter the total number of transactions per account: "); err != nil {
					return err
				}
			}
			jobs := make([]wrap.Job, 0, len(accounts))
			for _, account := range accounts {
				wei, err := ask.AskEther(fmt.Sprintf("Please enter the total amount in ether for account %s: ", account.Address.Hex()))
				if err != nil {
					return err
				}
				jobs = append(jobs, wrap.Job{Account: account, Amount: wei})
			}

			return a.runWrap(cmd.Context(), jobs, count, a.cfg.Trade.Delay, roundTrip)
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "Total number of transactions per account")
	cmd.Flags().BoolVar(&roundTrip, "round-trip", false, "Unwrap any WETH and wrap again on every cycle")
	return cmd
}

func (a *app) runWrap(ctx context.Context, jobs []wrap.Job, count int, delay time.Duration, roundTrip bool) error {
	client, err := chain.Dial(ctx, a.cfg.RPCURL, a.cfg.ChainID)
	if err != nil {
		return err
	}
	defer client.Close()
	for _, job := range jobs {
		a.printAddress(job.Account)
	}

	exec := wrap.NewExecutor(client, a.cfg.WrappedNative, a.cfg.ExplorerTxURL, a.out)
	runner := wrap.NewRunner(exec, delay, roundTrip, a.log, a.out)
	if _, err := runner.Run(ctx, jobs, count); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *app) printAddress(account *chain.Account) {
	fmt.Fprintln(a.out, color.BlueString("Your address:"), color.GreenString(account.Address.Hex()))
}

func resolveAmount(ask *prompt.Prompter, flagValue, question string) (*big.Int, error) {
	if flagValue != "" {
		return chain.ParseUnits(flagValue, chain.EtherDecimals)
	}
	return ask.AskEther(question)
}
