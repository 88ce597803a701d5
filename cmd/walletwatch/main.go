package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarkoPoloResearchLab/walletsync/internal/observe"
	"github.com/MarkoPoloResearchLab/walletsync/pkg/wallet"
	"github.com/MarkoPoloResearchLab/walletsync/pkg/walletclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	flagBaseURL              = "base-url"
	flagToken                = "token"
	flagBalanceInterval      = "balance-interval"
	flagTransactionsInterval = "transactions-interval"
	flagReportInterval       = "report-interval"
	flagTransactionLimit     = "transaction-limit"
	flagOnce                 = "once"

	configKeyBaseURL = "base_url"
	configKeyToken   = "token"
	envBaseURL       = "WALLETWATCH_BASE_URL"
	envToken         = "WALLETWATCH_TOKEN"

	defaultReportInterval   = 5 * time.Second
	defaultTransactionLimit = 20
)

type watchConfig struct {
	BaseURL              string
	Token                string
	BalanceInterval      time.Duration
	TransactionsInterval time.Duration
	ReportInterval       time.Duration
	TransactionLimit     int
	Once                 bool
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "walletwatch: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &watchConfig{}
	cmd := &cobra.Command{
		Use:           "walletwatch",
		Short:         "Mirror a remote wallet through polling caches",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String(flagBaseURL, "", "wallet service base URL")
	cmd.Flags().String(flagToken, "", "bearer token for the wallet service")
	cmd.Flags().Duration(flagBalanceInterval, wallet.BalancePollInterval, "balance poll cadence")
	cmd.Flags().Duration(flagTransactionsInterval, wallet.TransactionsPollInterval, "transaction poll cadence")
	cmd.Flags().Duration(flagReportInterval, defaultReportInterval, "cadence for printing the mirrored state")
	cmd.Flags().Int(flagTransactionLimit, defaultTransactionLimit, "transactions fetched per poll")
	cmd.Flags().Bool(flagOnce, false, "print one report after the initial fetch and exit")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *watchConfig) error {
	bindings := map[string]string{
		configKeyBaseURL: envBaseURL,
		configKeyToken:   envToken,
	}
	for configKey, envName := range bindings {
		if err := viper.BindEnv(configKey, envName); err != nil {
			return err
		}
	}
	flagNames := map[string]string{
		configKeyBaseURL: flagBaseURL,
		configKeyToken:   flagToken,
	}
	for configKey, flagName := range flagNames {
		if err := viper.BindPFlag(configKey, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}
	cfg.BaseURL = viper.GetString(configKeyBaseURL)
	cfg.Token = viper.GetString(configKeyToken)

	var err error
	if cfg.BalanceInterval, err = cmd.Flags().GetDuration(flagBalanceInterval); err != nil {
		return err
	}
	if cfg.TransactionsInterval, err = cmd.Flags().GetDuration(flagTransactionsInterval); err != nil {
		return err
	}
	if cfg.ReportInterval, err = cmd.Flags().GetDuration(flagReportInterval); err != nil {
		return err
	}
	if cfg.TransactionLimit, err = cmd.Flags().GetInt(flagTransactionLimit); err != nil {
		return err
	}
	if cfg.Once, err = cmd.Flags().GetBool(flagOnce); err != nil {
		return err
	}

	if cfg.BaseURL == "" {
		return fmt.Errorf("base url is required")
	}
	return nil
}

func runWatch(ctx context.Context, cfg *watchConfig, out io.Writer) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	clientOptions := []walletclient.Option{}
	if cfg.Token != "" {
		clientOptions = append(clientOptions, walletclient.WithBearerToken(cfg.Token))
	}
	client, err := walletclient.New(cfg.BaseURL, clientOptions...)
	if err != nil {
		return err
	}

	fetchLogger := observe.NewFetchLogger(logger)
	balanceCache, err := wallet.NewBalanceCache(client.BalanceFetch(),
		wallet.WithPollInterval(cfg.BalanceInterval),
		wallet.WithFetchLogger(fetchLogger))
	if err != nil {
		return err
	}
	defer balanceCache.Close()
	transactionsCache, err := wallet.NewTransactionsCache(client.TransactionsFetch(cfg.TransactionLimit),
		wallet.WithPollInterval(cfg.TransactionsInterval),
		wallet.WithFetchLogger(fetchLogger))
	if err != nil {
		return err
	}
	defer transactionsCache.Close()

	// Refetch joins the in-flight initial attempt, so the first report never
	// races cache creation.
	if err := balanceCache.Refetch(ctx); err != nil {
		logger.Warn("initial balance fetch failed", zap.Error(err))
	}
	if err := transactionsCache.Refetch(ctx); err != nil {
		logger.Warn("initial transaction fetch failed", zap.Error(err))
	}

	report(out, balanceCache, transactionsCache)
	if cfg.Once {
		return nil
	}

	ticker := time.NewTicker(cfg.ReportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			report(out, balanceCache, transactionsCache)
		}
	}
}

func report(out io.Writer, balanceCache *wallet.Cache[wallet.BalanceSnapshot], transactionsCache *wallet.Cache[[]wallet.TransactionRecord]) {
	now := time.Now()

	balance := balanceCache.Snapshot()
	switch {
	case balance.Data != nil:
		fmt.Fprintf(out, "balance: %d credits (stale=%v)\n", balance.Data.BalanceCredits, balance.Stale(now))
	case balance.Err != nil:
		fmt.Fprintf(out, "balance: unavailable (%v)\n", balance.Err)
	default:
		fmt.Fprintln(out, "balance: loading")
	}

	transactions := transactionsCache.Snapshot()
	switch {
	case transactions.Data != nil:
		fmt.Fprintf(out, "transactions: %d entries (stale=%v)\n", len(*transactions.Data), transactions.Stale(now))
	case transactions.Err != nil:
		fmt.Fprintf(out, "transactions: unavailable (%v)\n", transactions.Err)
	default:
		fmt.Fprintln(out, "transactions: loading")
	}
}
