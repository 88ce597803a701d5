package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/MarkoPoloResearchLab/walletsync/internal/localledger"
	"github.com/MarkoPoloResearchLab/walletsync/internal/observe"
	"github.com/MarkoPoloResearchLab/walletsync/internal/store/gormstore"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	flagStatePath   = "state-path"
	flagDescription = "description"
	flagKind        = "kind"
	flagLimit       = "limit"

	configKeyStatePath = "state_path"
	envStatePath       = "WALLETSIM_STATE_PATH"

	defaultStatePath    = "walletsim.db"
	defaultHistoryLimit = 20
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "walletsim: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "walletsim",
		Short:         "Operate a fully local simulated credit wallet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String(flagStatePath, defaultStatePath, "sqlite file holding the ledger record")
	cmd.AddCommand(
		newStatusCommand(),
		newSpendCommand(),
		newTopUpCommand(),
		newModeCommand(),
		newHistoryCommand(),
		newResetCommand(),
	)
	return cmd
}

// openLedger hydrates the simulated wallet from its sqlite-backed single
// record; corrupt records recover to defaults and are reported through zap.
func openLedger(cmd *cobra.Command) (*localledger.Store, func() error, error) {
	if err := viper.BindEnv(configKeyStatePath, envStatePath); err != nil {
		return nil, nil, err
	}
	if err := viper.BindPFlag(configKeyStatePath, cmd.Flags().Lookup(flagStatePath)); err != nil {
		return nil, nil, err
	}
	statePath := viper.GetString(configKeyStatePath)
	if statePath == "" {
		statePath = defaultStatePath
	}

	db, err := gorm.Open(sqlite.Open(statePath), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger state: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	if err := gormstore.Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("migrate ledger state: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("logger init: %w", err)
	}
	ledger, err := localledger.New(cmd.Context(), gormstore.NewSnapshotStore(db),
		localledger.WithRecoveryLogger(observe.NewRecoveryLogger(logger)))
	if err != nil {
		_ = logger.Sync()
		_ = sqlDB.Close()
		return nil, nil, err
	}
	cleanup := func() error {
		_ = logger.Sync()
		return sqlDB.Close()
	}
	return ledger, cleanup, nil
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current balance and mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, cleanup, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()
			fmt.Fprintf(cmd.OutOrStdout(), "credits: %d\nmode: %s (x%d)\n",
				ledger.CreditsRemaining(), ledger.Mode(), ledger.ModeMultiplier())
			return nil
		},
	}
}

func newSpendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spend <credits>",
		Short: "Deduct credits for a billed action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse credits %q: %w", args[0], err)
			}
			description, err := cmd.Flags().GetString(flagDescription)
			if err != nil {
				return err
			}
			ledger, cleanup, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()
			accepted, err := ledger.DeductCredits(cmd.Context(), amount, description)
			if err != nil {
				return err
			}
			if !accepted {
				fmt.Fprintln(cmd.OutOrStdout(), "rejected: insufficient credits")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "credits: %d\n", ledger.CreditsRemaining())
			return nil
		},
	}
	cmd.Flags().String(flagDescription, "billed action", "transaction description")
	return cmd
}

func newTopUpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topup <amount>",
		Short: "Convert a currency amount into credits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("parse amount %q: %w", args[0], err)
			}
			rawKind, err := cmd.Flags().GetString(flagKind)
			if err != nil {
				return err
			}
			kind, err := localledger.ParseCreditKind(rawKind)
			if err != nil {
				return err
			}
			description, err := cmd.Flags().GetString(flagDescription)
			if err != nil {
				return err
			}
			ledger, cleanup, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()
			if err := ledger.AddCredits(cmd.Context(), amount, description, kind); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "credits: %d\n", ledger.CreditsRemaining())
			return nil
		},
	}
	cmd.Flags().String(flagKind, string(localledger.KindPurchase), "transaction kind (purchase, bonus, refund)")
	cmd.Flags().String(flagDescription, "credit purchase", "transaction description")
	return cmd
}

func newModeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mode <Normal|Pro|Premium>",
		Short: "Switch the credit consumption mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := localledger.ParseMode(args[0])
			if err != nil {
				return err
			}
			ledger, cleanup, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()
			if err := ledger.SetMode(cmd.Context(), mode); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mode: %s (x%d)\n", ledger.Mode(), ledger.ModeMultiplier())
			return nil
		},
	}
}

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the transaction log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt(flagLimit)
			if err != nil {
				return err
			}
			ledger, cleanup, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()
			transactions := ledger.Transactions()
			if limit > 0 && len(transactions) > limit {
				transactions = transactions[:limit]
			}
			for _, transaction := range transactions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%+d\t%s\n",
					transaction.TransactionID, transaction.Kind, transaction.CreditsChange, transaction.Description)
			}
			return nil
		},
	}
	cmd.Flags().Int(flagLimit, defaultHistoryLimit, "maximum entries to print")
	return cmd
}

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default balance and erase the persisted record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, cleanup, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()
			if err := ledger.ResetCredits(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "credits: %d\n", ledger.CreditsRemaining())
			return nil
		},
	}
}
