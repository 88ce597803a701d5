// Package authority is the server-side wallet: the balance the sync layer
// treats as the source of truth, plus its transaction history.
package authority

import (
	"context"
	"fmt"
	"strings"
)

const defaultTokensPerCredit = 1000

// Service contains the domain logic over a Store.
type Service struct {
	store Store
	nowFn func() int64
}

// NewService wires a Service.
func NewService(store Store, now func() int64) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	return &Service{store: store, nowFn: now}, nil
}

// Balance returns the wallet view for userID, creating the wallet on first
// contact.
func (service *Service) Balance(ctx context.Context, userID string) (Balance, error) {
	normalizedUserID, err := normalizeUserID(userID)
	if err != nil {
		return Balance{}, err
	}
	walletRecord, err := service.store.GetOrCreateWallet(ctx, normalizedUserID)
	if err != nil {
		return Balance{}, err
	}
	return Balance{
		BalanceCredits:  walletRecord.BalanceCredits,
		TokensPerCredit: walletRecord.TokensPerCredit,
	}, nil
}

// Spend debits the wallet if the balance covers the amount; a spend that would
// push the balance negative is rejected whole with ErrInsufficientCredits.
func (service *Service) Spend(ctx context.Context, userID string, amount Credits, description string) error {
	normalizedUserID, err := normalizeUserID(userID)
	if err != nil {
		return err
	}
	if amount <= 0 {
		return fmt.Errorf("%w: spend must be greater than zero", ErrInvalidCredits)
	}
	return service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		walletRecord, err := transactionStore.GetOrCreateWallet(ctx, normalizedUserID)
		if err != nil {
			return err
		}
		if walletRecord.BalanceCredits < amount {
			return ErrInsufficientCredits
		}
		if err := transactionStore.UpdateBalance(ctx, walletRecord.WalletID, walletRecord.BalanceCredits-amount); err != nil {
			return err
		}
		return transactionStore.InsertTransaction(ctx, Transaction{
			WalletID:       walletRecord.WalletID,
			Type:           TransactionSpend,
			Description:    description,
			CreditsChange:  -int64(amount),
			CreatedUnixUTC: service.nowFn(),
		})
	})
}

// TopUp credits the wallet.
func (service *Service) TopUp(ctx context.Context, userID string, amount Credits, description string) error {
	normalizedUserID, err := normalizeUserID(userID)
	if err != nil {
		return err
	}
	if amount <= 0 {
		return fmt.Errorf("%w: topup must be greater than zero", ErrInvalidCredits)
	}
	return service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		walletRecord, err := transactionStore.GetOrCreateWallet(ctx, normalizedUserID)
		if err != nil {
			return err
		}
		if err := transactionStore.UpdateBalance(ctx, walletRecord.WalletID, walletRecord.BalanceCredits+amount); err != nil {
			return err
		}
		return transactionStore.InsertTransaction(ctx, Transaction{
			WalletID:       walletRecord.WalletID,
			Type:           TransactionTopUp,
			Description:    description,
			CreditsChange:  int64(amount),
			CreatedUnixUTC: service.nowFn(),
		})
	})
}

// ListTransactions returns up to limit transactions for userID, newest first.
func (service *Service) ListTransactions(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	normalizedUserID, err := normalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	walletRecord, err := service.store.GetOrCreateWallet(ctx, normalizedUserID)
	if err != nil {
		return nil, err
	}
	return service.store.ListTransactions(ctx, walletRecord.WalletID, limit)
}

func normalizeUserID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidUserID)
	}
	return trimmed, nil
}

// DefaultTokensPerCredit exposes the token conversion applied to new wallets.
func DefaultTokensPerCredit() int64 {
	return defaultTokensPerCredit
}
