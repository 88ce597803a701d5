// Package gormstore persists the wallet authority and the local ledger
// snapshot through GORM, against SQLite or PostgreSQL.
package gormstore

import (
	"context"
	"time"

	"github.com/MarkoPoloResearchLab/walletsync/internal/authority"
	"github.com/MarkoPoloResearchLab/walletsync/pkg/wallet"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultMetadataJSON = "{}"

	errorSubjectWallet      = "wallet"
	errorSubjectTransaction = "transaction"
	errorCodeLookup         = "lookup"
	errorCodeUpdate         = "update"
	errorCodeInsert         = "insert"
	errorCodeList           = "list"
)

// Store implements authority.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the schema for SQLite deployments.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&WalletRow{}, &WalletTransactionRow{}, &LedgerSnapshotRow{})
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore authority.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

// GetOrCreateWallet returns the wallet row for userID, creating it with the
// default token conversion on first contact.
func (store *Store) GetOrCreateWallet(ctx context.Context, userID string) (authority.Wallet, error) {
	var row WalletRow
	err := store.db.WithContext(ctx).
		Where(WalletRow{UserID: userID}).
		Attrs(WalletRow{TokensPerCredit: authority.DefaultTokensPerCredit()}).
		FirstOrCreate(&row).Error
	if err != nil {
		return authority.Wallet{}, wrapStoreError(errorSubjectWallet, errorCodeLookup, err)
	}
	return authority.Wallet{
		WalletID:        row.WalletID,
		UserID:          row.UserID,
		BalanceCredits:  authority.Credits(row.BalanceCredits),
		TokensPerCredit: row.TokensPerCredit,
	}, nil
}

// UpdateBalance overwrites the wallet balance.
func (store *Store) UpdateBalance(ctx context.Context, walletID string, balance authority.Credits) error {
	result := store.db.WithContext(ctx).
		Model(&WalletRow{}).
		Where("wallet_id = ?", walletID).
		Update("balance_credits", int64(balance))
	if result.Error != nil {
		return wrapStoreError(errorSubjectWallet, errorCodeUpdate, result.Error)
	}
	return nil
}

// InsertTransaction appends one immutable transaction row.
func (store *Store) InsertTransaction(ctx context.Context, transaction authority.Transaction) error {
	row := WalletTransactionRow{
		TransactionID: transaction.TransactionID,
		WalletID:      transaction.WalletID,
		Type:          string(transaction.Type),
		Description:   transaction.Description,
		CreditsChange: transaction.CreditsChange,
		Metadata:      datatypesJSON(transaction.MetadataJSON),
		CreatedAt:     time.Unix(transaction.CreatedUnixUTC, 0).UTC(),
	}
	if transaction.CreatedUnixUTC == 0 {
		row.CreatedAt = time.Now().UTC()
	}
	if err := store.db.WithContext(ctx).Create(&row).Error; err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeInsert, err)
	}
	return nil
}

// ListTransactions returns up to limit rows for walletID, newest first.
func (store *Store) ListTransactions(ctx context.Context, walletID string, limit int) ([]authority.Transaction, error) {
	var rows []WalletTransactionRow
	err := store.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectTransaction, errorCodeList, err)
	}
	transactions := make([]authority.Transaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, authority.Transaction{
			TransactionID:  row.TransactionID,
			WalletID:       row.WalletID,
			Type:           authority.TransactionType(row.Type),
			Description:    row.Description,
			CreditsChange:  row.CreditsChange,
			MetadataJSON:   string(row.Metadata),
			CreatedUnixUTC: row.CreatedAt.Unix(),
		})
	}
	return transactions, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return wallet.WrapError("store", subject, code, err)
}

func datatypesJSON(raw string) datatypes.JSON {
	if raw == "" {
		return datatypes.JSON([]byte(defaultMetadataJSON))
	}
	return datatypes.JSON([]byte(raw))
}
