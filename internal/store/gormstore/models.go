package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WalletRow represents the wallets table.
type WalletRow struct {
	WalletID        string    `gorm:"type:uuid;primaryKey"`
	UserID          string    `gorm:"not null;uniqueIndex:uniq_wallets_user"`
	BalanceCredits  int64     `gorm:"not null"`
	TokensPerCredit int64     `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (WalletRow) TableName() string { return "wallets" }

func (wallet *WalletRow) BeforeCreate(tx *gorm.DB) error {
	if wallet.WalletID == "" {
		wallet.WalletID = uuid.NewString()
	}
	return nil
}

// WalletTransactionRow mirrors the wallet_transactions table.
type WalletTransactionRow struct {
	TransactionID string         `gorm:"type:uuid;primaryKey"`
	WalletID      string         `gorm:"type:uuid;not null;index:idx_wallet_txns_wallet_created,priority:1"`
	Type          string         `gorm:"not null"`
	Description   string         `gorm:"not null"`
	CreditsChange int64          `gorm:"not null"`
	Metadata      datatypes.JSON `gorm:"not null"`
	CreatedAt     time.Time      `gorm:"not null;index:idx_wallet_txns_wallet_created,priority:2"`
}

func (WalletTransactionRow) TableName() string { return "wallet_transactions" }

func (transaction *WalletTransactionRow) BeforeCreate(tx *gorm.DB) error {
	if transaction.TransactionID == "" {
		transaction.TransactionID = uuid.NewString()
	}
	return nil
}

// LedgerSnapshotRow holds the local ledger's single durable record; one row
// per key, overwritten wholesale on every save.
type LedgerSnapshotRow struct {
	SnapshotKey string         `gorm:"primaryKey"`
	Payload     datatypes.JSON `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null"`
}

func (LedgerSnapshotRow) TableName() string { return "ledger_snapshots" }
