package authority

import "context"

// Credits is an integer count of spendable credits.
type Credits int64

// TransactionType enumerates wallet transaction kinds.
type TransactionType string

const (
	TransactionSpend TransactionType = "spend"
	TransactionTopUp TransactionType = "topup"
	TransactionGrant TransactionType = "grant"
)

// Wallet is one user's server-side wallet row.
type Wallet struct {
	WalletID        string
	UserID          string
	BalanceCredits  Credits
	TokensPerCredit int64
}

// Transaction is a single immutable wallet mutation record.
type Transaction struct {
	TransactionID  string
	WalletID       string
	Type           TransactionType
	Description    string
	CreditsChange  int64
	MetadataJSON   string
	CreatedUnixUTC int64
}

// Balance is the view served to wallet consumers.
type Balance struct {
	BalanceCredits  Credits
	TokensPerCredit int64
}

// Store is the persistence contract used by Service.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error
	GetOrCreateWallet(ctx context.Context, userID string) (Wallet, error)
	UpdateBalance(ctx context.Context, walletID string, balance Credits) error
	InsertTransaction(ctx context.Context, transaction Transaction) error
	ListTransactions(ctx context.Context, walletID string, limit int) ([]Transaction, error)
}
