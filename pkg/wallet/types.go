package wallet

import (
	"encoding/json"
	"fmt"
	"time"
)

// BalanceSnapshot is the remote authority's view of a wallet at one instant.
// Snapshots are immutable once fetched; a later fetch replaces the whole value.
type BalanceSnapshot struct {
	BalanceCredits  int64     `json:"balance_credits"`
	TokensPerCredit int64     `json:"tokens_per_credit"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// NewBalanceSnapshot validates the remote payload fields.
func NewBalanceSnapshot(balanceCredits int64, tokensPerCredit int64, fetchedAt time.Time) (BalanceSnapshot, error) {
	if balanceCredits < 0 {
		return BalanceSnapshot{}, fmt.Errorf("%w: balance credits must not be negative", ErrInvalidSnapshot)
	}
	if tokensPerCredit <= 0 {
		return BalanceSnapshot{}, fmt.Errorf("%w: tokens per credit must be greater than zero", ErrInvalidSnapshot)
	}
	return BalanceSnapshot{
		BalanceCredits:  balanceCredits,
		TokensPerCredit: tokensPerCredit,
		FetchedAt:       fetchedAt,
	}, nil
}

// TransactionRecord is one server-reported wallet transaction. The cache layer
// stores records in the order the server returned them (newest first) and never
// inspects the metadata payload.
type TransactionRecord struct {
	TransactionID  string          `json:"transaction_id"`
	Type           string          `json:"type"`
	Description    string          `json:"description"`
	CreditsChange  int64           `json:"credits_change"`
	Metadata       json.RawMessage `json:"metadata"`
	CreatedUnixUTC int64           `json:"created_unix_utc"`
}

// CacheState is the consumer-visible view held by a cache instance. Data stays
// nil until the first successful fetch and keeps the previous value when a
// later fetch fails. A CacheState belongs to exactly one cache instance and is
// never persisted.
type CacheState[T any] struct {
	Data        *T
	Loading     bool
	Err         error
	LastFetchAt time.Time
}

// Stale reports whether the state is older than the freshness hint. It is a
// display aid only; the poll gate does not consult it.
func (state CacheState[T]) Stale(now time.Time) bool {
	if state.LastFetchAt.IsZero() {
		return true
	}
	return now.Sub(state.LastFetchAt) > snapshotStaleAfter
}
