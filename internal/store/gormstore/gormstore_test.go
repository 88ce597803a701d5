package gormstore

import (
	"bytes"
	"context"
	"testing"

	"github.com/MarkoPoloResearchLab/walletsync/internal/authority"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const testUserID = "user-1"

func newTestDB(test *testing.T) *gorm.DB {
	test.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		test.Fatalf("open sqlite failed: %v", err)
	}
	if err := Migrate(db); err != nil {
		test.Fatalf("migrate failed: %v", err)
	}
	return db
}

func TestGetOrCreateWalletIsStable(test *testing.T) {
	test.Parallel()
	store := New(newTestDB(test))
	ctx := context.Background()

	first, err := store.GetOrCreateWallet(ctx, testUserID)
	if err != nil {
		test.Fatalf("create failed: %v", err)
	}
	if first.TokensPerCredit != authority.DefaultTokensPerCredit() {
		test.Fatalf("expected default token conversion, got %d", first.TokensPerCredit)
	}
	second, err := store.GetOrCreateWallet(ctx, testUserID)
	if err != nil {
		test.Fatalf("lookup failed: %v", err)
	}
	if first.WalletID != second.WalletID {
		test.Fatalf("expected stable wallet id, got %s then %s", first.WalletID, second.WalletID)
	}
}

func TestBalanceUpdateAndTransactionList(test *testing.T) {
	test.Parallel()
	store := New(newTestDB(test))
	ctx := context.Background()

	walletRecord, err := store.GetOrCreateWallet(ctx, testUserID)
	if err != nil {
		test.Fatalf("create failed: %v", err)
	}
	if err := store.UpdateBalance(ctx, walletRecord.WalletID, 800); err != nil {
		test.Fatalf("update failed: %v", err)
	}
	inserts := []authority.Transaction{
		{WalletID: walletRecord.WalletID, Type: authority.TransactionTopUp, Description: "first", CreditsChange: 1000, CreatedUnixUTC: 100},
		{WalletID: walletRecord.WalletID, Type: authority.TransactionSpend, Description: "second", CreditsChange: -200, CreatedUnixUTC: 200},
	}
	for _, transaction := range inserts {
		if err := store.InsertTransaction(ctx, transaction); err != nil {
			test.Fatalf("insert failed: %v", err)
		}
	}

	reloaded, err := store.GetOrCreateWallet(ctx, testUserID)
	if err != nil {
		test.Fatalf("reload failed: %v", err)
	}
	if reloaded.BalanceCredits != 800 {
		test.Fatalf("expected 800 credits, got %d", reloaded.BalanceCredits)
	}
	transactions, err := store.ListTransactions(ctx, walletRecord.WalletID, 10)
	if err != nil {
		test.Fatalf("list failed: %v", err)
	}
	if len(transactions) != 2 {
		test.Fatalf("expected 2 transactions, got %d", len(transactions))
	}
	if transactions[0].Description != "second" || transactions[1].Description != "first" {
		test.Fatalf("expected newest-first order, got %+v", transactions)
	}
}

func TestWithTxRollsBackOnError(test *testing.T) {
	test.Parallel()
	store := New(newTestDB(test))
	ctx := context.Background()

	walletRecord, err := store.GetOrCreateWallet(ctx, testUserID)
	if err != nil {
		test.Fatalf("create failed: %v", err)
	}
	txError := authority.ErrInsufficientCredits
	err = store.WithTx(ctx, func(ctx context.Context, txStore authority.Store) error {
		if err := txStore.UpdateBalance(ctx, walletRecord.WalletID, 999); err != nil {
			return err
		}
		return txError
	})
	if err == nil {
		test.Fatal("expected transaction error")
	}
	reloaded, err := store.GetOrCreateWallet(ctx, testUserID)
	if err != nil {
		test.Fatalf("reload failed: %v", err)
	}
	if reloaded.BalanceCredits != 0 {
		test.Fatalf("expected rolled-back balance 0, got %d", reloaded.BalanceCredits)
	}
}

func TestSnapshotStoreRoundTrip(test *testing.T) {
	test.Parallel()
	store := NewSnapshotStore(newTestDB(test))
	ctx := context.Background()

	if _, found, err := store.Load(ctx); err != nil || found {
		test.Fatalf("expected empty store, got found=%v err=%v", found, err)
	}
	first := []byte(`{"credits":100,"mode":"Normal","txns":[]}`)
	if err := store.Save(ctx, first); err != nil {
		test.Fatalf("save failed: %v", err)
	}
	second := []byte(`{"credits":50,"mode":"Pro","txns":[]}`)
	if err := store.Save(ctx, second); err != nil {
		test.Fatalf("overwrite failed: %v", err)
	}
	payload, found, err := store.Load(ctx)
	if err != nil || !found {
		test.Fatalf("expected record, got found=%v err=%v", found, err)
	}
	if !bytes.Equal(payload, second) {
		test.Fatalf("expected whole-record overwrite, got %s", payload)
	}
	if err := store.Erase(ctx); err != nil {
		test.Fatalf("erase failed: %v", err)
	}
	if _, found, _ := store.Load(ctx); found {
		test.Fatal("expected record gone after erase")
	}
}
