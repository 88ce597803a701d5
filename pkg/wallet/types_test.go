package wallet

import (
	"errors"
	"testing"
	"time"
)

func TestNewBalanceSnapshot(test *testing.T) {
	test.Parallel()
	cases := []struct {
		name            string
		balanceCredits  int64
		tokensPerCredit int64
		wantErr         error
	}{
		{name: "valid", balanceCredits: 6050, tokensPerCredit: 1000},
		{name: "zero balance allowed", balanceCredits: 0, tokensPerCredit: 1},
		{name: "negative balance", balanceCredits: -1, tokensPerCredit: 1000, wantErr: ErrInvalidSnapshot},
		{name: "zero tokens per credit", balanceCredits: 10, tokensPerCredit: 0, wantErr: ErrInvalidSnapshot},
	}
	for _, testCase := range cases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			snapshot, err := NewBalanceSnapshot(testCase.balanceCredits, testCase.tokensPerCredit, time.Unix(100, 0))
			if testCase.wantErr != nil {
				if !errors.Is(err, testCase.wantErr) {
					test.Fatalf("expected %v, got %v", testCase.wantErr, err)
				}
				return
			}
			if err != nil {
				test.Fatalf("unexpected error: %v", err)
			}
			if snapshot.BalanceCredits != testCase.balanceCredits {
				test.Fatalf("expected %d credits, got %d", testCase.balanceCredits, snapshot.BalanceCredits)
			}
		})
	}
}

func TestCacheStateStaleness(test *testing.T) {
	test.Parallel()
	now := time.Unix(1_000_000, 0)
	fresh := CacheState[BalanceSnapshot]{LastFetchAt: now.Add(-time.Second)}
	if fresh.Stale(now) {
		test.Fatal("expected recent state to be fresh")
	}
	old := CacheState[BalanceSnapshot]{LastFetchAt: now.Add(-snapshotStaleAfter - time.Second)}
	if !old.Stale(now) {
		test.Fatal("expected old state to be stale")
	}
	var never CacheState[BalanceSnapshot]
	if !never.Stale(now) {
		test.Fatal("expected never-fetched state to be stale")
	}
}

func TestWrapErrorPreservesChain(test *testing.T) {
	test.Parallel()
	wrapped := WrapError("client", "balance", "fetch", ErrFetchFailed)
	if !errors.Is(wrapped, ErrFetchFailed) {
		test.Fatalf("expected chain to reach ErrFetchFailed, got %v", wrapped)
	}
	var operationError OperationError
	if !errors.As(wrapped, &operationError) {
		test.Fatalf("expected OperationError, got %T", wrapped)
	}
	if operationError.Operation() != "client" || operationError.Subject() != "balance" || operationError.Code() != "fetch" {
		test.Fatalf("unexpected segments: %+v", operationError)
	}
	if WrapError("client", "balance", "fetch", nil) != nil {
		test.Fatal("expected nil passthrough for nil error")
	}
}
