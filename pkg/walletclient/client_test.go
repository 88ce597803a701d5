package walletclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MarkoPoloResearchLab/walletsync/pkg/wallet"
)

const testBearerToken = "test-token"

func TestFetchBalanceDecodesPayload(test *testing.T) {
	test.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/api/wallet/balance" {
			test.Errorf("unexpected path %s", request.URL.Path)
		}
		if request.Header.Get("Authorization") != "Bearer "+testBearerToken {
			test.Errorf("missing bearer token")
		}
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"balance_credits":6050,"tokens_per_credit":1000}`))
	}))
	defer server.Close()

	client, err := New(server.URL, WithBearerToken(testBearerToken))
	if err != nil {
		test.Fatalf("client init failed: %v", err)
	}
	snapshot, err := client.FetchBalance(context.Background())
	if err != nil {
		test.Fatalf("fetch failed: %v", err)
	}
	if snapshot.BalanceCredits != 6050 || snapshot.TokensPerCredit != 1000 {
		test.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if snapshot.FetchedAt.IsZero() {
		test.Fatal("expected fetched-at timestamp")
	}
}

func TestFetchTransactionsPassesLimitAndOrder(test *testing.T) {
	test.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if got := request.URL.Query().Get("limit"); got != "5" {
			test.Errorf("expected limit 5, got %q", got)
		}
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"transactions":[
			{"transaction_id":"t2","type":"spend","credits_change":-50,"created_unix_utc":200},
			{"transaction_id":"t1","type":"topup","credits_change":100,"created_unix_utc":100}
		]}`))
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		test.Fatalf("client init failed: %v", err)
	}
	records, err := client.FetchTransactions(context.Background(), 5)
	if err != nil {
		test.Fatalf("fetch failed: %v", err)
	}
	if len(records) != 2 {
		test.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].TransactionID != "t2" || records[1].TransactionID != "t1" {
		test.Fatalf("expected server order preserved, got %+v", records)
	}
}

func TestFetchClassifiesErrors(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name        string
		status      int
		body        string
		wantErr     error
		wantMessage string
	}{
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"code":"unauthorized","message":"session expired"}}`,
			wantErr: wallet.ErrUnauthorized,
		},
		{
			name:    "forbidden",
			status:  http.StatusForbidden,
			body:    ``,
			wantErr: wallet.ErrUnauthorized,
		},
		{
			name:        "server error with message",
			status:      http.StatusInternalServerError,
			body:        `{"error":{"code":"storage","message":"wallet lookup failed"}}`,
			wantErr:     wallet.ErrFetchFailed,
			wantMessage: "wallet lookup failed",
		},
		{
			name:        "server error without message",
			status:      http.StatusBadGateway,
			body:        `upstream exploded`,
			wantErr:     wallet.ErrFetchFailed,
			wantMessage: "request failed",
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				writer.WriteHeader(testCase.status)
				_, _ = writer.Write([]byte(testCase.body))
			}))
			defer server.Close()

			client, err := New(server.URL)
			if err != nil {
				test.Fatalf("client init failed: %v", err)
			}
			_, err = client.FetchBalance(context.Background())
			if !errors.Is(err, testCase.wantErr) {
				test.Fatalf("expected %v, got %v", testCase.wantErr, err)
			}
			if testCase.wantMessage != "" && !strings.Contains(err.Error(), testCase.wantMessage) {
				test.Fatalf("expected message %q in %v", testCase.wantMessage, err)
			}
		})
	}
}

func TestFetchBalanceRejectsInvalidPayload(test *testing.T) {
	test.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		payload := map[string]int64{"balance_credits": -5, "tokens_per_credit": 1000}
		_ = json.NewEncoder(writer).Encode(payload)
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		test.Fatalf("client init failed: %v", err)
	}
	_, err = client.FetchBalance(context.Background())
	if !errors.Is(err, wallet.ErrInvalidSnapshot) {
		test.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
}

func TestNewRequiresBaseURL(test *testing.T) {
	test.Parallel()
	if _, err := New("   "); err == nil {
		test.Fatal("expected error for empty base url")
	}
}
