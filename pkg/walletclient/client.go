// Package walletclient talks to the wallet HTTP endpoints and adapts their
// payloads into cache fetch functions.
package walletclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/walletsync/pkg/wallet"
)

const (
	balancePath      = "/api/wallet/balance"
	transactionsPath = "/api/wallet/transactions"

	queryParamLimit = "limit"

	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "

	defaultTimeout          = 10 * time.Second
	defaultTransactionLimit = 20

	errorOperationClient     = "client"
	errorSubjectBalance      = "balance"
	errorSubjectTransactions = "transactions"
	errorCodeRequest         = "request"
	errorCodeFetch           = "fetch"
	errorCodeDecode          = "decode"
	errorCodeUnauthorized    = "unauthorized"

	genericFetchMessage = "request failed"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		client.httpClient = httpClient
	}
}

// WithBearerToken attaches a bearer token to every request.
func WithBearerToken(token string) Option {
	return func(client *Client) {
		client.token = token
	}
}

// Client fetches wallet state from the remote authority.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	nowFn      func() time.Time
}

// New validates the base URL and wires a Client.
func New(baseURL string, options ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		nowFn:      time.Now,
	}
	for _, option := range options {
		if option != nil {
			option(client)
		}
	}
	return client, nil
}

type balancePayload struct {
	BalanceCredits  int64 `json:"balance_credits"`
	TokensPerCredit int64 `json:"tokens_per_credit"`
}

type transactionsPayload struct {
	Transactions []wallet.TransactionRecord `json:"transactions"`
}

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FetchBalance retrieves the current balance snapshot.
func (client *Client) FetchBalance(ctx context.Context) (wallet.BalanceSnapshot, error) {
	var payload balancePayload
	if err := client.getJSON(ctx, balancePath, nil, errorSubjectBalance, &payload); err != nil {
		return wallet.BalanceSnapshot{}, err
	}
	snapshot, err := wallet.NewBalanceSnapshot(payload.BalanceCredits, payload.TokensPerCredit, client.nowFn())
	if err != nil {
		return wallet.BalanceSnapshot{}, wallet.WrapError(errorOperationClient, errorSubjectBalance, errorCodeDecode, err)
	}
	return snapshot, nil
}

// FetchTransactions retrieves up to limit transactions, newest first, exactly
// as the server reported them.
func (client *Client) FetchTransactions(ctx context.Context, limit int) ([]wallet.TransactionRecord, error) {
	if limit <= 0 {
		limit = defaultTransactionLimit
	}
	query := url.Values{queryParamLimit: []string{strconv.Itoa(limit)}}
	var payload transactionsPayload
	if err := client.getJSON(ctx, transactionsPath, query, errorSubjectTransactions, &payload); err != nil {
		return nil, err
	}
	return payload.Transactions, nil
}

// BalanceFetch adapts FetchBalance for cache wiring.
func (client *Client) BalanceFetch() wallet.FetchFunc[wallet.BalanceSnapshot] {
	return client.FetchBalance
}

// TransactionsFetch adapts FetchTransactions for cache wiring with a fixed
// result limit.
func (client *Client) TransactionsFetch(limit int) wallet.FetchFunc[[]wallet.TransactionRecord] {
	return func(ctx context.Context) ([]wallet.TransactionRecord, error) {
		return client.FetchTransactions(ctx, limit)
	}
}

func (client *Client) getJSON(ctx context.Context, path string, query url.Values, subject string, target any) error {
	requestURL := client.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return wallet.WrapError(errorOperationClient, subject, errorCodeRequest, err)
	}
	if client.token != "" {
		request.Header.Set(headerAuthorization, bearerPrefix+client.token)
	}
	response, err := client.httpClient.Do(request)
	if err != nil {
		return wallet.WrapError(errorOperationClient, subject, errorCodeFetch,
			fmt.Errorf("%w: %v", wallet.ErrFetchFailed, err))
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden {
		return wallet.WrapError(errorOperationClient, subject, errorCodeUnauthorized, wallet.ErrUnauthorized)
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return wallet.WrapError(errorOperationClient, subject, errorCodeFetch,
			fmt.Errorf("%w: %s", wallet.ErrFetchFailed, readErrorMessage(response)))
	}
	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return wallet.WrapError(errorOperationClient, subject, errorCodeDecode,
			fmt.Errorf("%w: %v", wallet.ErrFetchFailed, err))
	}
	return nil
}

// readErrorMessage surfaces the server's message when one is decodable and
// falls back to a generic one otherwise.
func readErrorMessage(response *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(response.Body, 4096))
	if err != nil || len(body) == 0 {
		return genericFetchMessage
	}
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return genericFetchMessage
}
