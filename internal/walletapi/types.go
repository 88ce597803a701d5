package walletapi

import "encoding/json"

// BalanceEnvelope is returned by the balance endpoint.
type BalanceEnvelope struct {
	BalanceCredits  int64 `json:"balance_credits"`
	TokensPerCredit int64 `json:"tokens_per_credit"`
}

// TransactionsEnvelope wraps the transaction history endpoint payload.
type TransactionsEnvelope struct {
	Transactions []TransactionPayload `json:"transactions"`
}

// TransactionPayload mirrors the wallet transaction contract for consumers.
type TransactionPayload struct {
	TransactionID  string          `json:"transaction_id"`
	Type           string          `json:"type"`
	Description    string          `json:"description"`
	CreditsChange  int64           `json:"credits_change"`
	Metadata       json.RawMessage `json:"metadata"`
	CreatedUnixUTC int64           `json:"created_unix_utc"`
}

// MutationRequest is the body of the spend and topup endpoints.
type MutationRequest struct {
	Credits     int64  `json:"credits"`
	Description string `json:"description"`
}

// MutationEnvelope includes the outcome plus the updated balance.
type MutationEnvelope struct {
	Status  string          `json:"status"`
	Balance BalanceEnvelope `json:"balance"`
}

// ErrorEnvelope encodes API errors.
type ErrorEnvelope struct {
	Error ErrorPayload `json:"error"`
}

// ErrorPayload contains the code and message for user-visible errors.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
