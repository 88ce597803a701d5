package localledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Mode selects how aggressively credits are consumed by billed actions.
type Mode string

const (
	ModeNormal  Mode = "Normal"
	ModePro     Mode = "Pro"
	ModePremium Mode = "Premium"
)

// ParseMode validates and normalizes a persisted mode string.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.TrimSpace(raw)) {
	case ModeNormal:
		return ModeNormal, nil
	case ModePro:
		return ModePro, nil
	case ModePremium:
		return ModePremium, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
	}
}

// Multiplier returns the per-mode credit consumption factor.
func (mode Mode) Multiplier() int64 {
	switch mode {
	case ModePro:
		return 2
	case ModePremium:
		return 4
	default:
		return 1
	}
}

// TransactionKind enumerates local transaction kinds.
type TransactionKind string

const (
	KindUsage    TransactionKind = "usage"
	KindPurchase TransactionKind = "purchase"
	KindBonus    TransactionKind = "bonus"
	KindRefund   TransactionKind = "refund"
)

// ParseCreditKind validates a kind that adds credits. Usage is excluded; usage
// transactions only ever come out of a deduction.
func ParseCreditKind(raw string) (TransactionKind, error) {
	switch TransactionKind(strings.TrimSpace(raw)) {
	case KindPurchase:
		return KindPurchase, nil
	case KindBonus:
		return KindBonus, nil
	case KindRefund:
		return KindRefund, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, raw)
	}
}

// Transaction is one line in the local ledger. CreditsChange always equals the
// delta that was applied to the balance when the line was appended; Amount is
// the monetary side of a credit purchase and zero for usage.
type Transaction struct {
	TransactionID  string          `json:"id"`
	Kind           TransactionKind `json:"type"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	CreditsChange  int64           `json:"credits_change"`
	CreatedUnixUTC int64           `json:"timestamp"`
	Mode           Mode            `json:"mode"`
}

// State is the whole simulated wallet: balance, selected mode, and the
// transaction log ordered newest first.
type State struct {
	CreditsRemaining int64
	SelectedMode     Mode
	Transactions     []Transaction
}

const (
	defaultCredits = 50_000

	// One unit of currency buys this many credits; fractions floor away.
	creditsPerCurrencyUnit = 100
)

func defaultState() State {
	return State{
		CreditsRemaining: defaultCredits,
		SelectedMode:     ModeNormal,
		Transactions:     []Transaction{},
	}
}

// persistedState is the single durable record: the whole ledger serialized
// under one fixed key, overwritten wholesale on every mutation.
type persistedState struct {
	Credits int64         `json:"credits"`
	Mode    string        `json:"mode"`
	Txns    []Transaction `json:"txns"`
}
