// Package localledger simulates a credit wallet entirely on this machine: a
// balance, a selected mode, and a newest-first transaction log, re-serialized
// in full to durable storage after every mutation. It never talks to the
// network or the invalidation bus.
package localledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StateStore is the durable single-record persistence contract. Load reports
// found=false when nothing was ever saved; Save overwrites the whole record.
type StateStore interface {
	Load(ctx context.Context) (payload []byte, found bool, err error)
	Save(ctx context.Context, payload []byte) error
	Erase(ctx context.Context) error
}

// RecoveryLogger is notified when persisted state cannot be used and the
// ledger falls back to defaults. Recovery is silent toward callers.
type RecoveryLogger interface {
	LogRecovery(reason string, err error)
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the transaction timestamp source.
func WithClock(now func() int64) Option {
	return func(store *Store) {
		store.nowFn = now
	}
}

// WithIDGenerator overrides transaction id generation.
func WithIDGenerator(nextID func() string) Option {
	return func(store *Store) {
		store.idFn = nextID
	}
}

// WithRecoveryLogger wires a logger for corrupt-state recoveries.
func WithRecoveryLogger(logger RecoveryLogger) Option {
	return func(store *Store) {
		store.recovery = logger
	}
}

// Store owns the simulated wallet state. All mutations are serialized through
// one mutex; two calls issued back to back are applied in order, each reading
// the balance the previous one left behind.
type Store struct {
	stateStore StateStore
	nowFn      func() int64
	idFn       func() string
	recovery   RecoveryLogger

	mutex sync.Mutex
	state State
}

// New hydrates a Store from persisted state, falling back to the fixed
// defaults when no record exists or the record cannot be parsed.
func New(ctx context.Context, stateStore StateStore, options ...Option) (*Store, error) {
	if stateStore == nil {
		return nil, fmt.Errorf("%w: state store dependency is nil", ErrInvalidStoreConfig)
	}
	store := &Store{
		stateStore: stateStore,
		nowFn:      func() int64 { return time.Now().UTC().Unix() },
		idFn:       uuid.NewString,
	}
	for _, option := range options {
		if option != nil {
			option(store)
		}
	}
	store.state = store.hydrate(ctx)
	return store, nil
}

func (store *Store) hydrate(ctx context.Context) State {
	payload, found, err := store.stateStore.Load(ctx)
	if err != nil {
		store.logRecovery("load_failed", err)
		return defaultState()
	}
	if !found {
		return defaultState()
	}
	var persisted persistedState
	if err := json.Unmarshal(payload, &persisted); err != nil {
		store.logRecovery("unparsable_record", err)
		return defaultState()
	}
	mode, err := ParseMode(persisted.Mode)
	if err != nil {
		store.logRecovery("invalid_mode", err)
		return defaultState()
	}
	if persisted.Credits < 0 {
		store.logRecovery("negative_credits", fmt.Errorf("%w: %d", ErrInvalidAmount, persisted.Credits))
		return defaultState()
	}
	transactions := persisted.Txns
	if transactions == nil {
		transactions = []Transaction{}
	}
	return State{
		CreditsRemaining: persisted.Credits,
		SelectedMode:     mode,
		Transactions:     transactions,
	}
}

// DeductCredits subtracts amount and prepends a usage transaction. A deduction
// that would push the balance negative is rejected in full: no partial
// subtraction, no transaction record, accepted=false. The error return carries
// persistence failures only.
func (store *Store) DeductCredits(ctx context.Context, amount int64, description string) (accepted bool, err error) {
	if amount <= 0 {
		return false, fmt.Errorf("%w: deduction must be greater than zero", ErrInvalidAmount)
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if amount > store.state.CreditsRemaining {
		return false, nil
	}
	store.state.CreditsRemaining -= amount
	store.prependTransaction(Transaction{
		TransactionID:  store.idFn(),
		Kind:           KindUsage,
		Description:    description,
		Amount:         decimal.Zero,
		CreditsChange:  -amount,
		CreatedUnixUTC: store.nowFn(),
		Mode:           store.state.SelectedMode,
	})
	return true, store.persist(ctx)
}

// AddCredits converts a non-negative currency amount into credits at the
// fixed exchange rate, floored, adds them to the balance, and prepends a
// transaction of the given kind (purchase, bonus, or refund).
func (store *Store) AddCredits(ctx context.Context, currencyAmount decimal.Decimal, description string, kind TransactionKind) error {
	if currencyAmount.IsNegative() {
		return fmt.Errorf("%w: currency amount must not be negative", ErrInvalidAmount)
	}
	parsedKind, err := ParseCreditKind(string(kind))
	if err != nil {
		return err
	}
	creditsGained := currencyAmount.Mul(decimal.NewFromInt(creditsPerCurrencyUnit)).IntPart()
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.state.CreditsRemaining += creditsGained
	store.prependTransaction(Transaction{
		TransactionID:  store.idFn(),
		Kind:           parsedKind,
		Description:    description,
		Amount:         currencyAmount,
		CreditsChange:  creditsGained,
		CreatedUnixUTC: store.nowFn(),
		Mode:           store.state.SelectedMode,
	})
	return store.persist(ctx)
}

// SetMode switches the selected mode and persists the change.
func (store *Store) SetMode(ctx context.Context, mode Mode) error {
	parsed, err := ParseMode(string(mode))
	if err != nil {
		return err
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.state.SelectedMode = parsed
	return store.persist(ctx)
}

// ModeMultiplier returns the consumption factor of the selected mode. Pure
// lookup, no side effect.
func (store *Store) ModeMultiplier() int64 {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.state.SelectedMode.Multiplier()
}

// ResetCredits restores the fixed defaults, empties the transaction log, and
// erases the persisted record.
func (store *Store) ResetCredits(ctx context.Context) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.state = defaultState()
	return store.stateStore.Erase(ctx)
}

// CreditsRemaining returns the current balance.
func (store *Store) CreditsRemaining() int64 {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.state.CreditsRemaining
}

// Mode returns the selected mode.
func (store *Store) Mode() Mode {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.state.SelectedMode
}

// Transactions returns a copy of the log, newest first.
func (store *Store) Transactions() []Transaction {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	transactions := make([]Transaction, len(store.state.Transactions))
	copy(transactions, store.state.Transactions)
	return transactions
}

// prependTransaction keeps the log newest first. Callers hold the mutex.
func (store *Store) prependTransaction(transaction Transaction) {
	store.state.Transactions = append([]Transaction{transaction}, store.state.Transactions...)
}

// persist re-serializes the whole state. Callers hold the mutex.
func (store *Store) persist(ctx context.Context) error {
	payload, err := json.Marshal(persistedState{
		Credits: store.state.CreditsRemaining,
		Mode:    string(store.state.SelectedMode),
		Txns:    store.state.Transactions,
	})
	if err != nil {
		return fmt.Errorf("serialize ledger state: %w", err)
	}
	return store.stateStore.Save(ctx, payload)
}

func (store *Store) logRecovery(reason string, err error) {
	if store.recovery == nil {
		return
	}
	store.recovery.LogRecovery(reason, err)
}
