// Package memstore keeps the ledger's single durable record in memory. It is
// the default wiring for tests and for runs without a database.
package memstore

import (
	"context"
	"sync"
)

// Store implements localledger.StateStore with an in-memory record.
type Store struct {
	mutex   sync.Mutex
	payload []byte
	exists  bool
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Seed returns a Store pre-populated with payload, as if a previous run had
// saved it.
func Seed(payload []byte) *Store {
	store := New()
	store.payload = append([]byte(nil), payload...)
	store.exists = true
	return store
}

// Load returns the saved record, if any.
func (store *Store) Load(_ context.Context) ([]byte, bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if !store.exists {
		return nil, false, nil
	}
	return append([]byte(nil), store.payload...), true, nil
}

// Save overwrites the record.
func (store *Store) Save(_ context.Context, payload []byte) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.payload = append([]byte(nil), payload...)
	store.exists = true
	return nil
}

// Erase removes the record.
func (store *Store) Erase(_ context.Context) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.payload = nil
	store.exists = false
	return nil
}
