// Package memory provides an in-process TransactionRepository used by tests
// and local development. It enforces the same version compare-and-swap
// semantics as the postgres store.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/emberfin/anchor-engine/internal/domain/model"
	"github.com/emberfin/anchor-engine/internal/store"
)

type Store struct {
	mu   sync.Mutex
	txns map[string]*model.Transaction
}

func New() *Store {
	return &Store{txns: make(map[string]*model.Transaction)}
}

func (s *Store) Get(_ context.Context, id string) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.txns[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(txn)
}

func (s *Store) Create(_ context.Context, txn *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.txns[txn.ID]; exists {
		return fmt.Errorf("transaction %s already exists", txn.ID)
	}
	txn.Version = 1
	stored, err := clone(txn)
	if err != nil {
		return err
	}
	s.txns[txn.ID] = stored
	return nil
}

func (s *Store) Save(_ context.Context, txn *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.txns[txn.ID]
	if !ok || current.Version != txn.Version {
		return store.ErrVersionConflict
	}

	txn.Version++
	txn.UpdatedAt = time.Now().UTC()
	stored, err := clone(txn)
	if err != nil {
		txn.Version--
		return err
	}
	s.txns[txn.ID] = stored
	return nil
}

// clone deep-copies via JSON so callers never alias stored state.
func clone(txn *model.Transaction) (*model.Transaction, error) {
	raw, err := json.Marshal(txn)
	if err != nil {
		return nil, fmt.Errorf("clone transaction: %w", err)
	}
	var out model.Transaction
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("clone transaction: %w", err)
	}
	out.Version = txn.Version
	return &out, nil
}
