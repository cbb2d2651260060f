package store

import (
	"context"
	"errors"

	"github.com/emberfin/anchor-engine/internal/domain/model"
)

// ErrNotFound is returned when no transaction exists for the given id.
var ErrNotFound = errors.New("transaction not found")

// ErrVersionConflict is returned when a save loses the optimistic-concurrency
// race; the caller may retry the whole action from a fresh load.
var ErrVersionConflict = errors.New("transaction version conflict")

// TransactionRepository provides durable access to transaction records.
// Implementations must serialize concurrent saves on the same id: Save
// compares the record's version against the stored row and fails with
// ErrVersionConflict on a mismatch, bumping the version on success.
type TransactionRepository interface {
	Get(ctx context.Context, id string) (*model.Transaction, error)
	Create(ctx context.Context, txn *model.Transaction) error
	Save(ctx context.Context, txn *model.Transaction) error
}
