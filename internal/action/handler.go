package action

import (
	"context"
	"fmt"

	"github.com/emberfin/anchor-engine/internal/domain/model"
)

// Handler is the contract every action type implements. Implementations are
// pure with respect to collaborators except for UpdateTransaction, which
// mutates the passed transaction in place; the orchestrator owns persistence
// and event emission.
type Handler interface {
	// ActionType returns the action identifier this handler serves.
	ActionType() model.ActionType

	// SupportedProtocols lists the protocol families this action applies
	// to. An empty list means the action applies to all protocols and the
	// protocol gate is delegated to SupportedStatuses.
	SupportedProtocols() []model.Protocol

	// SupportedStatuses computes the set of current statuses from which
	// this action is legal for the given transaction. An empty set means
	// the action is illegal for this record regardless of status.
	SupportedStatuses(txn *model.Transaction) []model.Status

	// NewRequest returns a zero value of the handler's request shape for
	// the orchestrator to decode into.
	NewRequest() Request

	// UpdateTransaction applies the request's field updates to txn. It
	// must validate before mutating; a returned error guarantees txn is
	// unchanged as far as persistence is concerned.
	UpdateTransaction(ctx context.Context, txn *model.Transaction, req Request) error

	// NextStatus computes the status to assign after UpdateTransaction has
	// run. It may depend on post-update state such as refund totals.
	NextStatus(txn *model.Transaction, req Request) (model.Status, error)
}

// CustodyTrigger is implemented by handlers whose transitions provision a
// custody record. The orchestrator fires the custody call at most once per
// transition, and only when custody integration is enabled.
type CustodyTrigger interface {
	NeedsCustody(txn *model.Transaction) bool
}

// Registry is the static action-id to handler lookup table, read-only after
// startup.
type Registry map[model.ActionType]Handler

// NewRegistry builds a registry from the given handlers, rejecting duplicate
// action identifiers.
func NewRegistry(handlers ...Handler) (Registry, error) {
	r := make(Registry, len(handlers))
	for _, h := range handlers {
		if _, exists := r[h.ActionType()]; exists {
			return nil, fmt.Errorf("duplicate handler for action[%s]", h.ActionType())
		}
		r[h.ActionType()] = h
	}
	return r, nil
}
