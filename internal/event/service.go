// Package event defines the transition events the action engine produces and
// the queue abstraction they are published through. Delivery is at-least-once
// with explicit acknowledgement; the engine only produces events, it never
// consumes its own queue.
package event

import (
	"context"

	"github.com/google/uuid"

	"github.com/emberfin/anchor-engine/internal/domain/model"
)

// Type discriminates event payloads on the queue.
type Type string

const (
	TypeTransactionStatusChanged Type = "transaction_status_changed"
)

// Queue names a logical event queue.
type Queue string

const (
	// QueueTransaction carries transaction lifecycle events for the anchor.
	QueueTransaction Queue = "transaction"
	// QueueControl carries control-plane events.
	QueueControl Queue = "control"
)

// TransactionEvent carries the updated transaction snapshot emitted after an
// action commits.
type TransactionEvent struct {
	ID          string             `json:"id"`
	Type        Type               `json:"type"`
	Protocol    model.Protocol     `json:"sep"`
	Transaction *model.Transaction `json:"transaction"`
}

// NewTransactionStatusChanged builds a status-change event for txn with a
// fresh event id.
func NewTransactionStatusChanged(txn *model.Transaction) TransactionEvent {
	return TransactionEvent{
		ID:          uuid.NewString(),
		Type:        TypeTransactionStatusChanged,
		Protocol:    txn.Protocol,
		Transaction: txn,
	}
}

// Publisher is the narrow producer interface the orchestrator depends on.
type Publisher interface {
	Publish(ctx context.Context, queue Queue, ev TransactionEvent) error
}

// ReadResponse is a batch of events read from a queue, acknowledged as a
// unit after successful processing.
type ReadResponse struct {
	Events []TransactionEvent
	// IDs are backend delivery tags for acknowledgement.
	IDs []string
}

// Session is a consumer-side handle on one queue.
type Session interface {
	Publish(ctx context.Context, ev TransactionEvent) error
	Read(ctx context.Context) (*ReadResponse, error)
	Ack(ctx context.Context, resp *ReadResponse) error
	Close() error
}

// Service creates sessions and publishes events.
type Service interface {
	Publisher
	CreateSession(ctx context.Context, queue Queue) (Session, error)
}
