package action

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/emberfin/anchor-engine/internal/custody"
	"github.com/emberfin/anchor-engine/internal/domain/model"
	"github.com/emberfin/anchor-engine/internal/event"
	"github.com/emberfin/anchor-engine/internal/metrics"
	"github.com/emberfin/anchor-engine/internal/store"
	"github.com/emberfin/anchor-engine/internal/tracing"
)

// Orchestrator runs the action pipeline: resolve handler, load transaction,
// validate protocol and status, apply field updates, assign the next status,
// provision custody where the transition qualifies, persist, and emit the
// transition event. The orchestrator is stateless; concurrent executions on
// the same transaction id are serialized by the store's version check.
type Orchestrator struct {
	registry Registry
	repo     store.TransactionRepository
	logger   *slog.Logger

	custody        custody.Service
	custodyEnabled bool
	events         event.Publisher
	now            func() time.Time
}

type Option func(*Orchestrator)

// WithCustody enables custody provisioning through svc for qualifying
// transitions.
func WithCustody(svc custody.Service) Option {
	return func(o *Orchestrator) {
		o.custody = svc
		o.custodyEnabled = svc != nil
	}
}

// WithEventPublisher sets the queue the transition events are published to.
func WithEventPublisher(pub event.Publisher) Option {
	return func(o *Orchestrator) {
		o.events = pub
	}
}

// WithClock overrides the clock; tests use this for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func NewOrchestrator(registry Registry, repo store.TransactionRepository, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		repo:     repo,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Execute advances the transaction identified by txnID with the given action.
// All validation happens before any mutation is persisted; custody and event
// side effects fire at most once per accepted transition.
func (o *Orchestrator) Execute(ctx context.Context, actionType model.ActionType, txnID string, raw json.RawMessage) (*model.Transaction, error) {
	started := o.now()
	ctx, span := tracing.Tracer("action").Start(ctx, "orchestrator.execute",
		oteltrace.WithAttributes(
			attribute.String("action.type", string(actionType)),
			attribute.String("transaction.id", txnID),
		))
	defer span.End()

	txn, err := o.execute(ctx, actionType, txnID, raw)
	metrics.ActionDuration.WithLabelValues(string(actionType)).Observe(o.now().Sub(started).Seconds())
	if err != nil {
		metrics.ActionsTotal.WithLabelValues(string(actionType), string(CodeOf(err))).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, string(CodeOf(err)))
		return nil, err
	}

	metrics.ActionsTotal.WithLabelValues(string(actionType), "ok").Inc()
	metrics.TransitionsTotal.WithLabelValues(string(actionType), string(txn.Status)).Inc()
	return txn, nil
}

func (o *Orchestrator) execute(ctx context.Context, actionType model.ActionType, txnID string, raw json.RawMessage) (*model.Transaction, error) {
	handler, ok := o.registry[actionType]
	if !ok {
		return nil, NewNotFoundError("action[%s] is not found", actionType)
	}

	txn, err := o.repo.Get(ctx, txnID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NewNotFoundError("transaction not found[%s]", txnID)
		}
		return nil, NewInternalError(err, "load transaction[%s]", txnID)
	}

	req := handler.NewRequest()
	if err := decodeRequest(raw, req); err != nil {
		return nil, err
	}

	if protocols := handler.SupportedProtocols(); len(protocols) > 0 && !slices.Contains(protocols, txn.Protocol) {
		return nil, NewUnsupportedProtocolError("Protocol[%s] is not supported by action[%s]", txn.Protocol, actionType)
	}

	supported := handler.SupportedStatuses(txn)
	if !slices.Contains(supported, txn.Status) {
		return nil, NewInvalidStateError("Action[%s] is not supported for status[%s], supported statuses[%s]",
			actionType, txn.Status, joinStatuses(supported))
	}

	if err := handler.UpdateTransaction(ctx, txn, req); err != nil {
		return nil, err
	}

	next, err := handler.NextStatus(txn, req)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(model.AllStatuses(), next) {
		return nil, NewInternalError(nil, "handler for action[%s] produced unknown status[%s]", actionType, next)
	}

	from := txn.Status
	txn.Status = next
	txn.UpdatedAt = o.now().UTC()

	if o.custodyEnabled {
		if trigger, ok := handler.(CustodyTrigger); ok && trigger.NeedsCustody(txn) {
			if err := o.custody.CreateTransaction(ctx, txn); err != nil {
				return nil, NewInternalError(err, "custody provisioning for transaction[%s]", txnID)
			}
		}
	}

	if err := o.repo.Save(ctx, txn); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			metrics.StoreConflicts.Inc()
			return nil, NewTransientStoreError(err, "transaction[%s] was modified concurrently", txnID)
		}
		return nil, NewInternalError(err, "save transaction[%s]", txnID)
	}

	o.logger.Info("action applied",
		"action", actionType,
		"txn_id", txnID,
		"from_status", from,
		"to_status", txn.Status,
	)

	// The transition is committed; a publish failure is reported to the
	// operator but does not undo the status change. Consumers tolerate
	// redelivery, callers must not retry on this basis alone.
	if o.events != nil {
		if err := o.events.Publish(ctx, event.QueueTransaction, event.NewTransactionStatusChanged(txn)); err != nil {
			metrics.EventsPublished.WithLabelValues("error").Inc()
			o.logger.Error("transition event publish failed", "txn_id", txnID, "error", err)
		} else {
			metrics.EventsPublished.WithLabelValues("ok").Inc()
		}
	}

	return txn, nil
}

func joinStatuses(statuses []model.Status) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
