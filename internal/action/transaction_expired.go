package action

import (
	"context"

	"github.com/emberfin/anchor-engine/internal/domain/model"
)

// TransactionExpiredHandler processes notify_transaction_expired: the user
// abandoned the flow and the transaction is closed out. Expiration is a
// blanket transition; its legal set is the complement of the error and
// terminal statuses rather than an enumerated allow-list.
type TransactionExpiredHandler struct{}

func NewTransactionExpiredHandler() *TransactionExpiredHandler {
	return &TransactionExpiredHandler{}
}

func (h *TransactionExpiredHandler) ActionType() model.ActionType {
	return model.ActionNotifyTransactionExpired
}

// SupportedProtocols declares all protocols; the family gate lives in
// SupportedStatuses, which yields the empty set outside the interactive
// deposit/withdrawal family.
func (h *TransactionExpiredHandler) SupportedProtocols() []model.Protocol {
	return nil
}

func (h *TransactionExpiredHandler) SupportedStatuses(txn *model.Transaction) []model.Status {
	if txn.Protocol != model.Protocol24 {
		return nil
	}
	var supported []model.Status
	for _, s := range model.AllStatuses() {
		if s.IsError() || s.IsTerminal() {
			continue
		}
		supported = append(supported, s)
	}
	return supported
}

func (h *TransactionExpiredHandler) NewRequest() Request {
	return &NotifyTransactionExpiredRequest{}
}

func (h *TransactionExpiredHandler) UpdateTransaction(context.Context, *model.Transaction, Request) error {
	return nil
}

func (h *TransactionExpiredHandler) NextStatus(*model.Transaction, Request) (model.Status, error) {
	return model.StatusExpired, nil
}
