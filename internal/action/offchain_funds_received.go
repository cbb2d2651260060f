package action

import (
	"context"
	"time"

	"github.com/emberfin/anchor-engine/internal/asset"
	"github.com/emberfin/anchor-engine/internal/domain/model"
)

// OffchainFundsReceivedHandler processes notify_offchain_funds_received: the
// anchor received the user's off-chain funds for a deposit.
type OffchainFundsReceivedHandler struct {
	assets asset.Catalog
	now    func() time.Time
}

func NewOffchainFundsReceivedHandler(assets asset.Catalog) *OffchainFundsReceivedHandler {
	return &OffchainFundsReceivedHandler{assets: assets, now: time.Now}
}

func (h *OffchainFundsReceivedHandler) ActionType() model.ActionType {
	return model.ActionNotifyOffchainFundsReceived
}

func (h *OffchainFundsReceivedHandler) SupportedProtocols() []model.Protocol {
	return []model.Protocol{model.Protocol24}
}

// SupportedStatuses allows the action from pending_usr_transfer_start, and
// from pending_external only before transfer-received-at is populated. Once
// the received timestamp is set, a repeated notification from
// pending_external is rejected.
func (h *OffchainFundsReceivedHandler) SupportedStatuses(txn *model.Transaction) []model.Status {
	var supported []model.Status
	if txn.Kind == model.KindDeposit {
		supported = append(supported, model.StatusPendingUserTransferStart)
		if txn.TransferReceivedAt == nil {
			supported = append(supported, model.StatusPendingExternal)
		}
	}
	return supported
}

func (h *OffchainFundsReceivedHandler) NewRequest() Request {
	return &NotifyOffchainFundsReceivedRequest{}
}

func (h *OffchainFundsReceivedHandler) UpdateTransaction(_ context.Context, txn *model.Transaction, req Request) error {
	r := req.(*NotifyOffchainFundsReceivedRequest)

	if err := validateAmountTriple(r.AmountIn, r.AmountOut, r.AmountFee); err != nil {
		return err
	}
	if err := validateAsset(h.assets, "amount_in", r.AmountIn, false); err != nil {
		return err
	}
	if err := validateAsset(h.assets, "amount_out", r.AmountOut, false); err != nil {
		return err
	}
	if err := validateAsset(h.assets, "amount_fee", r.AmountFee, true); err != nil {
		return err
	}

	if r.ExternalTransactionID != "" {
		txn.ExternalTransactionID = r.ExternalTransactionID
		if r.FundsReceivedAt != nil {
			txn.TransferReceivedAt = r.FundsReceivedAt
		} else {
			now := h.now()
			txn.TransferReceivedAt = &now
		}
	}

	applyAmounts(txn, r.AmountIn, r.AmountOut, r.AmountFee)
	return nil
}

func (h *OffchainFundsReceivedHandler) NextStatus(txn *model.Transaction, _ Request) (model.Status, error) {
	if txn.Kind != model.KindDeposit {
		return "", NewInvalidStateError("invalid kind[%s] for protocol[%s] and action[%s]",
			txn.Kind, txn.Protocol, h.ActionType())
	}
	return model.StatusPendingAnchor, nil
}

// NeedsCustody reports whether this transition provisions a custody record:
// interactive deposits only.
func (h *OffchainFundsReceivedHandler) NeedsCustody(txn *model.Transaction) bool {
	return txn.Protocol == model.Protocol24 && txn.Kind == model.KindDeposit
}
