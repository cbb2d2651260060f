package action

import (
	"context"

	"github.com/emberfin/anchor-engine/internal/asset"
	"github.com/emberfin/anchor-engine/internal/domain/model"
)

// RefundSentHandler processes notify_refund_sent: the anchor sent a refund
// payment back to the user. Refund totals are always recomputed from the
// payment list, so a redelivered notification with the same refund id is a
// replace, never a second count.
type RefundSentHandler struct {
	assets asset.Catalog
}

func NewRefundSentHandler(assets asset.Catalog) *RefundSentHandler {
	return &RefundSentHandler{assets: assets}
}

func (h *RefundSentHandler) ActionType() model.ActionType {
	return model.ActionNotifyRefundSent
}

func (h *RefundSentHandler) SupportedProtocols() []model.Protocol {
	return []model.Protocol{model.Protocol24}
}

func (h *RefundSentHandler) SupportedStatuses(txn *model.Transaction) []model.Status {
	var supported []model.Status
	switch txn.Kind {
	case model.KindDeposit:
		if txn.TransferReceivedAt != nil {
			supported = append(supported, model.StatusPendingExternal, model.StatusPendingAnchor)
		}
	case model.KindWithdrawal:
		supported = append(supported, model.StatusPendingStellar)
		if txn.TransferReceivedAt != nil {
			supported = append(supported, model.StatusPendingAnchor)
		}
	}
	return supported
}

func (h *RefundSentHandler) NewRequest() Request {
	return &NotifyRefundSentRequest{}
}

func (h *RefundSentHandler) UpdateTransaction(_ context.Context, txn *model.Transaction, req Request) error {
	r := req.(*NotifyRefundSentRequest)

	if r.Refund == nil {
		// A notification without a payload is a pure status move; from
		// pending_anchor it would be a zero-effect retransmission and is
		// rejected as missing required data.
		if txn.Status == model.StatusPendingAnchor {
			return NewInvalidRequestError("refund is required")
		}
		return nil
	}

	info, err := h.assetInfo(txn)
	if err != nil {
		return err
	}
	if err := validateAsset(h.assets, "refund.amount", &AmountAsset{Amount: r.Refund.Amount, Asset: txn.AmountInAsset}, false); err != nil {
		return err
	}
	if r.Refund.AmountFee != "" {
		if err := validateAsset(h.assets, "refund.amount_fee", &AmountAsset{Amount: r.Refund.AmountFee, Asset: txn.AmountInAsset}, true); err != nil {
			return err
		}
	}

	refunds := txn.Refunds
	if refunds == nil {
		refunds = &model.Refunds{}
	}
	refunds.Payments = model.UpsertPayment(refunds.Payments, model.RefundPayment{
		ID:     r.Refund.ID,
		Amount: r.Refund.Amount,
		Fee:    r.Refund.AmountFee,
	})
	if err := refunds.Recalculate(info.SignificantDecimals); err != nil {
		return NewInvalidRequestError("refund amounts are invalid: %v", err)
	}
	txn.Refunds = refunds
	return nil
}

// NextStatus reaches the terminal refunded status once the recomputed refund
// total covers amount_in; any partial refund keeps the transaction pending
// with the anchor.
func (h *RefundSentHandler) NextStatus(txn *model.Transaction, _ Request) (model.Status, error) {
	info, err := h.assetInfo(txn)
	if err != nil {
		return "", err
	}

	total, err := txn.Refunds.TotalRefunded()
	if err != nil {
		return "", NewInternalError(err, "parse refunded total")
	}
	amountIn, err := asset.Decimal(txn.AmountIn, info)
	if err != nil {
		return "", NewInvalidRequestError("transaction amount_in is invalid")
	}

	if total.GreaterThanOrEqual(amountIn) {
		return model.StatusRefunded, nil
	}
	return model.StatusPendingAnchor, nil
}

func (h *RefundSentHandler) assetInfo(txn *model.Transaction) (*asset.Info, error) {
	info := h.assets.GetAsset(asset.Code(txn.AmountInAsset))
	if info == nil {
		return nil, NewInvalidRequestError("amount_in asset[%s] is not supported", txn.AmountInAsset)
	}
	return info, nil
}
