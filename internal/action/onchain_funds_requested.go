package action

import (
	"context"

	"github.com/emberfin/anchor-engine/internal/asset"
	"github.com/emberfin/anchor-engine/internal/domain/model"
)

// OnchainFundsRequestedHandler processes request_onchain_funds: the anchor is
// ready to receive the user's on-chain funds for a withdrawal and publishes
// the deposit destination.
type OnchainFundsRequestedHandler struct {
	assets    asset.Catalog
	generator DepositInfoGenerator
}

func NewOnchainFundsRequestedHandler(assets asset.Catalog, generator DepositInfoGenerator) *OnchainFundsRequestedHandler {
	return &OnchainFundsRequestedHandler{assets: assets, generator: generator}
}

func (h *OnchainFundsRequestedHandler) ActionType() model.ActionType {
	return model.ActionRequestOnchainFunds
}

func (h *OnchainFundsRequestedHandler) SupportedProtocols() []model.Protocol {
	return []model.Protocol{model.Protocol24}
}

// SupportedStatuses allows the action from incomplete, and from pending_anchor
// only before the user's transfer has been received.
func (h *OnchainFundsRequestedHandler) SupportedStatuses(txn *model.Transaction) []model.Status {
	var supported []model.Status
	if txn.Kind == model.KindWithdrawal {
		supported = append(supported, model.StatusIncomplete)
		if txn.TransferReceivedAt == nil {
			supported = append(supported, model.StatusPendingAnchor)
		}
	}
	return supported
}

func (h *OnchainFundsRequestedHandler) NewRequest() Request {
	return &RequestOnchainFundsRequest{}
}

func (h *OnchainFundsRequestedHandler) UpdateTransaction(ctx context.Context, txn *model.Transaction, req Request) error {
	r := req.(*RequestOnchainFundsRequest)

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
	if err := validateAsset(h.assets, "amount_expected", r.AmountExpected, false); err != nil {
		return err
	}

	// Amounts may be omitted only when the record already carries them.
	if r.AmountIn == nil && txn.AmountIn == "" {
		return NewInvalidRequestError("amount_in is required")
	}
	if r.AmountOut == nil && txn.AmountOut == "" {
		return NewInvalidRequestError("amount_out is required")
	}
	if r.AmountFee == nil && txn.AmountFee == "" {
		return NewInvalidRequestError("amount_fee is required")
	}
	applyAmounts(txn, r.AmountIn, r.AmountOut, r.AmountFee)

	switch {
	case r.AmountExpected != nil:
		txn.AmountExpected = r.AmountExpected.Amount
	case txn.AmountExpected == "":
		txn.AmountExpected = txn.AmountIn
	}

	if r.UserActionRequiredBy != nil {
		txn.UserActionRequiredBy = r.UserActionRequiredBy
	}

	return applyDepositInfo(ctx, h.generator, txn, r)
}

func (h *OnchainFundsRequestedHandler) NextStatus(*model.Transaction, Request) (model.Status, error) {
	return model.StatusPendingUserTransferStart, nil
}

// NeedsCustody reports that this transition always provisions the custody
// record for the incoming on-chain transfer.
func (h *OnchainFundsRequestedHandler) NeedsCustody(*model.Transaction) bool {
	return true
}
