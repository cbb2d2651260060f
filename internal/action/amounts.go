package action

import (
	"github.com/shopspring/decimal"

	"github.com/emberfin/anchor-engine/internal/asset"
	"github.com/emberfin/anchor-engine/internal/domain/model"
)

// validateAmountTriple enforces the all-or-none rule for the financial
// amount fields: a request carries either all of amount_in, amount_out and
// amount_fee, or none of them.
func validateAmountTriple(in, out, fee *AmountAsset) error {
	allSet := in != nil && out != nil && fee != nil
	noneSet := in == nil && out == nil && fee == nil
	if !allSet && !noneSet {
		return NewInvalidRequestError("At least one of amount_in, amount_out and amount_fee is not set")
	}
	return nil
}

// validateAsset checks a single amount field against the asset catalog. A nil
// field is skipped. allowZero relaxes the positivity requirement for fee
// fields, where a zero fee is legitimate.
func validateAsset(catalog asset.Catalog, field string, amt *AmountAsset, allowZero bool) error {
	if amt == nil {
		return nil
	}

	value, err := decimal.NewFromString(amt.Amount)
	if err != nil {
		return NewInvalidRequestError("%s.amount is invalid", field)
	}
	if allowZero {
		if value.IsNegative() {
			return NewInvalidRequestError("%s.amount should be non-negative", field)
		}
	} else if !value.IsPositive() {
		return NewInvalidRequestError("%s.amount should be positive", field)
	}

	code := asset.Code(amt.Asset)
	if catalog.GetAsset(code) == nil {
		return NewInvalidRequestError("%s.asset[%s] is not supported", field, amt.Asset)
	}
	return nil
}

// applyAmounts copies the supplied amount fields onto the transaction.
// Callers must have run validateAmountTriple and validateAsset first.
func applyAmounts(txn *model.Transaction, in, out, fee *AmountAsset) {
	if in != nil {
		txn.AmountIn = in.Amount
		txn.AmountInAsset = in.Asset
	}
	if out != nil {
		txn.AmountOut = out.Amount
		txn.AmountOutAsset = out.Asset
	}
	if fee != nil {
		txn.AmountFee = fee.Amount
		txn.AmountFeeAsset = fee.Asset
	}
}
