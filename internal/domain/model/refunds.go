package model

import (
	"github.com/shopspring/decimal"
)

// RefundPayment is a single refund transfer keyed by the external refund id.
type RefundPayment struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
	Fee    string `json:"fee"`
}

// Refunds aggregates refund payments for a transaction. AmountRefunded and
// AmountFee are always derived from Payments via Recalculate, never
// accumulated in place, so a redelivered notification cannot double count.
type Refunds struct {
	AmountRefunded string          `json:"amount_refunded"`
	AmountFee      string          `json:"amount_fee"`
	Payments       []RefundPayment `json:"payments"`
}

// UpsertPayment replaces the payment with a matching id or appends a new one.
// The input slice is not modified.
func UpsertPayment(payments []RefundPayment, p RefundPayment) []RefundPayment {
	out := make([]RefundPayment, 0, len(payments)+1)
	for _, existing := range payments {
		if existing.ID != p.ID {
			out = append(out, existing)
		}
	}
	return append(out, p)
}

// Recalculate recomputes the aggregate totals from the payment list, rounded
// to the asset's significant decimals.
func (r *Refunds) Recalculate(precision int32) error {
	total := decimal.Zero
	fees := decimal.Zero
	for _, p := range r.Payments {
		amount, err := decimal.NewFromString(p.Amount)
		if err != nil {
			return err
		}
		total = total.Add(amount)

		if p.Fee == "" {
			continue
		}
		fee, err := decimal.NewFromString(p.Fee)
		if err != nil {
			return err
		}
		fees = fees.Add(fee)
	}
	r.AmountRefunded = total.Round(precision).String()
	r.AmountFee = fees.Round(precision).String()
	return nil
}

// TotalRefunded parses the derived refund total, treating an unset aggregate
// as zero.
func (r *Refunds) TotalRefunded() (decimal.Decimal, error) {
	if r == nil || r.AmountRefunded == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(r.AmountRefunded)
}
