package model

import (
	"time"
)

// Kind is the direction a transaction moves funds relative to the settlement
// network.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
)

func (k Kind) String() string {
	return string(k)
}

// Protocol is the sub-protocol family whose rules govern a transaction.
type Protocol string

const (
	// Protocol24 is the interactive deposit/withdrawal family.
	Protocol24 Protocol = "24"
	// Protocol31 is the cross-border payments family.
	Protocol31 Protocol = "31"
)

func (p Protocol) String() string {
	return string(p)
}

// Transaction is the mutable aggregate the action engine advances. Amounts are
// decimal strings paired with an asset identifier; nil timestamps mean unset.
type Transaction struct {
	ID       string   `db:"id" json:"id"`
	Protocol Protocol `db:"protocol" json:"protocol"`
	Kind     Kind     `db:"kind" json:"kind"`
	Status   Status   `db:"status" json:"status"`

	AmountIn       string `db:"amount_in" json:"amount_in,omitempty"`
	AmountInAsset  string `db:"amount_in_asset" json:"amount_in_asset,omitempty"`
	AmountOut      string `db:"amount_out" json:"amount_out,omitempty"`
	AmountOutAsset string `db:"amount_out_asset" json:"amount_out_asset,omitempty"`
	AmountFee      string `db:"amount_fee" json:"amount_fee,omitempty"`
	AmountFeeAsset string `db:"amount_fee_asset" json:"amount_fee_asset,omitempty"`
	AmountExpected string `db:"amount_expected" json:"amount_expected,omitempty"`

	StartedAt            time.Time  `db:"started_at" json:"started_at"`
	TransferReceivedAt   *time.Time `db:"transfer_received_at" json:"transfer_received_at,omitempty"`
	CompletedAt          *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	UserActionRequiredBy *time.Time `db:"user_action_required_by" json:"user_action_required_by,omitempty"`

	ToAccount             string `db:"to_account" json:"to_account,omitempty"`
	WithdrawAnchorAccount string `db:"withdraw_anchor_account" json:"withdraw_anchor_account,omitempty"`
	Memo                  string `db:"memo" json:"memo,omitempty"`
	MemoType              string `db:"memo_type" json:"memo_type,omitempty"`
	ExternalTransactionID string `db:"external_transaction_id" json:"external_transaction_id,omitempty"`

	Refunds *Refunds `db:"refunds" json:"refunds,omitempty"`

	// Version is the optimistic-concurrency token; the store rejects a save
	// whose version no longer matches the stored row.
	Version   int64     `db:"version" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
