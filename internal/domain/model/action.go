package model

// ActionType identifies an externally triggered action. Wire values are the
// public action identifiers callers submit.
type ActionType string

const (
	ActionNotifyOffchainFundsReceived ActionType = "notify_offchain_funds_received"
	ActionNotifyRefundSent            ActionType = "notify_refund_sent"
	ActionNotifyTransactionExpired    ActionType = "notify_transaction_expired"
	ActionRequestOnchainFunds         ActionType = "request_onchain_funds"
)

func (a ActionType) String() string {
	return string(a)
}
