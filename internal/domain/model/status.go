package model

// Status is a transaction's position in its lifecycle. Wire values follow the
// SEP transaction status vocabulary.
type Status string

const (
	StatusIncomplete               Status = "incomplete"
	StatusPendingAnchor            Status = "pending_anchor"
	StatusPendingExternal          Status = "pending_external"
	StatusPendingUserTransferStart Status = "pending_usr_transfer_start"
	StatusPendingUser              Status = "pending_user"
	StatusPendingStellar           Status = "pending_stellar"
	StatusPendingTrust             Status = "pending_trust"
	StatusCompleted                Status = "completed"
	StatusRefunded                 Status = "refunded"
	StatusExpired                  Status = "expired"
	StatusError                    Status = "error"
)

// AllStatuses lists every status the engine may assign. No handler may move a
// transaction to a status outside this set.
func AllStatuses() []Status {
	return []Status{
		StatusIncomplete,
		StatusPendingAnchor,
		StatusPendingExternal,
		StatusPendingUserTransferStart,
		StatusPendingUser,
		StatusPendingStellar,
		StatusPendingTrust,
		StatusCompleted,
		StatusRefunded,
		StatusExpired,
		StatusError,
	}
}

// IsTerminal reports whether no further action-driven transition is legal.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusRefunded, StatusExpired:
		return true
	}
	return false
}

// IsError reports whether the status represents a failed outcome.
func (s Status) IsError() bool {
	return s == StatusError
}

func (s Status) String() string {
	return string(s)
}
