package action

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Request is an action-specific payload. Each handler declares its own
// concrete shape via NewRequest.
type Request any

// AmountAsset is an amount paired with the fully qualified asset identifier
// it is denominated in.
type AmountAsset struct {
	Amount string `json:"amount" validate:"required"`
	Asset  string `json:"asset" validate:"required"`
}

// RefundPaymentRequest describes one refund transfer reported by the anchor.
type RefundPaymentRequest struct {
	ID        string `json:"id" validate:"required"`
	Amount    string `json:"amount" validate:"required"`
	AmountFee string `json:"amount_fee"`
}

// NotifyOffchainFundsReceivedRequest reports that off-chain funds arrived for
// a deposit.
type NotifyOffchainFundsReceivedRequest struct {
	ExternalTransactionID string       `json:"external_transaction_id"`
	FundsReceivedAt       *time.Time   `json:"funds_received_at"`
	AmountIn              *AmountAsset `json:"amount_in"`
	AmountOut             *AmountAsset `json:"amount_out"`
	AmountFee             *AmountAsset `json:"amount_fee"`
}

// NotifyRefundSentRequest reports a refund payment sent back to the user.
type NotifyRefundSentRequest struct {
	Refund *RefundPaymentRequest `json:"refund"`
}

// NotifyTransactionExpiredRequest marks a transaction as abandoned by the
// user.
type NotifyTransactionExpiredRequest struct {
	Message string `json:"message"`
}

// RequestOnchainFundsRequest asks the user to send on-chain funds for a
// withdrawal.
type RequestOnchainFundsRequest struct {
	AmountIn             *AmountAsset `json:"amount_in"`
	AmountOut            *AmountAsset `json:"amount_out"`
	AmountFee            *AmountAsset `json:"amount_fee"`
	AmountExpected       *AmountAsset `json:"amount_expected"`
	Memo                 string       `json:"memo"`
	MemoType             string       `json:"memo_type"`
	DestinationAccount   string       `json:"destination_account"`
	UserActionRequiredBy *time.Time   `json:"user_action_required_by"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// decodeRequest unmarshals raw into req and validates the declared schema.
// Schema violations surface as InvalidRequestError naming the offending
// field by its wire name.
func decodeRequest(raw json.RawMessage, req Request) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, req); err != nil {
		return NewInvalidRequestError("invalid request body: %v", err)
	}

	if err := requestValidator().Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return NewInvalidRequestError("invalid request: %s", strings.Join(fields, ", "))
		}
		return NewInvalidRequestError("invalid request: %v", err)
	}
	return nil
}
