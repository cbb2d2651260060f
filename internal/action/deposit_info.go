package action

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"strconv"

	"github.com/emberfin/anchor-engine/internal/domain/model"
)

// DepositInfo is the destination a user is instructed to send on-chain funds
// to.
type DepositInfo struct {
	Address  string
	Memo     string
	MemoType string
}

// DepositInfoGenerator produces deposit info for a transaction. The engine
// special-cases NoneGenerator, in which case the caller must supply the
// destination in the request.
type DepositInfoGenerator interface {
	Generate(ctx context.Context, txn *model.Transaction) (DepositInfo, error)
}

// NoneGenerator is the no-generation policy: deposit info always comes from
// the request.
type NoneGenerator struct{}

func (NoneGenerator) Generate(context.Context, *model.Transaction) (DepositInfo, error) {
	return DepositInfo{}, NewInvalidRequestError("deposit info generation is disabled")
}

// SelfGenerator derives deposit info from the anchor's own distribution
// account, with a hash memo bound to the transaction id so incoming transfers
// can be matched back to their transaction.
type SelfGenerator struct {
	Account string
}

func (g SelfGenerator) Generate(_ context.Context, txn *model.Transaction) (DepositInfo, error) {
	sum := sha256.Sum256([]byte(txn.ID))
	return DepositInfo{
		Address:  g.Account,
		Memo:     base64.StdEncoding.EncodeToString(sum[:]),
		MemoType: "hash",
	}, nil
}

func isNoneGenerator(gen DepositInfoGenerator) bool {
	switch gen.(type) {
	case nil, NoneGenerator, *NoneGenerator:
		return true
	}
	return false
}

func validMemo(memo, memoType string) bool {
	switch memoType {
	case "text":
		return len(memo) <= 28
	case "id":
		_, err := strconv.ParseUint(memo, 10, 64)
		return err == nil
	case "hash":
		return memo != ""
	default:
		return false
	}
}

// applyDepositInfo populates the transaction's destination fields, either
// verbatim from the request (no-generation policy) or from the configured
// generator.
func applyDepositInfo(ctx context.Context, gen DepositInfoGenerator, txn *model.Transaction, req *RequestOnchainFundsRequest) error {
	if isNoneGenerator(gen) {
		if req.Memo == "" && req.MemoType == "" {
			return NewInvalidRequestError("memo and memo_type are required")
		}
		if req.Memo == "" {
			return NewInvalidRequestError("memo is required")
		}
		if req.MemoType == "" {
			return NewInvalidRequestError("memo_type is required")
		}
		if !validMemo(req.Memo, req.MemoType) {
			return NewInvalidRequestError("memo[%s] does not match memo_type[%s]", req.Memo, req.MemoType)
		}
		if req.DestinationAccount == "" {
			return NewInvalidRequestError("destination_account is required")
		}

		txn.Memo = req.Memo
		txn.MemoType = req.MemoType
		txn.ToAccount = req.DestinationAccount
		txn.WithdrawAnchorAccount = req.DestinationAccount
		return nil
	}

	info, err := gen.Generate(ctx, txn)
	if err != nil {
		return NewInternalError(err, "generate deposit info")
	}
	txn.ToAccount = info.Address
	txn.WithdrawAnchorAccount = info.Address
	txn.Memo = info.Memo
	txn.MemoType = info.MemoType
	return nil
}
