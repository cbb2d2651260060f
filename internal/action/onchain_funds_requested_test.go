package action

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberfin/anchor-engine/internal/domain/model"
)

func onchainRequest() *RequestOnchainFundsRequest {
	return &RequestOnchainFundsRequest{
		AmountIn:           &AmountAsset{Amount: "100", Asset: stellarUSDC},
		AmountOut:          &AmountAsset{Amount: "98", Asset: fiatUSD},
		AmountFee:          &AmountAsset{Amount: "2", Asset: stellarUSDC},
		Memo:               "12345",
		MemoType:           "id",
		DestinationAccount: "GABC",
	}
}

func TestOnchainFundsRequested_SupportedStatuses(t *testing.T) {
	h := NewOnchainFundsRequestedHandler(testCatalog(), NoneGenerator{})

	t.Run("withdrawal before funds received", func(t *testing.T) {
		got := h.SupportedStatuses(withdrawalTxn(model.StatusIncomplete))
		assert.ElementsMatch(t, []model.Status{
			model.StatusIncomplete,
			model.StatusPendingAnchor,
		}, got)
	})

	t.Run("withdrawal after funds received drops pending_anchor", func(t *testing.T) {
		got := h.SupportedStatuses(received(withdrawalTxn(model.StatusPendingAnchor)))
		assert.Equal(t, []model.Status{model.StatusIncomplete}, got)
	})

	t.Run("deposit has no legal statuses", func(t *testing.T) {
		assert.Empty(t, h.SupportedStatuses(depositTxn(model.StatusIncomplete)))
	})
}

func TestOnchainFundsRequested_UpdateTransaction(t *testing.T) {
	h := NewOnchainFundsRequestedHandler(testCatalog(), NoneGenerator{})

	t.Run("applies amounts and destination", func(t *testing.T) {
		txn := withdrawalTxn(model.StatusIncomplete)
		require.NoError(t, h.UpdateTransaction(context.Background(), txn, onchainRequest()))

		assert.Equal(t, "100", txn.AmountIn)
		assert.Equal(t, stellarUSDC, txn.AmountInAsset)
		assert.Equal(t, "12345", txn.Memo)
		assert.Equal(t, "id", txn.MemoType)
		assert.Equal(t, "GABC", txn.ToAccount)
		assert.Equal(t, "GABC", txn.WithdrawAnchorAccount)
	})

	t.Run("amount_expected defaults to amount_in", func(t *testing.T) {
		txn := withdrawalTxn(model.StatusIncomplete)
		require.NoError(t, h.UpdateTransaction(context.Background(), txn, onchainRequest()))
		assert.Equal(t, "100", txn.AmountExpected)
	})

	t.Run("explicit amount_expected wins", func(t *testing.T) {
		txn := withdrawalTxn(model.StatusIncomplete)
		req := onchainRequest()
		req.AmountExpected = &AmountAsset{Amount: "105", Asset: stellarUSDC}

		require.NoError(t, h.UpdateTransaction(context.Background(), txn, req))
		assert.Equal(t, "105", txn.AmountExpected)
	})

	t.Run("existing amount_expected preserved", func(t *testing.T) {
		txn := withdrawalTxn(model.StatusIncomplete)
		txn.AmountExpected = "110"

		require.NoError(t, h.UpdateTransaction(context.Background(), txn, onchainRequest()))
		assert.Equal(t, "110", txn.AmountExpected)
	})

	t.Run("user_action_required_by recorded", func(t *testing.T) {
		deadline := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		txn := withdrawalTxn(model.StatusIncomplete)
		req := onchainRequest()
		req.UserActionRequiredBy = &deadline

		require.NoError(t, h.UpdateTransaction(context.Background(), txn, req))
		require.NotNil(t, txn.UserActionRequiredBy)
		assert.Equal(t, deadline, *txn.UserActionRequiredBy)
	})

	t.Run("amounts may be omitted only when already on record", func(t *testing.T) {
		txn := withdrawalTxn(model.StatusIncomplete)
		req := onchainRequest()
		req.AmountIn, req.AmountOut, req.AmountFee = nil, nil, nil

		err := h.UpdateTransaction(context.Background(), txn, req)
		require.Error(t, err)
		assert.Equal(t, "amount_in is required", err.Error())

		txn.AmountIn, txn.AmountInAsset = "100", stellarUSDC
		err = h.UpdateTransaction(context.Background(), txn, req)
		require.Error(t, err)
		assert.Equal(t, "amount_out is required", err.Error())

		txn.AmountOut, txn.AmountOutAsset = "98", fiatUSD
		err = h.UpdateTransaction(context.Background(), txn, req)
		require.Error(t, err)
		assert.Equal(t, "amount_fee is required", err.Error())

		txn.AmountFee, txn.AmountFeeAsset = "2", stellarUSDC
		require.NoError(t, h.UpdateTransaction(context.Background(), txn, req))
	})

	t.Run("missing destination and memo fields named", func(t *testing.T) {
		tests := []struct {
			name    string
			mutate  func(*RequestOnchainFundsRequest)
			message string
		}{
			{"both memo fields missing", func(r *RequestOnchainFundsRequest) {
				r.Memo, r.MemoType = "", ""
			}, "memo and memo_type are required"},
			{"memo missing", func(r *RequestOnchainFundsRequest) {
				r.Memo = ""
			}, "memo is required"},
			{"memo_type missing", func(r *RequestOnchainFundsRequest) {
				r.MemoType = ""
			}, "memo_type is required"},
			{"destination missing", func(r *RequestOnchainFundsRequest) {
				r.DestinationAccount = ""
			}, "destination_account is required"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := onchainRequest()
				tt.mutate(req)
				err := h.UpdateTransaction(context.Background(), withdrawalTxn(model.StatusIncomplete), req)
				require.Error(t, err)
				assert.Equal(t, tt.message, err.Error())
			})
		}
	})

	t.Run("memo must match memo_type", func(t *testing.T) {
		req := onchainRequest()
		req.Memo, req.MemoType = "not-a-number", "id"

		err := h.UpdateTransaction(context.Background(), withdrawalTxn(model.StatusIncomplete), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not match memo_type[id]")
	})

	t.Run("generated deposit info ignores request destination", func(t *testing.T) {
		gen := SelfGenerator{Account: "GDIST"}
		h := NewOnchainFundsRequestedHandler(testCatalog(), gen)

		txn := withdrawalTxn(model.StatusIncomplete)
		req := onchainRequest()
		req.Memo, req.MemoType, req.DestinationAccount = "", "", ""

		require.NoError(t, h.UpdateTransaction(context.Background(), txn, req))
		assert.Equal(t, "GDIST", txn.ToAccount)
		assert.Equal(t, "hash", txn.MemoType)
		assert.NotEmpty(t, txn.Memo)
	})
}

func TestOnchainFundsRequested_NextStatus(t *testing.T) {
	h := NewOnchainFundsRequestedHandler(testCatalog(), NoneGenerator{})

	next, err := h.NextStatus(withdrawalTxn(model.StatusIncomplete), onchainRequest())
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingUserTransferStart, next)
}

func TestOnchainFundsRequested_NeedsCustody(t *testing.T) {
	h := NewOnchainFundsRequestedHandler(testCatalog(), NoneGenerator{})
	assert.True(t, h.NeedsCustody(withdrawalTxn(model.StatusIncomplete)))
}
