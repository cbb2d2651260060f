package action

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberfin/anchor-engine/internal/domain/model"
)

func TestOffchainFundsReceived_SupportedStatuses(t *testing.T) {
	h := NewOffchainFundsReceivedHandler(testCatalog())

	t.Run("deposit before funds received", func(t *testing.T) {
		got := h.SupportedStatuses(depositTxn(model.StatusPendingUserTransferStart))
		assert.ElementsMatch(t, []model.Status{
			model.StatusPendingUserTransferStart,
			model.StatusPendingExternal,
		}, got)
	})

	t.Run("deposit after funds received drops pending_external", func(t *testing.T) {
		got := h.SupportedStatuses(received(depositTxn(model.StatusPendingExternal)))
		assert.Equal(t, []model.Status{model.StatusPendingUserTransferStart}, got)
	})

	t.Run("withdrawal has no legal statuses", func(t *testing.T) {
		assert.Empty(t, h.SupportedStatuses(withdrawalTxn(model.StatusPendingUserTransferStart)))
	})
}

func TestOffchainFundsReceived_UpdateTransaction(t *testing.T) {
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	h := NewOffchainFundsReceivedHandler(testCatalog())
	h.now = func() time.Time { return fixed }

	t.Run("external id stamps received time", func(t *testing.T) {
		txn := depositTxn(model.StatusPendingUserTransferStart)
		req := &NotifyOffchainFundsReceivedRequest{ExternalTransactionID: "ext-1"}

		require.NoError(t, h.UpdateTransaction(context.Background(), txn, req))
		assert.Equal(t, "ext-1", txn.ExternalTransactionID)
		require.NotNil(t, txn.TransferReceivedAt)
		assert.Equal(t, fixed, *txn.TransferReceivedAt)
	})

	t.Run("explicit funds_received_at wins over clock", func(t *testing.T) {
		at := fixed.Add(-time.Hour)
		txn := depositTxn(model.StatusPendingUserTransferStart)
		req := &NotifyOffchainFundsReceivedRequest{
			ExternalTransactionID: "ext-2",
			FundsReceivedAt:       &at,
		}

		require.NoError(t, h.UpdateTransaction(context.Background(), txn, req))
		require.NotNil(t, txn.TransferReceivedAt)
		assert.Equal(t, at, *txn.TransferReceivedAt)
	})

	t.Run("no external id leaves received time unset", func(t *testing.T) {
		txn := depositTxn(model.StatusPendingUserTransferStart)
		req := &NotifyOffchainFundsReceivedRequest{}

		require.NoError(t, h.UpdateTransaction(context.Background(), txn, req))
		assert.Nil(t, txn.TransferReceivedAt)
	})

	t.Run("amounts applied when full triple present", func(t *testing.T) {
		txn := depositTxn(model.StatusPendingUserTransferStart)
		req := &NotifyOffchainFundsReceivedRequest{
			AmountIn:  &AmountAsset{Amount: "100", Asset: fiatUSD},
			AmountOut: &AmountAsset{Amount: "98", Asset: stellarUSDC},
			AmountFee: &AmountAsset{Amount: "2", Asset: fiatUSD},
		}

		require.NoError(t, h.UpdateTransaction(context.Background(), txn, req))
		assert.Equal(t, "100", txn.AmountIn)
		assert.Equal(t, "98", txn.AmountOut)
		assert.Equal(t, "2", txn.AmountFee)
	})

	t.Run("partial amount triple rejected before mutation", func(t *testing.T) {
		txn := depositTxn(model.StatusPendingUserTransferStart)
		req := &NotifyOffchainFundsReceivedRequest{
			ExternalTransactionID: "ext-3",
			AmountIn:              &AmountAsset{Amount: "100", Asset: fiatUSD},
		}

		err := h.UpdateTransaction(context.Background(), txn, req)
		require.Error(t, err)
		assert.Equal(t, CodeInvalidRequest, CodeOf(err))
		assert.Empty(t, txn.ExternalTransactionID)
	})

	t.Run("unknown asset rejected", func(t *testing.T) {
		txn := depositTxn(model.StatusPendingUserTransferStart)
		req := &NotifyOffchainFundsReceivedRequest{
			AmountIn:  &AmountAsset{Amount: "100", Asset: "iso4217:EUR"},
			AmountOut: &AmountAsset{Amount: "98", Asset: stellarUSDC},
			AmountFee: &AmountAsset{Amount: "2", Asset: fiatUSD},
		}

		err := h.UpdateTransaction(context.Background(), txn, req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "amount_in.asset[iso4217:EUR] is not supported")
	})
}

func TestOffchainFundsReceived_NextStatus(t *testing.T) {
	h := NewOffchainFundsReceivedHandler(testCatalog())

	next, err := h.NextStatus(depositTxn(model.StatusPendingUserTransferStart), nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingAnchor, next)

	_, err = h.NextStatus(withdrawalTxn(model.StatusPendingUserTransferStart), nil)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidState, CodeOf(err))
}

func TestOffchainFundsReceived_NeedsCustody(t *testing.T) {
	h := NewOffchainFundsReceivedHandler(testCatalog())

	assert.True(t, h.NeedsCustody(depositTxn(model.StatusPendingUserTransferStart)))
	assert.False(t, h.NeedsCustody(withdrawalTxn(model.StatusPendingUserTransferStart)))

	p31 := depositTxn(model.StatusPendingUserTransferStart)
	p31.Protocol = model.Protocol31
	assert.False(t, h.NeedsCustody(p31))
}
