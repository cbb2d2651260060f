package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberfin/anchor-engine/internal/action"
	"github.com/emberfin/anchor-engine/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeExecutor struct {
	gotAction model.ActionType
	gotTxnID  string
	gotBody   string
	txn       *model.Transaction
	err       error
}

func (f *fakeExecutor) Execute(_ context.Context, actionType model.ActionType, txnID string, raw json.RawMessage) (*model.Transaction, error) {
	f.gotAction = actionType
	f.gotTxnID = txnID
	f.gotBody = string(raw)
	if f.err != nil {
		return nil, f.err
	}
	return f.txn, nil
}

func TestHealth_AllChecksPass(t *testing.T) {
	srv := NewServer(testLogger(),
		WithHealthCheck(CheckFunc{CheckName: "store", Fn: func(context.Context) error { return nil }}),
		WithHealthCheck(CheckFunc{CheckName: "events", Fn: func(context.Context) error { return nil }}),
	)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Checks["store"])
	assert.Equal(t, "ok", resp.Checks["events"])
}

func TestHealth_FailingCheckDegrades(t *testing.T) {
	srv := NewServer(testLogger(),
		WithHealthCheck(CheckFunc{CheckName: "store", Fn: func(context.Context) error { return nil }}),
		WithHealthCheck(CheckFunc{CheckName: "events", Fn: func(context.Context) error { return errors.New("redis down") }}),
	)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "ok", resp.Checks["store"])
	assert.Equal(t, "redis down", resp.Checks["events"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := NewServer(testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestActionEndpoint_Success(t *testing.T) {
	exec := &fakeExecutor{txn: &model.Transaction{
		ID:     "txn-1",
		Status: model.StatusPendingAnchor,
	}}
	srv := NewServer(testLogger(), WithActionExecutor(exec))

	body := strings.NewReader(`{"external_transaction_id": "ext-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/transactions/txn-1/actions/notify_offchain_funds_received", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.ActionNotifyOffchainFundsReceived, exec.gotAction)
	assert.Equal(t, "txn-1", exec.gotTxnID)
	assert.JSONEq(t, `{"external_transaction_id": "ext-1"}`, exec.gotBody)

	var got model.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, model.StatusPendingAnchor, got.Status)
}

func TestActionEndpoint_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", action.NewNotFoundError("transaction not found[x]"), http.StatusNotFound},
		{"invalid request", action.NewInvalidRequestError("memo is required"), http.StatusBadRequest},
		{"unsupported protocol", action.NewUnsupportedProtocolError("nope"), http.StatusBadRequest},
		{"invalid state", action.NewInvalidStateError("nope"), http.StatusBadRequest},
		{"transient store", action.NewTransientStoreError(nil, "conflict"), http.StatusConflict},
		{"internal", action.NewInternalError(nil, "boom"), http.StatusInternalServerError},
		{"foreign error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(testLogger(), WithActionExecutor(&fakeExecutor{err: tt.err}))

			req := httptest.NewRequest(http.MethodPost, "/v1/transactions/txn-1/actions/notify_refund_sent", nil)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			require.Equal(t, tt.want, rec.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestActionEndpoint_DisabledWithoutExecutor(t *testing.T) {
	srv := NewServer(testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/transactions/txn-1/actions/notify_refund_sent", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
