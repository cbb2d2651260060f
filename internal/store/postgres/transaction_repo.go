package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/emberfin/anchor-engine/internal/domain/model"
	"github.com/emberfin/anchor-engine/internal/store"
)

// TransactionRepo is the postgres-backed TransactionRepository. Refunds are
// stored as a JSONB document; the version column provides the per-id
// compare-and-swap required by the engine.
type TransactionRepo struct {
	db *DB
}

func NewTransactionRepo(db *DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

const txnColumns = `id, protocol, kind, status,
	amount_in, amount_in_asset, amount_out, amount_out_asset,
	amount_fee, amount_fee_asset, amount_expected,
	started_at, transfer_received_at, completed_at, user_action_required_by,
	to_account, withdraw_anchor_account, memo, memo_type, external_transaction_id,
	refunds, version, updated_at`

func (r *TransactionRepo) Get(ctx context.Context, id string) (*model.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

func (r *TransactionRepo) Create(ctx context.Context, t *model.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	refunds, err := marshalRefunds(t.Refunds)
	if err != nil {
		return err
	}

	t.Version = 1
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO transactions (`+txnColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, now())
	`,
		t.ID, t.Protocol, t.Kind, t.Status,
		nullable(t.AmountIn), nullable(t.AmountInAsset), nullable(t.AmountOut), nullable(t.AmountOutAsset),
		nullable(t.AmountFee), nullable(t.AmountFeeAsset), nullable(t.AmountExpected),
		t.StartedAt, t.TransferReceivedAt, t.CompletedAt, t.UserActionRequiredBy,
		nullable(t.ToAccount), nullable(t.WithdrawAnchorAccount), nullable(t.Memo), nullable(t.MemoType), nullable(t.ExternalTransactionID),
		refunds, t.Version,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("transaction %s already exists", t.ID)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// Save writes all mutable fields in one statement guarded by the version CAS.
// Zero rows affected means the row moved under us (or vanished); both are
// surfaced as ErrVersionConflict so the caller retries from a fresh load.
func (r *TransactionRepo) Save(ctx context.Context, t *model.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	refunds, err := marshalRefunds(t.Refunds)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET
			status = $3,
			amount_in = $4, amount_in_asset = $5,
			amount_out = $6, amount_out_asset = $7,
			amount_fee = $8, amount_fee_asset = $9,
			amount_expected = $10,
			transfer_received_at = $11, completed_at = $12, user_action_required_by = $13,
			to_account = $14, withdraw_anchor_account = $15,
			memo = $16, memo_type = $17, external_transaction_id = $18,
			refunds = $19,
			version = version + 1,
			updated_at = now()
		WHERE id = $1 AND version = $2
	`,
		t.ID, t.Version, t.Status,
		nullable(t.AmountIn), nullable(t.AmountInAsset),
		nullable(t.AmountOut), nullable(t.AmountOutAsset),
		nullable(t.AmountFee), nullable(t.AmountFeeAsset),
		nullable(t.AmountExpected),
		t.TransferReceivedAt, t.CompletedAt, t.UserActionRequiredBy,
		nullable(t.ToAccount), nullable(t.WithdrawAnchorAccount),
		nullable(t.Memo), nullable(t.MemoType), nullable(t.ExternalTransactionID),
		refunds,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrVersionConflict
	}

	t.Version++
	return nil
}

func scanTransaction(row *sql.Row) (*model.Transaction, error) {
	var (
		t       model.Transaction
		amounts [7]sql.NullString
		dest    [5]sql.NullString
		refunds []byte
	)
	err := row.Scan(
		&t.ID, &t.Protocol, &t.Kind, &t.Status,
		&amounts[0], &amounts[1], &amounts[2], &amounts[3],
		&amounts[4], &amounts[5], &amounts[6],
		&t.StartedAt, &t.TransferReceivedAt, &t.CompletedAt, &t.UserActionRequiredBy,
		&dest[0], &dest[1], &dest[2], &dest[3], &dest[4],
		&refunds, &t.Version, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	t.AmountIn = amounts[0].String
	t.AmountInAsset = amounts[1].String
	t.AmountOut = amounts[2].String
	t.AmountOutAsset = amounts[3].String
	t.AmountFee = amounts[4].String
	t.AmountFeeAsset = amounts[5].String
	t.AmountExpected = amounts[6].String
	t.ToAccount = dest[0].String
	t.WithdrawAnchorAccount = dest[1].String
	t.Memo = dest[2].String
	t.MemoType = dest[3].String
	t.ExternalTransactionID = dest[4].String

	if len(refunds) > 0 {
		var r model.Refunds
		if err := json.Unmarshal(refunds, &r); err != nil {
			return nil, fmt.Errorf("unmarshal refunds: %w", err)
		}
		t.Refunds = &r
	}
	return &t, nil
}

func marshalRefunds(r *model.Refunds) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal refunds: %w", err)
	}
	return raw, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
