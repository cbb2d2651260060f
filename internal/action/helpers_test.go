package action

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/emberfin/anchor-engine/internal/asset"
	"github.com/emberfin/anchor-engine/internal/domain/model"
)

const (
	stellarUSDC = "stellar:USDC:GA5ZSEJYB37JRC5AVCIA5MOP4RHTM335X2KGX3IHOJAPP5RE34K4KZVN"
	fiatUSD     = "iso4217:USD"
)

func testCatalog() asset.Catalog {
	return asset.NewCatalog([]asset.Info{
		{Code: "USDC", Schema: "stellar", Issuer: "GA5ZSEJYB37JRC5AVCIA5MOP4RHTM335X2KGX3IHOJAPP5RE34K4KZVN", SignificantDecimals: 7},
		{Code: "USD", Schema: "iso4217", SignificantDecimals: 2},
	})
}

func depositTxn(status model.Status) *model.Transaction {
	return &model.Transaction{
		ID:        "testId",
		Protocol:  model.Protocol24,
		Kind:      model.KindDeposit,
		Status:    status,
		StartedAt: time.Now().UTC(),
	}
}

func withdrawalTxn(status model.Status) *model.Transaction {
	return &model.Transaction{
		ID:        "testId",
		Protocol:  model.Protocol24,
		Kind:      model.KindWithdrawal,
		Status:    status,
		StartedAt: time.Now().UTC(),
	}
}

func received(txn *model.Transaction) *model.Transaction {
	at := time.Now().UTC()
	txn.TransferReceivedAt = &at
	return txn
}

type fakeCustody struct {
	calls []string
	err   error
}

func (f *fakeCustody) CreateTransaction(_ context.Context, txn *model.Transaction) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, txn.ID)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
