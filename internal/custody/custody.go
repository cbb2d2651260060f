// Package custody integrates with the external funds-holding system that
// provisions custodial records for qualifying transactions.
package custody

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/emberfin/anchor-engine/internal/circuitbreaker"
	"github.com/emberfin/anchor-engine/internal/domain/model"
	"github.com/emberfin/anchor-engine/internal/metrics"
)

// Service provisions a custody record for a transaction. Invoked at most once
// per qualifying transition; redelivery after a failed action is the caller's
// responsibility, so implementations must be idempotent on the transaction id.
type Service interface {
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
}

// Client calls the custody provider's HTTP API behind a circuit breaker so a
// failing provider cannot stall every action that qualifies for custody.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuitbreaker.Breaker
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: circuitbreaker.New(circuitbreaker.Config{
			OnStateChange: func(from, to circuitbreaker.State) {
				logger.Warn("custody circuit state changed", "from", from, "to", to)
			},
		}),
		logger: logger,
	}
}

func (c *Client) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := c.breaker.Allow(); err != nil {
		metrics.CustodyRequests.WithLabelValues("rejected").Inc()
		return fmt.Errorf("custody create transaction: %w", err)
	}

	if err := c.createTransaction(ctx, txn); err != nil {
		c.breaker.RecordFailure()
		metrics.CustodyRequests.WithLabelValues("error").Inc()
		return err
	}

	c.breaker.RecordSuccess()
	metrics.CustodyRequests.WithLabelValues("ok").Inc()
	return nil
}

func (c *Client) createTransaction(ctx context.Context, txn *model.Transaction) error {
	body, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("marshal custody transaction: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build custody request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("custody request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("custody request failed: status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
