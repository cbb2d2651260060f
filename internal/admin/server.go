// Package admin exposes the engine's operational surface: liveness,
// collaborator health, and prometheus metrics. The action API itself is
// served by the embedding application, not by this server.
package admin

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emberfin/anchor-engine/internal/action"
	"github.com/emberfin/anchor-engine/internal/domain/model"
)

const maxRequestBodyBytes = 1 << 20

// HealthChecker reports whether one collaborator (store, event backend,
// custody provider) is reachable.
type HealthChecker interface {
	Name() string
	Healthy(ctx context.Context) error
}

// CheckFunc adapts a function to the HealthChecker interface.
type CheckFunc struct {
	CheckName string
	Fn        func(ctx context.Context) error
}

func (c CheckFunc) Name() string                      { return c.CheckName }
func (c CheckFunc) Healthy(ctx context.Context) error { return c.Fn(ctx) }

// ActionExecutor runs one action against one transaction; implemented by the
// action orchestrator.
type ActionExecutor interface {
	Execute(ctx context.Context, actionType model.ActionType, txnID string, raw json.RawMessage) (*model.Transaction, error)
}

// Server is the ops HTTP server.
type Server struct {
	checks   []HealthChecker
	executor ActionExecutor
	logger   *slog.Logger
}

type ServerOption func(*Server)

// WithHealthCheck registers an additional collaborator check on /healthz.
func WithHealthCheck(c HealthChecker) ServerOption {
	return func(s *Server) { s.checks = append(s.checks, c) }
}

// WithActionExecutor exposes the action endpoint backed by the given
// executor.
func WithActionExecutor(e ActionExecutor) ServerOption {
	return func(s *Server) { s.executor = e }
}

func NewServer(logger *slog.Logger, opts ...ServerOption) *Server {
	s := &Server{logger: logger.With("component", "admin")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler for the ops API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	if s.executor != nil {
		mux.HandleFunc("POST /v1/transactions/{id}/actions/{action}", s.handleAction)
	}
	return mux
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	txnID := r.PathValue("id")
	actionType := model.ActionType(r.PathValue("action"))

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable request body"})
		return
	}

	txn, err := s.executor.Execute(r.Context(), actionType, txnID, raw)
	if err != nil {
		writeJSON(w, statusForCode(action.CodeOf(err)), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func statusForCode(code action.Code) int {
	switch code {
	case action.CodeNotFound:
		return http.StatusNotFound
	case action.CodeInvalidRequest, action.CodeUnsupportedProtocol, action.CodeInvalidState:
		return http.StatusBadRequest
	case action.CodeTransientStore:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(s.checks))}
	code := http.StatusOK
	for _, check := range s.checks {
		if err := check.Healthy(ctx); err != nil {
			s.logger.Warn("health check failed", "check", check.Name(), "error", err)
			resp.Checks[check.Name()] = err.Error()
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[check.Name()] = "ok"
	}

	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
