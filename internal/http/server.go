// Package http exposes the JSON API over a stdlib ServeMux.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"contabile/internal/services"

	"github.com/google/uuid"
)

type Server struct {
	http.Server
	auth        *services.AuthService
	expenses    *services.ExpenseService
	budgets     *services.BudgetService
	reports     *services.ReportService
	rateLimiter *rateLimiter
	ready       func(context.Context) error

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// ready is polled by the readiness probe; nil means always ready.
func NewServer(addr string, authSvc *services.AuthService, expenseSvc *services.ExpenseService, budgetSvc *services.BudgetService, reportSvc *services.ReportService, ratePerMinute int, ready func(context.Context) error) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		auth:        authSvc,
		expenses:    expenseSvc,
		budgets:     budgetSvc,
		reports:     reportSvc,
		rateLimiter: newRateLimiter(ratePerMinute),
		ready:       ready,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /auth/register", s.public(s.handleRegister))
	mux.HandleFunc("POST /auth/login", s.public(s.handleLogin))

	mux.HandleFunc("POST /expenses", s.protected(s.handleCreateExpense))
	mux.HandleFunc("GET /expenses", s.protected(s.handleListExpenses))
	mux.HandleFunc("GET /expenses/all", s.protected(s.handleListAllExpenses))
	mux.HandleFunc("PUT /expenses/{id}", s.protected(s.handleUpdateExpense))
	mux.HandleFunc("PUT /expenses/{id}/status", s.protected(s.handleSetExpenseStatus))
	mux.HandleFunc("DELETE /expenses/{id}", s.protected(s.handleDeleteExpense))

	mux.HandleFunc("POST /budgets", s.protected(s.handleUpsertBudget))
	mux.HandleFunc("GET /budgets", s.protected(s.handleListBudgets))
	mux.HandleFunc("GET /budgets/{month}/{year}", s.protected(s.handleGetBudget))
	mux.HandleFunc("DELETE /budgets/{id}", s.protected(s.handleDeleteBudget))

	mux.HandleFunc("GET /reports/summary", s.protected(s.handleSummary))
	mux.HandleFunc("GET /reports/budget-comparison", s.protected(s.handleBudgetComparison))
	mux.HandleFunc("GET /reports/export", s.protected(s.handleExport))

	return s
}

// public applies the base middleware chain without authentication.
func (s *Server) public(next http.HandlerFunc) http.HandlerFunc {
	return s.withObservability(next)
}

// protected requires a valid x-auth-token and stores the caller identity
// in the request context.
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return s.withObservability(func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.auth.Authorize(r.Header.Get("x-auth-token"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}

// withObservability adds security headers, rate limiting on mutating
// requests, request IDs and request logging.
func (s *Server) withObservability(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := uuid.NewString()
		ctx := withRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP,
				"method", r.Method,
				"path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorBody{Message: "Too many requests, try again later"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Message: "not ready"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Shutdown stops the rate limiter cleanup goroutine and then drains the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}
