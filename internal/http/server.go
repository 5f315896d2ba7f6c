// Package http exposes the record-keeping API over JSON.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	applog "milkbook/internal/log"
	"milkbook/internal/services"
)

type Server struct {
	http.Server
	ledger        *services.LedgerService
	notifications *services.NotificationService
	rateLimiter   *rateLimiter
	shutdownOnce  sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, ledger *services.LedgerService, notifications *services.NotificationService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		ledger:        ledger,
		notifications: notifications,
		rateLimiter:   newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /accounts", s.withSecurityHeaders(s.handleCreateAccount))
	mux.HandleFunc("GET /accounts", s.withSecurityHeaders(s.handleListAccounts))
	mux.HandleFunc("GET /accounts/{id}", s.withSecurityHeaders(s.handleGetAccount))
	mux.HandleFunc("PUT /accounts/{id}", s.withSecurityHeaders(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /accounts/{id}", s.withSecurityHeaders(s.handleDeleteAccount))
	mux.HandleFunc("GET /accounts/{id}/statement", s.withSecurityHeaders(s.handleStatement))
	mux.HandleFunc("POST /accounts/{id}/transactions", s.withSecurityHeaders(s.handlePostEntry))
	mux.HandleFunc("DELETE /transactions/{id}", s.withSecurityHeaders(s.handleDeleteEntry))

	mux.HandleFunc("GET /deleted-records", s.withSecurityHeaders(s.handleListDeletedRecords))

	mux.HandleFunc("GET /settings", s.withSecurityHeaders(s.handleListSettings))
	mux.HandleFunc("PUT /settings/{key}", s.withSecurityHeaders(s.handlePutSetting))

	mux.HandleFunc("GET /sms/templates", s.withSecurityHeaders(s.handleListTemplates))
	mux.HandleFunc("POST /sms/templates", s.withSecurityHeaders(s.handleSaveTemplate))
	mux.HandleFunc("DELETE /sms/templates/{id}", s.withSecurityHeaders(s.handleDeleteTemplate))
	mux.HandleFunc("POST /sms/send", s.withSecurityHeaders(s.handleSendSMS))
	mux.HandleFunc("POST /sms/broadcast", s.withSecurityHeaders(s.handleBroadcastSMS))

	mux.HandleFunc("GET /reports/daily", s.withSecurityHeaders(s.handleDailyReport))

	return s
}

// Shutdown stops the rate limiter cleanup goroutine and then shuts down
// the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting for mutating
// requests, and start/finish request logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if mutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, duration.Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

type requestIDKey struct{}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
