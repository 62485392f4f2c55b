// Package http exposes the subscription ledger as a JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	applog "subsentry/internal/log"
	"subsentry/internal/services"
	"subsentry/internal/session"
)

type Server struct {
	http.Server
	sessions      *session.Manager
	subscriptions *services.SubscriptionService
	rateLimiter   *rateLimiter
	shutdownOnce  sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server listening on addr. A nil logger falls back to the defaults.
func NewServer(addr string, logger *applog.Logger, sessions *session.Manager, subscriptions *services.SubscriptionService) *Server {
	mux := http.NewServeMux()

	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: applog.Middleware(logger.WithComponent(applog.ComponentHTTP))(mux),
		},
		sessions:      sessions,
		subscriptions: subscriptions,
		rateLimiter:   newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/signup", s.withSecurityHeaders(s.handleSignup))
	mux.HandleFunc("POST /api/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("POST /api/logout", s.withSecurityHeaders(s.handleLogout))
	mux.HandleFunc("GET /api/session", s.withSecurityHeaders(s.handleSession))

	mux.HandleFunc("GET /api/subscriptions", s.withSecurityHeaders(s.requireUser(s.handleListSubscriptions)))
	mux.HandleFunc("POST /api/subscriptions", s.withSecurityHeaders(s.requireUser(s.handleAddSubscription)))
	mux.HandleFunc("PUT /api/subscriptions/{id}", s.withSecurityHeaders(s.requireUser(s.handleUpdateSubscription)))
	mux.HandleFunc("DELETE /api/subscriptions/{id}", s.withSecurityHeaders(s.requireUser(s.handleRemoveSubscription)))
	mux.HandleFunc("GET /api/summary", s.withSecurityHeaders(s.requireUser(s.handleSummary)))
	mux.HandleFunc("GET /api/alerts", s.withSecurityHeaders(s.requireUser(s.handleAlerts)))
	mux.HandleFunc("POST /api/export", s.withSecurityHeaders(s.requireUser(s.handleExport)))

	return s
}

// Shutdown stops the listener and the rate limiter cleanup goroutine.
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

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
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
		logger := applog.FromContext(r.Context()).With(applog.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		// Mutations and auth attempts are rate limited per client.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		applog.LogHTTPEnd(ctx, logger, r, rw.statusCode, time.Since(start).Milliseconds())
	}
}

// requireUser rejects requests without an authenticated session and passes
// the user ID through to the handler.
func (s *Server) requireUser(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.sessions.CurrentUser()
		if user == nil {
			respondError(w, http.StatusUnauthorized, "Please log in first.")
			return
		}
		next(w, r, user.ID)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ready")
}
