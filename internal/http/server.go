package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gastos/internal/auth"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/services"
)

// Server is the JSON API surface over the account and ledger services.
type Server struct {
	http.Server

	accounts    *services.AccountService
	ledger      *services.LedgerService
	tokens      *auth.Manager
	rateLimiter *rateLimiter
	logger      *log.Logger
}

func NewServer(addr string, accounts *services.AccountService, ledger *services.LedgerService, tokens *auth.Manager, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		accounts:    accounts,
		ledger:      ledger,
		tokens:      tokens,
		rateLimiter: newRateLimiter(),
		logger:      logger.WithComponent(log.ComponentHTTP),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	// Credential endpoints are rate limited per IP.
	mux.HandleFunc("POST /auth/register", s.secure(s.limited(s.handleRegister)))
	mux.HandleFunc("POST /auth/login", s.secure(s.limited(s.handleLogin)))
	mux.HandleFunc("POST /auth/refresh", s.secure(s.limited(s.handleRefresh)))
	mux.HandleFunc("POST /auth/logout", s.secure(s.requireAuth(s.handleLogout)))

	mux.HandleFunc("GET /auth/me", s.secure(s.requireAuth(s.handleProfile)))
	mux.HandleFunc("PUT /auth/me", s.secure(s.requireAuth(s.handleUpdateProfile)))
	mux.HandleFunc("PATCH /auth/me", s.secure(s.requireAuth(s.handleUpdateProfile)))
	mux.HandleFunc("POST /auth/change-password", s.secure(s.requireAuth(s.handleChangePassword)))

	mux.HandleFunc("GET /expenses", s.secure(s.requireAuth(s.handleListExpenses)))
	mux.HandleFunc("POST /expenses", s.secure(s.requireAuth(s.handleCreateExpense)))
	mux.HandleFunc("GET /expenses/stats", s.secure(s.requireAuth(s.handleExpenseStats)))
	mux.HandleFunc("GET /expenses/{id}", s.secure(s.requireAuth(s.handleGetExpense)))
	mux.HandleFunc("PUT /expenses/{id}", s.secure(s.requireAuth(s.handleUpdateExpense)))
	mux.HandleFunc("PATCH /expenses/{id}", s.secure(s.requireAuth(s.handlePatchExpense)))
	mux.HandleFunc("DELETE /expenses/{id}", s.secure(s.requireAuth(s.handleDeleteExpense)))

	return s
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()
	return s.Server.Shutdown(ctx)
}

// secure adds security headers, a request ID and request logging.
func (s *Server) secure(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()

		logger := s.logger.With(log.FieldRequestID, requestID)
		ctx := log.IntoContext(r.Context(), logger)
		r = r.WithContext(ctx)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logger.InfoContext(ctx, "request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP(r))
	}
}

// limited rejects clients that hammer the credential endpoints.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.rateLimiter.allow(ip) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "rate limit exceeded",
				log.FieldClientIP, ip, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeMessage(w, http.StatusTooManyRequests, "too many requests, try again later")
			return
		}
		next(w, r)
	}
}

// requireAuth validates the bearer token, loads the account and rejects
// tokens of deleted or disabled users. The principal lands in the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		principal, err := s.tokens.ParseAccess(token)
		if err != nil {
			writeError(w, r, err)
			return
		}

		user, err := s.accounts.Profile(r.Context(), principal.UserID)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if !user.IsActive {
			writeError(w, r, core.ErrAccountDisabled)
			return
		}

		ctx := auth.WithPrincipal(r.Context(), principal)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if comma := strings.IndexByte(ip, ','); comma >= 0 {
			return strings.TrimSpace(ip[:comma])
		}
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

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

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
