// Package server provides the HTTP REST API for the NAP verification engine.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/nap-verifier/internal/followup"
	"github.com/jonathan/nap-verifier/internal/server/middleware"
	"github.com/jonathan/nap-verifier/internal/server/ratelimit"
	"github.com/jonathan/nap-verifier/internal/types"
	"github.com/jonathan/nap-verifier/internal/verification"
)

// VerificationService is the engine surface exposed over HTTP.
type VerificationService interface {
	RunVerification(ctx context.Context, caller types.Caller, recordID uuid.UUID, opts verification.RunOptions) (*verification.RunResult, error)
	GetVerificationSummary(ctx context.Context, recordID uuid.UUID) (*verification.RecordSummary, error)
	ListMismatches(ctx context.Context, filter types.MismatchFilter) (*verification.MismatchPage, error)
	OverrideListing(ctx context.Context, caller types.Caller, linkID uuid.UUID, req types.OverrideRequest) (*types.ListingLink, error)
	ListingHistory(ctx context.Context, linkID uuid.UUID, limit int) ([]types.VerificationLogEntry, error)
	FollowUps(ctx context.Context) ([]followup.FollowUp, error)
	UpdateCorrectionRequest(ctx context.Context, caller types.Caller, id uuid.UUID, status types.CorrectionStatus, note string) (*types.CorrectionRequest, error)
}

// Pinger reports backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds server configuration
type Config struct {
	Port int
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	svc         VerificationService
	health      Pinger
	rateLimiter *ratelimit.Limiter
	log         *logrus.Entry
}

// New creates a new server instance. A nil limiter disables rate limiting.
func New(cfg Config, svc VerificationService, health Pinger, tokens middleware.TokenValidator, limiter *ratelimit.Limiter, logger *logrus.Logger) *Server {
	s := &Server{
		svc:         svc,
		health:      health,
		rateLimiter: limiter,
		log:         logger.WithField("component", "server"),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.routes(middleware.AuthMiddleware(tokens)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // verification runs search every site of a record
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes(auth func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, auth(h))
	}
	protected("POST /records/{id}/verify", s.handleVerify)
	protected("GET /records/{id}/verification-summary", s.handleVerificationSummary)
	protected("GET /mismatches", s.handleListMismatches)
	protected("PATCH /listings/{id}", s.handleOverrideListing)
	protected("GET /listings/{id}/history", s.handleListingHistory)
	protected("GET /follow-ups", s.handleFollowUps)
	protected("PATCH /correction-requests/{id}", s.handleUpdateCorrectionRequest)

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.httpServer.Addr).Info("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.log.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients that exceed their endpoint budget.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.rateLimiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"remote":      r.RemoteAddr,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("request completed")
	})
}

// extractClientID uses the IP from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = secs
		w.Header().Set("Retry-After", fmt.Sprintf("%d", secs))
	}

	s.log.WithFields(logrus.Fields{
		"path":   r.URL.Path,
		"client": s.extractClientID(r),
		"limit":  info.Limit,
	}).Warn("rate limit exceeded")
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.WithError(err).Error("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// serviceError maps an engine error onto a response. Internal failures are logged and
// reported without detail.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		s.errorResponse(w, status, "internal server error")
		return
	}
	s.errorResponse(w, status, err.Error())
}
