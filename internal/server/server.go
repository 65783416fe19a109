// Package server provides the HTTP REST API for interview scheduling.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/jonathan/interview-scheduler/internal/interviews"
	"github.com/jonathan/interview-scheduler/internal/notify"
	"github.com/jonathan/interview-scheduler/internal/observability"
	"github.com/jonathan/interview-scheduler/internal/server/middleware"
	"github.com/jonathan/interview-scheduler/internal/server/ratelimit"
	"go.uber.org/zap"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Options configures a Server. Service and Auth are required.
type Options struct {
	Addr         string
	Service      *interviews.Service
	Hub          *notify.Hub
	Metrics      *observability.Metrics
	Logger       *zap.Logger
	Auth         middleware.TokenValidator
	RateLimit    *ratelimit.Config
	CORSOrigins  []string
	HealthChecks map[string]HealthCheck
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	svc        *interviews.Service
	hub        *notify.Hub
	metrics    *observability.Metrics
	logger     *zap.Logger
	limiter    *ratelimit.Limiter
	auth       func(http.Handler) http.Handler
	health     map[string]HealthCheck
}

// New creates a new server instance
func New(opts Options) (*Server, error) {
	if opts.Service == nil {
		return nil, errors.New("server: Service is required")
	}
	if opts.Auth == nil {
		return nil, errors.New("server: Auth is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		svc:     opts.Service,
		hub:     opts.Hub,
		metrics: opts.Metrics,
		logger:  logger,
		limiter: ratelimit.NewLimiter(opts.RateLimit),
		auth:    middleware.AuthMiddleware(opts.Auth),
		health:  opts.HealthChecks,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	if s.hub != nil {
		mux.Handle("GET /ws", s.authed(s.handleWS))
	}

	mux.Handle("GET /interviews", s.authed(s.handleListInterviews))
	mux.Handle("POST /interviews", s.authed(s.handleScheduleInterview))
	mux.Handle("GET /interviews/stats", s.authed(s.handleStats))
	mux.Handle("GET /interviews/available-slots", s.authed(s.handleAvailableSlots))
	mux.Handle("GET /interviews/{id}", s.authed(s.handleGetInterview))
	mux.Handle("DELETE /interviews/{id}", s.authed(s.handleDeactivateInterview))
	mux.Handle("PATCH /interviews/{id}/confirm", s.authed(s.handleConfirmInterview))
	mux.Handle("PATCH /interviews/{id}/reschedule", s.authed(s.handleRescheduleInterview))
	mux.Handle("PATCH /interviews/{id}/cancel", s.authed(s.handleCancelInterview))
	mux.Handle("PATCH /interviews/{id}/start", s.authed(s.handleStartInterview))
	mux.Handle("PATCH /interviews/{id}/complete", s.authed(s.handleCompleteInterview))
	mux.Handle("POST /interviews/{id}/feedback", s.authed(s.handleSubmitFeedback))

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	var handler http.Handler = mux
	handler = ratelimit.Middleware(s.limiter, logger)(handler)
	handler = s.metrics.Middleware(routeLabel)(handler)
	handler = corsHandler(handler)
	handler = s.withLogging(handler)

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then drains connections, closes
// websocket clients and waits for queued notifications.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			s.cleanup()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.cleanup()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) cleanup() {
	s.limiter.Stop()
	if s.hub != nil {
		s.hub.Close()
	}
	s.svc.Wait()
}

func (s *Server) authed(h http.HandlerFunc) http.Handler {
	return s.auth(h)
}

// routeLabel keeps metric cardinality bounded by labelling with the matched
// pattern instead of the raw path.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &observability.StatusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", ratelimit.ClientID(r)),
		}
		switch {
		case rec.Status() >= http.StatusInternalServerError:
			s.logger.Error("request", fields...)
		case r.URL.Path == "/health" || r.URL.Path == "/metrics":
			s.logger.Debug("request", fields...)
		default:
			s.logger.Info("request", fields...)
		}
	})
}

// handleHealth reports ok, or 503 with the failing checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.health))
	healthy := true
	for name, check := range s.health {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]any{"status": "ok"}
	if len(checks) > 0 {
		body["checks"] = checks
	}
	if !healthy {
		body["status"] = "degraded"
		s.jsonResponse(w, http.StatusServiceUnavailable, body)
		return
	}
	s.jsonResponse(w, http.StatusOK, body)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.GetIdentity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	s.hub.ServeWS(w, r, id.UserID)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
