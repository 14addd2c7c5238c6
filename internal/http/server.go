package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"subtrack/internal/core"
	"subtrack/internal/currency"
	applog "subtrack/internal/log"
	"subtrack/internal/metrics"
	"subtrack/internal/middleware/ratelimit"
	"subtrack/internal/middleware/security"
	"subtrack/internal/middleware/trace"
	"subtrack/internal/services"
	"subtrack/internal/storage"
)

// RateReader hands out the current exchange rate table.
type RateReader interface {
	Rates(ctx context.Context) currency.RateTable
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Subscriptions *services.SubscriptionService
	Spending      *services.SpendingService
	Rates         RateReader
	Metrics       *metrics.Metrics
	Logger        *applog.Logger
	// RateLimit applies to writes. The zero value uses the defaults.
	RateLimit ratelimit.Config
}

type Server struct {
	http.Server
	subs     *services.SubscriptionService
	spending *services.SpendingService
	rates    RateReader
	metrics  *metrics.Metrics
	logger   *applog.Logger
	audit    *applog.StructuredLogger

	rateLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	limitCfg := deps.RateLimit
	if limitCfg.RequestsPerMinute <= 0 {
		limitCfg.RequestsPerMinute = ratelimit.DefaultConfig().RequestsPerMinute
	}

	s := &Server{
		subs:        deps.Subscriptions,
		spending:    deps.Spending,
		rates:       deps.Rates,
		metrics:     deps.Metrics,
		logger:      logger,
		audit:       applog.NewStructuredLogger(logger),
		rateLimiter: ratelimit.NewLimiter(limitCfg),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("GET /api/subscriptions", s.handleListSubscriptions)
	mux.HandleFunc("POST /api/subscriptions", s.handleCreateSubscription)
	mux.HandleFunc("GET /api/subscriptions/{id}", s.handleGetSubscription)
	mux.HandleFunc("PUT /api/subscriptions/{id}", s.handleUpdateSubscription)
	mux.HandleFunc("DELETE /api/subscriptions/{id}", s.handleDeleteSubscription)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("POST /api/init", s.handleInit)
	mux.HandleFunc("GET /api/data", s.handleData)

	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /api/reminders", s.handleReminders)
	mux.HandleFunc("GET /api/rates", s.handleRates)
	mux.HandleFunc("GET /api/currencies", handleCurrencies)
	mux.HandleFunc("GET /api/export", s.handleExport)

	detector := security.NewDetector(s.metrics, logger)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(logger, s.metrics, detector.ExtractClientIP)
	limit := s.rateLimiter.Middleware(detector.ExtractClientIP, s.onRateLimited,
		http.MethodPost, http.MethodPut, http.MethodDelete)

	var handler http.Handler = mux
	handler = limit(handler)
	handler = headers.Middleware(handler)
	handler = detector.Middleware(handler)
	handler = tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.Flagged(metrics.FlagRateLimited)
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// writeError maps service errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verrs core.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		ValidationError(verrs.Messages()).Write(w)
	case errors.Is(err, storage.ErrNotFound):
		NotFoundError("Resource not found").Write(w)
	case errors.Is(err, core.ErrInvalidCurrency):
		BadRequestError("Unsupported currency", err.Error()).Write(w)
	case errors.Is(err, errBadRequest):
		BadRequestError("Bad request", err.Error()).Write(w)
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
	default:
		fields := applog.LogFields{applog.FieldRequestID: trace.GetRequestID(r.Context())}
		s.audit.LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op, fields)
		InternalServerError("Internal server error").Write(w)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.subs == nil || s.subs.Repository() == nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.subs.Repository().Ping(ctx); err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
