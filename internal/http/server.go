// Package http exposes the budget store as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"

	"github.com/shopspring/decimal"
)

// Store is the subset of services.BudgetStore the API serves.
type Store interface {
	Loading() bool
	Data() core.Snapshot
	Summary(now time.Time) core.Summary
	Now() time.Time
	FetchData(ctx context.Context) error

	AddTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error

	AddGoal(ctx context.Context, in core.GoalInput) (core.Goal, error)
	UpdateGoal(ctx context.Context, id string, p core.GoalPatch) (core.Goal, error)
	ContributeToGoal(ctx context.Context, id string, delta decimal.Decimal) (core.Goal, error)
	DeleteGoal(ctx context.Context, id string) error

	AddCategory(ctx context.Context, c core.Category) (core.Category, error)
	UpdateCategory(ctx context.Context, id string, p core.CategoryPatch) (core.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	SetMonthlyBudget(ctx context.Context, value decimal.Decimal) error
}

// Options tunes the middleware chain. Zero values take defaults.
type Options struct {
	RateLimitPerMinute int
	RequestTimeout     time.Duration
	Logger             *log.Logger
}

type Server struct {
	http.Server
	store          Store
	logger         *log.Logger
	limiter        *ratelimit.Limiter
	detector       *security.Detector
	tracer         *trace.Middleware
	requestTimeout time.Duration
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, store Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default(log.ComponentHTTP)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	rlConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		store:          store,
		logger:         opts.Logger,
		limiter:        ratelimit.NewLimiter(rlConfig),
		detector:       security.NewDetector(),
		requestTimeout: opts.RequestTimeout,
	}
	s.tracer = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/export", s.handleExport)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("PATCH /api/goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)
	mux.HandleFunc("POST /api/goals/{id}/contributions", s.handleContributeToGoal)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PATCH /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("PUT /api/settings/monthly-budget", s.handleSetMonthlyBudget)

	var h http.Handler = mux
	h = s.withTimeout(h)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.Mutating, s.onRateLimit)(h)
	h = s.withSuspiciousRequestLogging(h)
	h = s.tracer.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) withSuspiciousRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request detected",
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, please try again later"})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports 503 until the first load finishes.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store.Loading() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"requests":           s.tracer.GetMetrics(),
		"rateLimit":          s.limiter.GetMetrics(),
		"suspiciousRequests": s.detector.SuspiciousRequests(),
	})
}
