// Package http serves the household ledger as a JSON API. Every request is
// bound to a session whose ledger caches the transactions it has seen.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"kharcha/internal/ledger"
	"kharcha/internal/log"
	"kharcha/internal/metrics"
	"kharcha/internal/middleware/ratelimit"
	"kharcha/internal/middleware/security"
	"kharcha/internal/middleware/trace"
	"kharcha/internal/store"
)

const readyTimeout = 2 * time.Second

type Config struct {
	Addr               string
	Location           *time.Location
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	sessions *ledger.Sessions
	store    store.Store
	metrics  *metrics.Metrics
	logger   *log.Logger
	loc      *time.Location
	now      func() time.Time

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware. st must be the same store the
// sessions were built on; it serves batch writes and readiness checks.
func NewServer(cfg Config, sessions *ledger.Sessions, st store.Store, m *metrics.Metrics, logger *log.Logger) *Server {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if logger == nil {
		logger = log.FromContext(context.Background())
	}

	s := &Server{
		sessions: sessions,
		store:    st,
		metrics:  m,
		logger:   logger.WithComponent(log.ComponentHTTP),
		loc:      cfg.Location,
		now:      time.Now,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
		}, logger, m),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("POST /api/transactions/batch", s.handleBatchCreate)
	mux.HandleFunc("POST /api/transactions/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/transactions/search", s.handleSearch)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/reports/month", s.handleMonthReport)
	mux.HandleFunc("GET /api/reports/days", s.handleDayGroups)
	mux.HandleFunc("GET /api/months", s.handleMonths)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleAddCategories)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such route").Write(w)
	})

	detector := security.NewDetector(logger, m)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(logger, m, detector.ExtractClientIP)

	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP, nil)(h)
	h = detector.Middleware(h)
	h = headers.Middleware(h)
	h = tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once the store answers a cheap read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if _, err := s.store.ListCategories(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err.Error())
		ErrorResponse(http.StatusServiceUnavailable, "store unavailable").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
