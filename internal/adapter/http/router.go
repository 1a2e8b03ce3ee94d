package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tanbank/tanbank/internal/adapter/http/handler"
	"github.com/tanbank/tanbank/internal/adapter/http/middleware"
	"github.com/tanbank/tanbank/internal/infrastructure/auth"
	"github.com/tanbank/tanbank/internal/infrastructure/metrics"
	"github.com/tanbank/tanbank/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler       *handler.AccountHandler
	TransferHandler      *handler.TransferHandler
	P2PHandler           *handler.P2PHandler
	StandingOrderHandler *handler.StandingOrderHandler
	LedgerHandler        *handler.LedgerHandler
	HealthHandler        *handler.HealthHandler
	JWTManager           *auth.JWTManager
	IdempotencyStore     usecase.IdempotencyStore
	IdempotencyTTL       time.Duration
	Metrics              *metrics.Metrics
	Logger               zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	// Operational endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		authMiddleware := middleware.NewAuthMiddleware(cfg.JWTManager, cfg.Metrics)
		r.Use(authMiddleware.Wrap)

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Get("/{id}/entries", cfg.AccountHandler.ListEntries)
		})

		// Two-phase transfers
		r.Route("/transfers", func(r chi.Router) {
			r.Post("/", cfg.TransferHandler.Initiate)
			r.Get("/", cfg.TransferHandler.List)
			r.Get("/{id}", cfg.TransferHandler.Get)
			r.Post("/{id}/execute", cfg.TransferHandler.Execute)
		})

		// Peer-to-peer transfers
		r.Post("/p2p/transfers", cfg.P2PHandler.Transfer)

		// Standing orders
		r.Route("/standing-orders", func(r chi.Router) {
			r.Post("/", cfg.StandingOrderHandler.Create)
			r.Get("/", cfg.StandingOrderHandler.List)
			r.Get("/{id}", cfg.StandingOrderHandler.Get)
			r.Delete("/{id}", cfg.StandingOrderHandler.Cancel)
		})

		// Ledger
		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
	})

	return r
}
