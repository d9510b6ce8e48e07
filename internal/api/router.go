package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/habitloop/coachmem/internal/database"
	mw "github.com/habitloop/coachmem/internal/middleware"
	inats "github.com/habitloop/coachmem/internal/nats"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Memory handlers
	MemoryContext  http.HandlerFunc
	RelevantMemory http.HandlerFunc
	Remember       http.HandlerFunc
	MemoryHits     http.HandlerFunc
	ListMemories   http.HandlerFunc

	// Turn intake
	SubmitTurn http.HandlerFunc

	// Identity middleware
	AuthMiddleware func(http.Handler) http.Handler
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	TurnRateLimiter    func(http.Handler) http.Handler
}

func NewRouter(pool *pgxpool.Pool, natsClient *inats.Client, cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness probe: always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Readiness probe: checks DB and NATS
	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":   "healthy",
			"database": "healthy",
			"nats":     "healthy",
		}

		status := http.StatusOK

		if err := database.HealthCheck(r.Context(), pool); err != nil {
			health["database"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}

		if natsClient != nil && !natsClient.Healthy() {
			health["nats"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		} else if natsClient == nil {
			health["nats"] = "not configured"
		}

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/coach", func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			// Memory routes
			r.Route("/memory", func(r chi.Router) {
				r.Get("/", h.ListMemories)
				r.Get("/context", h.MemoryContext)
				r.Get("/relevant", h.RelevantMemory)
				r.Get("/hits", h.MemoryHits)
				r.Post("/remember", h.Remember)
			})

			// Turn intake, rate-limited per client
			r.Group(func(r chi.Router) {
				if cfg.TurnRateLimiter != nil {
					r.Use(cfg.TurnRateLimiter)
				}
				r.Post("/turns", h.SubmitTurn)
			})
		})
	})

	return r
}
