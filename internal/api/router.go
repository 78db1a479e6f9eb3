package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vientofactory/lawcast-backend/internal/api/handler"
	apimw "github.com/vientofactory/lawcast-backend/internal/api/middleware"
	"github.com/vientofactory/lawcast-backend/internal/cache"
	"github.com/vientofactory/lawcast-backend/internal/executor"
	"github.com/vientofactory/lawcast-backend/internal/repository"
	"github.com/vientofactory/lawcast-backend/internal/service"
)

// Deps bundles every collaborator the HTTP surface reads from. None of it
// is mutated by a request handler; writes go through service.WebhookService.
type Deps struct {
	WebhookSvc  *service.WebhookService
	Repo        repository.EndpointRepository
	Cache       *cache.RecencyCache
	Executor    *executor.Executor
	Redis       *redis.Client
	Registry    prometheus.Gatherer
	FrontendURL []string
}

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(deps Deps, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)            // recover panics, return 500
	r.Use(chimw.RealIP)               // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1 << 20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)        // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.FrontendURL,
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type", "X-Correlation-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- handler instances ---
	wh := handler.NewWebhookHandler(deps.WebhookSvc, deps.Repo, logger)
	nh := handler.NewNoticeHandler(deps.Cache)
	sh := handler.NewStatsHandler(deps.Repo, deps.Cache, deps.Executor)
	bh := handler.NewBatchHandler(deps.Executor)
	hh := handler.NewHealthHandler(deps.Redis)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		// /webhooks/stats/detailed and /webhooks/system-health must be
		// registered before any dynamic /webhooks/{id} route is ever added,
		// so chi does not treat "stats"/"system-health" as a path parameter.
		r.Post("/webhooks", wh.Register)
		r.Get("/webhooks/stats/detailed", wh.StatsDetailed)
		r.Get("/webhooks/system-health", wh.SystemHealth)

		r.Get("/notices/recent", nh.Recent)

		r.Get("/stats", sh.Stats)
		r.Get("/batch/status", bh.Status)
		r.Get("/health", hh.Health)
	})

	return r
}
