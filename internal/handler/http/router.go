package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/TiaaDeals/internal/domain"
	"github.com/utafrali/TiaaDeals/internal/service"
	"github.com/utafrali/TiaaDeals/pkg/health"
	"github.com/utafrali/TiaaDeals/pkg/middleware"
)

// catalogMaxAge is the Cache-Control max-age of public catalog responses.
const catalogMaxAge = 60 * time.Second

// RouterConfig carries the dependencies of NewRouter. Metrics, MetricsHandler
// and AuthLimiter are optional.
type RouterConfig struct {
	ServiceName    string
	Auth           *service.AuthService
	Collections    *service.CollectionService
	Catalog        *service.CatalogService
	VerifyToken    middleware.TokenValidator
	Health         *health.Handler
	Metrics        *middleware.HTTPMetrics
	MetricsHandler http.Handler
	AuthLimiter    *middleware.RateLimiter
	CORS           middleware.CORSConfig
	Logger         *slog.Logger
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Handler)
	}
	r.Use(middleware.Tracing(cfg.ServiceName, "/health", "/health/live", "/health/ready", "/metrics"))

	// Health check endpoints
	r.Get("/health", cfg.Health.ReadinessHandler())
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	authHandler := NewAuthHandler(cfg.Auth, logger)
	catalogHandler := NewCatalogHandler(cfg.Catalog, logger)
	requireAuth := middleware.Auth(cfg.VerifyToken)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireJSON)

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.NoStore)
			if cfg.AuthLimiter != nil {
				r.Use(cfg.AuthLimiter.Handler)
			}
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.With(requireAuth).Get("/me", authHandler.Me)
		})

		for _, kind := range []domain.Kind{domain.KindCart, domain.KindWishlist} {
			h := NewCollectionHandler(cfg.Collections, kind, logger)
			r.Route("/"+kind.String(), func(r chi.Router) {
				r.Use(middleware.NoStore)
				r.Use(requireAuth)
				h.routes(r)
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(catalogMaxAge))

			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/search", catalogHandler.SearchProducts)
			r.Get("/products/{id}", catalogHandler.GetProduct)

			r.Get("/categories", catalogHandler.ListCategories)
			r.Get("/categories/{id}", catalogHandler.GetCategory)
			r.Get("/categories/{id}/products", catalogHandler.CategoryProducts)
		})
	})

	return r
}
