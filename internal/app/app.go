package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/TiaaDeals/internal/auth"
	"github.com/utafrali/TiaaDeals/internal/catalogseed"
	"github.com/utafrali/TiaaDeals/internal/config"
	"github.com/utafrali/TiaaDeals/internal/event"
	handler "github.com/utafrali/TiaaDeals/internal/handler/http"
	"github.com/utafrali/TiaaDeals/internal/repository"
	"github.com/utafrali/TiaaDeals/internal/repository/memory"
	"github.com/utafrali/TiaaDeals/internal/repository/postgres"
	redisrepo "github.com/utafrali/TiaaDeals/internal/repository/redis"
	"github.com/utafrali/TiaaDeals/internal/service"
	"github.com/utafrali/TiaaDeals/migrations"
	"github.com/utafrali/TiaaDeals/pkg/database"
	"github.com/utafrali/TiaaDeals/pkg/health"
	pkgkafka "github.com/utafrali/TiaaDeals/pkg/kafka"
	"github.com/utafrali/TiaaDeals/pkg/middleware"
	"github.com/utafrali/TiaaDeals/pkg/tracing"
)

// App wires together all dependencies and runs the TiaaDeals API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	registry       *prometheus.Registry
	pool           *database.BoundedPool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	limiter        *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// stores groups the repositories of the selected storage backend.
type stores struct {
	users       repository.UserRepository
	collections repository.CollectionRepository
	products    repository.ProductRepository
	categories  repository.CategoryRepository
}

// NewApp creates a new application instance, initializing all dependencies.
// Anything opened before a failure is released again.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &App{cfg: cfg, logger: logger, registry: registry}
	defer func() {
		if err != nil {
			a.release()
		}
	}()

	// 1. Tracing.
	a.tracerShutdown, err = tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// 2. Storage.
	st, err := a.initStorage(ctx)
	if err != nil {
		return nil, err
	}

	// 3. Optional Redis catalog cache.
	if cfg.RedisEnabled {
		if err := a.initCatalogCache(ctx, &st); err != nil {
			return nil, err
		}
	}

	// 4. Event publishing.
	var publisher service.EventPublisher
	if cfg.KafkaEnabled {
		metrics, err := pkgkafka.NewProducerMetrics(registry)
		if err != nil {
			return nil, fmt.Errorf("register kafka metrics: %w", err)
		}
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers, config.ServiceName), metrics, logger)
		publisher = event.NewProducer(a.producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		publisher = event.NewLogPublisher(logger)
		logger.Info("kafka disabled, events are logged only")
	}

	// 5. Services, health checks and router.
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
	collectionMetrics, err := service.NewCollectionMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("register collection metrics: %w", err)
	}
	httpMetrics, err := middleware.NewHTTPMetrics(registry, config.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("register http metrics: %w", err)
	}

	healthHandler := health.NewHandler(config.ServiceName)
	if a.pool != nil {
		healthHandler.RegisterCritical("postgres", a.pool.Ping)
	}
	if a.producer != nil {
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
	}
	if a.redis != nil {
		client := a.redis
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	a.limiter = middleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, logger)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(handler.RouterConfig{
		ServiceName:    config.ServiceName,
		Auth:           service.NewAuthService(st.users, tokens, publisher, logger),
		Collections:    service.NewCollectionService(st.collections, st.products, publisher, collectionMetrics, logger),
		Catalog:        service.NewCatalogService(st.products, st.categories, logger),
		VerifyToken:    tokens.Verify,
		Health:         healthHandler,
		Metrics:        httpMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		AuthLimiter:    a.limiter,
		CORS:           cors,
		Logger:         logger,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

func (a *App) initStorage(ctx context.Context) (stores, error) {
	if a.cfg.StorageBackend == config.StorageMemory {
		store := memory.NewStore()
		demo := catalogseed.Demo(time.Now())
		catalogseed.LoadMemory(store, demo)
		a.logger.Warn("using in-memory storage, data is lost on restart",
			slog.Int("categories", len(demo.Categories)),
			slog.Int("products", len(demo.Products)),
		)
		return stores{
			users:       store.Users(),
			collections: store.Collections(),
			products:    store.Products(),
			categories:  store.Categories(),
		}, nil
	}

	pgCfg := a.cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
	if err != nil {
		return stores{}, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = database.NewBoundedPool(pool, pgCfg.AcquireTimeout)
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.Int("port", pgCfg.Port),
		slog.String("database", pgCfg.DBName),
	)

	if err := database.RegisterPoolMetrics(a.registry, pool, config.ServiceName); err != nil {
		return stores{}, fmt.Errorf("register pool metrics: %w", err)
	}
	if err := database.RegisterQueryMetrics(a.registry); err != nil {
		return stores{}, fmt.Errorf("register query metrics: %w", err)
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		return stores{}, fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	if threshold := a.cfg.SlowQueryThreshold(); threshold > 0 {
		database.SetSlowQueryLogging(threshold, a.logger)
	}

	return stores{
		users:       postgres.NewUserRepository(a.pool),
		collections: postgres.NewCollectionRepository(a.pool),
		products:    postgres.NewProductRepository(a.pool),
		categories:  postgres.NewCategoryRepository(a.pool),
	}, nil
}

// initCatalogCache puts the Redis read-through cache in front of the catalog
// repositories. An unreachable Redis at start-up leaves the catalog uncached.
func (a *App) initCatalogCache(ctx context.Context, st *stores) error {
	redisCfg := a.cfg.Redis()
	client, err := database.NewRedisClient(ctx, redisCfg)
	if err != nil {
		a.logger.Warn("redis unavailable, catalog cache disabled",
			slog.String("addr", redisCfg.Addr()),
			slog.String("error", err.Error()),
		)
		return nil
	}
	a.redis = client

	cache, err := redisrepo.NewCatalogCache(client, a.cfg.CatalogCacheTTL, a.registry, a.logger)
	if err != nil {
		return fmt.Errorf("init catalog cache: %w", err)
	}
	st.products = cache.Products(st.products)
	st.categories = cache.Categories(st.categories)
	a.logger.Info("catalog cache enabled",
		slog.String("addr", redisCfg.Addr()),
		slog.Duration("ttl", a.cfg.CatalogCacheTTL),
	)
	return nil
}

// Handler returns the HTTP handler served by Run.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("storage", a.cfg.StorageBackend),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.release()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush spans of drained requests)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.release(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// release frees everything but the HTTP server, in shutdown order. Released
// components are cleared so a second call is a no-op.
func (a *App) release() error {
	var errs []error

	if a.limiter != nil {
		a.limiter.Stop()
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.producer = nil
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.redis = nil
	}

	if a.pool != nil {
		a.pool.Pool().Close()
		a.pool = nil
	}

	return errors.Join(errs...)
}
