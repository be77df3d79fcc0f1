// Package main is the entrypoint for the exerlog API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/exerlog/exerlog/internal/cache"
	"github.com/exerlog/exerlog/internal/config"
	"github.com/exerlog/exerlog/internal/handler"
	"github.com/exerlog/exerlog/internal/metrics"
	"github.com/exerlog/exerlog/internal/middleware"
	"github.com/exerlog/exerlog/internal/repository"
	"github.com/exerlog/exerlog/internal/repository/sqlite"
	"github.com/exerlog/exerlog/internal/server"
	"github.com/exerlog/exerlog/internal/service"
)

// recordStore is what the API needs from either store backend.
type recordStore interface {
	service.Store
	handler.HealthChecker
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error(
			"failed to open record store",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}

	var cacheClient *cache.Cache
	if cfg.CacheEnabled() {
		cacheClient, err = cache.New(ctx, cfg.RedisURL, cfg.LogCacheTTL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			_ = closeStore(context.Background())
			os.Exit(1)
		}
		logger.Info("connected to Redis")
	} else {
		logger.Info("REDIS_URL not set; log cache and rate limiting disabled")
	}

	recorder := metrics.NewInMemory()
	r := setupRouter(store, cacheClient, recorder, cfg, logger)

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("store", closeStore)
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore connects to the backend DATABASE_URL names.
func openStore(ctx context.Context, cfg *config.Config) (recordStore, server.ShutdownFunc, error) {
	driver, err := cfg.StoreDriver()
	if err != nil {
		return nil, nil, err
	}

	if driver == config.DriverSQLite {
		store, err := sqlite.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func(context.Context) error { return store.Close() }, nil
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return repo, func(context.Context) error {
		repo.Close()
		return nil
	}, nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
// cacheClient is nil when Redis is not configured.
func setupRouter(
	store recordStore,
	cacheClient *cache.Cache,
	recorder *metrics.InMemoryRecorder,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	// Keep nil pointers out of the interfaces below.
	var (
		userCache   service.UserCache
		cacheHealth handler.HealthChecker
		limiter     middleware.RateLimiter
	)
	if cacheClient != nil {
		userCache = cacheClient
		cacheHealth = cacheClient
		limiter = cacheClient
	}

	userService := service.NewUserService(store, userCache, logger, recorder)

	h := handler.New()
	healthHandler := handler.NewHealthHandler(store, cacheHealth)
	metricsHandler := handler.NewMetricsHandler(recorder)
	userHandler := handler.NewUserHandler(userService, logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	r.Get("/", h.Hello)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	r.Route("/api/users", func(r chi.Router) {
		r.Use(middleware.RateLimitIP(middleware.RateLimitConfig{
			Logger:  logger,
			Limiter: limiter,
			Enabled: cfg.RateLimitEnabled,
			RPS:     cfg.RateLimitRPS,
			Burst:   cfg.RateLimitBurst,
		}))

		r.Get("/", userHandler.List)
		r.Post("/", userHandler.Create)
		r.Post("/{id}/exercises", userHandler.AddExercise)
		r.Get("/{id}/logs", userHandler.Logs)
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// redactURL strips the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// sanitizeError replaces any secret URL in err's message with its
// redacted form.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
