package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coindeck/coindeck_backend/internal/adapters/coingecko"
	"github.com/coindeck/coindeck_backend/internal/adapters/favstore"
	"github.com/coindeck/coindeck_backend/internal/core/ports"
	"github.com/coindeck/coindeck_backend/internal/core/services"
	"github.com/coindeck/coindeck_backend/internal/dto"
	"github.com/coindeck/coindeck_backend/internal/handlers"
	"github.com/coindeck/coindeck_backend/internal/middleware"
	"github.com/coindeck/coindeck_backend/internal/platform/config"
	"github.com/coindeck/coindeck_backend/internal/utils"
	"github.com/coindeck/coindeck_backend/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	limitermem "github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title Coindeck Backend API
// @version 1.0
// @description Market-data backend for the Coindeck mobile-web dashboard.

// @host localhost:8080
// @BasePath /
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := dto.RegisterValidations(); err != nil {
		logger.Error("Failed to register request validations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	favRepo, closeStores, err := buildFavoriteStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize favorites persistence", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStores()

	source := coingecko.NewClient(cfg.CoinGeckoBaseURL, coingecko.WithAPIKey(cfg.CoinGeckoAPIKey))

	container := services.NewServiceContainer(cfg, source, favRepo, logger)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS, rate limiting)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(corsConfig(cfg)))

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer posthogClient.Close()
	r.Use(middleware.PosthogMiddleware(posthogClient))

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid RATE_LIMIT format", slog.String("value", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}
	r.Use(middleware.RateLimit(limiter.New(limitermem.NewStore(), rate)))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, container, logger)

	// Warm the snapshot and keep it fresh until shutdown
	container.Market.StartRefresher(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Server stopped cleanly")
}

// buildFavoriteStore assembles the chained favorites repository from the
// configured backend list. Backends whose connection details are absent are
// skipped with a warning; the in-memory store is always appended last so the
// chain never comes up empty.
func buildFavoriteStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.FavoriteRepository, func(), error) {
	chain := favstore.NewChain(logger)
	var closers []func()

	for _, backend := range cfg.FavoriteBackends {
		switch backend {
		case "pgsql":
			if cfg.DatabaseURL == "" {
				logger.Warn("PGSQL_URL not set, skipping pgsql favorites backend")
				continue
			}
			pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return nil, nil, err
			}
			closers = append(closers, pool.Close)
			if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
				for _, c := range closers {
					c()
				}
				return nil, nil, err
			}
			chain.Append("pgsql", favstore.NewPgxStore(pool))
		case "redis":
			if cfg.RedisAddr == "" {
				logger.Warn("REDIS_ADDR not set, skipping redis favorites backend")
				continue
			}
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
			})
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("Redis unreachable, skipping redis favorites backend", slog.String("error", err.Error()))
				_ = client.Close()
				continue
			}
			closers = append(closers, func() { _ = client.Close() })
			chain.Append("redis", favstore.NewRedisStore(client, favstore.DefaultRedisTTL))
		case "memory":
			chain.Append("memory", favstore.NewMemoryStore())
		default:
			logger.Warn("Unknown favorites backend, skipping", slog.String("backend", backend))
		}
	}

	if chain.Len() == 0 {
		chain.Append("memory", favstore.NewMemoryStore())
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return chain, closeAll, nil
}

// runMigrations applies all pending "up" migrations against the favorites
// database using a short-lived database/sql connection.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{"GET", "PUT", "DELETE", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Type", middleware.ClientIDHeader}
	c.ExposeHeaders = []string{middleware.ClientIDHeader}
	if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.CORSAllowedOrigins
	}
	return c
}
