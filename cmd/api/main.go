// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dramos02/employee-directory/internal/admin"
	"github.com/Dramos02/employee-directory/internal/auth"
	"github.com/Dramos02/employee-directory/internal/config"
	"github.com/Dramos02/employee-directory/internal/core"
	"github.com/Dramos02/employee-directory/internal/employee"
	"github.com/Dramos02/employee-directory/internal/health"
	"github.com/Dramos02/employee-directory/internal/mailer"
	"github.com/Dramos02/employee-directory/internal/middleware"
	"github.com/Dramos02/employee-directory/internal/roster"
	"github.com/Dramos02/employee-directory/internal/server"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.Migrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	mail, err := mailer.New(cfg.Mail, cfg.App.BaseURL, logger)
	if err != nil {
		return err
	}

	feed := roster.NewFeed(logger)

	employeeRepo := employee.NewRepository(db.DB)
	employeeSvc := employee.NewService(employeeRepo, feed)
	employeeHandler := employee.NewHandler(employeeSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(
		authRepo,
		jwtManager,
		employeeSvc,
		mail,
		redis.Client,
		cfg.Tokens,
		logger,
	)
	authHandler := auth.NewHandler(authSvc)

	healthHandler := health.NewHandler(db, redis)
	healthHandler.SetReady(false)

	// The projection subscribes before bootstrapping so no addition
	// committed during bootstrap is missed; duplicates are deduped.
	projection := roster.NewProjection(logger)
	events, cancelFeed := feed.Subscribe()
	defer cancelFeed()

	if err := projection.Bootstrap(ctx, employeeRepo); err != nil {
		return err
	}
	go projection.Run(ctx, events)
	healthHandler.SetReady(true)

	hub := roster.NewHub(projection, jwtManager, logger)
	rosterHandler := roster.NewHandler(projection, hub)
	profileHub := roster.NewProfileHub(feed, employeeSvc, jwtManager, logger)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Roster:     projection,
		Viewers:    hub,
		Watchers:   profileHub,
		Employees:  employeeSvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(jwtManager)
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		employeeHandler.RegisterRoutes(r, authenticator, profileHub.ServeWS)

		r.Route("/admin", func(r chi.Router) {
			// The websocket endpoint authenticates in-band; everything
			// else requires an admin bearer token up front.
			r.Get("/roster/ws", hub.ServeWS)

			r.Group(func(r chi.Router) {
				r.Use(authenticator)
				r.Use(adminOnly)
				employeeHandler.RegisterAdminRoutes(r)
				rosterHandler.RegisterAdminRoutes(r)
				adminHandler.RegisterRoutes(r)
			})
		})
	})

	go tokenJanitor(ctx, authRepo, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

// tokenJanitor purges expired refresh tokens hourly.
func tokenJanitor(ctx context.Context, repo auth.Repository, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := repo.DeleteExpired(ctx)
			if err != nil {
				logger.Error("expired token cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("expired tokens purged", "count", deleted)
			}
		}
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
