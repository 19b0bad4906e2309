package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/linesalex/netinv/internal/app"
	"github.com/linesalex/netinv/internal/audit"
	audithttp "github.com/linesalex/netinv/internal/audit/http"
	"github.com/linesalex/netinv/internal/auth"
	"github.com/linesalex/netinv/internal/carriers"
	"github.com/linesalex/netinv/internal/observability"
	"github.com/linesalex/netinv/internal/platform/cache"
	"github.com/linesalex/netinv/internal/platform/db"
	"github.com/linesalex/netinv/internal/rbac"
	"github.com/linesalex/netinv/internal/users"
	"github.com/linesalex/netinv/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, permission cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditRecorder := audit.NewRecorder(audit.NewRepository(dbpool), logger)

	tokenService := auth.NewTokenService(cfg.TokenSecret, cfg.TokenTTL)
	authService := auth.NewService(auth.NewRepository(dbpool))
	authMiddleware := auth.Middleware{Tokens: tokenService}
	authHandler := auth.NewHandler(logger, authService, tokenService, auditRecorder)

	permCache := rbac.NewCache(redisClient, cfg.PermCacheTTL)
	rbacService := rbac.NewService(rbac.NewRepository(dbpool), permCache)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}
	rbacHandler := rbac.NewHandler(logger, rbacService, auditRecorder, rbacMiddleware)

	usersService := users.NewService(users.NewRepository(dbpool), auditRecorder, permCache)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	carriersService := carriers.NewService(carriers.NewRepository(dbpool), auditRecorder)
	carriersHandler := carriers.NewHandler(logger, carriersService, rbacMiddleware)

	auditService := audit.NewService(audit.NewRepository(dbpool))
	auditHandler := audithttp.NewHandler(logger, auditService, audit.NewExporter())

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AuthMiddleware:  authMiddleware,
		RBACMiddleware:  rbacMiddleware,
		AuthHandler:     authHandler,
		RBACHandler:     rbacHandler,
		UsersHandler:    usersHandler,
		CarriersHandler: carriersHandler,
		AuditHandler:    auditHandler,
		JobsHandler:     jobsHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
