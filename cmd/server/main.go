package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/contract-claims/internal/adapters/http/auth"
	"github.com/ogurasousui/contract-claims/internal/adapters/http/handler"
	"github.com/ogurasousui/contract-claims/internal/adapters/repository/directory"
	"github.com/ogurasousui/contract-claims/internal/adapters/repository/postgres"
	"github.com/ogurasousui/contract-claims/internal/adapters/storage/minio"
	"github.com/ogurasousui/contract-claims/internal/core/claim"
	"github.com/ogurasousui/contract-claims/internal/core/user"
	"github.com/ogurasousui/contract-claims/internal/platform/config"
	pg "github.com/ogurasousui/contract-claims/internal/platform/db/postgres"
	"github.com/ogurasousui/contract-claims/internal/platform/logger"
	"github.com/ogurasousui/contract-claims/internal/platform/server"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log, os.Stdout)
	slog.SetDefault(log)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database pool: %w", err)
	}
	defer dbPool.Close()

	var (
		store claim.DocumentStore
		keys  claim.KeyGenerator
	)
	if cfg.Storage.Enabled() {
		minioStore, err := minio.New(cfg.Storage)
		if err != nil {
			return fmt.Errorf("initialize document storage: %w", err)
		}
		if err := minioStore.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("prepare document bucket: %w", err)
		}
		store = minioStore
		keys = minio.NewKeys()
	} else {
		log.Warn("document storage is not configured, uploads are disabled")
	}

	claimRepo := postgres.NewClaimRepository(dbPool)
	claimSvc := claim.NewService(claimRepo, store, keys,
		claim.WithTransactionManager(pg.NewTransactionManager(dbPool)),
		claim.WithLogger(log),
	)

	directoryRepo, err := directory.New(cfg.Users)
	if err != nil {
		return fmt.Errorf("load user directory: %w", err)
	}
	userSvc := user.NewService(directoryRepo)

	healthCheck := pg.HealthCheck(dbPool)

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(handler.Dependencies{
		Claims:      claimSvc,
		Users:       userSvc,
		Tokens:      auth.NewTokens(cfg.Auth),
		HealthCheck: healthCheck,
		Logger:      log,
	})

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPListenAddr,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTPListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.Server.GRPCListenAddr != "" {
		grpcServer := server.New(cfg.Server.GRPCListenAddr, healthCheck, server.WithLogger(log))
		g.Go(func() error {
			log.Info("gRPC health server listening", "addr", cfg.Server.GRPCListenAddr)
			return grpcServer.Run(gctx)
		})
	}

	return g.Wait()
}
