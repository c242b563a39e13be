package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/angulliamysara-del/MYCloud/internal/auth"
	"github.com/angulliamysara-del/MYCloud/internal/config"
	"github.com/angulliamysara-del/MYCloud/internal/drive"
	"github.com/angulliamysara-del/MYCloud/internal/file"
	"github.com/angulliamysara-del/MYCloud/internal/logger"
	"github.com/angulliamysara-del/MYCloud/internal/quota"
	"github.com/angulliamysara-del/MYCloud/internal/server"
	"github.com/angulliamysara-del/MYCloud/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logg, err := logger.Init()
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer logg.Sync()

	cfg, err := config.Load()
	if err != nil {
		logg.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := storage.RunMigrations(cfg.Postgres); err != nil {
		logg.Fatal("run migrations", zap.Error(err))
	}

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logg.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	providerClient, err := storage.NewProviderClient(cfg.Provider)
	if err != nil {
		logg.Fatal("connect storage provider", zap.Error(err))
	}

	if err := storage.EnsureBucket(ctx, providerClient, cfg.Provider.Bucket, cfg.Provider.Region); err != nil {
		logg.Fatal("ensure bucket", zap.Error(err))
	}

	authRepo := auth.NewRepository(dbPool, cfg.Auth.MaxUsers, cfg.Quota.DefaultLimit)
	authService := auth.NewService(authRepo, cfg.Auth)

	quotaRepo := quota.NewRepository(dbPool, cfg.Quota.DefaultLimit)
	quotaService := quota.NewService(quotaRepo)

	driveClient := drive.NewMinIOClient(providerClient, cfg.Provider.Bucket, cfg.Provider.CallTimeout)
	folderResolver := drive.NewResolver(driveClient, cfg.Provider.RootFolder)
	fileService := file.NewService(driveClient, folderResolver, quotaService)

	router := server.NewRouter(server.Dependencies{
		Config:       cfg,
		DB:           dbPool,
		Provider:     providerClient,
		AuthService:  authService,
		QuotaService: quotaService,
		FileService:  fileService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logg.Info("MYCloud API listening", zap.String("address", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logg.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error("shutdown error", zap.Error(err))
	}
}
