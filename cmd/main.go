package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"CommClinic/cache"
	"CommClinic/config"
	"CommClinic/database"
	"CommClinic/metrics"
	"CommClinic/repositories"
	"CommClinic/routes"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load configuration", zap.Error(err))
	}

	log, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	db, err := database.InitDB(ctx, cfg.DBURL, cfg.IsDevelopment(), log)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(ctx, database.DefaultRedisConfig(cfg.RedisAddress), log)
	if err != nil {
		log.Fatal("failed to initialize Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	appCache, err := cache.NewCache(redisClient)
	if err != nil {
		log.Fatal("failed to initialize cache", zap.Error(err))
	}

	// cached appointments may predate a schema change made by the migration above
	if err := appCache.DeleteAll(ctx, repositories.AppointmentCachePattern); err != nil {
		log.Warn("failed to flush appointment cache", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler := routes.SetupRoutes(routes.Dependencies{
		Config:  cfg,
		DB:      db,
		Redis:   redisClient,
		Cache:   appCache,
		Logger:  log,
		Metrics: metrics.New(registry),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        handler,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
		IdleTimeout:    30 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		log.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen and serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	log.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	wg.Wait()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server exited gracefully")
}

func newLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
