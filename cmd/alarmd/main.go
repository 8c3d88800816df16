package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"appliance-alarm-backend/config"
	"appliance-alarm-backend/internal/api"
	"appliance-alarm-backend/internal/correlation"
	"appliance-alarm-backend/internal/db"
	"appliance-alarm-backend/internal/evaluator"
	"appliance-alarm-backend/internal/ingest"
	"appliance-alarm-backend/internal/kv"
	"appliance-alarm-backend/internal/logging"
	"appliance-alarm-backend/internal/measurement"
	"appliance-alarm-backend/internal/metrics"
	"appliance-alarm-backend/internal/registry"
	"appliance-alarm-backend/internal/store"
)

func main() {
	envErr := godotenv.Load()

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "alarmd")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Debug("no .env file loaded", zap.Error(envErr))
	}
	logger.Info("configuration loaded", zap.String("path", configPath))

	// Initialize database
	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("failed to get sql.DB", zap.Error(err))
	}
	defer sqlDB.Close()
	metrics.Init(sqlDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB, logger)
	devices := registry.New(appStore, logger)
	orchestrator := correlation.NewOrchestrator(devices, appStore, appStore, evaluator.New(time.Now), logger)
	source := measurement.NewClient(cfg.Source, logger)

	cache := kv.New(cfg.Redis, cfg.Server.CacheTTL())
	if rkv, ok := cache.(*kv.RedisKV); ok {
		if err := rkv.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, falling back to in-process cache", zap.Error(err))
			rkv.Close()
			cache = kv.NewMemory(cfg.Server.CacheTTL())
		} else {
			defer rkv.Close()
		}
	}

	// Background ingestion
	pool := ingest.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, orchestrator, logger)
	pool.Start(ctx)

	var subscriber *ingest.MQTTSubscriber
	if cfg.MQTT.Enabled {
		subscriber = ingest.NewMQTTSubscriber(cfg.MQTT, pool, logger)
		if err := subscriber.Start(ctx); err != nil {
			logger.Error("mqtt ingestion disabled", zap.Error(err))
			subscriber = nil
		}
	}

	marks := ingest.NewWatermarks()
	poller := ingest.NewPoller(cfg.Poller, source, pool, logger, ingest.WithWatermarks(marks))
	go poller.Run(ctx)

	// Initialize router
	handler := api.NewHandler(api.Deps{
		Registry: devices,
		Users:    appStore,
		Alarms:   orchestrator,
		Source:   source,
		Cache:    cache,
		Health:   appStore,
		Marks:    marks,
		Logger:   logger,
	})
	router := api.NewRouter(handler, cfg.Server, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server Shutdown", zap.Error(err))
	}
	if subscriber != nil {
		subscriber.Stop()
	}
	cancel()

	logger.Info("server gracefully stopped")
}
