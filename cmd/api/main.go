package main

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/outbreak-engine/data"
	"github.com/jwebster45206/outbreak-engine/internal/config"
	"github.com/jwebster45206/outbreak-engine/internal/handlers"
	"github.com/jwebster45206/outbreak-engine/internal/logger"
	"github.com/jwebster45206/outbreak-engine/internal/middleware"
	"github.com/jwebster45206/outbreak-engine/internal/services/events"
	"github.com/jwebster45206/outbreak-engine/internal/session"
	"github.com/jwebster45206/outbreak-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Outbreak Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"tick_interval", cfg.TickInterval,
		"redis_enabled", cfg.RedisURL != "")

	var scenarioFS fs.FS = data.FS
	if cfg.DataDir != "" {
		scenarioFS = os.DirFS(cfg.DataDir)
		log.Info("Loading scenarios from directory", "dir", cfg.DataDir)
	}
	library := storage.NewScenarioLibrary(scenarioFS, log)

	manager := session.NewManager(library, session.Options{
		NominalInterval: cfg.TickInterval,
		FastInterval:    cfg.FastTickInterval,
		TTL:             cfg.SessionTTL,
		Seed:            cfg.RandomSeed,
	}, log)

	mux := http.NewServeMux()

	var pinger handlers.Pinger
	var snapshots handlers.SnapshotLoader
	var redisStore *storage.RedisStorage
	if cfg.RedisURL != "" {
		client := storage.NewClient(cfg.RedisURL)
		redisStore = storage.NewRedisStorage(client, library, cfg.SessionTTL, log)

		storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err := redisStore.WaitForConnection(storageCtx, 10, 2*time.Second)
		storageCancel()
		if err != nil {
			logger.WithError(log, err).Error("Failed to connect to Redis")
			os.Exit(1)
		}
		log.Info("Redis connection established successfully")

		manager.WithStore(redisStore).WithPublisher(events.NewBroadcaster(client, log))
		pinger, snapshots = redisStore, redisStore

		eventsHandler := handlers.NewEventsHandler(client, log)
		mux.Handle("/v1/events/sessions/", eventsHandler)
	}

	healthHandler := handlers.NewHealthHandler(pinger, manager, log)
	mux.Handle("/health", healthHandler)

	scenarioHandler := handlers.NewScenarioHandler(log, library)
	mux.Handle("/v1/scenarios", scenarioHandler)
	mux.Handle("/v1/scenarios/", scenarioHandler)

	sessionHandler := handlers.NewSessionHandler(log, manager, snapshots)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	mux.Handle("/v1/live/sessions/", handlers.NewLiveHandler(log, manager))

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go manager.RunJanitor(janitorCtx, time.Minute)

	handler := middleware.Chain(mux, middleware.WithRequestID, middleware.Logger(log), middleware.Recover(log))
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the SSE stream stays open for the life of a session
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(log, err).Error("Server failed to start")
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	stopJanitor()
	// Closing sessions publishes session.closed, which also ends open event streams.
	manager.Close(shutdownCtx)

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(log, err).Error("Server forced to shutdown")
		os.Exit(1)
	}

	if redisStore != nil {
		if err := redisStore.Close(); err != nil {
			logger.WithError(log, err).Error("Error closing Redis connection")
		}
	}

	log.Info("Server exited")
}
