package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cesargomez89/movielog/internal/config"
	"github.com/cesargomez89/movielog/internal/constants"
	"github.com/cesargomez89/movielog/internal/environment"
	"github.com/cesargomez89/movielog/internal/handlers"
	"github.com/cesargomez89/movielog/internal/logger"
	"github.com/cesargomez89/movielog/internal/lookup"
	"github.com/cesargomez89/movielog/internal/store"
	"github.com/cesargomez89/movielog/internal/tmdb"
)

func main() {
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Open the catalog engine, migrating a prior on-disk layout if present
	engine, err := environment.Open(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to open catalog", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	// Seed persisted settings from the environment on first run
	if saved, err := engine.Settings.Get(store.SettingTMDBAPIKey); err == nil && saved == "" && cfg.TMDBAPIKey != "" {
		if err := engine.Settings.Set(store.SettingTMDBAPIKey, cfg.TMDBAPIKey); err != nil {
			appLogger.Error("Failed to persist API key", "error", err)
		}
	}
	if cfg.Geometry != "" {
		if err := engine.Settings.Set(store.SettingGeometry, cfg.Geometry); err != nil {
			appLogger.Error("Failed to persist geometry", "error", err)
		}
	}

	// Initialize Lookup Pipeline
	provider := tmdb.NewClient(cfg.TMDBBaseURL, nil, appLogger)
	pipeline := lookup.NewPipeline(provider, engine.DB, cfg.UseTMDB, appLogger)
	queue := lookup.NewQueue()
	debouncer := lookup.NewDebouncer(constants.DebounceInterval)
	defer debouncer.Cancel()

	// Routes
	h := handlers.NewHandler(engine.Catalog, engine.Settings, pipeline, queue, debouncer, engine.DB, appLogger)

	// The consumer feeds lookup snapshots into the handler's candidate view
	consumer := lookup.NewConsumer(queue, constants.ConsumerInterval, h.ApplyCandidates)
	consumer.Start()
	defer consumer.Stop()

	// Initialize Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)

	// Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
