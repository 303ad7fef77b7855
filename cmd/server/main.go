package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"occurrence-atlas/internal/config"
	"occurrence-atlas/internal/handlers"
	"occurrence-atlas/internal/occurrence"
	"occurrence-atlas/internal/repository"
	"occurrence-atlas/internal/services"
	"occurrence-atlas/pkg/database"
	"occurrence-atlas/pkg/logging"
	"occurrence-atlas/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("occurrence-atlas-api", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting occurrence atlas API server", logging.Fields{
		"version":     "1.0.0",
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"data_source": cfg.Data.Source,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("occurrence_atlas")

	sessionService := services.NewSessionService(nil, logger)

	var occurrenceService *services.OccurrenceService

	if cfg.Data.Source == "postgres" {
		dbConfig := &database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}

		db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
		}
		defer db.Close()

		occurrenceRepo := repository.NewOccurrenceRepository(db, logger, metricsCollector)
		occurrenceService = services.NewOccurrenceService(occurrenceRepo, logger, metricsCollector)
		sessionService = services.NewSessionService(occurrenceRepo, logger)
	}

	// Build the immutable session dataset the filter engine runs against
	var session *occurrence.Session
	if cfg.Data.Source == "snapshot" {
		session, err = sessionService.LoadFromSnapshot(ctx, cfg.Data.SnapshotCSV, cfg.Data.RasterPath)
	} else {
		session, err = sessionService.LoadFromRepository(ctx)
	}
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to build session dataset", logging.Fields{
			"data_source": cfg.Data.Source,
		}, err)
	}

	// Initialize handlers
	occurrenceHandler := handlers.NewOccurrenceHandler(session, occurrenceService, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()

	// Register routes
	occurrenceHandler.RegisterRoutes(router)

	// API documentation
	router.HandleFunc("/api/docs/openapi.json", handlers.OpenAPISpec).Methods("GET")
	router.HandleFunc("/docs", handlers.SwaggerUI).Methods("GET")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address":         server.Addr,
			"session_records": session.Len(),
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
