package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"occurrence-atlas/internal/config"
	"occurrence-atlas/internal/gbif"
	"occurrence-atlas/internal/raster"
	"occurrence-atlas/internal/region"
	"occurrence-atlas/internal/repository"
	"occurrence-atlas/internal/services"
	"occurrence-atlas/internal/snapshot"
	"occurrence-atlas/pkg/database"
	"occurrence-atlas/pkg/logging"
	"occurrence-atlas/pkg/metrics"
)

func main() {
	// Parse command-line flags
	rasterPath := flag.String("raster", "", "Elevation grid file (defaults to RASTER_PATH)")
	snapshotOut := flag.String("snapshot-out", "", "Write the joined records to this CSV after ingestion")
	flag.Parse()

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

	if *rasterPath == "" {
		*rasterPath = cfg.Data.RasterPath
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("occurrence-atlas-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting occurrence ingestion", logging.Fields{
		"version":           "1.0.0",
		"species_count":     len(cfg.Species),
		"per_species_limit": cfg.GBIF.PerSpeciesLimit,
		"raster_path":       *rasterPath,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("occurrence_ingester")

	// Load the elevation surface
	surface, err := raster.ReadASCIIGridFile(*rasterPath)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to load elevation grid", logging.Fields{
			"raster_path": *rasterPath,
		}, err)
	}

	// Build the query region
	reg, err := region.New(cfg.Region.MinLat, cfg.Region.MinLon, cfg.Region.MaxLat, cfg.Region.MaxLon)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Invalid region bounds", logging.Fields{}, err)
	}

	// Initialize database
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
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	// Initialize repository and services
	occurrenceRepo := repository.NewOccurrenceRepository(db, logger, metricsCollector)
	client := gbif.NewClient(cfg.GBIF.BaseURL, cfg.GBIF.Timeout, logger, metricsCollector)
	ingestionService := services.NewIngestionService(
		client, occurrenceRepo, reg, cfg.Species, cfg.GBIF.PerSpeciesLimit, logger, metricsCollector)

	// Ingest data
	result, err := ingestionService.Ingest(ctx, surface)
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{
			"error": err.Error(),
		}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Species:            %d\n", result.Species)
	fmt.Printf("Fetched Records:    %d\n", result.FetchedRecords)
	fmt.Printf("Stored Records:     %d\n", result.StoredRecords)
	fmt.Printf("Duplicates Dropped: %d\n", result.DuplicatesDropped)
	fmt.Printf("Without Elevation:  %d\n", result.NoElevation)
	fmt.Printf("Duration:           %v\n", result.Duration)

	// Export a flat-file snapshot if requested
	if *snapshotOut != "" {
		if err := snapshot.WriteOccurrencesFile(*snapshotOut, result.Records); err != nil {
			logger.Fatal(ctx, "[SNAPSHOT_ERROR] Failed to write snapshot", logging.Fields{
				"path": *snapshotOut,
			}, err)
		}
		fmt.Printf("\nSnapshot written to %s\n", *snapshotOut)
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed successfully", logging.Fields{
		"species_count":      result.Species,
		"fetched_records":    result.FetchedRecords,
		"stored_records":     result.StoredRecords,
		"duplicates_dropped": result.DuplicatesDropped,
		"duration_seconds":   result.Duration.Seconds(),
	})
}
