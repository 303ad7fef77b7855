package services

import (
	"context"
	"fmt"
	"time"

	"occurrence-atlas/internal/config"
	"occurrence-atlas/internal/models"
	"occurrence-atlas/internal/occurrence"
	"occurrence-atlas/internal/raster"
	"occurrence-atlas/internal/region"
	"occurrence-atlas/internal/repository"
	"occurrence-atlas/pkg/logging"
	"occurrence-atlas/pkg/metrics"
)

// Fetcher is the occurrence-source boundary the ingestion service pulls from.
// *gbif.Client satisfies it.
type Fetcher interface {
	SearchAll(ctx context.Context, scientificName, geometryWKT string, limit int) ([]models.RawOccurrence, error)
}

// IngestionService builds the session dataset: it fetches raw occurrence
// batches per species, normalizes them, joins elevation, and persists the
// result. Any fetch, normalization, or join failure aborts the run; partial
// datasets are not served.
type IngestionService struct {
	fetcher  Fetcher
	repo     repository.OccurrenceRepository
	region   region.Region
	species  []config.Species
	perLimit int
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	Species           int
	FetchedRecords    int
	StoredRecords     int
	DuplicatesDropped int
	NoElevation       int
	Duration          time.Duration
	Records           []models.OccurrenceRecord
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	fetcher Fetcher,
	repo repository.OccurrenceRepository,
	reg region.Region,
	species []config.Species,
	perSpeciesLimit int,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *IngestionService {
	return &IngestionService{
		fetcher:  fetcher,
		repo:     repo,
		region:   reg,
		species:  species,
		perLimit: perSpeciesLimit,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// Ingest runs the full pipeline for the configured species list, in list
// order: fetch, normalize, spatial join against the surface, store. The
// joined records are returned so the caller can export a snapshot.
func (s *IngestionService) Ingest(ctx context.Context, surface raster.Surface) (*IngestionResult, error) {
	startTime := time.Now()
	geometry := s.region.WKT()

	s.logger.Info(ctx, "[INGEST_START] Starting occurrence ingestion", logging.Fields{
		"species_count":     len(s.species),
		"per_species_limit": s.perLimit,
		"geometry":          geometry,
		"stage":             "INITIALIZATION",
	})

	result := &IngestionResult{Species: len(s.species)}

	for _, sp := range s.species {
		raw, err := s.fetcher.SearchAll(ctx, sp.ScientificName, geometry, s.perLimit)
		if err != nil {
			s.metrics.RecordIngestionError("fetch_error")
			return nil, fmt.Errorf("fetch %q: %w", sp.ScientificName, err)
		}
		result.FetchedRecords += len(raw)

		batch := occurrence.SpeciesBatch{Label: sp.Label, Records: raw}
		records, err := occurrence.NormalizeBatch(batch)
		if err != nil {
			s.metrics.RecordIngestionError("normalize_error")
			return nil, err
		}

		dropped := len(raw) - len(records)
		result.DuplicatesDropped += dropped
		s.metrics.DuplicatesDropped.Add(float64(dropped))

		occurrence.JoinElevation(records, surface)
		for i := range records {
			if records[i].ElevationMeters == nil {
				result.NoElevation++
				s.metrics.JoinNoDataTotal.Inc()
			} else {
				s.metrics.JoinSampledTotal.Inc()
			}
		}

		if err := s.repo.DeleteBySpecies(ctx, sp.Label); err != nil {
			s.metrics.RecordIngestionError("store_error")
			return nil, fmt.Errorf("clear %q: %w", sp.Label, err)
		}
		if err := s.repo.CreateOccurrencesBatch(ctx, records); err != nil {
			s.metrics.RecordIngestionError("store_error")
			return nil, fmt.Errorf("store %q: %w", sp.Label, err)
		}
		result.StoredRecords += len(records)
		result.Records = append(result.Records, records...)

		s.logger.Info(ctx, "[INGEST_SPECIES] Species ingested", logging.Fields{
			"scientific_name":    sp.ScientificName,
			"label":              sp.Label,
			"fetched_records":    len(raw),
			"stored_records":     len(records),
			"duplicates_dropped": dropped,
			"stage":              "SPECIES_COMPLETE",
		})
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Occurrence ingestion completed", logging.Fields{
		"species_count":      result.Species,
		"fetched_records":    result.FetchedRecords,
		"stored_records":     result.StoredRecords,
		"duplicates_dropped": result.DuplicatesDropped,
		"no_elevation":       result.NoElevation,
		"duration_seconds":   result.Duration.Seconds(),
		"stage":              "COMPLETE",
	})

	return result, nil
}
