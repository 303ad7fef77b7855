package services

import (
	"context"

	"occurrence-atlas/internal/models"
	"occurrence-atlas/internal/repository"
	"occurrence-atlas/pkg/logging"
	"occurrence-atlas/pkg/metrics"
)

// OccurrenceService handles occurrence data operations
type OccurrenceService struct {
	repo    repository.OccurrenceRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewOccurrenceService creates a new occurrence service
func NewOccurrenceService(repo repository.OccurrenceRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *OccurrenceService {
	return &OccurrenceService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// GetOccurrences retrieves occurrence records with filtering
func (s *OccurrenceService) GetOccurrences(ctx context.Context, filter repository.OccurrenceFilter) ([]models.OccurrenceRecord, int, error) {
	return s.repo.GetOccurrences(ctx, filter)
}

// GetOccurrence retrieves a single occurrence record
func (s *OccurrenceService) GetOccurrence(ctx context.Context, id int64) (*models.OccurrenceRecord, error) {
	return s.repo.GetOccurrence(ctx, id)
}

// ListSpecies retrieves the per-species record counts
func (s *OccurrenceService) ListSpecies(ctx context.Context) ([]repository.SpeciesSummary, error) {
	return s.repo.ListSpecies(ctx)
}
