package services

import (
	"context"
	"fmt"

	"occurrence-atlas/internal/occurrence"
	"occurrence-atlas/internal/raster"
	"occurrence-atlas/internal/repository"
	"occurrence-atlas/internal/snapshot"
	"occurrence-atlas/pkg/logging"
)

// SessionService builds the server's immutable session dataset at startup,
// either from the occurrence table or from the standalone flat files.
type SessionService struct {
	repo   repository.OccurrenceRepository
	logger *logging.StructuredLogger
}

// NewSessionService creates a new session service. repo may be nil when the
// server runs purely from snapshot files.
func NewSessionService(repo repository.OccurrenceRepository, logger *logging.StructuredLogger) *SessionService {
	return &SessionService{
		repo:   repo,
		logger: logger,
	}
}

// LoadFromRepository builds a session from the occurrence table. Stored
// records already carry their joined elevation, so no surface is needed.
func (s *SessionService) LoadFromRepository(ctx context.Context) (*occurrence.Session, error) {
	records, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session from repository: %w", err)
	}

	session := occurrence.NewSession(records, nil)

	s.logger.Info(ctx, "[SESSION_LOADED] Session built from repository", logging.Fields{
		"record_count": session.Len(),
	})

	return session, nil
}

// LoadFromSnapshot builds a session from the occurrence CSV and elevation
// grid files. The spatial join runs at load time since the CSV holds the
// pre-join form.
func (s *SessionService) LoadFromSnapshot(ctx context.Context, csvPath, rasterPath string) (*occurrence.Session, error) {
	records, err := snapshot.ReadOccurrencesFile(csvPath)
	if err != nil {
		return nil, fmt.Errorf("load session from snapshot: %w", err)
	}

	surface, err := raster.ReadASCIIGridFile(rasterPath)
	if err != nil {
		return nil, fmt.Errorf("load session raster: %w", err)
	}

	session := occurrence.NewSession(records, surface)

	s.logger.Info(ctx, "[SESSION_LOADED] Session built from snapshot files", logging.Fields{
		"record_count": session.Len(),
		"csv_path":     csvPath,
		"raster_path":  rasterPath,
	})

	return session, nil
}
