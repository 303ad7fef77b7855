package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"occurrence-atlas/internal/models"
	"occurrence-atlas/pkg/database"
	"occurrence-atlas/pkg/logging"
	"occurrence-atlas/pkg/metrics"
)

// OccurrenceRepository provides data access for occurrence records
type OccurrenceRepository interface {
	// Write operations
	CreateOccurrencesBatch(ctx context.Context, records []models.OccurrenceRecord) error
	DeleteBySpecies(ctx context.Context, species string) error

	// Read operations
	GetOccurrence(ctx context.Context, id int64) (*models.OccurrenceRecord, error)
	GetOccurrences(ctx context.Context, filter OccurrenceFilter) ([]models.OccurrenceRecord, int, error)
	LoadAll(ctx context.Context) ([]models.OccurrenceRecord, error)
	ListSpecies(ctx context.Context) ([]SpeciesSummary, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// OccurrenceFilter defines filters for the DB-side occurrence browse query.
// Nil fields are not applied.
type OccurrenceFilter struct {
	Species *string
	YearMin *int
	YearMax *int
	Month   *int
	Limit   int
	Offset  int
}

// SpeciesSummary is one row of the per-species record count listing.
type SpeciesSummary struct {
	Species string `json:"species" db:"species"`
	Count   int    `json:"count" db:"count"`
}

// occurrenceRepository implements OccurrenceRepository
type occurrenceRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewOccurrenceRepository creates a new occurrence repository
func NewOccurrenceRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) OccurrenceRepository {
	return &occurrenceRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CreateOccurrencesBatch inserts records in a single transaction. Duplicate
// (species, latitude, longitude) rows are ignored, mirroring the normalizer's
// first-wins deduplication at the storage layer.
func (r *occurrenceRepository) CreateOccurrencesBatch(ctx context.Context, records []models.OccurrenceRecord) error {
	if len(records) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.IngestionBatchSize.Observe(float64(len(records)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(records),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO occurrences (
			species, decimal_latitude, decimal_longitude,
			year, month, month_abbrev, year_char, basis_of_record,
			elevation_meters
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (species, decimal_latitude, decimal_longitude) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]
		_, err := stmt.ExecContext(ctx,
			rec.Species,
			rec.Latitude,
			rec.Longitude,
			rec.Year,
			rec.Month,
			rec.MonthAbbrev,
			rec.YearLabel,
			rec.RecordBasis,
			rec.ElevationMeters,
		)
		if err != nil {
			return fmt.Errorf("failed to insert occurrence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(records)))

	return nil
}

// DeleteBySpecies removes all records for a species label, used before
// re-ingesting that species.
func (r *occurrenceRepository) DeleteBySpecies(ctx context.Context, species string) error {
	_, err := r.db.ExecContext(ctx, "delete_species",
		`DELETE FROM occurrences WHERE species = $1`, species)
	if err != nil {
		return fmt.Errorf("failed to delete species records: %w", err)
	}
	return nil
}

// GetOccurrence retrieves a single occurrence record by ID
func (r *occurrenceRepository) GetOccurrence(ctx context.Context, id int64) (*models.OccurrenceRecord, error) {
	query := `
		SELECT id, species, decimal_latitude, decimal_longitude,
		       year, month, month_abbrev, year_char, basis_of_record,
		       elevation_meters
		FROM occurrences
		WHERE id = $1
	`

	var rec models.OccurrenceRecord
	err := r.db.GetContext(ctx, "get_occurrence", &rec, query, id)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "occurrence",
			ID:       strconv.FormatInt(id, 10),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get occurrence: %w", err)
	}

	return &rec, nil
}

// GetOccurrences retrieves occurrence records with filtering and pagination
func (r *occurrenceRepository) GetOccurrences(ctx context.Context, filter OccurrenceFilter) ([]models.OccurrenceRecord, int, error) {
	query := `
		SELECT id, species, decimal_latitude, decimal_longitude,
		       year, month, month_abbrev, year_char, basis_of_record,
		       elevation_meters
		FROM occurrences
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.Species != nil {
		query += fmt.Sprintf(" AND species = $%d", argNum)
		args = append(args, *filter.Species)
		argNum++
	}

	if filter.YearMin != nil {
		query += fmt.Sprintf(" AND year >= $%d", argNum)
		args = append(args, *filter.YearMin)
		argNum++
	}

	if filter.YearMax != nil {
		query += fmt.Sprintf(" AND year <= $%d", argNum)
		args = append(args, *filter.YearMax)
		argNum++
	}

	if filter.Month != nil {
		query += fmt.Sprintf(" AND month = $%d", argNum)
		args = append(args, *filter.Month)
		argNum++
	}

	// Get total count
	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_occurrences", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count occurrences: %w", err)
	}

	// Add ordering and pagination
	query += " ORDER BY species, id"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var records []models.OccurrenceRecord
	err = r.db.SelectContext(ctx, "get_occurrences", &records, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get occurrences: %w", err)
	}

	return records, totalCount, nil
}

// LoadAll retrieves every occurrence record in insertion order; the server
// builds its in-memory session from this at startup.
func (r *occurrenceRepository) LoadAll(ctx context.Context) ([]models.OccurrenceRecord, error) {
	query := `
		SELECT id, species, decimal_latitude, decimal_longitude,
		       year, month, month_abbrev, year_char, basis_of_record,
		       elevation_meters
		FROM occurrences
		ORDER BY id
	`

	var records []models.OccurrenceRecord
	err := r.db.SelectContext(ctx, "load_all_occurrences", &records, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load occurrences: %w", err)
	}

	return records, nil
}

// ListSpecies retrieves the distinct species labels with record counts
func (r *occurrenceRepository) ListSpecies(ctx context.Context) ([]SpeciesSummary, error) {
	query := `
		SELECT species, COUNT(*) AS count
		FROM occurrences
		GROUP BY species
		ORDER BY species
	`

	var summaries []SpeciesSummary
	err := r.db.SelectContext(ctx, "list_species", &summaries, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list species: %w", err)
	}

	return summaries, nil
}

// HealthCheck performs a repository health check
func (r *occurrenceRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
