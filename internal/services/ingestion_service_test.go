package services

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"occurrence-atlas/internal/config"
	"occurrence-atlas/internal/models"
	"occurrence-atlas/internal/raster"
	"occurrence-atlas/internal/region"
	"occurrence-atlas/internal/repository"
	"occurrence-atlas/pkg/logging"
	"occurrence-atlas/pkg/metrics"
)

// fakeFetcher serves canned raw occurrences per scientific name.
type fakeFetcher struct {
	results map[string][]models.RawOccurrence
	err     error
	calls   []string
}

func (f *fakeFetcher) SearchAll(ctx context.Context, scientificName, geometryWKT string, limit int) ([]models.RawOccurrence, error) {
	f.calls = append(f.calls, scientificName)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[scientificName], nil
}

// fakeRepo is an in-memory OccurrenceRepository capturing stored records.
type fakeRepo struct {
	stored  []models.OccurrenceRecord
	deleted []string
	err     error
}

func (r *fakeRepo) CreateOccurrencesBatch(ctx context.Context, records []models.OccurrenceRecord) error {
	if r.err != nil {
		return r.err
	}
	r.stored = append(r.stored, records...)
	return nil
}

func (r *fakeRepo) DeleteBySpecies(ctx context.Context, species string) error {
	if r.err != nil {
		return r.err
	}
	r.deleted = append(r.deleted, species)
	return nil
}

func (r *fakeRepo) GetOccurrence(ctx context.Context, id int64) (*models.OccurrenceRecord, error) {
	return nil, &repository.NotFoundError{Resource: "occurrence", ID: strconv.FormatInt(id, 10)}
}

func (r *fakeRepo) GetOccurrences(ctx context.Context, filter repository.OccurrenceFilter) ([]models.OccurrenceRecord, int, error) {
	return r.stored, len(r.stored), nil
}

func (r *fakeRepo) LoadAll(ctx context.Context) ([]models.OccurrenceRecord, error) {
	return r.stored, nil
}

func (r *fakeRepo) ListSpecies(ctx context.Context) ([]repository.SpeciesSummary, error) {
	return nil, nil
}

func (r *fakeRepo) HealthCheck(ctx context.Context) error { return nil }

func rawOcc(lat, lon float64, year, month int) models.RawOccurrence {
	return models.RawOccurrence{
		DecimalLatitude:  &lat,
		DecimalLongitude: &lon,
		Year:             &year,
		Month:            &month,
		BasisOfRecord:    "HUMAN_OBSERVATION",
	}
}

func testRegion(t *testing.T) region.Region {
	t.Helper()
	reg, err := region.New(36.99, -109.06, 41.0, -102.04)
	if err != nil {
		t.Fatalf("region.New() error = %v", err)
	}
	return reg
}

// flatSurface covers lon [-109,-102), lat [37,41) with a single elevation.
func flatSurface(t *testing.T, elevation float64) raster.Surface {
	t.Helper()
	g, err := raster.NewGrid(7, 4, -109, 37, 1, -9999, []float64{
		elevation, elevation, elevation, elevation, elevation, elevation, elevation,
		elevation, elevation, elevation, elevation, elevation, elevation, elevation,
		elevation, elevation, elevation, elevation, elevation, elevation, elevation,
		elevation, elevation, elevation, elevation, elevation, elevation, elevation,
	})
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}
	return g
}

func newTestIngestionService(t *testing.T, fetcher Fetcher, repo repository.OccurrenceRepository, species []config.Species) *IngestionService {
	t.Helper()
	logger := logging.NewStructuredLogger("ingestion-test", "test", logging.ErrorLevel)
	collector := metrics.NewCollectorWithRegistry("ingestion_test", prometheus.NewRegistry())
	return NewIngestionService(fetcher, repo, testRegion(t), species, 2000, logger, collector)
}

func TestIngestionService_Ingest(t *testing.T) {
	fetcher := &fakeFetcher{
		results: map[string][]models.RawOccurrence{
			"Cervus canadensis": {
				rawOcc(39.5, -105.5, 2020, 6),
				rawOcc(39.5, -105.5, 2021, 7), // duplicate coordinate
				rawOcc(39.6, -105.6, 2019, 5),
			},
			"Alces alces": {
				rawOcc(40.2, -106.3, 2022, 8),
				rawOcc(45.0, -105.5, 2022, 8), // north of the surface extent
			},
		},
	}
	repo := &fakeRepo{}
	species := []config.Species{
		{ScientificName: "Cervus canadensis", Label: "Elk"},
		{ScientificName: "Alces alces", Label: "Moose"},
	}

	service := newTestIngestionService(t, fetcher, repo, species)

	result, err := service.Ingest(context.Background(), flatSurface(t, 2800))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if result.Species != 2 {
		t.Errorf("Species = %d, want 2", result.Species)
	}
	if result.FetchedRecords != 5 {
		t.Errorf("FetchedRecords = %d, want 5", result.FetchedRecords)
	}
	if result.StoredRecords != 4 {
		t.Errorf("StoredRecords = %d, want 4", result.StoredRecords)
	}
	if result.DuplicatesDropped != 1 {
		t.Errorf("DuplicatesDropped = %d, want 1", result.DuplicatesDropped)
	}
	if result.NoElevation != 1 {
		t.Errorf("NoElevation = %d, want 1", result.NoElevation)
	}

	// Species are fetched in configured order.
	if len(fetcher.calls) != 2 || fetcher.calls[0] != "Cervus canadensis" || fetcher.calls[1] != "Alces alces" {
		t.Errorf("fetch order = %v", fetcher.calls)
	}

	// Existing rows per species are cleared before the new batch lands.
	if len(repo.deleted) != 2 || repo.deleted[0] != "Elk" || repo.deleted[1] != "Moose" {
		t.Errorf("deleted species = %v", repo.deleted)
	}

	if len(repo.stored) != 4 {
		t.Fatalf("stored records = %d, want 4", len(repo.stored))
	}
	first := repo.stored[0]
	if first.Species != "Elk" || first.Year != 2020 {
		t.Errorf("first stored record = %s/%d, want Elk/2020 (first-wins dedupe)", first.Species, first.Year)
	}
	if first.ElevationMeters == nil || *first.ElevationMeters != 2800 {
		t.Errorf("first stored record elevation = %v, want 2800", first.ElevationMeters)
	}

	last := repo.stored[3]
	if last.Species != "Moose" || last.ElevationMeters != nil {
		t.Errorf("out-of-extent record = %s elevation %v, want Moose with nil elevation", last.Species, last.ElevationMeters)
	}
}

func TestIngestionService_Ingest_FetchFailureAborts(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("upstream unavailable")}
	repo := &fakeRepo{}

	service := newTestIngestionService(t, fetcher, repo, []config.Species{
		{ScientificName: "Cervus canadensis", Label: "Elk"},
	})

	if _, err := service.Ingest(context.Background(), flatSurface(t, 2800)); err == nil {
		t.Fatal("Ingest() expected error, got nil")
	}
	if len(repo.stored) != 0 {
		t.Errorf("records stored despite fetch failure: %d", len(repo.stored))
	}
}

func TestIngestionService_Ingest_MalformedMonthAborts(t *testing.T) {
	fetcher := &fakeFetcher{
		results: map[string][]models.RawOccurrence{
			"Cervus canadensis": {rawOcc(39.5, -105.5, 2020, 13)},
		},
	}
	repo := &fakeRepo{}

	service := newTestIngestionService(t, fetcher, repo, []config.Species{
		{ScientificName: "Cervus canadensis", Label: "Elk"},
	})

	_, err := service.Ingest(context.Background(), flatSurface(t, 2800))
	if err == nil {
		t.Fatal("Ingest() expected error, got nil")
	}

	var malformed *models.MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Errorf("error type = %T, want wrapped *MalformedRecordError", err)
	}
	if len(repo.stored) != 0 {
		t.Errorf("records stored despite malformed input: %d", len(repo.stored))
	}
}

func TestIngestionService_Ingest_StoreFailureAborts(t *testing.T) {
	fetcher := &fakeFetcher{
		results: map[string][]models.RawOccurrence{
			"Cervus canadensis": {rawOcc(39.5, -105.5, 2020, 6)},
		},
	}
	repo := &fakeRepo{err: errors.New("connection reset")}

	service := newTestIngestionService(t, fetcher, repo, []config.Species{
		{ScientificName: "Cervus canadensis", Label: "Elk"},
	})

	if _, err := service.Ingest(context.Background(), flatSurface(t, 2800)); err == nil {
		t.Fatal("Ingest() expected error, got nil")
	}
}
