package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"occurrence-atlas/internal/models"
	"occurrence-atlas/internal/occurrence"
	"occurrence-atlas/pkg/logging"
	"occurrence-atlas/pkg/metrics"
)

func ptr(v float64) *float64 { return &v }

func fixtureRecord(species string, year, month int, elevation *float64) models.OccurrenceRecord {
	abbrev, _ := models.MonthAbbrev(month)
	return models.OccurrenceRecord{
		Species:         species,
		Latitude:        39.5,
		Longitude:       -105.5,
		Year:            year,
		Month:           month,
		MonthAbbrev:     abbrev,
		YearLabel:       "2020",
		RecordBasis:     "HUMAN_OBSERVATION",
		ElevationMeters: elevation,
	}
}

func newTestHandler(t *testing.T) (*OccurrenceHandler, *mux.Router) {
	t.Helper()

	session := occurrence.NewSession([]models.OccurrenceRecord{
		fixtureRecord("Elk", 2018, 6, ptr(2800)),
		fixtureRecord("Elk", 2022, 7, ptr(3400)),
		fixtureRecord("Moose", 2020, 8, ptr(3000)),
		fixtureRecord("Moose", 2020, 8, nil), // never matches the elevation predicate
	}, nil)

	logger := logging.NewStructuredLogger("handlers-test", "test", logging.ErrorLevel)
	collector := metrics.NewCollectorWithRegistry("handlers_test", prometheus.NewRegistry())
	handler := NewOccurrenceHandler(session, nil, logger, collector)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return handler, router
}

func TestFilterOccurrences_DefaultsToFullExtent(t *testing.T) {
	_, router := newTestHandler(t)

	req := httptest.NewRequest("GET", "/api/occurrences", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp FilterResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	// The record without elevation stays excluded even at the full extent.
	if resp.Total != 3 {
		t.Errorf("Total = %d, want 3", resp.Total)
	}
	if len(resp.Data) != 3 {
		t.Errorf("len(Data) = %d, want 3", len(resp.Data))
	}
	if resp.Criteria.YearMin != 2018 || resp.Criteria.YearMax != 2022 {
		t.Errorf("default year range = (%d, %d), want (2018, 2022)", resp.Criteria.YearMin, resp.Criteria.YearMax)
	}
	if len(resp.Criteria.Months) != 12 {
		t.Errorf("default month selection = %d entries, want 12", len(resp.Criteria.Months))
	}
}

func TestFilterOccurrences_Params(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantTotal int
	}{
		{"species narrows", "species=Elk", 2},
		{"explicit empty species matches nothing", "species=", 0},
		{"months narrow", "months=Jun", 1},
		{"explicit empty months matches nothing", "months=", 0},
		{"year range narrows", "year_min=2019&year_max=2021", 1},
		{"elevation range narrows", "elev_min=2900&elev_max=3500", 2},
		{"conjunction", "species=Elk&months=Jul&elev_min=3000", 1},
		{"wide elevation never matches missing elevation", "species=Moose&elev_min=0&elev_max=10000", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, router := newTestHandler(t)

			req := httptest.NewRequest("GET", "/api/occurrences?"+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
			}

			var resp FilterResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", resp.Total, tt.wantTotal)
			}
		})
	}
}

func TestFilterOccurrences_InvalidParams(t *testing.T) {
	for _, query := range []string{
		"year_min=abc",
		"year_max=20.5",
		"elev_min=low",
		"elev_max=",
	} {
		_, router := newTestHandler(t)

		req := httptest.NewRequest("GET", "/api/occurrences?"+query, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		// An empty numeric value is treated as unset, not invalid.
		wantStatus := http.StatusBadRequest
		if query == "elev_max=" {
			wantStatus = http.StatusOK
		}
		if w.Code != wantStatus {
			t.Errorf("query %q status = %d, want %d", query, w.Code, wantStatus)
		}
	}
}

func TestFilterOccurrences_GeoJSON(t *testing.T) {
	_, router := newTestHandler(t)

	req := httptest.NewRequest("GET", "/api/occurrences?species=Elk&format=geojson", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var fc FeatureCollection
	if err := json.NewDecoder(w.Body).Decode(&fc); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if fc.Type != "FeatureCollection" {
		t.Errorf("Type = %q, want FeatureCollection", fc.Type)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("len(Features) = %d, want 2", len(fc.Features))
	}

	feat := fc.Features[0]
	if feat.Geometry.Type != "Point" {
		t.Errorf("geometry type = %q, want Point", feat.Geometry.Type)
	}
	if feat.Geometry.Coordinates[0] != -105.5 || feat.Geometry.Coordinates[1] != 39.5 {
		t.Errorf("coordinates = %v, want [-105.5, 39.5] (lon, lat)", feat.Geometry.Coordinates)
	}
	if feat.Properties["species"] != "Elk" {
		t.Errorf("species property = %v, want Elk", feat.Properties["species"])
	}
	if feat.Properties["month"] != "Jun" {
		t.Errorf("month property = %v, want Jun", feat.Properties["month"])
	}
}

func TestGetSpecies(t *testing.T) {
	_, router := newTestHandler(t)

	req := httptest.NewRequest("GET", "/api/species", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Species []occurrence.SpeciesCount `json:"species"`
		YearMin int                       `json:"year_min"`
		YearMax int                       `json:"year_max"`
		ElevMin float64                   `json:"elevation_min"`
		ElevMax float64                   `json:"elevation_max"`
		Total   int                       `json:"total_records"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(resp.Species) != 2 {
		t.Fatalf("len(Species) = %d, want 2", len(resp.Species))
	}
	if resp.Species[0].Species != "Elk" || resp.Species[0].Count != 2 {
		t.Errorf("Species[0] = %+v, want {Elk 2}", resp.Species[0])
	}
	if resp.YearMin != 2018 || resp.YearMax != 2022 {
		t.Errorf("year range = (%d, %d), want (2018, 2022)", resp.YearMin, resp.YearMax)
	}
	if resp.ElevMin != 2800 || resp.ElevMax != 3400 {
		t.Errorf("elevation range = (%v, %v), want (2800, 3400)", resp.ElevMin, resp.ElevMax)
	}
	if resp.Total != 4 {
		t.Errorf("total_records = %d, want 4", resp.Total)
	}
}

func TestBrowseOccurrences_SnapshotModeUnavailable(t *testing.T) {
	_, router := newTestHandler(t)

	for _, path := range []string{"/api/occurrences/db", "/api/occurrences/db/7"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotImplemented {
			t.Errorf("GET %s status = %d, want 501", path, w.Code)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	_, router := newTestHandler(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("status field = %v, want healthy", resp["status"])
	}
	if resp["session_records"] != float64(4) {
		t.Errorf("session_records = %v, want 4", resp["session_records"])
	}
}
