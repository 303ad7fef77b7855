package gbif

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"occurrence-atlas/internal/models"
	"occurrence-atlas/pkg/logging"
	"occurrence-atlas/pkg/metrics"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	logger := logging.NewStructuredLogger("gbif-test", "test", logging.ErrorLevel)
	collector := metrics.NewCollectorWithRegistry("gbif_test", prometheus.NewRegistry())
	return NewClient(baseURL, 5*time.Second, logger, collector)
}

func pageResults(offset, count int) []models.RawOccurrence {
	out := make([]models.RawOccurrence, count)
	for i := range out {
		lat := 39.0 + float64(offset+i)*0.001
		lon := -105.0
		year := 2020
		month := 6
		out[i] = models.RawOccurrence{
			ScientificName:   "Cervus canadensis",
			DecimalLatitude:  &lat,
			DecimalLongitude: &lon,
			Year:             &year,
			Month:            &month,
		}
	}
	return out
}

func TestClient_SearchAll_Paging(t *testing.T) {
	// 450 available records: a full first page and a 150-record second page.
	const available = 450

	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.RawQuery)

		q := r.URL.Query()
		if q.Get("scientificName") != "Cervus canadensis" {
			t.Errorf("scientificName = %q", q.Get("scientificName"))
		}
		if q.Get("hasCoordinate") != "true" {
			t.Errorf("hasCoordinate = %q, want true", q.Get("hasCoordinate"))
		}
		if q.Get("geometry") != "POLYGON((0 0,1 0,1 1,0 1,0 0))" {
			t.Errorf("geometry = %q", q.Get("geometry"))
		}

		offset, _ := strconv.Atoi(q.Get("offset"))
		limit, _ := strconv.Atoi(q.Get("limit"))

		count := available - offset
		if count > limit {
			count = limit
		}
		if count < 0 {
			count = 0
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"offset":       offset,
			"limit":        limit,
			"endOfRecords": offset+count >= available,
			"count":        available,
			"results":      pageResults(offset, count),
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	results, err := client.SearchAll(context.Background(), "Cervus canadensis", "POLYGON((0 0,1 0,1 1,0 1,0 0))", 2000)
	if err != nil {
		t.Fatalf("SearchAll() error = %v", err)
	}

	if len(results) != available {
		t.Errorf("len(results) = %d, want %d", len(results), available)
	}
	if len(requests) != 2 {
		t.Errorf("request count = %d, want 2", len(requests))
	}
}

func TestClient_SearchAll_LimitTruncatesLastPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		offset, _ := strconv.Atoi(q.Get("offset"))
		limit, _ := strconv.Atoi(q.Get("limit"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"offset":       offset,
			"limit":        limit,
			"endOfRecords": false,
			"count":        100000,
			"results":      pageResults(offset, limit),
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	results, err := client.SearchAll(context.Background(), "Cervus canadensis", "", 350)
	if err != nil {
		t.Fatalf("SearchAll() error = %v", err)
	}

	// 300 on the first page, then a 50-record request.
	if len(results) != 350 {
		t.Errorf("len(results) = %d, want 350", len(results))
	}
}

func TestClient_SearchAll_QuotaExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	_, err := client.SearchAll(context.Background(), "Cervus canadensis", "", 100)
	if err == nil {
		t.Fatal("SearchAll() expected error, got nil")
	}

	var quota *QuotaExceededError
	if !errors.As(err, &quota) {
		t.Fatalf("error type = %T, want *QuotaExceededError", err)
	}
	if !quota.IsTransient() {
		t.Error("QuotaExceededError should be transient")
	}
}

func TestClient_SearchAll_APIError(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{"server error is transient", http.StatusInternalServerError, true},
		{"client error is permanent", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, "upstream failure")
			}))
			defer server.Close()

			client := testClient(t, server.URL)

			_, err := client.SearchAll(context.Background(), "Cervus canadensis", "", 100)
			if err == nil {
				t.Fatal("SearchAll() expected error, got nil")
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error type = %T, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.IsTransient() != tt.wantTransient {
				t.Errorf("IsTransient() = %v, want %v", apiErr.IsTransient(), tt.wantTransient)
			}
		})
	}
}

func TestClient_SearchAll_StopsAtEndOfRecords(t *testing.T) {
	var requestCount int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"offset":       0,
			"limit":        300,
			"endOfRecords": true,
			"count":        10,
			"results":      pageResults(0, 10),
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	results, err := client.SearchAll(context.Background(), "Alces alces", "", 2000)
	if err != nil {
		t.Fatalf("SearchAll() error = %v", err)
	}
	if len(results) != 10 {
		t.Errorf("len(results) = %d, want 10", len(results))
	}
	if requestCount != 1 {
		t.Errorf("request count = %d, want 1", requestCount)
	}
}
