package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"occurrence-atlas/internal/models"
	"occurrence-atlas/internal/occurrence"
	"occurrence-atlas/internal/repository"
	"occurrence-atlas/internal/services"
	"occurrence-atlas/pkg/logging"
	"occurrence-atlas/pkg/metrics"
)

// OccurrenceHandler handles occurrence API endpoints. The session is the
// immutable joined dataset built at startup; every filter request constructs
// a fresh FilterCriteria from its query parameters and evaluates the pure
// filter engine against it.
type OccurrenceHandler struct {
	session           *occurrence.Session
	occurrenceService *services.OccurrenceService
	logger            *logging.StructuredLogger
	metrics           *metrics.Collector
}

// NewOccurrenceHandler creates a new occurrence handler. occurrenceService
// may be nil when the server runs from snapshot files without a database.
func NewOccurrenceHandler(
	session *occurrence.Session,
	occurrenceService *services.OccurrenceService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *OccurrenceHandler {
	return &OccurrenceHandler{
		session:           session,
		occurrenceService: occurrenceService,
		logger:            logger,
		metrics:           metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// FilterResponse represents a filter evaluation result
type FilterResponse struct {
	Data     []models.OccurrenceRecord `json:"data"`
	Total    int                       `json:"total"`
	Criteria filterCriteriaJSON        `json:"criteria"`
}

type filterCriteriaJSON struct {
	Species      []string `json:"species"`
	YearMin      int      `json:"year_min"`
	YearMax      int      `json:"year_max"`
	Months       []string `json:"months"`
	ElevationMin float64  `json:"elevation_min"`
	ElevationMax float64  `json:"elevation_max"`
}

// FilterOccurrences handles GET /api/occurrences
//
// Every query parameter narrows the selection; parameters left unset default
// to the widest selection the session supports. A result with zero matches is
// a valid state and returns 200 with an empty collection.
func (h *OccurrenceHandler) FilterOccurrences(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/occurrences").Observe(duration.Seconds())
	}()

	criteria, err := h.parseCriteria(r)
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	filterTimer := time.Now()
	filtered := h.session.Filter(criteria)
	h.metrics.FilterDuration.Observe(time.Since(filterTimer).Seconds())
	h.metrics.FilterResultRecords.Observe(float64(len(filtered)))

	h.metrics.RecordAPIRequest("/api/occurrences", "GET", "200")

	if r.URL.Query().Get("format") == "geojson" {
		h.sendJSON(w, toGeoJSON(filtered), http.StatusOK)
		return
	}

	h.sendJSON(w, FilterResponse{
		Data:  filtered,
		Total: len(filtered),
		Criteria: filterCriteriaJSON{
			Species:      criteria.Species,
			YearMin:      criteria.YearMin,
			YearMax:      criteria.YearMax,
			Months:       criteria.Months,
			ElevationMin: criteria.ElevationMin,
			ElevationMax: criteria.ElevationMax,
		},
	}, http.StatusOK)
}

// parseCriteria builds a FilterCriteria from query parameters. Unset
// parameters widen to the full session extent; an explicitly empty species or
// months parameter is a valid empty selection.
func (h *OccurrenceHandler) parseCriteria(r *http.Request) (models.FilterCriteria, error) {
	q := r.URL.Query()

	criteria := models.FilterCriteria{}

	if _, present := q["species"]; present {
		criteria.Species = splitParam(q.Get("species"))
	} else {
		for _, sc := range h.session.Species() {
			criteria.Species = append(criteria.Species, sc.Species)
		}
	}

	if _, present := q["months"]; present {
		criteria.Months = splitParam(q.Get("months"))
	} else {
		for m := 1; m <= 12; m++ {
			abbrev, _ := models.MonthAbbrev(m)
			criteria.Months = append(criteria.Months, abbrev)
		}
	}

	yearMin, yearMax := h.session.YearRange()
	criteria.YearMin, criteria.YearMax = yearMin, yearMax

	if v := q.Get("year_min"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return criteria, errInvalidParam("year_min")
		}
		criteria.YearMin = n
	}
	if v := q.Get("year_max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return criteria, errInvalidParam("year_max")
		}
		criteria.YearMax = n
	}

	elevMin, elevMax, ok := h.session.ElevationRange()
	if !ok {
		elevMin, elevMax = 0, 0
	}
	criteria.ElevationMin, criteria.ElevationMax = elevMin, elevMax

	if v := q.Get("elev_min"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return criteria, errInvalidParam("elev_min")
		}
		criteria.ElevationMin = f
	}
	if v := q.Get("elev_max"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return criteria, errInvalidParam("elev_max")
		}
		criteria.ElevationMax = f
	}

	return criteria, nil
}

// GetSpecies handles GET /api/species
func (h *OccurrenceHandler) GetSpecies(w http.ResponseWriter, r *http.Request) {
	yearMin, yearMax := h.session.YearRange()
	elevMin, elevMax, _ := h.session.ElevationRange()

	h.metrics.RecordAPIRequest("/api/species", "GET", "200")
	h.sendJSON(w, map[string]interface{}{
		"species":       h.session.Species(),
		"year_min":      yearMin,
		"year_max":      yearMax,
		"elevation_min": elevMin,
		"elevation_max": elevMax,
		"total_records": h.session.Len(),
	}, http.StatusOK)
}

// BrowseOccurrences handles GET /api/occurrences/db, the repository-backed
// paged browse over the stored table.
func (h *OccurrenceHandler) BrowseOccurrences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/occurrences/db").Observe(duration.Seconds())
	}()

	if h.occurrenceService == nil {
		h.sendError(w, r, "database browsing is unavailable in snapshot mode", http.StatusNotImplemented)
		return
	}

	q := r.URL.Query()

	page := 1
	limit := 100

	if v := q.Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := q.Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	filter := repository.OccurrenceFilter{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	if v := q.Get("species"); v != "" {
		filter.Species = &v
	}
	if v := q.Get("year_min"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.sendError(w, r, errInvalidParam("year_min").Error(), http.StatusBadRequest)
			return
		}
		filter.YearMin = &n
	}
	if v := q.Get("year_max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.sendError(w, r, errInvalidParam("year_max").Error(), http.StatusBadRequest)
			return
		}
		filter.YearMax = &n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			h.sendError(w, r, "invalid month, expected integer between 1 and 12", http.StatusBadRequest)
			return
		}
		filter.Month = &n
	}

	records, total, err := h.occurrenceService.GetOccurrences(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_BROWSE_ERROR] Failed to browse occurrences", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/occurrences/db")
		h.sendError(w, r, "failed to retrieve occurrences", http.StatusInternalServerError)
		return
	}

	totalPages := (total + limit - 1) / limit

	h.metrics.RecordAPIRequest("/api/occurrences/db", "GET", "200")
	h.sendJSON(w, PaginatedResponse{
		Data:       records,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, http.StatusOK)
}

// GetOccurrence handles GET /api/occurrences/db/{id}
func (h *OccurrenceHandler) GetOccurrence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.occurrenceService == nil {
		h.sendError(w, r, "database browsing is unavailable in snapshot mode", http.StatusNotImplemented)
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.sendError(w, r, "invalid occurrence id", http.StatusBadRequest)
		return
	}

	rec, err := h.occurrenceService.GetOccurrence(ctx, id)
	if err != nil {
		if _, notFound := err.(*repository.NotFoundError); notFound {
			h.sendError(w, r, err.Error(), http.StatusNotFound)
			return
		}
		h.metrics.RecordAPIError("internal_error", "/api/occurrences/db/{id}")
		h.sendError(w, r, "failed to retrieve occurrence", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/occurrences/db/{id}", "GET", "200")
	h.sendJSON(w, rec, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *OccurrenceHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":          "healthy",
		"session_records": h.session.Len(),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	}

	h.sendJSON(w, status, http.StatusOK)
}

// sendJSON sends a JSON response
func (h *OccurrenceHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *OccurrenceHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all occurrence API routes
func (h *OccurrenceHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/occurrences", h.FilterOccurrences).Methods("GET")
	router.HandleFunc("/api/occurrences/db", h.BrowseOccurrences).Methods("GET")
	router.HandleFunc("/api/occurrences/db/{id:[0-9]+}", h.GetOccurrence).Methods("GET")
	router.HandleFunc("/api/species", h.GetSpecies).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/", MapUI).Methods("GET")
}

type invalidParamError string

func errInvalidParam(name string) error {
	return invalidParamError(name)
}

func (e invalidParamError) Error() string {
	return "invalid value for parameter " + string(e)
}

// splitParam splits a comma-separated parameter value, dropping empty parts.
// An all-empty value yields an empty (not nil-meaning-all) selection.
func splitParam(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
