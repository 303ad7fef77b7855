package gbif

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"occurrence-atlas/internal/models"
	"occurrence-atlas/pkg/logging"
	"occurrence-atlas/pkg/metrics"
)

// pageSize is the occurrence search page size; the API caps a single page at
// 300 results, so larger per-species limits are fetched by paging.
const pageSize = 300

// Client queries the GBIF occurrence search API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewClient creates a GBIF occurrence client.
func NewClient(baseURL string, timeout time.Duration, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metricsCollector,
	}
}

// searchResponse is the wire shape of /v1/occurrence/search.
type searchResponse struct {
	Offset       int                    `json:"offset"`
	Limit        int                    `json:"limit"`
	EndOfRecords bool                   `json:"endOfRecords"`
	Count        int64                  `json:"count"`
	Results      []models.RawOccurrence `json:"results"`
}

// SearchAll fetches up to limit occurrence records for a scientific name
// within the bounding geometry, paging through the search endpoint until the
// limit is reached or the API reports the end of records. Only records with
// coordinates are requested. Failures are propagated to the caller; retry
// policy, if any, belongs to the caller.
func (c *Client) SearchAll(ctx context.Context, scientificName, geometryWKT string, limit int) ([]models.RawOccurrence, error) {
	var results []models.RawOccurrence

	for offset := 0; len(results) < limit; offset += pageSize {
		remaining := limit - len(results)
		size := pageSize
		if remaining < size {
			size = remaining
		}

		page, err := c.searchPage(ctx, scientificName, geometryWKT, size, offset)
		if err != nil {
			return nil, err
		}

		results = append(results, page.Results...)

		c.logger.Debug(ctx, "[GBIF_PAGE] Occurrence page fetched", logging.Fields{
			"scientific_name": scientificName,
			"offset":          offset,
			"page_records":    len(page.Results),
			"total_records":   len(results),
		})

		if page.EndOfRecords || len(page.Results) == 0 {
			break
		}
	}

	return results, nil
}

// searchPage performs one occurrence search request.
func (c *Client) searchPage(ctx context.Context, scientificName, geometryWKT string, limit, offset int) (*searchResponse, error) {
	params := url.Values{
		"scientificName": {scientificName},
		"hasCoordinate":  {"true"},
		"limit":          {strconv.Itoa(limit)},
		"offset":         {strconv.Itoa(offset)},
	}
	if geometryWKT != "" {
		params.Set("geometry", geometryWKT)
	}

	fullURL := c.baseURL + "/occurrence/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	timer := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GBIFRequestDuration.Observe(time.Since(timer).Seconds())

	if err != nil {
		c.metrics.RecordGBIFError("network_error")
		return nil, fmt.Errorf("occurrence search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.metrics.RecordGBIFError("quota_exceeded")
		return nil, &QuotaExceededError{ScientificName: scientificName}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.metrics.RecordGBIFError("api_error")
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var page searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		c.metrics.RecordGBIFError("decode_error")
		return nil, fmt.Errorf("decode occurrence response: %w", err)
	}

	return &page, nil
}

// APIError represents a non-success response from the occurrence API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("occurrence API error: status %d: %s", e.StatusCode, e.Body)
}

// IsTransient reports whether retrying the request could succeed.
func (e *APIError) IsTransient() bool {
	return e.StatusCode >= 500
}

// QuotaExceededError indicates the API rate limit was hit.
type QuotaExceededError struct {
	ScientificName string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("occurrence API quota exceeded while fetching %q", e.ScientificName)
}

func (e *QuotaExceededError) IsTransient() bool {
	return true
}
