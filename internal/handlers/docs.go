package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Occurrence Atlas API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Occurrence Atlas API",
			"description": "Species occurrence platform: GBIF ingestion, elevation spatial join, and an in-memory filter engine behind a REST API",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Occurrence Atlas Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/occurrences": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Filter occurrence records",
					"description": "Evaluate the session filter engine. Unset parameters default to the full session extent; an empty species or months value is a valid empty selection.",
					"parameters": []map[string]interface{}{
						{
							"name":        "species",
							"in":          "query",
							"description": "Comma-separated species display labels",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "year_min",
							"in":          "query",
							"description": "Inclusive lower year bound",
							"required":    false,
							"schema":      map[string]string{"type": "integer"},
						},
						{
							"name":        "year_max",
							"in":          "query",
							"description": "Inclusive upper year bound",
							"required":    false,
							"schema":      map[string]string{"type": "integer"},
						},
						{
							"name":        "months",
							"in":          "query",
							"description": "Comma-separated three-letter month abbreviations (Jan..Dec)",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "elev_min",
							"in":          "query",
							"description": "Inclusive lower elevation bound in meters; records without elevation never match",
							"required":    false,
							"schema":      map[string]string{"type": "number"},
						},
						{
							"name":        "elev_max",
							"in":          "query",
							"description": "Inclusive upper elevation bound in meters",
							"required":    false,
							"schema":      map[string]string{"type": "number"},
						},
						{
							"name":        "format",
							"in":          "query",
							"description": "Response format: json (default) or geojson",
							"required":    false,
							"schema":      map[string]interface{}{"type": "string", "enum": []string{"json", "geojson"}},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Filtered records; an empty result is a valid state",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"data": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"species":          map[string]string{"type": "string"},
														"latitude":         map[string]string{"type": "number"},
														"longitude":        map[string]string{"type": "number"},
														"year":             map[string]string{"type": "integer"},
														"month":            map[string]string{"type": "integer"},
														"month_abbrev":     map[string]string{"type": "string"},
														"year_label":       map[string]string{"type": "string"},
														"record_basis":     map[string]string{"type": "string"},
														"elevation_meters": map[string]interface{}{"type": "number", "nullable": true},
													},
												},
											},
											"total":    map[string]string{"type": "integer"},
											"criteria": map[string]string{"type": "object"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/occurrences/db": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Browse stored occurrence records",
					"description": "Repository-backed paged browse over the occurrence table",
					"parameters": []map[string]interface{}{
						{
							"name":        "species",
							"in":          "query",
							"description": "Filter by species display label",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "year_min",
							"in":          "query",
							"description": "Inclusive lower year bound",
							"required":    false,
							"schema":      map[string]string{"type": "integer"},
						},
						{
							"name":        "year_max",
							"in":          "query",
							"description": "Inclusive upper year bound",
							"required":    false,
							"schema":      map[string]string{"type": "integer"},
						},
						{
							"name":        "month",
							"in":          "query",
							"description": "Filter by numeric month (1-12)",
							"required":    false,
							"schema":      map[string]string{"type": "integer"},
						},
						{
							"name":        "page",
							"in":          "query",
							"description": "Page number (default: 1)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 1},
						},
						{
							"name":        "limit",
							"in":          "query",
							"description": "Records per page (default: 100)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 100},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
						},
					},
				},
			},
			"/api/species": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Session summary",
					"description": "Species labels with record counts plus the session's year and elevation extents, used to seed the filter controls",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
						},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API is running",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
						},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
