package handlers

import (
	"occurrence-atlas/internal/models"
)

// GeoJSON output types for the map layer.

// FeatureCollection is a GeoJSON FeatureCollection of occurrence points.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one occurrence point.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   PointGeometry          `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// PointGeometry holds [lon, lat] coordinates.
type PointGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// toGeoJSON converts filtered records to a FeatureCollection. Zero records
// yield a valid empty collection, which renders as an empty map layer.
func toGeoJSON(records []models.OccurrenceRecord) FeatureCollection {
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, len(records)),
	}

	for i := range records {
		rec := &records[i]
		props := map[string]interface{}{
			"species":      rec.Species,
			"year":         rec.Year,
			"month":        rec.MonthAbbrev,
			"record_basis": rec.RecordBasis,
		}
		if rec.ElevationMeters != nil {
			props["elevation_meters"] = *rec.ElevationMeters
		}

		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: PointGeometry{
				Type:        "Point",
				Coordinates: [2]float64{rec.Longitude, rec.Latitude},
			},
			Properties: props,
		})
	}

	return fc
}
