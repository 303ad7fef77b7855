package region

import (
	"fmt"

	"github.com/golang/geo/s2"
)

// Region is the lat/lng bounding rectangle used to constrain occurrence
// queries to the area the elevation surface covers.
type Region struct {
	rect s2.Rect
}

// New builds a region from WGS84 corner coordinates.
func New(minLat, minLon, maxLat, maxLon float64) (Region, error) {
	if minLat >= maxLat {
		return Region{}, fmt.Errorf("invalid latitude bounds: min %g >= max %g", minLat, maxLat)
	}
	if minLon >= maxLon {
		return Region{}, fmt.Errorf("invalid longitude bounds: min %g >= max %g", minLon, maxLon)
	}
	if minLat < -90 || maxLat > 90 || minLon < -180 || maxLon > 180 {
		return Region{}, fmt.Errorf("bounds outside WGS84 range: (%g,%g)-(%g,%g)", minLat, minLon, maxLat, maxLon)
	}

	rect := s2.RectFromLatLng(s2.LatLngFromDegrees(minLat, minLon))
	rect = rect.AddPoint(s2.LatLngFromDegrees(maxLat, maxLon))
	return Region{rect: rect}, nil
}

// Contains reports whether a WGS84 coordinate lies within the region.
func (r Region) Contains(lat, lon float64) bool {
	return r.rect.ContainsLatLng(s2.LatLngFromDegrees(lat, lon))
}

// Bounds returns (minLat, minLon, maxLat, maxLon) in degrees.
func (r Region) Bounds() (minLat, minLon, maxLat, maxLon float64) {
	lo, hi := r.rect.Lo(), r.rect.Hi()
	return lo.Lat.Degrees(), lo.Lng.Degrees(), hi.Lat.Degrees(), hi.Lng.Degrees()
}

// WKT renders the region as the counter-clockwise POLYGON string the
// occurrence API expects for its geometry parameter.
func (r Region) WKT() string {
	minLat, minLon, maxLat, maxLon := r.Bounds()
	return fmt.Sprintf(
		"POLYGON((%g %g,%g %g,%g %g,%g %g,%g %g))",
		minLon, minLat,
		maxLon, minLat,
		maxLon, maxLat,
		minLon, maxLat,
		minLon, minLat,
	)
}
