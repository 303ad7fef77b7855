package occurrence

import (
	"occurrence-atlas/internal/models"
	"occurrence-atlas/internal/raster"
)

// JoinElevation samples the raster surface at every record's coordinate and
// attaches the value as ElevationMeters. Points outside the surface's valid
// extent or on a no-data cell get a nil elevation, not zero and not an error.
//
// Sampling policy is nearest cell (the surface's native convention). The join
// is a pure function of (coordinates, raster content) and idempotent: running
// it again overwrites every elevation with the same value.
func JoinElevation(records []models.OccurrenceRecord, surface raster.Surface) {
	for i := range records {
		value, ok := surface.Sample(records[i].Longitude, records[i].Latitude)
		if !ok {
			records[i].ElevationMeters = nil
			continue
		}
		v := value
		records[i].ElevationMeters = &v
	}
}
