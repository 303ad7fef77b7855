package occurrence

import (
	"fmt"

	"occurrence-atlas/internal/models"
)

// SpeciesBatch pairs one species' raw search results with its display label.
// Batches are normalized in the order the species list was configured.
type SpeciesBatch struct {
	Label   string
	Records []models.RawOccurrence
}

type coordKey struct {
	lat, lon float64
}

// NormalizeBatch tags every record in the batch with the species display
// label, drops exact duplicate (latitude, longitude) pairs keeping the
// first-seen record, and projects each row to the fixed attribute set.
// Duplicates are expected and dropped silently; a month outside [1,12] is
// malformed upstream data and aborts normalization of the batch.
func NormalizeBatch(batch SpeciesBatch) ([]models.OccurrenceRecord, error) {
	seen := make(map[coordKey]struct{}, len(batch.Records))
	out := make([]models.OccurrenceRecord, 0, len(batch.Records))

	for i := range batch.Records {
		raw := &batch.Records[i]

		rec, err := raw.ToRecord(batch.Label)
		if err != nil {
			return nil, fmt.Errorf("normalize %q: %w", batch.Label, err)
		}

		key := coordKey{lat: rec.Latitude, lon: rec.Longitude}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, *rec)
	}

	return out, nil
}

// Normalize runs NormalizeBatch over every species batch and concatenates the
// results in input order, yielding the unified pre-join record sequence.
func Normalize(batches []SpeciesBatch) ([]models.OccurrenceRecord, error) {
	var out []models.OccurrenceRecord
	for _, batch := range batches {
		recs, err := NormalizeBatch(batch)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}
