package occurrence

import (
	"occurrence-atlas/internal/models"
)

// Filter returns the subset of records satisfying every predicate in the
// criteria: species membership, inclusive year range, month-abbreviation
// membership, and inclusive elevation range. A record with no elevation never
// satisfies the elevation predicate, however wide the range. Relative input
// order is preserved and the input slice is never mutated.
//
// Empty species or month selections yield an empty result; that is a valid,
// displayable state, not an error. Filter has no side effects and is invoked
// on every UI interaction.
func Filter(records []models.OccurrenceRecord, criteria models.FilterCriteria) []models.OccurrenceRecord {
	speciesSet := toSet(criteria.Species)
	monthSet := toSet(criteria.Months)

	out := make([]models.OccurrenceRecord, 0)
	for i := range records {
		if matches(&records[i], criteria, speciesSet, monthSet) {
			out = append(out, records[i])
		}
	}
	return out
}

func matches(rec *models.OccurrenceRecord, c models.FilterCriteria, speciesSet, monthSet map[string]struct{}) bool {
	if _, ok := speciesSet[rec.Species]; !ok {
		return false
	}
	if rec.Year < c.YearMin || rec.Year > c.YearMax {
		return false
	}
	if _, ok := monthSet[rec.MonthAbbrev]; !ok {
		return false
	}
	if rec.ElevationMeters == nil {
		return false
	}
	if *rec.ElevationMeters < c.ElevationMin || *rec.ElevationMeters > c.ElevationMax {
		return false
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
