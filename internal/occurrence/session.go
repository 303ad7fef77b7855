package occurrence

import (
	"sort"

	"occurrence-atlas/internal/models"
	"occurrence-atlas/internal/raster"
)

// Session holds the joined dataset for one server lifetime. Records are built
// once at startup (ingest or load, then join) and treated as immutable from
// then on; the only mutable state in the system is the FilterCriteria value
// each request carries. Handlers receive the session explicitly — there is no
// ambient global dataset.
type Session struct {
	records []models.OccurrenceRecord
	surface raster.Surface
}

// NewSession joins the record sequence against the surface and wraps both.
// The surface may be nil when the records were persisted post-join.
func NewSession(records []models.OccurrenceRecord, surface raster.Surface) *Session {
	if surface != nil {
		JoinElevation(records, surface)
	}
	return &Session{records: records, surface: surface}
}

// Filter evaluates the pure filter engine against the session dataset.
func (s *Session) Filter(criteria models.FilterCriteria) []models.OccurrenceRecord {
	return Filter(s.records, criteria)
}

// Len returns the number of records in the session.
func (s *Session) Len() int {
	return len(s.records)
}

// SpeciesCount is one entry of the session's species summary.
type SpeciesCount struct {
	Species string `json:"species"`
	Count   int    `json:"count"`
}

// Species returns the distinct species labels with record counts, sorted by
// label for deterministic output.
func (s *Session) Species() []SpeciesCount {
	counts := make(map[string]int)
	for i := range s.records {
		counts[s.records[i].Species]++
	}

	out := make([]SpeciesCount, 0, len(counts))
	for species, n := range counts {
		out = append(out, SpeciesCount{Species: species, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Species < out[j].Species })
	return out
}

// YearRange returns the minimum and maximum year present in the session,
// used to seed the UI's year slider. Returns (0, 0) for an empty session.
func (s *Session) YearRange() (int, int) {
	if len(s.records) == 0 {
		return 0, 0
	}
	min, max := s.records[0].Year, s.records[0].Year
	for i := range s.records {
		if y := s.records[i].Year; y < min {
			min = y
		} else if y > max {
			max = y
		}
	}
	return min, max
}

// ElevationRange returns the minimum and maximum joined elevation in the
// session, ignoring records with no elevation. ok is false when no record
// carries an elevation.
func (s *Session) ElevationRange() (min, max float64, ok bool) {
	for i := range s.records {
		e := s.records[i].ElevationMeters
		if e == nil {
			continue
		}
		if !ok {
			min, max, ok = *e, *e, true
			continue
		}
		if *e < min {
			min = *e
		}
		if *e > max {
			max = *e
		}
	}
	return min, max, ok
}
