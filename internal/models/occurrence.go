package models

import (
	"fmt"
	"strconv"
)

// monthAbbrevs maps month numbers 1-12 to their three-letter calendar form.
var monthAbbrevs = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// MonthAbbrev returns the three-letter abbreviation for a month in [1,12].
func MonthAbbrev(month int) (string, error) {
	if month < 1 || month > 12 {
		return "", &MalformedRecordError{
			Field:   "month",
			Value:   strconv.Itoa(month),
			Message: "month out of range [1,12]",
		}
	}
	return monthAbbrevs[month-1], nil
}

// OccurrenceRecord represents a single observed sighting of a species.
// ElevationMeters is nil until the spatial join runs, and stays nil for
// points outside the raster extent or on a no-data cell.
type OccurrenceRecord struct {
	ID              int64    `json:"id,omitempty" db:"id"`
	Species         string   `json:"species" db:"species"`
	Latitude        float64  `json:"latitude" db:"decimal_latitude"`
	Longitude       float64  `json:"longitude" db:"decimal_longitude"`
	Year            int      `json:"year" db:"year"`
	Month           int      `json:"month" db:"month"`
	MonthAbbrev     string   `json:"month_abbrev" db:"month_abbrev"`
	YearLabel       string   `json:"year_label" db:"year_char"`
	RecordBasis     string   `json:"record_basis" db:"basis_of_record"`
	ElevationMeters *float64 `json:"elevation_meters,omitempty" db:"elevation_meters"`
}

// RawOccurrence represents one result row from the occurrence search API.
// Year and month arrive as pointers because the upstream record may omit them.
type RawOccurrence struct {
	ScientificName   string   `json:"scientificName"`
	DecimalLatitude  *float64 `json:"decimalLatitude"`
	DecimalLongitude *float64 `json:"decimalLongitude"`
	Year             *int     `json:"year"`
	Month            *int     `json:"month"`
	BasisOfRecord    string   `json:"basisOfRecord"`
}

// HasCoordinate reports whether the raw record carries a usable coordinate pair.
func (r *RawOccurrence) HasCoordinate() bool {
	return r.DecimalLatitude != nil && r.DecimalLongitude != nil
}

// ToRecord converts a RawOccurrence into an OccurrenceRecord tagged with the
// species display label. Records without coordinates or dates are rejected;
// a month outside [1,12] is malformed upstream data and is surfaced, never
// silently coerced.
func (r *RawOccurrence) ToRecord(label string) (*OccurrenceRecord, error) {
	if !r.HasCoordinate() {
		return nil, &MalformedRecordError{
			Field:   "coordinates",
			Value:   "",
			Message: "record has no coordinate pair",
		}
	}
	if r.Year == nil {
		return nil, &MalformedRecordError{
			Field:   "year",
			Value:   "",
			Message: "record has no year",
		}
	}
	if r.Month == nil {
		return nil, &MalformedRecordError{
			Field:   "month",
			Value:   "",
			Message: "record has no month",
		}
	}

	abbrev, err := MonthAbbrev(*r.Month)
	if err != nil {
		return nil, err
	}

	return &OccurrenceRecord{
		Species:     label,
		Latitude:    *r.DecimalLatitude,
		Longitude:   *r.DecimalLongitude,
		Year:        *r.Year,
		Month:       *r.Month,
		MonthAbbrev: abbrev,
		YearLabel:   strconv.Itoa(*r.Year),
		RecordBasis: r.BasisOfRecord,
	}, nil
}

// FilterCriteria captures the current UI selection state. It is rebuilt on
// every interaction and passed by value into the filter engine; an empty
// Species or Months slice is a valid "nothing matches" selection.
type FilterCriteria struct {
	Species      []string
	YearMin      int
	YearMax      int
	Months       []string
	ElevationMin float64
	ElevationMax float64
}

// MalformedRecordError represents unusable upstream occurrence data.
type MalformedRecordError struct {
	Field   string
	Value   string
	Message string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record field %q: %s", e.Field, e.Message)
}

// IsTransient returns false as malformed data errors are permanent.
func (e *MalformedRecordError) IsTransient() bool {
	return false
}
