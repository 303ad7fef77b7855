// Package snapshot reads and writes the standalone deployment's flat files:
// a tabular occurrence file and an ESRI ASCII elevation grid. The CSV holds
// the normalizer's output in its pre-join form; elevation is re-joined from
// the raster file at load time.
package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"occurrence-atlas/internal/models"
)

// columns is the fixed occurrence CSV header, in persisted order.
var columns = []string{
	"species",
	"decimalLatitude",
	"decimalLongitude",
	"year",
	"month",
	"basisOfRecord",
	"year_char",
}

// WriteOccurrencesFile persists normalized records to a CSV file path.
func WriteOccurrencesFile(path string, records []models.OccurrenceRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()

	if err := WriteOccurrences(f, records); err != nil {
		return fmt.Errorf("write snapshot file %s: %w", path, err)
	}
	return nil
}

// WriteOccurrences serializes normalized records as CSV.
func WriteOccurrences(w io.Writer, records []models.OccurrenceRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range records {
		rec := &records[i]
		row := []string{
			rec.Species,
			strconv.FormatFloat(rec.Latitude, 'f', -1, 64),
			strconv.FormatFloat(rec.Longitude, 'f', -1, 64),
			strconv.Itoa(rec.Year),
			strconv.Itoa(rec.Month),
			rec.RecordBasis,
			rec.YearLabel,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadOccurrencesFile loads normalized records from a CSV file path.
func ReadOccurrencesFile(path string) ([]models.OccurrenceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()

	records, err := ReadOccurrences(f)
	if err != nil {
		return nil, fmt.Errorf("read snapshot file %s: %w", path, err)
	}
	return records, nil
}

// ReadOccurrences parses the occurrence CSV. The month abbreviation is
// re-derived from the numeric month, so a malformed month in the file
// surfaces the same way it does during normalization.
func ReadOccurrences(r io.Reader) ([]models.OccurrenceRecord, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(columns) {
		return nil, fmt.Errorf("unexpected column count: got %d, want %d", len(header), len(columns))
	}
	for i, name := range columns {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected column %d: got %q, want %q", i, header[i], name)
		}
	}

	var records []models.OccurrenceRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, *rec)
	}

	return records, nil
}

func parseRow(row []string) (*models.OccurrenceRecord, error) {
	lat, err := strconv.ParseFloat(row[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", row[1], err)
	}

	lon, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", row[2], err)
	}

	year, err := strconv.Atoi(row[3])
	if err != nil {
		return nil, fmt.Errorf("invalid year %q: %w", row[3], err)
	}

	month, err := strconv.Atoi(row[4])
	if err != nil {
		return nil, fmt.Errorf("invalid month %q: %w", row[4], err)
	}

	abbrev, err := models.MonthAbbrev(month)
	if err != nil {
		return nil, err
	}

	return &models.OccurrenceRecord{
		Species:     row[0],
		Latitude:    lat,
		Longitude:   lon,
		Year:        year,
		Month:       month,
		MonthAbbrev: abbrev,
		YearLabel:   row[6],
		RecordBasis: row[5],
	}, nil
}
