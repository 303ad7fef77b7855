package main

import (
	"fmt"
	"os"
	"sort"

	"occurrence-atlas/internal/models"
	"occurrence-atlas/internal/occurrence"
	"occurrence-atlas/internal/raster"
	"occurrence-atlas/internal/snapshot"
)

// DemoPipeline demonstrates the occurrence pipeline without a database
func main() {
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("OCCURRENCE ATLAS - PIPELINE DEMONSTRATION")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()

	csvPath := "./data/occurrences.csv"
	rasterPath := "./data/elevation.asc"
	if len(os.Args) > 2 {
		csvPath = os.Args[1]
		rasterPath = os.Args[2]
	}

	// Load occurrence records
	records, err := snapshot.ReadOccurrencesFile(csvPath)
	if err != nil {
		fmt.Printf("Error reading occurrences: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d occurrence records from %s\n", len(records), csvPath)

	// Load the elevation surface
	grid, err := raster.ReadASCIIGridFile(rasterPath)
	if err != nil {
		fmt.Printf("Error reading elevation grid: %v\n", err)
		os.Exit(1)
	}
	minLon, minLat, maxLon, maxLat := grid.Bounds()
	fmt.Printf("Loaded %dx%d elevation grid covering (%.2f, %.2f)-(%.2f, %.2f)\n\n",
		grid.Cols, grid.Rows, minLat, minLon, maxLat, maxLon)

	// Join elevation onto the records
	occurrence.JoinElevation(records, grid)

	sampled := 0
	for i := range records {
		if records[i].ElevationMeters != nil {
			sampled++
		}
	}

	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("SPATIAL JOIN SUMMARY")
	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Printf("Records with elevation:    %d\n", sampled)
	fmt.Printf("Records without elevation: %d\n", len(records)-sampled)
	fmt.Println()

	// Per-species breakdown
	counts := map[string]int{}
	for i := range records {
		counts[records[i].Species]++
	}
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("SPECIES BREAKDOWN")
	fmt.Println("─────────────────────────────────────────────────────────────")
	for _, label := range labels {
		fmt.Printf("  %-20s %d records\n", label, counts[label])
	}
	fmt.Println()

	// Sample records
	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("SAMPLE RECORDS")
	fmt.Println("─────────────────────────────────────────────────────────────")
	for i := 0; i < len(records) && i < 5; i++ {
		rec := &records[i]
		fmt.Printf("  [%d] %s (%.4f, %.4f) %s %d", i+1,
			rec.Species, rec.Latitude, rec.Longitude, rec.MonthAbbrev, rec.Year)
		if rec.ElevationMeters != nil {
			fmt.Printf(" | Elevation: %.0f m", *rec.ElevationMeters)
		} else {
			fmt.Printf(" | Elevation: NULL")
		}
		fmt.Println()
	}
	fmt.Println()

	// Demonstrate the filter engine
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("FILTER ENGINE DEMONSTRATION")
	fmt.Println("════════════════════════════════════════════════════════════════")

	session := occurrence.NewSession(records, nil)
	yearMin, yearMax := session.YearRange()

	criteria := models.FilterCriteria{
		Species:      labels,
		YearMin:      yearMin,
		YearMax:      yearMax,
		Months:       []string{"Jun", "Jul", "Aug"},
		ElevationMin: 2500,
		ElevationMax: 4500,
	}

	filtered := session.Filter(criteria)

	fmt.Printf("Criteria: all species, years %d-%d, months Jun/Jul/Aug, elevation 2500-4500 m\n", yearMin, yearMax)
	fmt.Printf("Matched:  %d of %d records\n", len(filtered), session.Len())
	fmt.Println()

	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("✅ PIPELINE DEMONSTRATION COMPLETE")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()
	fmt.Println("The system successfully:")
	fmt.Println("  ✓ Parsed the occurrence CSV snapshot")
	fmt.Println("  ✓ Sampled the elevation grid at each coordinate")
	fmt.Println("  ✓ Handled no-data and out-of-extent cells (→ NULL)")
	fmt.Println("  ✓ Evaluated a four-way filter conjunction")
	fmt.Println()
	fmt.Println("With a database, this would:")
	fmt.Println("  • Store joined records in the occurrences table")
	fmt.Println("  • Serve filtered results via REST API endpoints")
	fmt.Println("  • Render the interactive map at /")
	fmt.Println()
}
