package raster

import (
	"math"
	"testing"
)

func TestNewGrid_Validation(t *testing.T) {
	tests := []struct {
		name     string
		cols     int
		rows     int
		cellsize float64
		values   []float64
		wantErr  bool
	}{
		{"valid", 2, 2, 1, []float64{1, 2, 3, 4}, false},
		{"zero columns", 0, 2, 1, nil, true},
		{"negative rows", 2, -1, 1, nil, true},
		{"zero cellsize", 2, 2, 0, []float64{1, 2, 3, 4}, true},
		{"value count mismatch", 2, 2, 1, []float64{1, 2, 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.cols, tt.rows, -106, 39, tt.cellsize, -9999, tt.values)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewGrid() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGrid_Sample(t *testing.T) {
	// 3x2 grid over lon [-106,-103), lat [39,41). Row 0 is the north row.
	g, err := NewGrid(3, 2, -106, 39, 1, -9999, []float64{
		1000, 2000, -9999,
		4000, 5000, 6000,
	})
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}

	tests := []struct {
		name   string
		lon    float64
		lat    float64
		want   float64
		wantOK bool
	}{
		{"north-west cell", -105.5, 40.5, 1000, true},
		{"south-west cell", -105.5, 39.5, 4000, true},
		{"south-east cell", -103.5, 39.5, 6000, true},
		{"cell lower-left corner", -106.0, 39.0, 4000, true},
		{"no-data cell", -103.5, 40.5, 0, false},
		{"west of extent", -106.5, 39.5, 0, false},
		{"east of extent", -102.5, 39.5, 0, false},
		{"south of extent", -105.5, 38.5, 0, false},
		{"north of extent", -105.5, 41.5, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := g.Sample(tt.lon, tt.lat)
			if ok != tt.wantOK {
				t.Fatalf("Sample(%v, %v) ok = %v, want %v", tt.lon, tt.lat, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Sample(%v, %v) = %v, want %v", tt.lon, tt.lat, got, tt.want)
			}
		})
	}
}

func TestGrid_Sample_NaNIsNoData(t *testing.T) {
	g, err := NewGrid(1, 1, -106, 39, 1, -9999, []float64{math.NaN()})
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}

	if _, ok := g.Sample(-105.5, 39.5); ok {
		t.Error("Sample() on a NaN cell returned ok = true")
	}
}

func TestGrid_Bounds(t *testing.T) {
	g, err := NewGrid(3, 2, -106, 39, 0.5, -9999, make([]float64, 6))
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}

	west, south, east, north := g.Bounds()
	if west != -106 || south != 39 || east != -104.5 || north != 40 {
		t.Errorf("Bounds() = (%v, %v, %v, %v), want (-106, 39, -104.5, 40)", west, south, east, north)
	}
}
