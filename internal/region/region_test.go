package region

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name                           string
		minLat, minLon, maxLat, maxLon float64
		wantErr                        bool
	}{
		{"valid", 36.99, -109.06, 41.0, -102.04, false},
		{"inverted latitude", 41.0, -109.06, 36.99, -102.04, true},
		{"inverted longitude", 36.99, -102.04, 41.0, -109.06, true},
		{"latitude below -90", -95, -109.06, 41.0, -102.04, true},
		{"longitude above 180", 36.99, -109.06, 41.0, 185, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.minLat, tt.minLon, tt.maxLat, tt.maxLon)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegion_Contains(t *testing.T) {
	r, err := New(36.99, -109.06, 41.0, -102.04)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"interior point", 39.0, -105.5, true},
		{"north of region", 42.0, -105.5, false},
		{"south of region", 36.0, -105.5, false},
		{"west of region", 39.0, -110.0, false},
		{"east of region", 39.0, -101.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.lat, tt.lon); got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}

func TestRegion_Bounds(t *testing.T) {
	r, err := New(36.99, -109.06, 41.0, -102.04)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	minLat, minLon, maxLat, maxLon := r.Bounds()

	const tolerance = 1e-9
	for _, check := range []struct {
		name      string
		got, want float64
	}{
		{"minLat", minLat, 36.99},
		{"minLon", minLon, -109.06},
		{"maxLat", maxLat, 41.0},
		{"maxLon", maxLon, -102.04},
	} {
		if math.Abs(check.got-check.want) > tolerance {
			t.Errorf("Bounds() %s = %v, want %v", check.name, check.got, check.want)
		}
	}
}

func TestRegion_WKT(t *testing.T) {
	r, err := New(36.99, -109.06, 41.0, -102.04)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	wkt := r.WKT()

	if !strings.HasPrefix(wkt, "POLYGON((") || !strings.HasSuffix(wkt, "))") {
		t.Fatalf("WKT() = %q, want POLYGON((...)) form", wkt)
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(wkt, "POLYGON(("), "))")
	points := strings.Split(inner, ",")
	if len(points) != 5 {
		t.Fatalf("WKT() has %d points, want 5 (closed ring)", len(points))
	}
	if points[0] != points[4] {
		t.Errorf("WKT() ring not closed: first %q, last %q", points[0], points[4])
	}

	// First vertex is the south-west corner in lon lat order.
	minLat, minLon, _, _ := r.Bounds()
	wantFirst := fmt.Sprintf("%g %g", minLon, minLat)
	if points[0] != wantFirst {
		t.Errorf("WKT() first vertex = %q, want %q", points[0], wantFirst)
	}
}
