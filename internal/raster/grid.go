package raster

import (
	"fmt"
	"math"
)

// Surface is a read-only 2-D scalar field with geographic referencing.
// Sample returns the value at (lon, lat) in decimal degrees WGS84; ok is
// false when the coordinate falls outside the valid extent or on a no-data
// cell.
type Surface interface {
	Sample(lon, lat float64) (value float64, ok bool)
}

// Grid is a single-band raster: a regular row-major cell matrix anchored at
// its lower-left corner, with square cells of Cellsize degrees. Row 0 is the
// northernmost row, matching the ESRI ASCII grid layout it is read from.
type Grid struct {
	Cols      int
	Rows      int
	XllCorner float64
	YllCorner float64
	Cellsize  float64
	NoData    float64
	values    []float64
}

// NewGrid builds a grid from row-major values (north row first).
func NewGrid(cols, rows int, xll, yll, cellsize, nodata float64, values []float64) (*Grid, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%d", cols, rows)
	}
	if cellsize <= 0 {
		return nil, fmt.Errorf("grid cellsize must be positive, got %g", cellsize)
	}
	if len(values) != cols*rows {
		return nil, fmt.Errorf("grid expects %d values, got %d", cols*rows, len(values))
	}
	return &Grid{
		Cols:      cols,
		Rows:      rows,
		XllCorner: xll,
		YllCorner: yll,
		Cellsize:  cellsize,
		NoData:    nodata,
		values:    values,
	}, nil
}

// At returns the raw cell value at (col, row), row 0 being the north row.
func (g *Grid) At(col, row int) float64 {
	return g.values[row*g.Cols+col]
}

// Sample returns the nearest-cell value for a WGS84 coordinate. The cell is
// the one whose extent contains the point, which for a regular grid is the
// nearest-cell convention of the surface's native resolution.
func (g *Grid) Sample(lon, lat float64) (float64, bool) {
	col := int(math.Floor((lon - g.XllCorner) / g.Cellsize))
	// Rows count down from the north edge.
	north := g.YllCorner + float64(g.Rows)*g.Cellsize
	row := int(math.Floor((north - lat) / g.Cellsize))

	if col < 0 || col >= g.Cols || row < 0 || row >= g.Rows {
		return 0, false
	}

	v := g.At(col, row)
	if v == g.NoData || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Bounds returns the grid extent as (west, south, east, north).
func (g *Grid) Bounds() (west, south, east, north float64) {
	west = g.XllCorner
	south = g.YllCorner
	east = g.XllCorner + float64(g.Cols)*g.Cellsize
	north = g.YllCorner + float64(g.Rows)*g.Cellsize
	return west, south, east, north
}
