package raster

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ESRI ASCII grid serialization. This is the persisted form of the elevation
// surface in the standalone deployment variant: a short header (ncols, nrows,
// xllcorner, yllcorner, cellsize, NODATA_value) followed by row-major values,
// north row first.

// ReadASCIIGridFile loads a grid from a file path.
func ReadASCIIGridFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raster file: %w", err)
	}
	defer f.Close()

	g, err := ReadASCIIGrid(f)
	if err != nil {
		return nil, fmt.Errorf("read raster file %s: %w", path, err)
	}
	return g, nil
}

// ReadASCIIGrid parses an ESRI ASCII grid stream.
func ReadASCIIGrid(r io.Reader) (*Grid, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	header := map[string]float64{}
	var values []float64

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 2 && isHeaderKey(fields[0]) && len(values) == 0 {
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid header value %q for %s: %w", fields[1], fields[0], err)
			}
			header[strings.ToLower(fields[0])] = v
			continue
		}

		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid cell value %q: %w", field, err)
			}
			values = append(values, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}

	for _, key := range []string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize"} {
		if _, ok := header[key]; !ok {
			return nil, fmt.Errorf("missing grid header field %s", key)
		}
	}

	nodata, ok := header["nodata_value"]
	if !ok {
		nodata = -9999
	}

	return NewGrid(
		int(header["ncols"]),
		int(header["nrows"]),
		header["xllcorner"],
		header["yllcorner"],
		header["cellsize"],
		nodata,
		values,
	)
}

// WriteASCIIGridFile persists a grid to a file path.
func WriteASCIIGridFile(path string, g *Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create raster file: %w", err)
	}
	defer f.Close()

	if err := WriteASCIIGrid(f, g); err != nil {
		return fmt.Errorf("write raster file %s: %w", path, err)
	}
	return nil
}

// WriteASCIIGrid serializes a grid as an ESRI ASCII grid stream.
func WriteASCIIGrid(w io.Writer, g *Grid) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "ncols %d\n", g.Cols)
	fmt.Fprintf(bw, "nrows %d\n", g.Rows)
	fmt.Fprintf(bw, "xllcorner %g\n", g.XllCorner)
	fmt.Fprintf(bw, "yllcorner %g\n", g.YllCorner)
	fmt.Fprintf(bw, "cellsize %g\n", g.Cellsize)
	fmt.Fprintf(bw, "NODATA_value %g\n", g.NoData)

	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			if col > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(strconv.FormatFloat(g.At(col, row), 'g', -1, 64)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func isHeaderKey(s string) bool {
	switch strings.ToLower(s) {
	case "ncols", "nrows", "xllcorner", "yllcorner", "cellsize", "nodata_value":
		return true
	}
	return false
}
