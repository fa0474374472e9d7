// Package loader reads the five metric tables and joins them into the
// dataset shared by every view.
package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/gapview/pkg/model"
)

// DataDirEnvVar is the name of the environment variable for a custom data directory.
const DataDirEnvVar = "GV_DATA_DIR"

// ErrNoGeoColumn is returned when a table header has no geo column.
var ErrNoGeoColumn = errors.New("table has no geo column")

// GetDataDir returns the data directory, respecting GV_DATA_DIR.
// If GV_DATA_DIR is set, it is used directly. Otherwise dir is used, and
// when dir is empty, ./data in the current working directory.
func GetDataDir(dir string) (string, error) {
	if envDir := os.Getenv(DataDirEnvVar); envDir != "" {
		return envDir, nil
	}
	if dir != "" {
		return dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return filepath.Join(cwd, "data"), nil
}

// Table is one parsed source file.
type Table struct {
	Metric model.Metric
	Header []string
	Rows   []*model.Row
}

// Index maps geo keys to rows. When a key repeats, the first row wins.
// Rows with a blank geo are not indexed.
func (t *Table) Index() map[string]*model.Row {
	idx := make(map[string]*model.Row, len(t.Rows))
	for _, row := range t.Rows {
		if row.Geo == "" {
			continue
		}
		if _, dup := idx[row.Geo]; dup {
			continue
		}
		idx[row.Geo] = row
	}
	return idx
}

// ParseOptions configures the behavior of ParseTable.
type ParseOptions struct {
	// WarningHandler is called with warning messages (e.g., short rows).
	// If nil, warnings are printed to os.Stderr.
	WarningHandler func(string)
}

// LoadTableFromFile parses a CSV table from disk.
func LoadTableFromFile(path string, metric model.Metric, opts ParseOptions) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s table: %w", metric, err)
	}
	defer file.Close()

	return ParseTable(file, metric, opts)
}

// ParseTable parses CSV content into a Table. The header must contain a
// geo column; country and region are optional. Every non-blank line becomes
// a row: short rows are padded with empty cells and extra cells are
// dropped, both with a warning. Rows with a blank geo are kept and match
// nothing in the join.
func ParseTable(r io.Reader, metric model.Metric, opts ParseOptions) (*Table, error) {
	warn := opts.WarningHandler
	if warn == nil {
		if os.Getenv("GV_ROBOT") == "1" {
			warn = func(string) {}
		} else {
			warn = func(msg string) {
				fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
			}
		}
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%s table is empty", metric)
		}
		return nil, fmt.Errorf("reading %s header: %w", metric, err)
	}
	if len(header) > 0 {
		header[0] = string(stripBOM([]byte(header[0])))
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	geoIdx, countryIdx, regionIdx := -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(h) {
		case "geo":
			geoIdx = i
		case "country", "name":
			if countryIdx < 0 {
				countryIdx = i
			}
		case "region", "world_4region", "four_regions":
			if regionIdx < 0 {
				regionIdx = i
			}
		}
	}
	if geoIdx < 0 {
		return nil, fmt.Errorf("%s: %w", metric, ErrNoGeoColumn)
	}

	table := &Table{Metric: metric, Header: header}
	line := 1
	for {
		line++
		rec, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("reading %s line %d: %w", metric, line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		switch {
		case len(rec) < len(header):
			warn(fmt.Sprintf("%s line %d: expected %d fields, got %d; padding with empty cells", metric, line, len(header), len(rec)))
			rec = append(rec, make([]string, len(header)-len(rec))...)
		case len(rec) > len(header):
			warn(fmt.Sprintf("%s line %d: expected %d fields, got %d; ignoring extra cells", metric, line, len(header), len(rec)))
			rec = rec[:len(header)]
		}

		row := &model.Row{
			Geo:     strings.TrimSpace(rec[geoIdx]),
			Columns: make([]model.Column, len(header)),
		}
		if countryIdx >= 0 {
			row.Country = strings.TrimSpace(rec[countryIdx])
		}
		if regionIdx >= 0 {
			row.Region = strings.TrimSpace(rec[regionIdx])
		}
		for i, h := range header {
			row.Columns[i] = model.Column{Label: h, Value: rec[i]}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
