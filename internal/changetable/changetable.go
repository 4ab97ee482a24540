// Package changetable reads per-basin land-use change tables.
package changetable

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedTable is returned for a table that cannot be read as change rows
var ErrMalformedTable = errors.New("malformed change table")

// Row is one land-use transition between the two observed epochs
type Row struct {
	OldClass  string `json:"old_class"`
	NewClass  string `json:"new_class"`
	CellCount int64  `json:"cell_count"`
}

// Reader decodes a tabular file into ordered change rows
type Reader interface {
	ReadTable(data []byte) ([]Row, error)
}

// Header names accepted for each column, compared case-insensitively
var (
	oldClassColumns  = []string{"old_lu_bin", "oldclass", "old_class"}
	newClassColumns  = []string{"new_lu_bin", "newclass", "new_class"}
	cellCountColumns = []string{"cell_count", "cellcount"}
)

// CSVReader reads comma-separated change tables with a header row.
// Columns other than the three change columns, such as a leading index, are ignored.
type CSVReader struct{}

// ReadTable parses data into rows in file order
func (CSVReader) ReadTable(data []byte) ([]Row, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: missing header", ErrMalformedTable)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}

	oldIdx, newIdx, countIdx := -1, -1, -1
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		switch {
		case contains(oldClassColumns, name):
			oldIdx = i
		case contains(newClassColumns, name):
			newIdx = i
		case contains(cellCountColumns, name):
			countIdx = i
		}
	}
	if oldIdx < 0 || newIdx < 0 || countIdx < 0 {
		return nil, fmt.Errorf("%w: header %v lacks old class, new class or cell count column", ErrMalformedTable, header)
	}

	rows := make([]Row, 0)
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
		}

		count, err := parseCount(record[countIdx])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedTable, line, err)
		}

		rows = append(rows, Row{
			OldClass:  strings.TrimSpace(record[oldIdx]),
			NewClass:  strings.TrimSpace(record[newIdx]),
			CellCount: count,
		})
	}

	return rows, nil
}

// parseCount accepts integers and integral floats such as "50.0"
func parseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("cell count %q is not an integer", s)
		}
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return 0, fmt.Errorf("cell count %q is out of range", s)
		}
		n = int64(f)
	}
	if n < 0 {
		return 0, fmt.Errorf("cell count %d is negative", n)
	}
	return n, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
