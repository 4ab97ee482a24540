package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/chrissnell/basinview/internal/changetable"
	"github.com/google/go-cmp/cmp"
)

var sampleRows = []changetable.Row{
	{OldClass: "Forest", NewClass: "Urban", CellCount: 50},
	{OldClass: "Urban", NewClass: "Urban", CellCount: 30},
	{OldClass: "Forest", NewClass: "Forest", CellCount: 20},
}

func TestDeriveConversion(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		rows      []changetable.Row
		expected  float64
		converted int64
		total     int64
	}{
		{
			name:      "urban conversion",
			target:    "Urban",
			rows:      sampleRows,
			expected:  50.00,
			converted: 50,
			total:     100,
		},
		{
			name:      "default target is urban",
			rows:      sampleRows,
			expected:  50.00,
			converted: 50,
			total:     100,
		},
		{
			name:   "other target class",
			target: "Wetland",
			rows: []changetable.Row{
				{OldClass: "Water", NewClass: "Wetland", CellCount: 1},
				{OldClass: "Wetland", NewClass: "Wetland", CellCount: 5},
				{OldClass: "Forest", NewClass: "Forest", CellCount: 2},
			},
			expected:  12.50,
			converted: 1,
			total:     8,
		},
		{
			name:   "rounded to two decimals",
			target: "Urban",
			rows: []changetable.Row{
				{OldClass: "Forest", NewClass: "Urban", CellCount: 1},
				{OldClass: "Forest", NewClass: "Forest", CellCount: 2},
			},
			expected:  33.33,
			converted: 1,
			total:     3,
		},
		{
			name:   "repeated transitions are summed",
			target: "Urban",
			rows: []changetable.Row{
				{OldClass: "Forest", NewClass: "Urban", CellCount: 10},
				{OldClass: "Forest", NewClass: "Urban", CellCount: 15},
				{OldClass: "Grassland", NewClass: "Urban", CellCount: 25},
				{OldClass: "Forest", NewClass: "Forest", CellCount: 50},
			},
			expected:  50.00,
			converted: 50,
			total:     100,
		},
		{
			name:   "target class absent",
			target: "Urban",
			rows: []changetable.Row{
				{OldClass: "Forest", NewClass: "Forest", CellCount: 9},
			},
			expected:  0,
			converted: 0,
			total:     9,
		},
		{
			name:   "everything converted",
			target: "Urban",
			rows: []changetable.Row{
				{OldClass: "Forest", NewClass: "Urban", CellCount: 4},
				{OldClass: "Water", NewClass: "Urban", CellCount: 4},
			},
			expected:  100,
			converted: 8,
			total:     8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stat, err := NewDeriver(tt.target).DeriveConversion(tt.rows)
			if err != nil {
				t.Fatalf("DeriveConversion() unexpected error: %v", err)
			}
			if math.Abs(stat.Value-tt.expected) > 1e-9 {
				t.Errorf("DeriveConversion() = %.4f, expected %.2f", stat.Value, tt.expected)
			}
			if stat.Converted != tt.converted || stat.Total != tt.total {
				t.Errorf("DeriveConversion() cells = %d/%d, expected %d/%d", stat.Converted, stat.Total, tt.converted, tt.total)
			}
			if stat.Value < 0 || stat.Value > 100 {
				t.Errorf("DeriveConversion() = %v, expected a value in [0, 100]", stat.Value)
			}
		})
	}
}

func TestDeriveConversionDegenerate(t *testing.T) {
	tests := []struct {
		name string
		rows []changetable.Row
	}{
		{name: "empty table", rows: []changetable.Row{}},
		{name: "nil table", rows: nil},
		{name: "all counts zero", rows: []changetable.Row{{OldClass: "Forest", NewClass: "Urban", CellCount: 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDeriver("Urban").DeriveConversion(tt.rows)
			if !errors.Is(err, ErrDegenerateInput) {
				t.Errorf("DeriveConversion() error = %v, expected %v", err, ErrDegenerateInput)
			}
		})
	}
}

func TestStatisticString(t *testing.T) {
	stat, err := NewDeriver("").DeriveConversion(sampleRows)
	if err != nil {
		t.Fatalf("DeriveConversion() unexpected error: %v", err)
	}
	if got := stat.String(); got != "50.00% of cells converted to Urban" {
		t.Errorf("String() = %q", got)
	}
}

func TestMatrixSummary(t *testing.T) {
	m := NewMatrix(sampleRows)

	if diff := cmp.Diff([]string{"Forest", "Urban"}, m.Classes()); diff != "" {
		t.Errorf("Classes() mismatch (-expected +got):\n%s", diff)
	}

	expected := []ClassChange{
		{Class: "Forest", Before: 70, After: 20, Net: -50},
		{Class: "Urban", Before: 30, After: 80, Net: 50},
	}
	if diff := cmp.Diff(expected, m.Summary()); diff != "" {
		t.Errorf("Summary() mismatch (-expected +got):\n%s", diff)
	}

	if got := m.Count("Urban", "Forest"); got != 0 {
		t.Errorf("Count(Urban, Forest) = %v, expected 0", got)
	}
	if got := m.Count("Barren", "Urban"); got != 0 {
		t.Errorf("Count(Barren, Urban) = %v, expected 0", got)
	}

	empty := NewMatrix(nil)
	if empty.Total() != 0 || len(empty.Summary()) != 0 {
		t.Errorf("NewMatrix(nil) total = %v, summary = %v, expected empty", empty.Total(), empty.Summary())
	}
}
