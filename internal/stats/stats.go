// Package stats derives land-use change statistics from basin change tables.
package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/chrissnell/basinview/internal/changetable"
)

// DefaultTargetClass is the class whose gains are measured when none is configured
const DefaultTargetClass = "Urban"

// ErrDegenerateInput is returned when a table has no cells to take a percentage of
var ErrDegenerateInput = errors.New("change table has a total cell count of zero")

// Statistic is the share of a basin's cells that converted into the target class
type Statistic struct {
	TargetClass string  `json:"target_class"`
	Value       float64 `json:"value"`
	Converted   int64   `json:"converted_cells"`
	Total       int64   `json:"total_cells"`
}

// String formats the statistic the way the summary text shows it
func (s Statistic) String() string {
	return fmt.Sprintf("%.2f%% of cells converted to %s", s.Value, s.TargetClass)
}

// Deriver computes conversion statistics for a configured target class
type Deriver struct {
	TargetClass string
}

// NewDeriver returns a Deriver for target, or for DefaultTargetClass when target is empty
func NewDeriver(target string) Deriver {
	if target == "" {
		target = DefaultTargetClass
	}
	return Deriver{TargetClass: target}
}

// DeriveConversion returns the percentage of all cells whose class changed into
// the target class, rounded to two decimal places
func (d Deriver) DeriveConversion(rows []changetable.Row) (Statistic, error) {
	target := d.TargetClass
	if target == "" {
		target = DefaultTargetClass
	}

	m := NewMatrix(rows)
	total := m.Total()
	if total == 0 {
		return Statistic{}, fmt.Errorf("%w (%d rows)", ErrDegenerateInput, len(rows))
	}

	converted := m.ConvertedInto(target)
	value := math.Round(100*converted/total*100) / 100

	return Statistic{
		TargetClass: target,
		Value:       value,
		Converted:   int64(converted),
		Total:       int64(total),
	}, nil
}
