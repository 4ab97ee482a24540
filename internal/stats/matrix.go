package stats

import (
	"github.com/chrissnell/basinview/internal/changetable"
	"gonum.org/v1/gonum/mat"
)

// Matrix is an old-class by new-class transition matrix of cell counts.
// Classes are indexed in the order they first appear in the table.
type Matrix struct {
	classes []string
	index   map[string]int
	counts  *mat.Dense
}

// NewMatrix builds a transition matrix from change table rows.
// Repeated transitions are summed.
func NewMatrix(rows []changetable.Row) *Matrix {
	m := &Matrix{index: make(map[string]int)}
	for _, r := range rows {
		m.addClass(r.OldClass)
		m.addClass(r.NewClass)
	}

	n := len(m.classes)
	if n == 0 {
		return m
	}

	m.counts = mat.NewDense(n, n, nil)
	for _, r := range rows {
		i, j := m.index[r.OldClass], m.index[r.NewClass]
		m.counts.Set(i, j, m.counts.At(i, j)+float64(r.CellCount))
	}
	return m
}

func (m *Matrix) addClass(c string) {
	if _, ok := m.index[c]; ok {
		return
	}
	m.index[c] = len(m.classes)
	m.classes = append(m.classes, c)
}

// Classes returns the land-use classes in matrix order
func (m *Matrix) Classes() []string {
	return append([]string(nil), m.classes...)
}

// Count returns the cells recorded with first-epoch class from and second-epoch class to
func (m *Matrix) Count(from, to string) float64 {
	i, ok := m.index[from]
	if !ok {
		return 0
	}
	j, ok := m.index[to]
	if !ok {
		return 0
	}
	return m.counts.At(i, j)
}

// Total returns the number of cells in the matrix
func (m *Matrix) Total() float64 {
	if m.counts == nil {
		return 0
	}
	return mat.Sum(m.counts)
}

// Before returns the cells that belonged to class in the first epoch
func (m *Matrix) Before(class string) float64 {
	i, ok := m.index[class]
	if !ok {
		return 0
	}
	return mat.Sum(m.counts.RowView(i))
}

// After returns the cells that belong to class in the second epoch
func (m *Matrix) After(class string) float64 {
	j, ok := m.index[class]
	if !ok {
		return 0
	}
	return mat.Sum(m.counts.ColView(j))
}

// ConvertedInto returns the cells that moved into class from any other class
func (m *Matrix) ConvertedInto(class string) float64 {
	return m.After(class) - m.Count(class, class)
}

// ClassChange summarizes one class across both epochs
type ClassChange struct {
	Class  string  `json:"class"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Net    float64 `json:"net"`
}

// Summary returns the per-class change in matrix order
func (m *Matrix) Summary() []ClassChange {
	summary := make([]ClassChange, 0, len(m.classes))
	for _, c := range m.classes {
		before, after := m.Before(c), m.After(c)
		summary = append(summary, ClassChange{
			Class:  c,
			Before: before,
			After:  after,
			Net:    after - before,
		})
	}
	return summary
}
