package restserver

import (
	"encoding/json"

	"github.com/chrissnell/basinview/internal/artifact"
	"github.com/chrissnell/basinview/internal/bundle"
	"github.com/chrissnell/basinview/internal/catalog"
	"github.com/chrissnell/basinview/internal/changetable"
	"github.com/chrissnell/basinview/internal/stats"
	"github.com/chrissnell/basinview/internal/viewport"
)

// SourcesResponse lists the selectable data sources and their basins
type SourcesResponse struct {
	Default artifact.DataSource `json:"default"`
	Sources []catalog.Source    `json:"sources"`
}

// SelectRequest is the body of a basin selection
type SelectRequest struct {
	Source string `json:"source"`
	Basin  string `json:"basin"`
}

// SelectResponse is the rendered result of a basin selection
type SelectResponse struct {
	Viewport       viewport.State      `json:"viewport"`
	Source         artifact.DataSource `json:"source"`
	Basin          artifact.BasinID    `json:"basin"`
	Boundary       json.RawMessage     `json:"boundary"`
	Table          *TableResponse      `json:"table,omitempty"`
	Image          *MediaResponse      `json:"image,omitempty"`
	Timelapse      *MediaResponse      `json:"timelapse,omitempty"`
	Statistic      *stats.Statistic    `json:"statistic,omitempty"`
	StatisticText  string              `json:"statistic_text,omitempty"`
	StatisticError string              `json:"statistic_error,omitempty"`
	Summary        []stats.ClassChange `json:"summary,omitempty"`
}

// TableResponse is the change table with its display column names
type TableResponse struct {
	Columns []string          `json:"columns"`
	Rows    []changetable.Row `json:"rows"`
}

// MediaResponse points at an optional artifact. URL is set only when it is present.
type MediaResponse struct {
	Status bundle.Status `json:"status"`
	URL    string        `json:"url,omitempty"`
	Reason string        `json:"reason,omitempty"`
}
