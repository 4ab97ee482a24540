// Package bundle collects every artifact displayed for a basin selection.
package bundle

import (
	"errors"
	"fmt"

	"github.com/chrissnell/basinview/internal/artifact"
	"github.com/chrissnell/basinview/internal/changetable"
	"github.com/chrissnell/basinview/internal/geometry"
	"github.com/chrissnell/basinview/internal/storage"
	"go.uber.org/zap"
)

// Bundle is the display bundle of one selection. Boundary is always set; a
// specific basin also always has a ChangeTable, possibly with no rows.
type Bundle struct {
	Source      artifact.DataSource
	BasinID     artifact.BasinID
	Boundary    *geometry.Boundary
	ChangeImage Optional
	ChangeTable []changetable.Row
	Timelapse   Optional
}

// BoundaryLoader reads basin boundaries
type BoundaryLoader interface {
	LoadBoundary(source artifact.DataSource, basin artifact.BasinID) (*geometry.Boundary, error)
}

// Aggregator assembles bundles from storage
type Aggregator struct {
	store    storage.Store
	boundary BoundaryLoader
	tables   changetable.Reader
	logger   *zap.SugaredLogger
}

// NewAggregator creates an Aggregator reading through store
func NewAggregator(store storage.Store, boundary BoundaryLoader, logger *zap.SugaredLogger) *Aggregator {
	return &Aggregator{
		store:    store,
		boundary: boundary,
		tables:   changetable.CSVReader{},
		logger:   logger,
	}
}

// Aggregate loads the bundle for a basin. The All selection only carries the
// combined boundary. A missing boundary or change table fails the bundle with
// ErrArtifactNotFound; a missing image or timelapse is recorded as Unavailable.
func (a *Aggregator) Aggregate(source artifact.DataSource, basin artifact.BasinID) (*Bundle, error) {
	if basin == "" {
		return nil, fmt.Errorf("%w: empty selection", artifact.ErrInvalidBasinID)
	}

	boundary, err := a.boundary.LoadBoundary(source, basin)
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		Source:   source,
		BasinID:  basin,
		Boundary: boundary,
	}
	if basin.IsAll() {
		return b, nil
	}

	b.ChangeTable, err = a.loadTable(source, basin)
	if err != nil {
		return nil, err
	}

	b.ChangeImage, err = a.loadOptional(source, basin, artifact.ChangeImage)
	if err != nil {
		return nil, err
	}

	b.Timelapse, err = a.loadOptional(source, basin, artifact.Timelapse)
	if err != nil {
		return nil, err
	}

	return b, nil
}

// LoadArtifact returns the raw bytes of one artifact
func (a *Aggregator) LoadArtifact(source artifact.DataSource, basin artifact.BasinID, kind artifact.Kind) ([]byte, error) {
	path, err := artifact.Resolve(source, basin, kind)
	if err != nil {
		return nil, err
	}

	data, err := a.store.ReadFile(path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s for basin %s in %s", artifact.ErrArtifactNotFound, kind, basin, source)
		}
		return nil, err
	}
	return data, nil
}

func (a *Aggregator) loadTable(source artifact.DataSource, basin artifact.BasinID) ([]changetable.Row, error) {
	data, err := a.LoadArtifact(source, basin, artifact.ChangeTable)
	if err != nil {
		return nil, err
	}

	rows, err := a.tables.ReadTable(data)
	if err != nil {
		return nil, fmt.Errorf("change table for basin %s: %w", basin, err)
	}
	return rows, nil
}

// loadOptional converts only a not-found signal into Unavailable; other failures propagate
func (a *Aggregator) loadOptional(source artifact.DataSource, basin artifact.BasinID, kind artifact.Kind) (Optional, error) {
	data, err := a.LoadArtifact(source, basin, kind)
	if err != nil {
		if errors.Is(err, artifact.ErrArtifactNotFound) {
			a.logger.Debugf("%s not available for basin %s in %s", kind, basin, source)
			return unavailable(fmt.Sprintf("no %s for basin %s", kind, basin)), nil
		}
		return Optional{}, fmt.Errorf("error loading %s for basin %s: %w", kind, basin, err)
	}
	return present(data), nil
}
