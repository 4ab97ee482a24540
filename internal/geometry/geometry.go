// Package geometry loads basin boundaries and derives the point a map view centers on.
package geometry

import (
	"errors"
	"fmt"

	"github.com/chrissnell/basinview/internal/artifact"
	"github.com/chrissnell/basinview/internal/storage"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

var (
	// ErrOverviewCentroid is returned when a centroid is requested for the All boundary
	ErrOverviewCentroid = errors.New("centroid is not computed for the overview boundary")
	ErrEmptyGeometry    = errors.New("boundary has no geometry")
	ErrInvalidGeometry  = errors.New("invalid boundary geometry")
)

// Boundary is a basin's vector boundary as read from storage.
// Raw holds the undecoded file so it can be handed to the map as-is.
type Boundary struct {
	Source   artifact.DataSource
	BasinID  artifact.BasinID
	Geometry orb.Geometry
	Raw      []byte
}

// Bound returns the bounding box of the boundary
func (b *Boundary) Bound() orb.Bound {
	if b.Geometry == nil {
		return orb.Bound{}
	}
	return b.Geometry.Bound()
}

// Reader decodes a vector file into a geometry
type Reader interface {
	ReadGeometry(data []byte) (orb.Geometry, error)
}

// Service loads boundaries through the artifact resolver
type Service struct {
	store  storage.Store
	reader Reader
}

// NewService creates a geometry service reading GeoJSON boundaries from store
func NewService(store storage.Store) *Service {
	return &Service{store: store, reader: GeoJSONReader{}}
}

// NewServiceWithReader creates a geometry service with a custom vector reader
func NewServiceWithReader(store storage.Store, reader Reader) *Service {
	return &Service{store: store, reader: reader}
}

// LoadBoundary reads and decodes the boundary of a basin. Every call re-reads storage.
func (s *Service) LoadBoundary(source artifact.DataSource, basin artifact.BasinID) (*Boundary, error) {
	path, err := artifact.Resolve(source, basin, artifact.Boundary)
	if err != nil {
		return nil, err
	}

	data, err := s.store.ReadFile(path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: boundary for basin %s in %s", artifact.ErrArtifactNotFound, basin, source)
		}
		return nil, fmt.Errorf("error loading boundary for basin %s: %w", basin, err)
	}

	g, err := s.reader.ReadGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("boundary for basin %s: %w", basin, err)
	}

	if basin == "" {
		basin = artifact.All
	}

	return &Boundary{
		Source:   source,
		BasinID:  basin,
		Geometry: g,
		Raw:      data,
	}, nil
}

// Centroid returns the area-weighted centroid of a basin boundary as (lat, lon)
func (s *Service) Centroid(b *Boundary) (lat, lon float64, err error) {
	return Centroid(b)
}

// Centroid returns the area-weighted centroid of a basin boundary as (lat, lon).
// Polygonal parts with a positive area decide the centroid. A boundary without
// area (lines, points or collapsed rings) centers on the mean of its vertices,
// which always lies within its bound.
func Centroid(b *Boundary) (lat, lon float64, err error) {
	if b == nil {
		return 0, 0, ErrEmptyGeometry
	}
	if b.BasinID.IsAll() {
		return 0, 0, ErrOverviewCentroid
	}
	if b.Geometry == nil {
		return 0, 0, ErrEmptyGeometry
	}

	if mp := polygons(b.Geometry); len(mp) > 0 {
		if c, area := planar.CentroidArea(mp); area != 0 {
			return c.Lat(), c.Lon(), nil
		}
	}

	c, ok := vertexMean(b.Geometry)
	if !ok {
		return 0, 0, ErrEmptyGeometry
	}
	return c.Lat(), c.Lon(), nil
}

// polygons flattens every polygon in g into one multipolygon
func polygons(g orb.Geometry) orb.MultiPolygon {
	var mp orb.MultiPolygon
	switch g := g.(type) {
	case orb.Polygon:
		if len(g) > 0 && len(g[0]) > 0 {
			mp = append(mp, g)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			if len(p) > 0 && len(p[0]) > 0 {
				mp = append(mp, p)
			}
		}
	case orb.Collection:
		for _, sub := range g {
			mp = append(mp, polygons(sub)...)
		}
	}
	return mp
}

// vertexMean averages every vertex of g. It reports false when g has none.
func vertexMean(g orb.Geometry) (orb.Point, bool) {
	var sum orb.Point
	n := 0
	add := func(pts ...orb.Point) {
		for _, p := range pts {
			sum[0] += p[0]
			sum[1] += p[1]
			n++
		}
	}

	var walk func(orb.Geometry)
	walk = func(g orb.Geometry) {
		switch g := g.(type) {
		case orb.Point:
			add(g)
		case orb.MultiPoint:
			add(g...)
		case orb.LineString:
			add(g...)
		case orb.Ring:
			add(g...)
		case orb.MultiLineString:
			for _, ls := range g {
				add(ls...)
			}
		case orb.Polygon:
			for _, r := range g {
				add(r...)
			}
		case orb.MultiPolygon:
			for _, p := range g {
				walk(p)
			}
		case orb.Collection:
			for _, sub := range g {
				walk(sub)
			}
		}
	}
	walk(g)

	if n == 0 {
		return orb.Point{}, false
	}
	return orb.Point{sum[0] / float64(n), sum[1] / float64(n)}, true
}
