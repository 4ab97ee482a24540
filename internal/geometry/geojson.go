package geometry

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSONReader decodes GeoJSON feature collections, single features or bare geometries
type GeoJSONReader struct{}

// ReadGeometry returns the geometry of a GeoJSON document. A collection with
// several features is returned as an orb.Collection.
func (GeoJSONReader) ReadGeometry(data []byte) (orb.Geometry, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		var collection orb.Collection
		for _, f := range fc.Features {
			if f.Geometry != nil {
				collection = append(collection, f.Geometry)
			}
		}
		if len(collection) == 0 {
			return nil, ErrEmptyGeometry
		}
		if len(collection) == 1 {
			return collection[0], nil
		}
		return collection, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		if f.Geometry == nil {
			return nil, ErrEmptyGeometry
		}
		return f.Geometry, nil
	case "":
		return nil, fmt.Errorf("%w: missing type member", ErrInvalidGeometry)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		return g.Geometry(), nil
	}
}
