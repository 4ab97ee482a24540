// Package catalog holds the fixed set of data sources and basins offered for selection.
package catalog

import (
	"fmt"

	"github.com/chrissnell/basinview/internal/artifact"
	"github.com/chrissnell/basinview/pkg/config"
)

// Source is one selectable data source
type Source struct {
	DataSource artifact.DataSource `json:"name"`
	Label      string              `json:"label"`
	Basins     []artifact.BasinID  `json:"basins"`
}

// Catalog lists the selectable sources in configured order
type Catalog struct {
	sources []Source
	offered map[artifact.DataSource]map[artifact.BasinID]bool
}

// New builds a catalog from configured data sources. Every source offers All first.
func New(dataSources []config.DataSourceData) (*Catalog, error) {
	c := &Catalog{offered: make(map[artifact.DataSource]map[artifact.BasinID]bool)}

	for _, ds := range dataSources {
		source, err := artifact.ParseDataSource(ds.Name)
		if err != nil {
			return nil, err
		}
		if _, dup := c.offered[source]; dup {
			return nil, fmt.Errorf("data source %s is listed twice", source)
		}

		label := ds.Label
		if label == "" {
			label = ds.Name
		}

		basins := []artifact.BasinID{artifact.All}
		offered := map[artifact.BasinID]bool{artifact.All: true}
		for _, b := range ds.Basins {
			id := artifact.BasinID(b)
			if offered[id] {
				continue
			}
			offered[id] = true
			basins = append(basins, id)
		}

		c.sources = append(c.sources, Source{DataSource: source, Label: label, Basins: basins})
		c.offered[source] = offered
	}

	return c, nil
}

// Sources returns every selectable source
func (c *Catalog) Sources() []Source {
	return c.sources
}

// Basins returns the basins offered for a source, starting with All
func (c *Catalog) Basins(source artifact.DataSource) []artifact.BasinID {
	for _, s := range c.sources {
		if s.DataSource == source {
			return s.Basins
		}
	}
	return nil
}

// Contains reports whether basin is offered under source
func (c *Catalog) Contains(source artifact.DataSource, basin artifact.BasinID) bool {
	return c.offered[source][basin]
}

// Default returns the first configured source
func (c *Catalog) Default() (artifact.DataSource, bool) {
	if len(c.sources) == 0 {
		return 0, false
	}
	return c.sources[0].DataSource, true
}
