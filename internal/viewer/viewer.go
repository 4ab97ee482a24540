// Package viewer assembles the basin viewport controller from configuration:
// the catalog of selectable basins, the transition policy, the artifact
// aggregator and the session registry.
package viewer

import (
	"fmt"

	"github.com/chrissnell/basinview/internal/artifact"
	"github.com/chrissnell/basinview/internal/bundle"
	"github.com/chrissnell/basinview/internal/catalog"
	"github.com/chrissnell/basinview/internal/geometry"
	"github.com/chrissnell/basinview/internal/session"
	"github.com/chrissnell/basinview/internal/stats"
	"github.com/chrissnell/basinview/internal/storage"
	"github.com/chrissnell/basinview/internal/viewport"
	"github.com/chrissnell/basinview/pkg/config"
	"go.uber.org/zap"
)

// Viewer holds the stateless services shared by every session
type Viewer struct {
	Catalog    *catalog.Catalog
	Geometry   *geometry.Service
	Policy     *viewport.Policy
	Aggregator *bundle.Aggregator
	Deriver    stats.Deriver
	Sessions   *session.Manager
}

// New builds a Viewer over store
func New(cfg *config.ConfigData, store storage.Store, logger *zap.SugaredLogger) (*Viewer, error) {
	cat, err := catalog.New(cfg.DataSources)
	if err != nil {
		return nil, fmt.Errorf("error building basin catalog: %w", err)
	}

	geo := geometry.NewService(store)

	policy := viewport.NewPolicy(viewport.Settings{
		OverviewLat:    cfg.Viewport.OverviewLatitude,
		OverviewLon:    cfg.Viewport.OverviewLongitude,
		OverviewZoom:   cfg.Viewport.OverviewZoom,
		FocusedZoom:    cfg.Viewport.FocusedZoom,
		LatitudeOffset: cfg.Viewport.LatitudeOffset,
	}, geo)

	for _, ds := range cfg.DataSources {
		if ds.FocusedZoom == 0 && ds.LatitudeOffset == nil {
			continue
		}
		source, err := artifact.ParseDataSource(ds.Name)
		if err != nil {
			return nil, err
		}
		policy.SetOverride(source, viewport.Override{
			FocusedZoom:    ds.FocusedZoom,
			LatitudeOffset: ds.LatitudeOffset,
		})
		logger.Infof("data source %s uses its own focus transform", source)
	}

	v := &Viewer{
		Catalog:    cat,
		Geometry:   geo,
		Policy:     policy,
		Aggregator: bundle.NewAggregator(store, geo, logger),
		Deriver:    stats.NewDeriver(cfg.Statistic.TargetClass),
	}

	v.Sessions = session.NewManager(&session.Deps{
		Policy:     v.Policy,
		Aggregator: v.Aggregator,
		Deriver:    v.Deriver,
	}, logger)

	return v, nil
}

// NewFromConfig opens the configured artifact store and builds a Viewer over it
func NewFromConfig(cfg *config.ConfigData, logger *zap.SugaredLogger) (*Viewer, error) {
	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	return New(cfg, store, logger)
}
