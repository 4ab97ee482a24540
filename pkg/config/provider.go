package config

import (
	"fmt"
	"time"

	"github.com/chrissnell/basinview/internal/artifact"
)

const (
	StorageBackendFilesystem = "filesystem"
	StorageBackendDatabase   = "database"

	DefaultPageTitle          = "USGS/FORE-SCE Land Use Change Basins, 1978-2021"
	DefaultTargetClass        = "Urban"
	DefaultStorageRoot        = "./Data"
	DefaultSessionIdleTimeout = 2 * time.Hour
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetDataSources() ([]DataSourceData, error)
	GetControllers() ([]ControllerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	DataSources []DataSourceData `json:"data_sources"`
	Viewport    ViewportData     `json:"viewport"`
	Statistic   StatisticData    `json:"statistic"`
	Storage     StorageData      `json:"storage"`
	Controllers []ControllerData `json:"controllers,omitempty"`
}

// DataSourceData describes one data source namespace and the basins offered under it.
// FocusedZoom and LatitudeOffset override the viewport defaults for this source when set.
type DataSourceData struct {
	Name           string   `json:"name"`
	Label          string   `json:"label,omitempty"`
	Basins         []string `json:"basins"`
	FocusedZoom    int      `json:"focused_zoom,omitempty"`
	LatitudeOffset *float64 `json:"latitude_offset,omitempty"`
}

// ViewportData holds the fixed map transforms
type ViewportData struct {
	OverviewLatitude  float64 `json:"overview_latitude"`
	OverviewLongitude float64 `json:"overview_longitude"`
	OverviewZoom      int     `json:"overview_zoom"`
	FocusedZoom       int     `json:"focused_zoom"`
	LatitudeOffset    float64 `json:"latitude_offset"`
}

// StatisticData configures the derived land-use statistic
type StatisticData struct {
	TargetClass string `json:"target_class"`
}

// StorageData selects where basin artifacts are read from
type StorageData struct {
	Backend          string `json:"backend"`
	Root             string `json:"root,omitempty"`
	ConnectionString string `json:"connection_string,omitempty"`
}

// ControllerData holds the configuration for various controller backends
type ControllerData struct {
	Type       string          `json:"type,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty"`
}

type RESTServerData struct {
	Cert               string          `json:"cert,omitempty"`
	Key                string          `json:"key,omitempty"`
	Port               int             `json:"port,omitempty"`
	ListenAddr         string          `json:"listen_addr,omitempty"`
	PageTitle          string          `json:"page_title,omitempty"`
	SessionIdleTimeout string          `json:"session_idle_timeout,omitempty"`
	TableLabels        TableLabelsData `json:"table_labels"`
}

// TableLabelsData holds the display names of the change table columns
type TableLabelsData struct {
	OldClass  string `json:"old_class,omitempty"`
	NewClass  string `json:"new_class,omitempty"`
	CellCount string `json:"cell_count,omitempty"`
}

// DefaultViewport returns the overview and focus transforms used when none are configured
func DefaultViewport() ViewportData {
	return ViewportData{
		OverviewLatitude:  33,
		OverviewLongitude: -96,
		OverviewZoom:      4,
		FocusedZoom:       11,
		LatitudeOffset:    0.15,
	}
}

// ApplyDefaults fills in unset values. Viewport coordinates are left to the
// providers since zero is a valid coordinate.
func (c *ConfigData) ApplyDefaults() {
	def := DefaultViewport()
	if c.Viewport.OverviewZoom == 0 {
		c.Viewport.OverviewZoom = def.OverviewZoom
	}
	if c.Viewport.FocusedZoom == 0 {
		c.Viewport.FocusedZoom = def.FocusedZoom
	}

	if c.Statistic.TargetClass == "" {
		c.Statistic.TargetClass = DefaultTargetClass
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageBackendFilesystem
	}
	if c.Storage.Backend == StorageBackendFilesystem && c.Storage.Root == "" {
		c.Storage.Root = DefaultStorageRoot
	}

	for i := range c.Controllers {
		rs := c.Controllers[i].RESTServer
		if rs == nil {
			continue
		}
		if rs.PageTitle == "" {
			rs.PageTitle = DefaultPageTitle
		}
		if rs.TableLabels.OldClass == "" {
			rs.TableLabels.OldClass = "1978 Land Use"
		}
		if rs.TableLabels.NewClass == "" {
			rs.TableLabels.NewClass = "2021 Land Use"
		}
		if rs.TableLabels.CellCount == "" {
			rs.TableLabels.CellCount = "Cell Count"
		}
	}
}

// Validate checks that every data source is known and offers a usable basin
// list, and that focusing on a basin always zooms in past the overview.
func (c *ConfigData) Validate() error {
	if len(c.DataSources) == 0 {
		return fmt.Errorf("no data sources configured")
	}

	if c.Viewport.OverviewZoom < 0 {
		return fmt.Errorf("overview_zoom %d is negative", c.Viewport.OverviewZoom)
	}
	if c.Viewport.FocusedZoom <= c.Viewport.OverviewZoom {
		return fmt.Errorf("focused_zoom %d must be greater than overview_zoom %d",
			c.Viewport.FocusedZoom, c.Viewport.OverviewZoom)
	}

	seenSources := make(map[string]bool)
	for _, ds := range c.DataSources {
		if _, err := artifact.ParseDataSource(ds.Name); err != nil {
			return fmt.Errorf("data source %q: %w", ds.Name, err)
		}
		if seenSources[ds.Name] {
			return fmt.Errorf("data source %q is configured more than once", ds.Name)
		}
		seenSources[ds.Name] = true

		if ds.FocusedZoom != 0 && ds.FocusedZoom <= c.Viewport.OverviewZoom {
			return fmt.Errorf("data source %q: focused_zoom %d must be greater than overview_zoom %d",
				ds.Name, ds.FocusedZoom, c.Viewport.OverviewZoom)
		}

		if len(ds.Basins) == 0 {
			return fmt.Errorf("data source %q has no basins", ds.Name)
		}

		seenBasins := make(map[string]bool)
		for _, b := range ds.Basins {
			switch {
			case b == "":
				return fmt.Errorf("data source %q has an empty basin id", ds.Name)
			case artifact.BasinID(b).IsAll():
				return fmt.Errorf("data source %q lists %q as a basin; it is always offered", ds.Name, artifact.All)
			case seenBasins[b]:
				return fmt.Errorf("data source %q lists basin %q more than once", ds.Name, b)
			}
			seenBasins[b] = true
		}
	}

	switch c.Storage.Backend {
	case StorageBackendFilesystem, StorageBackendDatabase:
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}

	for _, con := range c.Controllers {
		rs := con.RESTServer
		if rs == nil || rs.SessionIdleTimeout == "" {
			continue
		}
		if _, err := time.ParseDuration(rs.SessionIdleTimeout); err != nil {
			return fmt.Errorf("invalid session_idle_timeout %q: %w", rs.SessionIdleTimeout, err)
		}
	}

	return nil
}

// IdleTimeout returns the parsed session idle timeout, or the default when unset
func (r *RESTServerData) IdleTimeout() time.Duration {
	if r.SessionIdleTimeout == "" {
		return DefaultSessionIdleTimeout
	}
	d, err := time.ParseDuration(r.SessionIdleTimeout)
	if err != nil || d <= 0 {
		return DefaultSessionIdleTimeout
	}
	return d
}
