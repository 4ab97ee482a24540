package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

type dataSourceYAML struct {
	Name           string   `yaml:"name"`
	Label          string   `yaml:"label,omitempty"`
	Basins         []string `yaml:"basins"`
	FocusedZoom    int      `yaml:"focused_zoom,omitempty"`
	LatitudeOffset *float64 `yaml:"latitude_offset,omitempty"`
}

type viewportYAML struct {
	OverviewLatitude  *float64 `yaml:"overview_latitude,omitempty"`
	OverviewLongitude *float64 `yaml:"overview_longitude,omitempty"`
	OverviewZoom      int      `yaml:"overview_zoom,omitempty"`
	FocusedZoom       int      `yaml:"focused_zoom,omitempty"`
	LatitudeOffset    *float64 `yaml:"latitude_offset,omitempty"`
}

type restServerYAML struct {
	Cert               string `yaml:"cert,omitempty"`
	Key                string `yaml:"key,omitempty"`
	Port               int    `yaml:"port,omitempty"`
	ListenAddr         string `yaml:"listen_addr,omitempty"`
	PageTitle          string `yaml:"page_title,omitempty"`
	SessionIdleTimeout string `yaml:"session_idle_timeout,omitempty"`
	TableLabels        struct {
		OldClass  string `yaml:"old_class,omitempty"`
		NewClass  string `yaml:"new_class,omitempty"`
		CellCount string `yaml:"cell_count,omitempty"`
	} `yaml:"table_labels,omitempty"`
}

type controllerYAML struct {
	Type       string          `yaml:"type,omitempty"`
	RESTServer *restServerYAML `yaml:"rest,omitempty"`
}

type configYAML struct {
	DataSources []dataSourceYAML `yaml:"data_sources"`
	Viewport    viewportYAML     `yaml:"viewport,omitempty"`
	Statistic   struct {
		TargetClass string `yaml:"target_class,omitempty"`
	} `yaml:"statistic,omitempty"`
	Storage struct {
		Backend          string `yaml:"backend,omitempty"`
		Root             string `yaml:"root,omitempty"`
		ConnectionString string `yaml:"connection_string,omitempty"`
	} `yaml:"storage,omitempty"`
	Controllers []controllerYAML `yaml:"controllers,omitempty"`
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}
	return parseYAML(cfgFile)
}

func parseYAML(data []byte) (*ConfigData, error) {
	var yamlConfig configYAML
	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		DataSources: make([]DataSourceData, len(yamlConfig.DataSources)),
		Viewport:    DefaultViewport(),
		Controllers: make([]ControllerData, len(yamlConfig.Controllers)),
	}

	for i, ds := range yamlConfig.DataSources {
		config.DataSources[i] = DataSourceData{
			Name:           ds.Name,
			Label:          ds.Label,
			Basins:         ds.Basins,
			FocusedZoom:    ds.FocusedZoom,
			LatitudeOffset: ds.LatitudeOffset,
		}
	}

	vp := yamlConfig.Viewport
	if vp.OverviewLatitude != nil {
		config.Viewport.OverviewLatitude = *vp.OverviewLatitude
	}
	if vp.OverviewLongitude != nil {
		config.Viewport.OverviewLongitude = *vp.OverviewLongitude
	}
	if vp.OverviewZoom != 0 {
		config.Viewport.OverviewZoom = vp.OverviewZoom
	}
	if vp.FocusedZoom != 0 {
		config.Viewport.FocusedZoom = vp.FocusedZoom
	}
	if vp.LatitudeOffset != nil {
		config.Viewport.LatitudeOffset = *vp.LatitudeOffset
	}

	config.Statistic.TargetClass = yamlConfig.Statistic.TargetClass
	config.Storage = StorageData{
		Backend:          yamlConfig.Storage.Backend,
		Root:             yamlConfig.Storage.Root,
		ConnectionString: yamlConfig.Storage.ConnectionString,
	}

	for i, controller := range yamlConfig.Controllers {
		config.Controllers[i] = ControllerData{
			Type: controller.Type,
		}

		if controller.RESTServer != nil {
			rs := controller.RESTServer
			config.Controllers[i].RESTServer = &RESTServerData{
				Cert:               rs.Cert,
				Key:                rs.Key,
				Port:               rs.Port,
				ListenAddr:         rs.ListenAddr,
				PageTitle:          rs.PageTitle,
				SessionIdleTimeout: rs.SessionIdleTimeout,
				TableLabels: TableLabelsData{
					OldClass:  rs.TableLabels.OldClass,
					NewClass:  rs.TableLabels.NewClass,
					CellCount: rs.TableLabels.CellCount,
				},
			}
		}
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// GetDataSources returns the configured data sources
func (y *YAMLProvider) GetDataSources() ([]DataSourceData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return config.DataSources, nil
}

// GetControllers returns controller configurations from YAML file
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return config.Controllers, nil
}

// IsReadOnly returns true since YAML files are treated as read-only
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
