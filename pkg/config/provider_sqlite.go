package config

import (
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS configs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	created_at TEXT,
	updated_at TEXT
);
CREATE TABLE IF NOT EXISTS settings (
	config_id INTEGER NOT NULL REFERENCES configs(id) ON DELETE CASCADE,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (config_id, key)
);
CREATE TABLE IF NOT EXISTS data_sources (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	config_id INTEGER NOT NULL REFERENCES configs(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	label TEXT,
	focused_zoom INTEGER,
	latitude_offset REAL,
	position INTEGER NOT NULL,
	UNIQUE (config_id, name)
);
CREATE TABLE IF NOT EXISTS basins (
	data_source_id INTEGER NOT NULL REFERENCES data_sources(id) ON DELETE CASCADE,
	basin_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (data_source_id, basin_id)
);
CREATE TABLE IF NOT EXISTS controller_configs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	config_id INTEGER NOT NULL REFERENCES configs(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	rest_cert TEXT,
	rest_key TEXT,
	rest_port INTEGER,
	rest_listen_addr TEXT,
	rest_page_title TEXT,
	rest_session_idle_timeout TEXT,
	rest_label_old_class TEXT,
	rest_label_new_class TEXT,
	rest_label_cell_count TEXT
);
`

// Keys of the settings table
const (
	settingOverviewLatitude  = "viewport.overview_latitude"
	settingOverviewLongitude = "viewport.overview_longitude"
	settingOverviewZoom      = "viewport.overview_zoom"
	settingFocusedZoom       = "viewport.focused_zoom"
	settingLatitudeOffset    = "viewport.latitude_offset"
	settingTargetClass       = "statistic.target_class"
	settingStorageBackend    = "storage.backend"
	settingStorageRoot       = "storage.root"
	settingStorageConnection = "storage.connection_string"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// InitSchema creates the configuration tables if they do not exist
func (s *SQLiteProvider) InitSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	settings, err := s.getSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if err := applySettings(config, settings); err != nil {
		return nil, err
	}

	dataSources, err := s.GetDataSources()
	if err != nil {
		return nil, fmt.Errorf("failed to load data sources: %w", err)
	}
	config.DataSources = dataSources

	controllers, err := s.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}
	config.Controllers = controllers

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (s *SQLiteProvider) getSettings() (map[string]string, error) {
	query := `
		SELECT key, value FROM settings
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting row: %w", err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

func applySettings(config *ConfigData, settings map[string]string) error {
	config.Viewport = DefaultViewport()

	floats := map[string]*float64{
		settingOverviewLatitude:  &config.Viewport.OverviewLatitude,
		settingOverviewLongitude: &config.Viewport.OverviewLongitude,
		settingLatitudeOffset:    &config.Viewport.LatitudeOffset,
	}
	for key, dst := range floats {
		v, ok := settings[key]
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		*dst = f
	}

	ints := map[string]*int{
		settingOverviewZoom: &config.Viewport.OverviewZoom,
		settingFocusedZoom:  &config.Viewport.FocusedZoom,
	}
	for key, dst := range ints {
		v, ok := settings[key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		*dst = n
	}

	config.Statistic.TargetClass = settings[settingTargetClass]
	config.Storage = StorageData{
		Backend:          settings[settingStorageBackend],
		Root:             settings[settingStorageRoot],
		ConnectionString: settings[settingStorageConnection],
	}
	return nil
}

// GetDataSources returns data sources and their basins in configured order
func (s *SQLiteProvider) GetDataSources() ([]DataSourceData, error) {
	query := `
		SELECT id, name, label, focused_zoom, latitude_offset
		FROM data_sources
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
		ORDER BY position
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query data sources: %w", err)
	}
	defer rows.Close()

	var ids []int64
	var dataSources []DataSourceData
	for rows.Next() {
		var id int64
		var ds DataSourceData
		var label sql.NullString
		var focusedZoom sql.NullInt64
		var latitudeOffset sql.NullFloat64

		if err := rows.Scan(&id, &ds.Name, &label, &focusedZoom, &latitudeOffset); err != nil {
			return nil, fmt.Errorf("failed to scan data source row: %w", err)
		}

		if label.Valid {
			ds.Label = label.String
		}
		if focusedZoom.Valid {
			ds.FocusedZoom = int(focusedZoom.Int64)
		}
		if latitudeOffset.Valid {
			offset := latitudeOffset.Float64
			ds.LatitudeOffset = &offset
		}

		ids = append(ids, id)
		dataSources = append(dataSources, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		basins, err := s.getBasins(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load basins for %s: %w", dataSources[i].Name, err)
		}
		dataSources[i].Basins = basins
	}

	return dataSources, nil
}

func (s *SQLiteProvider) getBasins(dataSourceID int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT basin_id FROM basins WHERE data_source_id = ? ORDER BY position`, dataSourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var basins []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		basins = append(basins, b)
	}
	return basins, rows.Err()
}

// GetControllers returns controller configurations from the database
func (s *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	query := `
		SELECT type, rest_cert, rest_key, rest_port, rest_listen_addr, rest_page_title,
		       rest_session_idle_timeout, rest_label_old_class, rest_label_new_class,
		       rest_label_cell_count
		FROM controller_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
		ORDER BY id
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query controllers: %w", err)
	}
	defer rows.Close()

	var controllers []ControllerData
	for rows.Next() {
		var controllerType string
		var cert, key, listenAddr, pageTitle, idleTimeout sql.NullString
		var labelOld, labelNew, labelCount sql.NullString
		var port sql.NullInt64

		err := rows.Scan(
			&controllerType, &cert, &key, &port, &listenAddr, &pageTitle,
			&idleTimeout, &labelOld, &labelNew, &labelCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan controller row: %w", err)
		}

		controller := ControllerData{Type: controllerType}
		switch controllerType {
		case "rest", "restserver":
			controller.RESTServer = &RESTServerData{
				Cert:               cert.String,
				Key:                key.String,
				Port:               int(port.Int64),
				ListenAddr:         listenAddr.String,
				PageTitle:          pageTitle.String,
				SessionIdleTimeout: idleTimeout.String,
				TableLabels: TableLabelsData{
					OldClass:  labelOld.String,
					NewClass:  labelNew.String,
					CellCount: labelCount.String,
				},
			}
		}

		controllers = append(controllers, controller)
	}

	return controllers, rows.Err()
}

// IsReadOnly returns false since SQLite configuration can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig replaces the stored configuration with configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	if err := s.InitSchema(); err != nil {
		return err
	}

	// Start transaction
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.getOrCreateConfigID(tx)
	if err != nil {
		return fmt.Errorf("failed to insert config: %w", err)
	}

	if err := s.clearExistingConfig(tx, configID); err != nil {
		return fmt.Errorf("failed to clear existing config: %w", err)
	}

	if err := s.insertSettings(tx, configID, configData); err != nil {
		return fmt.Errorf("failed to insert settings: %w", err)
	}

	for i, ds := range configData.DataSources {
		if err := s.insertDataSource(tx, configID, i, &ds); err != nil {
			return fmt.Errorf("failed to insert data source %s: %w", ds.Name, err)
		}
	}

	for _, controller := range configData.Controllers {
		if err := s.insertController(tx, configID, &controller); err != nil {
			return fmt.Errorf("failed to insert controller %s: %w", controller.Type, err)
		}
	}

	// Commit transaction
	return tx.Commit()
}

func (s *SQLiteProvider) getOrCreateConfigID(tx *sql.Tx) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM configs WHERE name = 'default'`).Scan(&id)
	if err == nil {
		_, err = tx.Exec(`UPDATE configs SET updated_at = datetime('now') WHERE id = ?`, id)
		return id, err
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	result, err := tx.Exec(`INSERT INTO configs (name, created_at, updated_at) VALUES ('default', datetime('now'), datetime('now'))`)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteProvider) clearExistingConfig(tx *sql.Tx, configID int64) error {
	queries := []string{
		"DELETE FROM basins WHERE data_source_id IN (SELECT id FROM data_sources WHERE config_id = ?)",
		"DELETE FROM data_sources WHERE config_id = ?",
		"DELETE FROM settings WHERE config_id = ?",
		"DELETE FROM controller_configs WHERE config_id = ?",
	}

	for _, query := range queries {
		if _, err := tx.Exec(query, configID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteProvider) insertSettings(tx *sql.Tx, configID int64, c *ConfigData) error {
	settings := map[string]string{
		settingOverviewLatitude:  strconv.FormatFloat(c.Viewport.OverviewLatitude, 'f', -1, 64),
		settingOverviewLongitude: strconv.FormatFloat(c.Viewport.OverviewLongitude, 'f', -1, 64),
		settingOverviewZoom:      strconv.Itoa(c.Viewport.OverviewZoom),
		settingFocusedZoom:       strconv.Itoa(c.Viewport.FocusedZoom),
		settingLatitudeOffset:    strconv.FormatFloat(c.Viewport.LatitudeOffset, 'f', -1, 64),
		settingTargetClass:       c.Statistic.TargetClass,
		settingStorageBackend:    c.Storage.Backend,
		settingStorageRoot:       c.Storage.Root,
		settingStorageConnection: c.Storage.ConnectionString,
	}

	for key, value := range settings {
		if value == "" {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO settings (config_id, key, value) VALUES (?, ?, ?)`, configID, key, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteProvider) insertDataSource(tx *sql.Tx, configID int64, position int, ds *DataSourceData) error {
	var focusedZoom sql.NullInt64
	if ds.FocusedZoom != 0 {
		focusedZoom = sql.NullInt64{Int64: int64(ds.FocusedZoom), Valid: true}
	}
	var latitudeOffset sql.NullFloat64
	if ds.LatitudeOffset != nil {
		latitudeOffset = sql.NullFloat64{Float64: *ds.LatitudeOffset, Valid: true}
	}

	result, err := tx.Exec(`
		INSERT INTO data_sources (config_id, name, label, focused_zoom, latitude_offset, position)
		VALUES (?, ?, ?, ?, ?, ?)`,
		configID, ds.Name, nullString(ds.Label), focusedZoom, latitudeOffset, position,
	)
	if err != nil {
		return err
	}

	dataSourceID, err := result.LastInsertId()
	if err != nil {
		return err
	}

	for i, b := range ds.Basins {
		if _, err := tx.Exec(`INSERT INTO basins (data_source_id, basin_id, position) VALUES (?, ?, ?)`, dataSourceID, b, i); err != nil {
			return fmt.Errorf("basin %s: %w", b, err)
		}
	}
	return nil
}

func (s *SQLiteProvider) insertController(tx *sql.Tx, configID int64, controller *ControllerData) error {
	query := `
		INSERT INTO controller_configs (
			config_id, type, rest_cert, rest_key, rest_port, rest_listen_addr, rest_page_title,
			rest_session_idle_timeout, rest_label_old_class, rest_label_new_class, rest_label_cell_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if controller.RESTServer == nil {
		_, err := tx.Exec(query, configID, controller.Type, nil, nil, nil, nil, nil, nil, nil, nil, nil)
		return err
	}

	rs := controller.RESTServer
	var port sql.NullInt64
	if rs.Port != 0 {
		port = sql.NullInt64{Int64: int64(rs.Port), Valid: true}
	}

	_, err := tx.Exec(query,
		configID, controller.Type,
		nullString(rs.Cert), nullString(rs.Key), port, nullString(rs.ListenAddr),
		nullString(rs.PageTitle), nullString(rs.SessionIdleTimeout),
		nullString(rs.TableLabels.OldClass), nullString(rs.TableLabels.NewClass),
		nullString(rs.TableLabels.CellCount),
	)
	return err
}

// Helper functions for handling nullable fields
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
