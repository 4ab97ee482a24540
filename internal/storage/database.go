package storage

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ArtifactRecord holds one pre-generated artifact, keyed by its resolved path
type ArtifactRecord struct {
	gorm.Model

	Path string `gorm:"uniqueIndex;not null"`
	Data []byte `gorm:"type:bytea;not null"`
}

// TableName implements the GORM Tabler interface to specify the correct table name
func (ArtifactRecord) TableName() string {
	return "basin_artifacts"
}

// DatabaseStore reads artifacts from a PostgreSQL table
type DatabaseStore struct {
	DB *gorm.DB
}

// NewDatabaseStore connects to PostgreSQL and returns a DatabaseStore
func NewDatabaseStore(connectionString string, zl *zap.SugaredLogger) (*DatabaseStore, error) {
	if connectionString == "" {
		return nil, errors.New("database storage backend requires a connection_string")
	}

	dbLogger := logger.New(
		zap.NewStdLog(zl.Desugar()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	zl.Info("connecting to artifact database...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to artifact database: %w", err)
	}
	zl.Info("artifact database connection successful")

	return &DatabaseStore{DB: db}, nil
}

// ReadFile returns the artifact stored under path
func (d *DatabaseStore) ReadFile(path string) ([]byte, error) {
	var rec ArtifactRecord
	err := d.DB.Select("data").Where("path = ?", path).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("error querying artifact %s: %w", path, err)
	}
	return rec.Data, nil
}

// Migrate creates or updates the artifact table
func (d *DatabaseStore) Migrate() error {
	return d.DB.AutoMigrate(&ArtifactRecord{})
}

// Put stores data under path, replacing any artifact already stored there
func (d *DatabaseStore) Put(path string, data []byte) error {
	rec := ArtifactRecord{Path: path, Data: data}
	err := d.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("error storing artifact %s: %w", path, err)
	}
	return nil
}
