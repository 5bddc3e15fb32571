// Package postgres implements the storage.Backend interface on PostgreSQL/PostGIS
// through the queued GORM writer.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/rf2tools/rf2sync/internal/config"
	"github.com/rf2tools/rf2sync/internal/database"
	gormstorage "github.com/rf2tools/rf2sync/internal/storage/gorm"

	"gorm.io/gorm"
)

// Backend is a GORM backend that owns its postgres connection.
type Backend struct {
	*gormstorage.Backend
}

// New creates a postgres storage backend. The connection is opened by Init.
func New(cfg config.DBConfig, logger *slog.Logger, version string) *Backend {
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			Open:    func() (*gorm.DB, error) { return connect(cfg) },
			Logger:  logger,
			Version: version,
		}),
	}
}

func connect(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := database.OpenPostgres(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	return db, nil
}
