// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"

	"github.com/rf2tools/rf2sync/internal/config"
	"github.com/rf2tools/rf2sync/internal/storage/memory"
	"github.com/rf2tools/rf2sync/internal/storage/postgres"
	sqlitestorage "github.com/rf2tools/rf2sync/internal/storage/sqlite"
	"github.com/rf2tools/rf2sync/internal/storage/websocket"
)

// Options carries what the database backed storage types need besides StorageConfig.
type Options struct {
	DB      config.DBConfig
	Logger  *slog.Logger
	Version string
}

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, opts Options) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(opts.DB, opts.Logger, opts.Version), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     cfg.SQLite.DumpPath,
		}, opts.Logger, opts.Version)
	case "websocket":
		return websocket.New(cfg.WebSocket, opts.Logger), nil
	case "memory", "":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
