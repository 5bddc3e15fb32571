package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/rf2tools/rf2sync/internal/config"
	"github.com/rf2tools/rf2sync/internal/database"
	"github.com/rf2tools/rf2sync/internal/logging"
)

// migrateBackups copies SQLite dumps from dir, or the dump directory from
// the config, into PostgreSQL.
func migrateBackups(dir string) error {
	if dir == "" {
		dir = filepath.Dir(config.GetStorageConfig().SQLite.DumpPath)
	}

	m := database.NewManager(config.GetDBConfig(), logging.NewZerolog(os.Stdout, logLevel(), "database"))
	if err := m.Connect(); err != nil {
		return err
	}
	defer m.Close()
	if m.ShouldSaveLocal {
		return errors.New("postgres is not reachable")
	}
	if err := m.Setup(Version); err != nil {
		return err
	}

	paths, err := database.GetBackupDBPaths(dir)
	if err != nil {
		return err
	}
	migrated, err := database.MigrateBackups(m.DB, paths, m.Logger)
	Logger.Info("Migrated backups, it's recommended to delete them to avoid future data duplication",
		"count", len(migrated), "paths", migrated)
	return err
}
