package database

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/rf2tools/rf2sync/internal/model"
)

// MigratedSuffix is appended to backup files once they are copied.
const MigratedSuffix = ".migrated"

const sampleBatchSize = 1000

// MigrateBackups copies every session of the SQLite files at paths into dst.
// Each file is copied in one transaction and renamed with MigratedSuffix on
// success. It returns the paths that were migrated.
func MigrateBackups(dst *gorm.DB, paths []string, log zerolog.Logger) ([]string, error) {
	migrated := make([]string, 0, len(paths))

	for _, path := range paths {
		src, err := OpenSQLite(path)
		if err != nil {
			return migrated, fmt.Errorf("error opening backup %s: %w", path, err)
		}

		n, err := migrateFile(dst, src)
		closeDB(src)
		if err != nil {
			return migrated, fmt.Errorf("error migrating backup %s: %w", path, err)
		}
		log.Info().Str("path", path).Int("sessions", n).Msg("Migrated backup")

		if err := os.Rename(path, path+MigratedSuffix); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Error renaming backup file")
		}
		migrated = append(migrated, path)
	}
	return migrated, nil
}

func migrateFile(dst, src *gorm.DB) (int, error) {
	var sessions []model.Session
	if err := src.Preload("Laps").Preload("PauseEvents").Find(&sessions).Error; err != nil {
		return 0, fmt.Errorf("loading sessions: %w", err)
	}

	err := dst.Transaction(func(tx *gorm.DB) error {
		for i := range sessions {
			if err := copySession(tx, src, &sessions[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(sessions), nil
}

func copySession(tx, src *gorm.DB, s *model.Session) error {
	oldID := s.ID
	s.ID = 0
	for i := range s.Laps {
		s.Laps[i].ID = 0
		s.Laps[i].SessionID = 0
	}
	for i := range s.PauseEvents {
		s.PauseEvents[i].ID = 0
		s.PauseEvents[i].SessionID = 0
	}
	if err := tx.Create(s).Error; err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	// FindInBatches pages on the last primary key of batch, so rows are
	// copied before their ids are reset
	var batch []model.TelemetrySample
	res := src.Where("session_id = ?", oldID).FindInBatches(&batch, sampleBatchSize, func(_ *gorm.DB, _ int) error {
		rows := make([]model.TelemetrySample, len(batch))
		copy(rows, batch)
		for i := range rows {
			rows[i].ID = 0
			rows[i].SessionID = s.ID
		}
		return tx.Create(&rows).Error
	})
	if res.Error != nil {
		return fmt.Errorf("copying samples of session %d: %w", oldID, res.Error)
	}
	return nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
