package gormstorage

import (
	"fmt"

	"github.com/rf2tools/rf2sync/internal/model"
	"github.com/rf2tools/rf2sync/internal/model/convert"
	"github.com/rf2tools/rf2sync/pkg/core"

	"gorm.io/gorm"
)

// LoadSessions returns every recorded session, oldest first.
func LoadSessions(db *gorm.DB) ([]core.Session, error) {
	var rows []model.Session
	if err := db.Order("start_time, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	out := make([]core.Session, 0, len(rows))
	for _, r := range rows {
		out = append(out, convert.SessionToCore(r))
	}
	return out, nil
}

// LoadLaps returns the laps of a session in lap order.
func LoadLaps(db *gorm.DB, sessionID uint) ([]core.LapRecord, error) {
	var rows []model.Lap
	if err := db.Where("session_id = ?", sessionID).Order("lap").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load laps of session %d: %w", sessionID, err)
	}
	out := make([]core.LapRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, convert.LapToCore(r))
	}
	return out, nil
}

// CountSamples returns the number of telemetry samples stored for a session.
func CountSamples(db *gorm.DB, sessionID uint) (int64, error) {
	var n int64
	err := db.Model(&model.TelemetrySample{}).Where("session_id = ?", sessionID).Count(&n).Error
	return n, err
}
