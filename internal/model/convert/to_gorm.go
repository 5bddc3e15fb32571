// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"encoding/json"

	"github.com/rf2tools/rf2sync/internal/geo"
	"github.com/rf2tools/rf2sync/internal/model"
	"github.com/rf2tools/rf2sync/pkg/core"
	"gorm.io/datatypes"
)

// CoreToSession converts a core.Session to a GORM model.Session.
// The whole record is also kept in Metadata so new fields survive without a migration.
func CoreToSession(s core.Session) model.Session {
	metadata, err := json.Marshal(s)
	if err != nil {
		metadata = []byte("{}")
	}

	out := model.Session{
		StartTime:     s.StartTime,
		TrackName:     s.TrackName,
		SessionType:   s.SessionType,
		SessionNumber: s.SessionNumber,
		DriverName:    s.DriverName,
		VehicleName:   s.VehicleName,
		VehicleClass:  s.VehicleClass,
		PluginVersion: s.PluginVersion,
		MaxLaps:       s.MaxLaps,
		LapDistance:   s.LapDistance,
		Metadata:      datatypes.JSON(metadata),
	}
	out.ID = s.ID
	if !s.EndTime.IsZero() {
		out.EndTime = sql.NullTime{Time: s.EndTime, Valid: true}
	}
	return out
}

// CoreToTelemetrySample converts a core.TelemetrySample to a GORM model.
// SessionID is stamped by the writer.
func CoreToTelemetrySample(s core.TelemetrySample) model.TelemetrySample {
	return model.TelemetrySample{
		Time:        s.Time,
		ElapsedTime: s.ElapsedTime,
		Lap:         s.Lap,
		LapDistance: s.LapDistance,
		Gear:        s.Gear,
		EngineRPM:   s.EngineRPM,
		Speed:       s.Speed,
		Throttle:    s.Throttle,
		Brake:       s.Brake,
		Steering:    s.Steering,
		Clutch:      s.Clutch,
		Fuel:        s.Fuel,
		Position:    geo.PointFromPosition(s.Position),
		Place:       s.Place,
		InPits:      s.InPits,
		Force:       s.Force,
	}
}

// CoreToLap converts a core.LapRecord to a GORM model.Lap.
func CoreToLap(l core.LapRecord) model.Lap {
	return model.Lap{
		Time:    l.Time,
		Lap:     l.Lap,
		LapTime: l.LapTime,
		Sector1: l.Sector1,
		Sector2: l.Sector2,
		Sector3: l.Sector3,
		Place:   l.Place,
		Fuel:    l.Fuel,
		Invalid: l.Invalid,
		Trace:   geo.TraceToLineString(l.Trace),
	}
}

// CoreToPauseEvent converts a core.PauseEvent to a GORM model.
func CoreToPauseEvent(e core.PauseEvent) model.PauseEvent {
	return model.PauseEvent{
		Time:   e.Time,
		Paused: e.Paused,
		Reason: e.Reason,
	}
}
