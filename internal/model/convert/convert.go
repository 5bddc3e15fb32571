package convert

import (
	"github.com/rf2tools/rf2sync/internal/geo"
	"github.com/rf2tools/rf2sync/internal/model"
	"github.com/rf2tools/rf2sync/pkg/core"
)

// SessionToCore converts a GORM model.Session to a core.Session.
func SessionToCore(s model.Session) core.Session {
	out := core.Session{
		ID:            s.ID,
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
	}
	if s.EndTime.Valid {
		out.EndTime = s.EndTime.Time
	}
	return out
}

// LapToCore converts a GORM model.Lap to a core.LapRecord.
// A trace that cannot be decoded is dropped, the timing is kept.
func LapToCore(l model.Lap) core.LapRecord {
	trace, err := geo.LineStringToTrace(l.Trace)
	if err != nil {
		trace = nil
	}
	return core.LapRecord{
		Time:    l.Time,
		Lap:     l.Lap,
		LapTime: l.LapTime,
		Sector1: l.Sector1,
		Sector2: l.Sector2,
		Sector3: l.Sector3,
		Place:   l.Place,
		Fuel:    l.Fuel,
		Invalid: l.Invalid,
		Trace:   trace,
	}
}

// TelemetrySampleToCore converts a GORM model.TelemetrySample to a core sample.
func TelemetrySampleToCore(s model.TelemetrySample) core.TelemetrySample {
	pos, _ := geo.PositionFromPoint(s.Position)
	return core.TelemetrySample{
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
		Position:    pos,
		Place:       s.Place,
		InPits:      s.InPits,
		Force:       s.Force,
	}
}
