package influx

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rf2tools/rf2sync/pkg/core"
	"github.com/rf2tools/rf2sync/pkg/rf2sm"
)

// SamplePoint builds the player_telemetry point for a sample.
func SamplePoint(s *core.Session, x *core.TelemetrySample) *influxdb2_write.Point {
	return influxdb2.NewPoint(
		"sample",
		sessionTags(s),
		map[string]interface{}{
			"lap":       x.Lap,
			"lapDist":   x.LapDistance,
			"gear":      x.Gear,
			"rpm":       x.EngineRPM,
			"speed":     x.Speed,
			"throttle":  x.Throttle,
			"brake":     x.Brake,
			"steering":  x.Steering,
			"clutch":    x.Clutch,
			"fuel":      x.Fuel,
			"x":         x.Position.X,
			"y":         x.Position.Y,
			"z":         x.Position.Z,
			"place":     int(x.Place),
			"inPits":    x.InPits,
			"ffb":       x.Force,
			"elapsedET": x.ElapsedTime,
		},
		x.Time,
	)
}

// LapPoint builds the player_telemetry point for a completed lap.
func LapPoint(s *core.Session, l *core.LapRecord) *influxdb2_write.Point {
	return influxdb2.NewPoint(
		"lap",
		sessionTags(s),
		map[string]interface{}{
			"lap":     int(l.Lap),
			"lapTime": l.LapTime,
			"sector1": l.Sector1,
			"sector2": l.Sector2,
			"sector3": l.Sector3,
			"place":   int(l.Place),
			"fuel":    l.Fuel,
			"invalid": l.Invalid,
		},
		l.Time,
	)
}

// PausePoint builds the sync_status point for a pause transition.
func PausePoint(e *core.PauseEvent) *influxdb2_write.Point {
	return influxdb2.NewPoint(
		"pause",
		map[string]string{"reason": e.Reason},
		map[string]interface{}{"paused": e.Paused},
		e.Time,
	)
}

// StatusPoint builds the sync_status point for an engine status snapshot.
func StatusPoint(st rf2sm.Status, queued int, t time.Time) *influxdb2_write.Point {
	return influxdb2.NewPoint(
		"status",
		map[string]string{"state": st.State},
		map[string]interface{}{
			"paused":            st.Paused,
			"frozen":            st.Frozen,
			"playerIndex":       st.PlayerIndex,
			"telemetryIndex":    st.TelemetryIndex,
			"scoringVersion":    int64(st.ScoringVersion),
			"telemetryVersion":  int64(st.TelemetryVersion),
			"misses_scoring":    int64(st.CoherenceMisses[0]),
			"misses_telemetry":  int64(st.CoherenceMisses[1]),
			"misses_extended":   int64(st.CoherenceMisses[2]),
			"misses_ffb":        int64(st.CoherenceMisses[3]),
			"storageQueueDepth": queued,
		},
		t,
	)
}

func sessionTags(s *core.Session) map[string]string {
	if s == nil {
		return map[string]string{}
	}
	return map[string]string{
		"track":   s.TrackName,
		"session": s.SessionType,
		"driver":  s.DriverName,
		"vehicle": s.VehicleName,
	}
}
