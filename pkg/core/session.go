package core

import "time"

// Session is one simulator session of the local player, from the moment the
// recorder sees a track and session type until either of them changes.
type Session struct {
	ID            uint      `json:"id"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	TrackName     string    `json:"trackName"`
	SessionType   string    `json:"sessionType"`
	SessionNumber int32     `json:"sessionNumber"`
	DriverName    string    `json:"driverName"`
	VehicleName   string    `json:"vehicleName"`
	VehicleClass  string    `json:"vehicleClass"`
	PluginVersion string    `json:"pluginVersion"`
	MaxLaps       int32     `json:"maxLaps"`
	LapDistance   float64   `json:"lapDistance"`
}

// Key identifies a session by what the producer publishes. A change of key
// ends the current session.
func (s Session) Key() string {
	return s.TrackName + "/" + s.SessionType
}
