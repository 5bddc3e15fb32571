package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&SyncInfo{},
	&Session{},
	&TelemetrySample{},
	&Lap{},
	&PauseEvent{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// SyncInfo identifies the recorder instance that owns the database
type SyncInfo struct {
	gorm.Model
	Host    string `json:"host" gorm:"size:127"`
	Version string `json:"version" gorm:"size:64"`
}

func (*SyncInfo) TableName() string {
	return "sync_infos"
}

////////////////////////
// RECORDING MODELS
////////////////////////

// Session is one recorded simulator session of the local player
type Session struct {
	gorm.Model
	StartTime     time.Time      `json:"startTime" gorm:"index:idx_session_start"`
	EndTime       sql.NullTime   `json:"endTime"`
	TrackName     string         `json:"trackName" gorm:"size:127;index:idx_session_track"`
	SessionType   string         `json:"sessionType" gorm:"size:32"`
	SessionNumber int32          `json:"sessionNumber"`
	DriverName    string         `json:"driverName" gorm:"size:127"`
	VehicleName   string         `json:"vehicleName" gorm:"size:127"`
	VehicleClass  string         `json:"vehicleClass" gorm:"size:64"`
	PluginVersion string         `json:"pluginVersion" gorm:"size:32"`
	MaxLaps       int32          `json:"maxLaps"`
	LapDistance   float64        `json:"lapDistance"`
	Metadata      datatypes.JSON `json:"metadata" gorm:"type:jsonb;default:'{}'"` // full session record as JSON
	Laps          []Lap
	PauseEvents   []PauseEvent
}

func (*Session) TableName() string {
	return "sessions"
}

// TelemetrySample is a recorder tick of the local player's car
type TelemetrySample struct {
	ID          uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	Time        time.Time  `json:"time" gorm:"index:idx_sample_time"`
	SessionID   uint       `json:"sessionId" gorm:"index:idx_sample_session_id"`
	Session     Session    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	ElapsedTime float64    `json:"elapsedTime"`
	Lap         int32      `json:"lap"`
	LapDistance float64    `json:"lapDistance"`
	Gear        int32      `json:"gear"`
	EngineRPM   float64    `json:"engineRpm"`
	Speed       float64    `json:"speed"`
	Throttle    float64    `json:"throttle"`
	Brake       float64    `json:"brake"`
	Steering    float64    `json:"steering"`
	Clutch      float64    `json:"clutch"`
	Fuel        float64    `json:"fuel"`
	Position    geom.Point `json:"position"` // ground plane XY, height Z
	Place       uint8      `json:"place"`
	InPits      bool       `json:"inPits"`
	Force       float64    `json:"force"`
}

func (*TelemetrySample) TableName() string {
	return "telemetry_samples"
}

// Lap is a completed lap with its sector split and driven line
type Lap struct {
	ID        uint            `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time       `json:"time" gorm:"index:idx_lap_time"`
	SessionID uint            `json:"sessionId" gorm:"index:idx_lap_session_id"`
	Session   Session         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Lap       int16           `json:"lap"`
	LapTime   float64         `json:"lapTime"`
	Sector1   float64         `json:"sector1"`
	Sector2   float64         `json:"sector2"`
	Sector3   float64         `json:"sector3"`
	Place     uint8           `json:"place"`
	Fuel      float64         `json:"fuel"`
	Invalid   bool            `json:"invalid"`
	Trace     geom.LineString `json:"-"`
}

func (*Lap) TableName() string {
	return "laps"
}

// PauseEvent records the synchronization pausing or resuming
type PauseEvent struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time `json:"time" gorm:"index:idx_pause_time"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_pause_session_id"`
	Session   Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Paused    bool      `json:"paused"`
	Reason    string    `json:"reason" gorm:"size:64"`
}

func (*PauseEvent) TableName() string {
	return "pause_events"
}
