package core

import "time"

// Position3D is a world position in metres. Y is up.
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// TelemetrySample is one recorder tick of the local player's car.
type TelemetrySample struct {
	Time        time.Time  `json:"time"`
	ElapsedTime float64    `json:"elapsedTime"`
	Lap         int32      `json:"lap"`
	LapDistance float64    `json:"lapDistance"`
	Gear        int32      `json:"gear"`
	EngineRPM   float64    `json:"engineRPM"`
	Speed       float64    `json:"speed"` // m/s
	Throttle    float64    `json:"throttle"`
	Brake       float64    `json:"brake"`
	Steering    float64    `json:"steering"`
	Clutch      float64    `json:"clutch"`
	Fuel        float64    `json:"fuel"`
	Position    Position3D `json:"position"`
	Place       uint8      `json:"place"`
	InPits      bool       `json:"inPits"`
	Force       float64    `json:"force"`
}

// LapRecord is a completed lap of the local player.
type LapRecord struct {
	Time    time.Time    `json:"time"`
	Lap     int16        `json:"lap"`
	LapTime float64      `json:"lapTime"`
	Sector1 float64      `json:"sector1"`
	Sector2 float64      `json:"sector2"`
	Sector3 float64      `json:"sector3"`
	Place   uint8        `json:"place"`
	Fuel    float64      `json:"fuel"`
	Invalid bool         `json:"invalid"`
	Trace   []Position3D `json:"trace,omitempty"`
}

// PauseEvent records a change of the synchronization paused flag.
type PauseEvent struct {
	Time   time.Time `json:"time"`
	Paused bool      `json:"paused"`
	Reason string    `json:"reason"`
}
