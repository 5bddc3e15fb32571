package core

// UploadMetadata describes an exported session file for the upload API.
type UploadMetadata struct {
	TrackName   string  `json:"trackName"`
	SessionType string  `json:"sessionType"`
	DriverName  string  `json:"driverName"`
	VehicleName string  `json:"vehicleName"`
	Duration    float64 `json:"duration"` // seconds
	Laps        int     `json:"laps"`
	Tag         string  `json:"tag"`
}
