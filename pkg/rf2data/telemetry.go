package rf2data

// rF2VehicleTelemetry field offsets, relative to the slot start.
const (
	tvID                  = 0
	tvDeltaTime           = 4
	tvElapsedTime         = 12
	tvLapNumber           = 20
	tvLapStartET          = 24
	tvVehicleName         = 32
	tvTrackName           = 96
	tvPos                 = 160
	tvLocalVel            = 184
	tvLocalAccel          = 208
	tvOri                 = 232
	tvLocalRot            = 304
	tvLocalRotAccel       = 328
	tvGear                = 352
	tvEngineRPM           = 356
	tvEngineWaterTemp     = 364
	tvEngineOilTemp       = 372
	tvClutchRPM           = 380
	tvUnfilteredThrottle  = 388
	tvUnfilteredBrake     = 396
	tvUnfilteredSteering  = 404
	tvUnfilteredClutch    = 412
	tvFilteredThrottle    = 420
	tvFilteredBrake       = 428
	tvFilteredSteering    = 436
	tvFilteredClutch      = 444
	tvSteeringShaftTorque = 452
	tvFuel                = 524
	tvEngineMaxRPM        = 532
)

// TelemetryVehicle is one decoded telemetry slot.
type TelemetryVehicle struct {
	ID                  int32   `json:"id"`
	DeltaTime           float64 `json:"deltaTime"`
	ElapsedTime         float64 `json:"elapsedTime"`
	LapNumber           int32   `json:"lapNumber"`
	LapStartET          float64 `json:"lapStartET"`
	VehicleName         string  `json:"vehicleName"`
	TrackName           string  `json:"trackName"`
	Pos                 Vec3    `json:"pos"`
	LocalVel            Vec3    `json:"localVel"`
	LocalAccel          Vec3    `json:"localAccel"`
	Ori                 [3]Vec3 `json:"ori"`
	LocalRot            Vec3    `json:"localRot"`
	LocalRotAccel       Vec3    `json:"localRotAccel"`
	Gear                int32   `json:"gear"`
	EngineRPM           float64 `json:"engineRPM"`
	EngineWaterTemp     float64 `json:"engineWaterTemp"`
	EngineOilTemp       float64 `json:"engineOilTemp"`
	ClutchRPM           float64 `json:"clutchRPM"`
	UnfilteredThrottle  float64 `json:"unfilteredThrottle"`
	UnfilteredBrake     float64 `json:"unfilteredBrake"`
	UnfilteredSteering  float64 `json:"unfilteredSteering"`
	UnfilteredClutch    float64 `json:"unfilteredClutch"`
	FilteredThrottle    float64 `json:"filteredThrottle"`
	FilteredBrake       float64 `json:"filteredBrake"`
	FilteredSteering    float64 `json:"filteredSteering"`
	FilteredClutch      float64 `json:"filteredClutch"`
	SteeringShaftTorque float64 `json:"steeringShaftTorque"`
	Fuel                float64 `json:"fuel"`
	EngineMaxRPM        float64 `json:"engineMaxRPM"`
}

// Speed returns the vehicle speed in m/s.
func (t TelemetryVehicle) Speed() float64 {
	return t.LocalVel.Length()
}

// Telemetry decodes a telemetry slot. Scoring or empty slots decode to zero.
func (s VehicleSlot) Telemetry() TelemetryVehicle {
	if s.Layout.Kind != KindTelemetry || len(s.Data) < telemetryVehStride {
		return TelemetryVehicle{}
	}
	b := s.Data
	return TelemetryVehicle{
		ID:                  readI32(b, tvID),
		DeltaTime:           readF64(b, tvDeltaTime),
		ElapsedTime:         readF64(b, tvElapsedTime),
		LapNumber:           readI32(b, tvLapNumber),
		LapStartET:          readF64(b, tvLapStartET),
		VehicleName:         CString(b[tvVehicleName : tvVehicleName+64]),
		TrackName:           CString(b[tvTrackName : tvTrackName+64]),
		Pos:                 readVec3(b, tvPos),
		LocalVel:            readVec3(b, tvLocalVel),
		LocalAccel:          readVec3(b, tvLocalAccel),
		Ori:                 [3]Vec3{readVec3(b, tvOri), readVec3(b, tvOri+24), readVec3(b, tvOri+48)},
		LocalRot:            readVec3(b, tvLocalRot),
		LocalRotAccel:       readVec3(b, tvLocalRotAccel),
		Gear:                readI32(b, tvGear),
		EngineRPM:           readF64(b, tvEngineRPM),
		EngineWaterTemp:     readF64(b, tvEngineWaterTemp),
		EngineOilTemp:       readF64(b, tvEngineOilTemp),
		ClutchRPM:           readF64(b, tvClutchRPM),
		UnfilteredThrottle:  readF64(b, tvUnfilteredThrottle),
		UnfilteredBrake:     readF64(b, tvUnfilteredBrake),
		UnfilteredSteering:  readF64(b, tvUnfilteredSteering),
		UnfilteredClutch:    readF64(b, tvUnfilteredClutch),
		FilteredThrottle:    readF64(b, tvFilteredThrottle),
		FilteredBrake:       readF64(b, tvFilteredBrake),
		FilteredSteering:    readF64(b, tvFilteredSteering),
		FilteredClutch:      readF64(b, tvFilteredClutch),
		SteeringShaftTorque: readF64(b, tvSteeringShaftTorque),
		Fuel:                readF64(b, tvFuel),
		EngineMaxRPM:        readF64(b, tvEngineMaxRPM),
	}
}

// PutTelemetry encodes v into a telemetry slot.
func (s VehicleSlot) PutTelemetry(v TelemetryVehicle) {
	if s.Layout.Kind != KindTelemetry || len(s.Data) < telemetryVehStride {
		return
	}
	b := s.Data
	putI32(b, tvID, v.ID)
	putF64(b, tvDeltaTime, v.DeltaTime)
	putF64(b, tvElapsedTime, v.ElapsedTime)
	putI32(b, tvLapNumber, v.LapNumber)
	putF64(b, tvLapStartET, v.LapStartET)
	putCString(b, tvVehicleName, 64, v.VehicleName)
	putCString(b, tvTrackName, 64, v.TrackName)
	putVec3(b, tvPos, v.Pos)
	putVec3(b, tvLocalVel, v.LocalVel)
	putVec3(b, tvLocalAccel, v.LocalAccel)
	for i, row := range v.Ori {
		putVec3(b, tvOri+i*24, row)
	}
	putVec3(b, tvLocalRot, v.LocalRot)
	putVec3(b, tvLocalRotAccel, v.LocalRotAccel)
	putI32(b, tvGear, v.Gear)
	putF64(b, tvEngineRPM, v.EngineRPM)
	putF64(b, tvEngineWaterTemp, v.EngineWaterTemp)
	putF64(b, tvEngineOilTemp, v.EngineOilTemp)
	putF64(b, tvClutchRPM, v.ClutchRPM)
	putF64(b, tvUnfilteredThrottle, v.UnfilteredThrottle)
	putF64(b, tvUnfilteredBrake, v.UnfilteredBrake)
	putF64(b, tvUnfilteredSteering, v.UnfilteredSteering)
	putF64(b, tvUnfilteredClutch, v.UnfilteredClutch)
	putF64(b, tvFilteredThrottle, v.FilteredThrottle)
	putF64(b, tvFilteredBrake, v.FilteredBrake)
	putF64(b, tvFilteredSteering, v.FilteredSteering)
	putF64(b, tvFilteredClutch, v.FilteredClutch)
	putF64(b, tvSteeringShaftTorque, v.SteeringShaftTorque)
	putF64(b, tvFuel, v.Fuel)
	putF64(b, tvEngineMaxRPM, v.EngineMaxRPM)
}
