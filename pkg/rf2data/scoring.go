package rf2data

// rF2ScoringInfo field offsets, relative to the start of the info block.
const (
	siTrackName       = 0
	siSession         = 64
	siCurrentET       = 68
	siEndET           = 76
	siMaxLaps         = 84
	siLapDist         = 88
	siNumVehicles     = 104
	siGamePhase       = 108
	siYellowFlagState = 109
	siSectorFlag      = 110
	siStartLight      = 113
	siNumRedLights    = 114
	siInRealtime      = 115
	siPlayerName      = 116
	siPlrFileName     = 148
	siDarkCloud       = 212
	siRaining         = 220
	siAmbientTemp     = 228
	siTrackTemp       = 236
)

// rF2VehicleScoring field offsets, relative to the slot start.
const (
	svID               = 0
	svDriverName       = 4
	svVehicleName      = 36
	svTotalLaps        = 100
	svSector           = 102
	svFinishStatus     = 103
	svLapDist          = 104
	svPathLateral      = 112
	svTrackEdge        = 120
	svBestSector1      = 128
	svBestSector2      = 136
	svBestLapTime      = 144
	svLastSector1      = 152
	svLastSector2      = 160
	svLastLapTime      = 168
	svCurSector1       = 176
	svCurSector2       = 184
	svNumPitstops      = 192
	svNumPenalties     = 194
	svIsPlayer         = 196
	svControl          = 197
	svInPits           = 198
	svPlace            = 199
	svVehicleClass     = 200
	svTimeBehindNext   = 232
	svLapsBehindNext   = 240
	svTimeBehindLeader = 244
	svLapsBehindLeader = 252
	svLapStartET       = 256
	svPos              = 264
	svLocalVel         = 288
)

// Session types as reported in ScoringInfo.Session.
const (
	SessionTestDay  = 0
	SessionPractice = 1 // 1-4
	SessionQualify  = 5 // 5-8
	SessionWarmup   = 9
	SessionRace     = 10 // 10-13
)

// SessionName returns a readable name for a session number.
func SessionName(session int32) string {
	switch {
	case session == SessionTestDay:
		return "testday"
	case session >= SessionPractice && session < SessionQualify:
		return "practice"
	case session >= SessionQualify && session < SessionWarmup:
		return "qualify"
	case session == SessionWarmup:
		return "warmup"
	case session >= SessionRace && session <= 13:
		return "race"
	default:
		return "unknown"
	}
}

// ScoringInfo is the session wide part of the scoring record.
type ScoringInfo struct {
	TrackName       string  `json:"trackName"`
	Session         int32   `json:"session"`
	CurrentET       float64 `json:"currentET"`
	EndET           float64 `json:"endET"`
	MaxLaps         int32   `json:"maxLaps"`
	LapDist         float64 `json:"lapDist"`
	NumVehicles     int32   `json:"numVehicles"`
	GamePhase       uint8   `json:"gamePhase"`
	YellowFlagState int8    `json:"yellowFlagState"`
	SectorFlag      [3]int8 `json:"sectorFlag"`
	StartLight      uint8   `json:"startLight"`
	NumRedLights    uint8   `json:"numRedLights"`
	InRealtime      bool    `json:"inRealtime"`
	PlayerName      string  `json:"playerName"`
	PlrFileName     string  `json:"plrFileName"`
	DarkCloud       float64 `json:"darkCloud"`
	Raining         float64 `json:"raining"`
	AmbientTemp     float64 `json:"ambientTemp"`
	TrackTemp       float64 `json:"trackTemp"`
}

// ScoringVehicle is one decoded scoring slot.
type ScoringVehicle struct {
	ID               int32        `json:"id"`
	DriverName       string       `json:"driverName"`
	VehicleName      string       `json:"vehicleName"`
	TotalLaps        int16        `json:"totalLaps"`
	Sector           int8         `json:"sector"`
	FinishStatus     int8         `json:"finishStatus"`
	LapDist          float64      `json:"lapDist"`
	PathLateral      float64      `json:"pathLateral"`
	TrackEdge        float64      `json:"trackEdge"`
	BestSector1      float64      `json:"bestSector1"`
	BestSector2      float64      `json:"bestSector2"`
	BestLapTime      float64      `json:"bestLapTime"`
	LastSector1      float64      `json:"lastSector1"`
	LastSector2      float64      `json:"lastSector2"`
	LastLapTime      float64      `json:"lastLapTime"`
	CurSector1       float64      `json:"curSector1"`
	CurSector2       float64      `json:"curSector2"`
	NumPitstops      int16        `json:"numPitstops"`
	NumPenalties     int16        `json:"numPenalties"`
	IsPlayer         bool         `json:"isPlayer"`
	Control          ControlOwner `json:"control"`
	InPits           bool         `json:"inPits"`
	Place            uint8        `json:"place"`
	VehicleClass     string       `json:"vehicleClass"`
	TimeBehindNext   float64      `json:"timeBehindNext"`
	LapsBehindNext   int32        `json:"lapsBehindNext"`
	TimeBehindLeader float64      `json:"timeBehindLeader"`
	LapsBehindLeader int32        `json:"lapsBehindLeader"`
	LapStartET       float64      `json:"lapStartET"`
	Pos              Vec3         `json:"pos"`
	LocalVel         Vec3         `json:"localVel"`
}

// DecodeScoringInfo decodes the session block of a scoring record.
func DecodeScoringInfo(r Record) ScoringInfo {
	if r.Layout.Kind != KindScoring || !r.Valid() {
		return ScoringInfo{}
	}
	b := r.Data[scoringInfoOffset : scoringInfoOffset+scoringInfoSize]
	return ScoringInfo{
		TrackName:       CString(b[siTrackName : siTrackName+64]),
		Session:         readI32(b, siSession),
		CurrentET:       readF64(b, siCurrentET),
		EndET:           readF64(b, siEndET),
		MaxLaps:         readI32(b, siMaxLaps),
		LapDist:         readF64(b, siLapDist),
		NumVehicles:     readI32(b, siNumVehicles),
		GamePhase:       b[siGamePhase],
		YellowFlagState: int8(b[siYellowFlagState]),
		SectorFlag: [3]int8{
			int8(b[siSectorFlag]), int8(b[siSectorFlag+1]), int8(b[siSectorFlag+2]),
		},
		StartLight:   b[siStartLight],
		NumRedLights: b[siNumRedLights],
		InRealtime:   b[siInRealtime] != 0,
		PlayerName:   CString(b[siPlayerName : siPlayerName+32]),
		PlrFileName:  CString(b[siPlrFileName : siPlrFileName+64]),
		DarkCloud:    readF64(b, siDarkCloud),
		Raining:      readF64(b, siRaining),
		AmbientTemp:  readF64(b, siAmbientTemp),
		TrackTemp:    readF64(b, siTrackTemp),
	}
}

// Scoring decodes a scoring slot. Telemetry or empty slots decode to zero.
func (s VehicleSlot) Scoring() ScoringVehicle {
	if s.Layout.Kind != KindScoring || len(s.Data) < scoringVehStride {
		return ScoringVehicle{}
	}
	b := s.Data
	return ScoringVehicle{
		ID:               readI32(b, svID),
		DriverName:       CString(b[svDriverName : svDriverName+32]),
		VehicleName:      CString(b[svVehicleName : svVehicleName+64]),
		TotalLaps:        readI16(b, svTotalLaps),
		Sector:           int8(b[svSector]),
		FinishStatus:     int8(b[svFinishStatus]),
		LapDist:          readF64(b, svLapDist),
		PathLateral:      readF64(b, svPathLateral),
		TrackEdge:        readF64(b, svTrackEdge),
		BestSector1:      readF64(b, svBestSector1),
		BestSector2:      readF64(b, svBestSector2),
		BestLapTime:      readF64(b, svBestLapTime),
		LastSector1:      readF64(b, svLastSector1),
		LastSector2:      readF64(b, svLastSector2),
		LastLapTime:      readF64(b, svLastLapTime),
		CurSector1:       readF64(b, svCurSector1),
		CurSector2:       readF64(b, svCurSector2),
		NumPitstops:      readI16(b, svNumPitstops),
		NumPenalties:     readI16(b, svNumPenalties),
		IsPlayer:         b[svIsPlayer] == 1,
		Control:          ControlOwner(int8(b[svControl])),
		InPits:           b[svInPits] != 0,
		Place:            b[svPlace],
		VehicleClass:     CString(b[svVehicleClass : svVehicleClass+32]),
		TimeBehindNext:   readF64(b, svTimeBehindNext),
		LapsBehindNext:   readI32(b, svLapsBehindNext),
		TimeBehindLeader: readF64(b, svTimeBehindLeader),
		LapsBehindLeader: readI32(b, svLapsBehindLeader),
		LapStartET:       readF64(b, svLapStartET),
		Pos:              readVec3(b, svPos),
		LocalVel:         readVec3(b, svLocalVel),
	}
}

// PutScoringInfo encodes info into a scoring record.
func (r Record) PutScoringInfo(info ScoringInfo) {
	if r.Layout.Kind != KindScoring || !r.Valid() {
		return
	}
	b := r.Data[scoringInfoOffset : scoringInfoOffset+scoringInfoSize]
	putCString(b, siTrackName, 64, info.TrackName)
	putI32(b, siSession, info.Session)
	putF64(b, siCurrentET, info.CurrentET)
	putF64(b, siEndET, info.EndET)
	putI32(b, siMaxLaps, info.MaxLaps)
	putF64(b, siLapDist, info.LapDist)
	putI32(b, siNumVehicles, info.NumVehicles)
	b[siGamePhase] = info.GamePhase
	b[siYellowFlagState] = byte(info.YellowFlagState)
	for i, f := range info.SectorFlag {
		b[siSectorFlag+i] = byte(f)
	}
	b[siStartLight] = info.StartLight
	b[siNumRedLights] = info.NumRedLights
	putBool(b, siInRealtime, info.InRealtime)
	putCString(b, siPlayerName, 32, info.PlayerName)
	putCString(b, siPlrFileName, 64, info.PlrFileName)
	putF64(b, siDarkCloud, info.DarkCloud)
	putF64(b, siRaining, info.Raining)
	putF64(b, siAmbientTemp, info.AmbientTemp)
	putF64(b, siTrackTemp, info.TrackTemp)
}

// PutScoring encodes v into a scoring slot.
func (s VehicleSlot) PutScoring(v ScoringVehicle) {
	if s.Layout.Kind != KindScoring || len(s.Data) < scoringVehStride {
		return
	}
	b := s.Data
	putI32(b, svID, v.ID)
	putCString(b, svDriverName, 32, v.DriverName)
	putCString(b, svVehicleName, 64, v.VehicleName)
	putI16(b, svTotalLaps, v.TotalLaps)
	b[svSector] = byte(v.Sector)
	b[svFinishStatus] = byte(v.FinishStatus)
	putF64(b, svLapDist, v.LapDist)
	putF64(b, svPathLateral, v.PathLateral)
	putF64(b, svTrackEdge, v.TrackEdge)
	putF64(b, svBestSector1, v.BestSector1)
	putF64(b, svBestSector2, v.BestSector2)
	putF64(b, svBestLapTime, v.BestLapTime)
	putF64(b, svLastSector1, v.LastSector1)
	putF64(b, svLastSector2, v.LastSector2)
	putF64(b, svLastLapTime, v.LastLapTime)
	putF64(b, svCurSector1, v.CurSector1)
	putF64(b, svCurSector2, v.CurSector2)
	putI16(b, svNumPitstops, v.NumPitstops)
	putI16(b, svNumPenalties, v.NumPenalties)
	putBool(b, svIsPlayer, v.IsPlayer)
	b[svControl] = byte(v.Control)
	putBool(b, svInPits, v.InPits)
	b[svPlace] = v.Place
	putCString(b, svVehicleClass, 32, v.VehicleClass)
	putF64(b, svTimeBehindNext, v.TimeBehindNext)
	putI32(b, svLapsBehindNext, v.LapsBehindNext)
	putF64(b, svTimeBehindLeader, v.TimeBehindLeader)
	putI32(b, svLapsBehindLeader, v.LapsBehindLeader)
	putF64(b, svLapStartET, v.LapStartET)
	putVec3(b, svPos, v.Pos)
	putVec3(b, svLocalVel, v.LocalVel)
}

// SetVersion writes both update stamps.
func (r Record) SetVersion(begin, end uint32) {
	if !r.Valid() {
		return
	}
	putU32(r.Data, r.Layout.VersionBeginOffset, begin)
	putU32(r.Data, r.Layout.VersionEndOffset, end)
}

// SetNumVehicles writes the active vehicle count.
func (r Record) SetNumVehicles(n int) {
	if !r.Valid() || !r.Layout.HasVehicles() {
		return
	}
	putI32(r.Data, r.Layout.NumVehiclesOffset, int32(n))
}
