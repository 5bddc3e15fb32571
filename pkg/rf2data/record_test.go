package rf2data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutSizes(t *testing.T) {
	assert.Equal(t, 75312, ScoringLayout.Size)
	assert.Equal(t, 241680, TelemetryLayout.Size)
	assert.Equal(t, 3328, ExtendedLayout.Size)
	assert.Equal(t, 20, ForceFeedbackLayout.Size)
	assert.Equal(t, "rFactor2SMMP_Scoring", ScoringLayout.ID())
	assert.True(t, TelemetryLayout.HasVehicles())
	assert.False(t, ExtendedLayout.HasVehicles())
}

func TestRecord_Coherent(t *testing.T) {
	r := NewRecord(ScoringLayout)
	assert.True(t, r.Coherent(), "zero stamps are equal")

	r.SetVersion(7, 8)
	assert.False(t, r.Coherent())
	assert.Equal(t, uint32(7), r.VersionBegin())
	assert.Equal(t, uint32(8), r.VersionEnd())

	r.SetVersion(8, 8)
	assert.True(t, r.Coherent())

	short := Record{Layout: ScoringLayout, Data: make([]byte, 10)}
	assert.False(t, short.Coherent())
	assert.Equal(t, uint32(0), short.VersionEnd())
}

func TestRecord_NumVehiclesClamped(t *testing.T) {
	r := NewRecord(TelemetryLayout)

	r.SetNumVehicles(3)
	assert.Equal(t, 3, r.NumVehicles())

	r.SetNumVehicles(-4)
	assert.Equal(t, 0, r.NumVehicles())

	r.SetNumVehicles(4000)
	assert.Equal(t, MaxVehicles, r.NumVehicles())

	assert.Equal(t, 0, NewRecord(ForceFeedbackLayout).NumVehicles())
}

func TestRecord_SlotBounds(t *testing.T) {
	r := NewRecord(ScoringLayout)

	_, ok := r.Slot(-1)
	assert.False(t, ok)
	_, ok = r.Slot(MaxVehicles)
	assert.False(t, ok)

	s, ok := r.Slot(MaxVehicles - 1)
	require.True(t, ok)
	assert.Len(t, s.Data, ScoringLayout.VehicleStride)

	_, ok = NewRecord(ExtendedLayout).Slot(0)
	assert.False(t, ok)
}

func TestVehicleSlot_CloneIsDeep(t *testing.T) {
	r := NewRecord(ScoringLayout)
	s, _ := r.Slot(2)
	s.PutScoring(ScoringVehicle{ID: 42, IsPlayer: true})

	c := s.Clone()
	s.PutScoring(ScoringVehicle{ID: 7})

	assert.Equal(t, int32(42), c.ID())
	assert.True(t, c.IsPlayer())
	assert.Equal(t, int32(7), s.ID())
}

func TestScoringRoundTrip(t *testing.T) {
	r := NewRecord(ScoringLayout)
	r.PutScoringInfo(ScoringInfo{
		TrackName:   "Spa-Francorchamps",
		Session:     10,
		NumVehicles: 2,
		InRealtime:  true,
		PlayerName:  "Jérôme",
		AmbientTemp: 21.5,
	})
	s, _ := r.Slot(1)
	s.PutScoring(ScoringVehicle{
		ID:          42,
		DriverName:  "Jérôme",
		VehicleName: "Oreca 07",
		TotalLaps:   3,
		IsPlayer:    true,
		Control:     ControlLocalAI,
		Place:       4,
		BestLapTime: 123.456,
		Pos:         Vec3{X: 1, Y: 2, Z: 3},
	})

	info := DecodeScoringInfo(r)
	assert.Equal(t, "Spa-Francorchamps", info.TrackName)
	assert.Equal(t, int32(10), info.Session)
	assert.Equal(t, "Jérôme", info.PlayerName)
	assert.True(t, info.InRealtime)
	assert.Equal(t, 21.5, info.AmbientTemp)
	assert.Equal(t, 2, r.NumVehicles())

	v := s.Scoring()
	assert.Equal(t, int32(42), v.ID)
	assert.Equal(t, "Jérôme", v.DriverName)
	assert.Equal(t, "Oreca 07", v.VehicleName)
	assert.Equal(t, int16(3), v.TotalLaps)
	assert.True(t, v.IsPlayer)
	assert.Equal(t, ControlLocalAI, v.Control)
	assert.Equal(t, ControlLocalAI, s.Control())
	assert.Equal(t, uint8(4), v.Place)
	assert.Equal(t, 123.456, v.BestLapTime)
	assert.Equal(t, Vec3{X: 1, Y: 2, Z: 3}, v.Pos)
}

func TestTelemetryDecode(t *testing.T) {
	r := NewRecord(TelemetryLayout)
	s, _ := r.Slot(5)
	s.PutTelemetry(TelemetryVehicle{
		ID:               42,
		Gear:             4,
		EngineRPM:        7200,
		LocalVel:         Vec3{X: 3, Y: 0, Z: 4},
		FilteredThrottle: 0.8,
		Fuel:             55.5,
	})

	tv := s.Telemetry()
	assert.Equal(t, int32(42), tv.ID)
	assert.Equal(t, int32(4), tv.Gear)
	assert.Equal(t, 7200.0, tv.EngineRPM)
	assert.Equal(t, 5.0, tv.Speed())
	assert.Equal(t, 0.8, tv.FilteredThrottle)
	assert.Equal(t, 55.5, tv.Fuel)
	assert.False(t, s.IsPlayer(), "telemetry slots carry no player flag")

	assert.Equal(t, ScoringVehicle{}, s.Scoring(), "wrong kind decodes to zero")
}

func TestCString(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"utf8", []byte("Jérôme\x00garbage"), "Jérôme"},
		{"cp1252", []byte{'J', 0xE9, 'r', 0xF4, 'm', 'e', 0}, "Jérôme"},
		{"no terminator", []byte("abc"), "abc"},
		{"trailing spaces", []byte("abc  \x00"), "abc"},
		{"empty", []byte{0, 'x'}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CString(tt.in))
		})
	}
}

func TestSessionName(t *testing.T) {
	assert.Equal(t, "testday", SessionName(0))
	assert.Equal(t, "practice", SessionName(3))
	assert.Equal(t, "qualify", SessionName(5))
	assert.Equal(t, "warmup", SessionName(9))
	assert.Equal(t, "race", SessionName(12))
	assert.Equal(t, "unknown", SessionName(99))
}

func TestParseAccessMode(t *testing.T) {
	assert.Equal(t, DirectAccess, ParseAccessMode("direct"))
	assert.Equal(t, DirectAccess, ParseAccessMode("1"))
	assert.Equal(t, CopyAccess, ParseAccessMode("copy"))
	assert.Equal(t, CopyAccess, ParseAccessMode("bogus"))
	assert.Equal(t, "direct", DirectAccess.String())
}
