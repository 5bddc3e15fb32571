// Package rf2data describes the fixed binary records published by the rFactor 2
// shared memory plugin and decodes them into Go values.
//
// All records are little-endian and packed with 4-byte alignment, matching the
// plugin's 64-bit build.
package rf2data

import "strings"

// MaxVehicles is the capacity of every vehicle array in the plugin records.
const MaxVehicles = 128

// InvalidIndex marks a missing vehicle slot.
const InvalidIndex = -1

// Kind identifies one of the four record kinds.
type Kind uint8

const (
	KindScoring Kind = iota
	KindTelemetry
	KindExtended
	KindForceFeedback
)

func (k Kind) String() string {
	switch k {
	case KindScoring:
		return "scoring"
	case KindTelemetry:
		return "telemetry"
	case KindExtended:
		return "extended"
	case KindForceFeedback:
		return "forcefeedback"
	default:
		return "unknown"
	}
}

// Layout is the offset table for one record kind. Offsets are relative to the
// start of the record; vehicle field offsets are relative to the slot start.
type Layout struct {
	Kind    Kind
	MapName string
	Size    int

	VersionBeginOffset int
	VersionEndOffset   int

	// Vehicle array. VehicleStride is zero for records without vehicles.
	NumVehiclesOffset int
	VehiclesOffset    int
	VehicleStride     int

	IDOffset       int
	IsPlayerOffset int // -1 when the slot has no local player flag
	ControlOffset  int // -1 when the slot has no control owner
}

// ID returns the map name without the surrounding '$' markers, as used for
// POSIX shared memory file names in log output.
func (l Layout) ID() string {
	return strings.Trim(l.MapName, "$")
}

// HasVehicles reports whether the record carries a vehicle array.
func (l Layout) HasVehicles() bool {
	return l.VehicleStride > 0
}

const (
	scoringInfoOffset = 12
	scoringInfoSize   = 548
	scoringVehStride  = 584

	telemetryVehOffset = 16
	telemetryVehStride = 1888

	extendedSize = 3328
	ffbSize      = 20
)

// ScoringLayout is the $rFactor2SMMP_Scoring$ record.
var ScoringLayout = Layout{
	Kind:               KindScoring,
	MapName:            "$rFactor2SMMP_Scoring$",
	Size:               scoringInfoOffset + scoringInfoSize + scoringVehStride*MaxVehicles,
	VersionBeginOffset: 0,
	VersionEndOffset:   4,
	NumVehiclesOffset:  scoringInfoOffset + siNumVehicles,
	VehiclesOffset:     scoringInfoOffset + scoringInfoSize,
	VehicleStride:      scoringVehStride,
	IDOffset:           svID,
	IsPlayerOffset:     svIsPlayer,
	ControlOffset:      svControl,
}

// TelemetryLayout is the $rFactor2SMMP_Telemetry$ record.
var TelemetryLayout = Layout{
	Kind:               KindTelemetry,
	MapName:            "$rFactor2SMMP_Telemetry$",
	Size:               telemetryVehOffset + telemetryVehStride*MaxVehicles,
	VersionBeginOffset: 0,
	VersionEndOffset:   4,
	NumVehiclesOffset:  12,
	VehiclesOffset:     telemetryVehOffset,
	VehicleStride:      telemetryVehStride,
	IDOffset:           tvID,
	IsPlayerOffset:     -1,
	ControlOffset:      -1,
}

// ExtendedLayout is the $rFactor2SMMP_Extended$ record.
var ExtendedLayout = Layout{
	Kind:               KindExtended,
	MapName:            "$rFactor2SMMP_Extended$",
	Size:               extendedSize,
	VersionBeginOffset: 0,
	VersionEndOffset:   4,
	IsPlayerOffset:     -1,
	ControlOffset:      -1,
}

// ForceFeedbackLayout is the $rFactor2SMMP_ForceFeedback$ record.
var ForceFeedbackLayout = Layout{
	Kind:               KindForceFeedback,
	MapName:            "$rFactor2SMMP_ForceFeedback$",
	Size:               ffbSize,
	VersionBeginOffset: 0,
	VersionEndOffset:   4,
	IsPlayerOffset:     -1,
	ControlOffset:      -1,
}

// Layouts lists every record kind in refresh order.
var Layouts = []Layout{ScoringLayout, TelemetryLayout, ExtendedLayout, ForceFeedbackLayout}

// AccessMode selects how scoring and telemetry regions are read.
type AccessMode int

const (
	// CopyAccess publishes a private copy per refresh and rejects torn copies.
	CopyAccess AccessMode = iota
	// DirectAccess binds to the live mapping without copying or checking.
	DirectAccess
)

func (m AccessMode) String() string {
	if m == DirectAccess {
		return "direct"
	}
	return "copy"
}

// ParseAccessMode accepts "copy", "direct", "0" and "1". Anything else is copy.
func ParseAccessMode(s string) AccessMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direct", "1":
		return DirectAccess
	default:
		return CopyAccess
	}
}

// ControlOwner reports who is driving a vehicle.
type ControlOwner int8

const (
	ControlNobody      ControlOwner = -1
	ControlLocalPlayer ControlOwner = 0
	ControlLocalAI     ControlOwner = 1
	ControlRemote      ControlOwner = 2
	ControlReplay      ControlOwner = 3
)

func (c ControlOwner) String() string {
	switch c {
	case ControlLocalPlayer:
		return "player"
	case ControlLocalAI:
		return "ai"
	case ControlRemote:
		return "remote"
	case ControlReplay:
		return "replay"
	default:
		return "nobody"
	}
}
