// Package identity finds the local player's slots in the scoring and
// telemetry vehicle arrays.
//
// The two arrays are ordered independently by the producer and slots move
// when vehicles pit, join or leave, so the only safe join key between them is
// the vehicle id (mID).
package identity

import "github.com/rf2tools/rf2sync/pkg/rf2data"

// Identity is a resolved local player. Scoring and Telemetry are private
// copies of the matched slots.
type Identity struct {
	ScoringIndex   int
	TelemetryIndex int
	ID             int32

	Scoring   rf2data.VehicleSlot
	Telemetry rf2data.VehicleSlot
}

// HasTelemetry reports whether a telemetry slot was matched.
func (id Identity) HasTelemetry() bool {
	return id.TelemetryIndex != rf2data.InvalidIndex
}

// Resolve locates the local player. With override set, pinned is used as the
// scoring index without checking the player flag, and a pin outside the
// active slots is a miss; otherwise the first active scoring slot flagged as
// the local player wins. A missing telemetry match is still a successful
// resolution, with TelemetryIndex set to InvalidIndex.
func Resolve(scoring, telemetry rf2data.Record, pinned int, override bool) (Identity, bool) {
	miss := Identity{ScoringIndex: rf2data.InvalidIndex, TelemetryIndex: rf2data.InvalidIndex}

	scorIdx := pinned
	if !override {
		scorIdx = LocalScoringIndex(scoring)
	}
	if scorIdx < 0 || scorIdx >= scoring.NumVehicles() {
		return miss, false
	}

	slot, ok := scoring.Slot(scorIdx)
	if !ok {
		return miss, false
	}

	id := Identity{
		ScoringIndex:   scorIdx,
		TelemetryIndex: rf2data.InvalidIndex,
		ID:             slot.ID(),
		Scoring:        slot.Clone(),
	}

	teleIdx := MatchTelemetry(telemetry, scorIdx, id.ID)
	if tele, ok := telemetry.Slot(teleIdx); ok {
		id.TelemetryIndex = teleIdx
		id.Telemetry = tele.Clone()
	}
	return id, true
}

// LocalScoringIndex scans the active scoring slots in order and returns the
// first one flagged as the local player, or InvalidIndex.
func LocalScoringIndex(scoring rf2data.Record) int {
	n := scoring.NumVehicles()
	for i := 0; i < n; i++ {
		slot, _ := scoring.Slot(i)
		if slot.IsPlayer() {
			return i
		}
	}
	return rf2data.InvalidIndex
}

// MatchTelemetry returns the telemetry index holding vehicle id. The hint
// index is checked first since slot order rarely changes between ticks.
func MatchTelemetry(telemetry rf2data.Record, hint int, id int32) int {
	n := telemetry.NumVehicles()
	if hint >= 0 && hint < n {
		if slot, _ := telemetry.Slot(hint); slot.ID() == id {
			return hint
		}
	}
	for i := 0; i < n; i++ {
		if slot, _ := telemetry.Slot(i); slot.ID() == id {
			return i
		}
	}
	return rf2data.InvalidIndex
}

// TelemetryIndex maps a scoring index to the telemetry index of the same
// vehicle, or InvalidIndex when the vehicle has no telemetry slot.
func TelemetryIndex(scoring, telemetry rf2data.Record, scoringIndex int) int {
	slot, ok := scoring.Slot(scoringIndex)
	if !ok {
		return rf2data.InvalidIndex
	}
	return MatchTelemetry(telemetry, scoringIndex, slot.ID())
}
