package rf2data

import (
	"encoding/binary"
	"math"
)

// Record is a view over one record's bytes. Data may be a private copy or the
// live mapping, depending on how it was obtained.
type Record struct {
	Layout Layout
	Data   []byte
}

// NewRecord allocates a zero-filled record of the layout's size.
func NewRecord(l Layout) Record {
	return Record{Layout: l, Data: make([]byte, l.Size)}
}

// Valid reports whether Data is large enough for the layout.
func (r Record) Valid() bool {
	return len(r.Data) >= r.Layout.Size
}

// VersionBegin is the stamp written before an update.
func (r Record) VersionBegin() uint32 {
	if !r.Valid() {
		return 0
	}
	return readU32(r.Data, r.Layout.VersionBeginOffset)
}

// VersionEnd is the stamp written after an update. It doubles as the liveness
// token for freeze detection.
func (r Record) VersionEnd() uint32 {
	if !r.Valid() {
		return 0
	}
	return readU32(r.Data, r.Layout.VersionEndOffset)
}

// Coherent reports whether both stamps agree within this same byte slice.
func (r Record) Coherent() bool {
	return r.Valid() && r.VersionBegin() == r.VersionEnd()
}

// Clone returns a record backed by a private copy of Data.
func (r Record) Clone() Record {
	if r.Data == nil {
		return Record{Layout: r.Layout}
	}
	data := make([]byte, len(r.Data))
	copy(data, r.Data)
	return Record{Layout: r.Layout, Data: data}
}

// NumVehicles returns the active vehicle count clamped to [0, MaxVehicles].
func (r Record) NumVehicles() int {
	if !r.Valid() || !r.Layout.HasVehicles() {
		return 0
	}
	n := int(readI32(r.Data, r.Layout.NumVehiclesOffset))
	if n < 0 {
		return 0
	}
	if n > MaxVehicles {
		return MaxVehicles
	}
	return n
}

// Slot returns the vehicle slot at index. It returns false when the index is
// outside the array; inactive slots beyond NumVehicles are still addressable.
func (r Record) Slot(index int) (VehicleSlot, bool) {
	if !r.Valid() || !r.Layout.HasVehicles() || index < 0 || index >= MaxVehicles {
		return VehicleSlot{}, false
	}
	start := r.Layout.VehiclesOffset + index*r.Layout.VehicleStride
	return VehicleSlot{
		Layout: r.Layout,
		Data:   r.Data[start : start+r.Layout.VehicleStride : start+r.Layout.VehicleStride],
	}, true
}

// VehicleSlot is the raw bytes of one vehicle array entry.
type VehicleSlot struct {
	Layout Layout
	Data   []byte
}

// Empty reports whether the slot holds no data.
func (s VehicleSlot) Empty() bool {
	return len(s.Data) == 0
}

// ID is the producer assigned vehicle id (mID). It is stable while the
// vehicle stays in the session, even when its slot moves.
func (s VehicleSlot) ID() int32 {
	if len(s.Data) < s.Layout.IDOffset+4 {
		return 0
	}
	return readI32(s.Data, s.Layout.IDOffset)
}

// IsPlayer reports the live local player flag. Telemetry slots never carry it.
func (s VehicleSlot) IsPlayer() bool {
	if s.Layout.IsPlayerOffset < 0 || len(s.Data) <= s.Layout.IsPlayerOffset {
		return false
	}
	return s.Data[s.Layout.IsPlayerOffset] == 1
}

// Control returns who is driving the vehicle.
func (s VehicleSlot) Control() ControlOwner {
	if s.Layout.ControlOffset < 0 || len(s.Data) <= s.Layout.ControlOffset {
		return ControlNobody
	}
	return ControlOwner(int8(s.Data[s.Layout.ControlOffset]))
}

// Clone returns a slot backed by a private copy of its bytes.
func (s VehicleSlot) Clone() VehicleSlot {
	if s.Data == nil {
		return VehicleSlot{Layout: s.Layout}
	}
	data := make([]byte, len(s.Data))
	copy(data, s.Data)
	return VehicleSlot{Layout: s.Layout, Data: data}
}

// Vec3 is a vector in world or local coordinates (metres, m/s, ...).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Length returns the euclidean norm.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

var le = binary.LittleEndian

func readU32(b []byte, off int) uint32 { return le.Uint32(b[off:]) }
func readI32(b []byte, off int) int32  { return int32(le.Uint32(b[off:])) }
func readI16(b []byte, off int) int16  { return int16(le.Uint16(b[off:])) }
func readI64(b []byte, off int) int64  { return int64(le.Uint64(b[off:])) }
func readF64(b []byte, off int) float64 {
	return math.Float64frombits(le.Uint64(b[off:]))
}

func readVec3(b []byte, off int) Vec3 {
	return Vec3{X: readF64(b, off), Y: readF64(b, off+8), Z: readF64(b, off+16)}
}

func putU32(b []byte, off int, v uint32) { le.PutUint32(b[off:], v) }
func putI32(b []byte, off int, v int32)  { le.PutUint32(b[off:], uint32(v)) }
func putI16(b []byte, off int, v int16)  { le.PutUint16(b[off:], uint16(v)) }
func putI64(b []byte, off int, v int64)  { le.PutUint64(b[off:], uint64(v)) }
func putF64(b []byte, off int, v float64) {
	le.PutUint64(b[off:], math.Float64bits(v))
}

func putVec3(b []byte, off int, v Vec3) {
	putF64(b, off, v.X)
	putF64(b, off+8, v.Y)
	putF64(b, off+16, v.Z)
}

func putBool(b []byte, off int, v bool) {
	if v {
		b[off] = 1
	} else {
		b[off] = 0
	}
}
