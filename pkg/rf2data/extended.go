package rf2data

// rF2Extended field offsets. Physics options and tracked damages are kept as
// opaque bytes between 24 and 3136.
const (
	exVersion                   = 8
	exIs64Bit                   = 20
	exInRealtimeFC              = 3136
	exMultimediaThreadStarted   = 3137
	exSimulationThreadStarted   = 3138
	exSessionStarted            = 3139
	exTicksSessionStarted       = 3140
	exTicksSessionEnded         = 3148
	exDirectMemoryAccessEnabled = 3156
	exSCRPluginEnabled          = 3157
	exSCRPluginDoubleFileType   = 3158
	exTicksStatusMessageUpdated = 3160
	exStatusMessage             = 3168
	exUnsubscribedBuffersMask   = 3296
	exHWControlInputEnabled     = 3300

	ffbForceValue = 12
)

// Extended is the plugin status record.
type Extended struct {
	Version                   string `json:"version"`
	Is64Bit                   bool   `json:"is64Bit"`
	InRealtimeFC              bool   `json:"inRealtimeFC"`
	MultimediaThreadStarted   bool   `json:"multimediaThreadStarted"`
	SimulationThreadStarted   bool   `json:"simulationThreadStarted"`
	SessionStarted            bool   `json:"sessionStarted"`
	TicksSessionStarted       int64  `json:"ticksSessionStarted"`
	TicksSessionEnded         int64  `json:"ticksSessionEnded"`
	DirectMemoryAccessEnabled bool   `json:"directMemoryAccessEnabled"`
	SCRPluginEnabled          bool   `json:"scrPluginEnabled"`
	SCRPluginDoubleFileType   int8   `json:"scrPluginDoubleFileType"`
	TicksStatusMessageUpdated int64  `json:"ticksStatusMessageUpdated"`
	StatusMessage             string `json:"statusMessage"`
	UnsubscribedBuffersMask   uint32 `json:"unsubscribedBuffersMask"`
	HWControlInputEnabled     bool   `json:"hwControlInputEnabled"`
}

// ForceFeedback is the steering force record, updated at 400Hz.
type ForceFeedback struct {
	ForceValue float64 `json:"forceValue"`
}

// DecodeExtended decodes an extended record.
func DecodeExtended(r Record) Extended {
	if r.Layout.Kind != KindExtended || !r.Valid() {
		return Extended{}
	}
	b := r.Data
	return Extended{
		Version:                   CString(b[exVersion : exVersion+12]),
		Is64Bit:                   b[exIs64Bit] != 0,
		InRealtimeFC:              b[exInRealtimeFC] != 0,
		MultimediaThreadStarted:   b[exMultimediaThreadStarted] != 0,
		SimulationThreadStarted:   b[exSimulationThreadStarted] != 0,
		SessionStarted:            b[exSessionStarted] != 0,
		TicksSessionStarted:       readI64(b, exTicksSessionStarted),
		TicksSessionEnded:         readI64(b, exTicksSessionEnded),
		DirectMemoryAccessEnabled: b[exDirectMemoryAccessEnabled] != 0,
		SCRPluginEnabled:          b[exSCRPluginEnabled] != 0,
		SCRPluginDoubleFileType:   int8(b[exSCRPluginDoubleFileType]),
		TicksStatusMessageUpdated: readI64(b, exTicksStatusMessageUpdated),
		StatusMessage:             CString(b[exStatusMessage : exStatusMessage+128]),
		UnsubscribedBuffersMask:   readU32(b, exUnsubscribedBuffersMask),
		HWControlInputEnabled:     b[exHWControlInputEnabled] != 0,
	}
}

// PutExtended encodes e into an extended record.
func (r Record) PutExtended(e Extended) {
	if r.Layout.Kind != KindExtended || !r.Valid() {
		return
	}
	b := r.Data
	putCString(b, exVersion, 12, e.Version)
	putBool(b, exIs64Bit, e.Is64Bit)
	putBool(b, exInRealtimeFC, e.InRealtimeFC)
	putBool(b, exMultimediaThreadStarted, e.MultimediaThreadStarted)
	putBool(b, exSimulationThreadStarted, e.SimulationThreadStarted)
	putBool(b, exSessionStarted, e.SessionStarted)
	putI64(b, exTicksSessionStarted, e.TicksSessionStarted)
	putI64(b, exTicksSessionEnded, e.TicksSessionEnded)
	putBool(b, exDirectMemoryAccessEnabled, e.DirectMemoryAccessEnabled)
	putBool(b, exSCRPluginEnabled, e.SCRPluginEnabled)
	b[exSCRPluginDoubleFileType] = byte(e.SCRPluginDoubleFileType)
	putI64(b, exTicksStatusMessageUpdated, e.TicksStatusMessageUpdated)
	putCString(b, exStatusMessage, 128, e.StatusMessage)
	putU32(b, exUnsubscribedBuffersMask, e.UnsubscribedBuffersMask)
	putBool(b, exHWControlInputEnabled, e.HWControlInputEnabled)
}

// DecodeForceFeedback decodes a force feedback record.
func DecodeForceFeedback(r Record) ForceFeedback {
	if r.Layout.Kind != KindForceFeedback || !r.Valid() {
		return ForceFeedback{}
	}
	return ForceFeedback{ForceValue: readF64(r.Data, ffbForceValue)}
}

// PutForceFeedback encodes f into a force feedback record.
func (r Record) PutForceFeedback(f ForceFeedback) {
	if r.Layout.Kind != KindForceFeedback || !r.Valid() {
		return
	}
	putF64(r.Data, ffbForceValue, f.ForceValue)
}
