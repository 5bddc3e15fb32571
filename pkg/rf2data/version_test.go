package rf2data

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		name     string
		ext      Extended
		verified bool
		contains string
	}{
		{"not present", Extended{}, false, "not present"},
		{"three parts", Extended{Version: "3.7.1", Is64Bit: true}, false, "Corrupt or leaked"},
		{"non numeric", Extended{Version: "3.x.0.0", Is64Bit: true}, false, "Corrupt or leaked rFactor 2 Shared Memory version"},
		{"too old", Extended{Version: "3.5.9.9", Is64Bit: true}, false, "Minimum supported version is: 3.6.0.0"},
		{"minimum", Extended{Version: "3.6.0.0", Is64Bit: true}, true, "3.6.0.0 64bit"},
		{"newer", Extended{Version: "3.7.15.1", Is64Bit: true}, true, "3.7.15.1"},
		{"32 bit", Extended{Version: "3.7.15.1"}, false, "Only 64bit"},
		{"dma", Extended{Version: "3.7.15.1", Is64Bit: true, DirectMemoryAccessEnabled: true}, true, "DMA enabled"},
		{"scr", Extended{Version: "3.7.15.1", Is64Bit: true, DirectMemoryAccessEnabled: true, SCRPluginEnabled: true, SCRPluginDoubleFileType: 2}, true, "(DFT:2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := CheckVersion(tt.ext)
			assert.Equal(t, tt.verified, st.Verified)
			assert.Contains(t, st.Message, tt.contains)
		})
	}
}

func TestExtendedRoundTrip(t *testing.T) {
	r := NewRecord(ExtendedLayout)
	r.PutExtended(Extended{
		Version:        "3.7.15.1",
		Is64Bit:        true,
		InRealtimeFC:   true,
		SessionStarted: true,
		StatusMessage:  "Pit limiter on",
	})
	ext := DecodeExtended(r)
	assert.Equal(t, "3.7.15.1", ext.Version)
	assert.True(t, ext.Is64Bit)
	assert.True(t, ext.InRealtimeFC)
	assert.True(t, ext.SessionStarted)
	assert.Equal(t, "Pit limiter on", ext.StatusMessage)

	ffb := NewRecord(ForceFeedbackLayout)
	ffb.PutForceFeedback(ForceFeedback{ForceValue: -0.25})
	assert.Equal(t, -0.25, DecodeForceFeedback(ffb).ForceValue)
}
