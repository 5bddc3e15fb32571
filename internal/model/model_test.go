package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		name     string
		model    interface{ TableName() string }
		expected string
	}{
		{"SyncInfo", &SyncInfo{}, "sync_infos"},
		{"Session", &Session{}, "sessions"},
		{"TelemetrySample", &TelemetrySample{}, "telemetry_samples"},
		{"Lap", &Lap{}, "laps"},
		{"PauseEvent", &PauseEvent{}, "pause_events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.model.TableName())
		})
	}
}

func TestDatabaseModels_AllTables(t *testing.T) {
	assert.Len(t, DatabaseModels, 5)
}
