package memory

import (
	"testing"
	"time"

	"github.com/rf2tools/rf2sync/internal/config"
	"github.com/rf2tools/rf2sync/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := New(config.MemoryConfig{OutputDir: t.TempDir()})
	require.NoError(t, b.Init())
	t.Cleanup(func() { assert.NoError(t, b.Close()) })
	return b
}

func TestRecordBeforeStart(t *testing.T) {
	b := newTestBackend(t)

	assert.ErrorIs(t, b.RecordSample(&core.TelemetrySample{}), core.ErrSessionNotStarted)
	assert.ErrorIs(t, b.RecordLap(&core.LapRecord{}), core.ErrSessionNotStarted)
	assert.ErrorIs(t, b.RecordPauseEvent(&core.PauseEvent{}), core.ErrSessionNotStarted)
	assert.ErrorIs(t, b.EndSession(), core.ErrSessionNotStarted)
}

func TestStartSession_AssignsIDAndResets(t *testing.T) {
	b := newTestBackend(t)

	first := &core.Session{TrackName: "A"}
	require.NoError(t, b.StartSession(first))
	assert.Equal(t, uint(1), first.ID)
	require.NoError(t, b.RecordSample(&core.TelemetrySample{Lap: 1}))
	require.NoError(t, b.RecordLap(&core.LapRecord{Lap: 1}))

	second := &core.Session{TrackName: "B"}
	require.NoError(t, b.StartSession(second))
	assert.Equal(t, uint(2), second.ID)

	samples, laps, pauses := b.Counts()
	assert.Zero(t, samples)
	assert.Zero(t, laps)
	assert.Zero(t, pauses)

	s, ok := b.Session()
	require.True(t, ok)
	assert.Equal(t, "B", s.TrackName)
}

func TestStartSession_CopiesInput(t *testing.T) {
	b := newTestBackend(t)

	in := &core.Session{TrackName: "A"}
	require.NoError(t, b.StartSession(in))
	in.TrackName = "changed"

	s, _ := b.Session()
	assert.Equal(t, "A", s.TrackName)
}

func TestEndSession_SetsEndTime(t *testing.T) {
	b := newTestBackend(t)
	end := time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC)
	b.now = func() time.Time { return end }

	require.NoError(t, b.StartSession(&core.Session{
		TrackName: "A",
		StartTime: end.Add(-30 * time.Minute),
	}))
	require.NoError(t, b.EndSession())

	_, ok := b.Session()
	assert.False(t, ok)
	assert.InDelta(t, 1800.0, b.GetExportMetadata().Duration, 1e-9)
}
