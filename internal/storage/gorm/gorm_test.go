package gormstorage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rf2tools/rf2sync/internal/database"
	"github.com/rf2tools/rf2sync/internal/model"
	"github.com/rf2tools/rf2sync/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestBackend creates an initialized Backend on a fresh SQLite file.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)

	b := New(Dependencies{DB: db, Version: "test", FlushInterval: time.Hour})
	require.NoError(t, b.Init())
	t.Cleanup(func() { assert.NoError(t, b.Close()) })
	return b
}

func TestInit_NoDatabase(t *testing.T) {
	b := New(Dependencies{})
	assert.Error(t, b.Init())
	assert.NoError(t, b.Close(), "close without init is a no-op")
}

func TestInit_OpenCalled(t *testing.T) {
	called := false
	b := New(Dependencies{
		Open: func() (*gorm.DB, error) {
			called = true
			return database.OpenSQLite(filepath.Join(t.TempDir(), "open.sqlite"))
		},
		FlushInterval: time.Hour,
	})
	require.NoError(t, b.Init())
	defer func() { require.NoError(t, b.Close()) }()

	assert.True(t, called)
	assert.NotNil(t, b.DB())
}

func TestRecordBeforeStart(t *testing.T) {
	b := newTestBackend(t)

	assert.ErrorIs(t, b.RecordSample(&core.TelemetrySample{}), core.ErrSessionNotStarted)
	assert.ErrorIs(t, b.RecordLap(&core.LapRecord{}), core.ErrSessionNotStarted)
	assert.ErrorIs(t, b.RecordPauseEvent(&core.PauseEvent{}), core.ErrSessionNotStarted)
	assert.ErrorIs(t, b.EndSession(), core.ErrSessionNotStarted)
}

func TestRecord_QueuesToInternalQueue(t *testing.T) {
	b := newTestBackend(t)

	s := &core.Session{TrackName: "Mock Raceway", StartTime: time.Now()}
	require.NoError(t, b.StartSession(s))
	require.NotZero(t, s.ID)
	assert.Equal(t, s.ID, b.SessionID())

	require.NoError(t, b.RecordSample(&core.TelemetrySample{Lap: 1}))
	require.NoError(t, b.RecordSample(&core.TelemetrySample{Lap: 1}))
	require.NoError(t, b.RecordLap(&core.LapRecord{Lap: 1, LapTime: 80}))
	require.NoError(t, b.RecordPauseEvent(&core.PauseEvent{Paused: true}))

	assert.Equal(t, map[string]int{"samples": 2, "laps": 1, "pauseEvents": 1}, b.QueueLengths())
}

func TestFlush_WritesRows(t *testing.T) {
	b := newTestBackend(t)

	s := &core.Session{TrackName: "Mock Raceway", SessionType: "race", StartTime: time.Now()}
	require.NoError(t, b.StartSession(s))
	require.NoError(t, b.RecordSample(&core.TelemetrySample{Lap: 1, Position: core.Position3D{X: 1, Y: 2, Z: 3}}))
	require.NoError(t, b.RecordLap(&core.LapRecord{
		Lap:     1,
		LapTime: 80,
		Trace:   []core.Position3D{{X: 0, Z: 0}, {X: 10, Z: 10}},
	}))
	require.NoError(t, b.Flush())

	assert.Equal(t, map[string]int{"samples": 0, "laps": 0, "pauseEvents": 0}, b.QueueLengths())

	n, err := CountSamples(b.DB(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	laps, err := LoadLaps(b.DB(), s.ID)
	require.NoError(t, err)
	require.Len(t, laps, 1)
	assert.Equal(t, 80.0, laps[0].LapTime)
	assert.Len(t, laps[0].Trace, 2)
}

func TestEndSession_StampsEndTime(t *testing.T) {
	b := newTestBackend(t)
	end := time.Date(2026, 5, 1, 13, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return end }

	s := &core.Session{TrackName: "A", StartTime: end.Add(-time.Hour)}
	require.NoError(t, b.StartSession(s))
	require.NoError(t, b.RecordPauseEvent(&core.PauseEvent{Paused: true, Reason: "frozen"}))
	require.NoError(t, b.EndSession())
	assert.Zero(t, b.SessionID())

	var row model.Session
	require.NoError(t, b.DB().First(&row, s.ID).Error)
	require.True(t, row.EndTime.Valid)
	assert.True(t, end.Equal(row.EndTime.Time))

	var pauses []model.PauseEvent
	require.NoError(t, b.DB().Where("session_id = ?", s.ID).Find(&pauses).Error)
	assert.Len(t, pauses, 1)
}

func TestStartSession_NewSessionNewID(t *testing.T) {
	b := newTestBackend(t)

	first := &core.Session{TrackName: "A", StartTime: time.Now()}
	require.NoError(t, b.StartSession(first))
	require.NoError(t, b.RecordLap(&core.LapRecord{Lap: 1}))

	second := &core.Session{TrackName: "B", StartTime: time.Now().Add(time.Minute)}
	require.NoError(t, b.StartSession(second))
	assert.NotEqual(t, first.ID, second.ID)

	laps, err := LoadLaps(b.DB(), first.ID)
	require.NoError(t, err)
	assert.Len(t, laps, 1, "queued rows of the previous session are written on start")

	sessions, err := LoadSessions(b.DB())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "A", sessions[0].TrackName)
	assert.Equal(t, "B", sessions[1].TrackName)
}

func TestWriterLoop_Flushes(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "loop.sqlite"))
	require.NoError(t, err)
	b := New(Dependencies{DB: db, FlushInterval: 10 * time.Millisecond})
	require.NoError(t, b.Init())
	defer func() { require.NoError(t, b.Close()) }()

	s := &core.Session{TrackName: "A", StartTime: time.Now()}
	require.NoError(t, b.StartSession(s))
	require.NoError(t, b.RecordSample(&core.TelemetrySample{}))

	assert.Eventually(t, func() bool {
		n, err := CountSamples(db, s.ID)
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
}
