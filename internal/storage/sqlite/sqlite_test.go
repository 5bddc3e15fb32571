package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rf2tools/rf2sync/internal/database"
	gormstorage "github.com/rf2tools/rf2sync/internal/storage/gorm"
	"github.com/rf2tools/rf2sync/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndSession_Dumps(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "session.db")
	b, err := New(Config{Path: filepath.Join(dir, "live.sqlite"), DumpPath: dump}, nil, "test")
	require.NoError(t, err)
	require.NoError(t, b.Init())

	s := &core.Session{TrackName: "Mock Raceway", StartTime: time.Now()}
	require.NoError(t, b.StartSession(s))
	require.NoError(t, b.RecordLap(&core.LapRecord{Lap: 1, LapTime: 81.5}))
	require.NoError(t, b.EndSession())
	require.NoError(t, b.Close())

	_, err = os.Stat(dump)
	require.NoError(t, err)

	db, err := database.OpenSQLite(dump)
	require.NoError(t, err)
	laps, err := gormstorage.LoadLaps(db, s.ID)
	require.NoError(t, err)
	require.Len(t, laps, 1)
	assert.Equal(t, 81.5, laps[0].LapTime)
}

func TestDumpLoop(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "periodic.db")
	b, err := New(Config{
		Path:         filepath.Join(dir, "live.sqlite"),
		DumpPath:     dump,
		DumpInterval: 20 * time.Millisecond,
	}, nil, "test")
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer func() { require.NoError(t, b.Close()) }()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(dump)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDump_NoPath(t *testing.T) {
	b, err := New(Config{Path: filepath.Join(t.TempDir(), "live.sqlite")}, nil, "test")
	require.NoError(t, err)
	require.NoError(t, b.Init())
	assert.NoError(t, b.Dump())
	assert.NoError(t, b.Close())
}
