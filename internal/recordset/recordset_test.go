package recordset

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rf2tools/rf2sync/internal/shmem"
	"github.com/rf2tools/rf2sync/pkg/rf2data"
)

type countingMapping struct {
	shmem.Mapping
	closes *int
}

func (m countingMapping) Close() error {
	*m.closes++
	return m.Mapping.Close()
}

func live(t *testing.T, h *shmem.Heap, l rf2data.Layout) rf2data.Record {
	t.Helper()
	m, err := h.Open(l.MapName, l.Size)
	require.NoError(t, err)
	return rf2data.Record{Layout: l, Data: m.Bytes()}
}

func TestOpen_ModesPerKind(t *testing.T) {
	h := shmem.NewHeap()

	s, err := Open(h, rf2data.CopyAccess, "", nil)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, rf2data.CopyAccess, s.Region(rf2data.KindScoring).Mode())
	assert.Equal(t, rf2data.CopyAccess, s.Region(rf2data.KindTelemetry).Mode())
	assert.Equal(t, rf2data.DirectAccess, s.Region(rf2data.KindExtended).Mode())
	assert.Equal(t, rf2data.DirectAccess, s.Region(rf2data.KindForceFeedback).Mode())

	d, err := Open(shmem.NewHeap(), rf2data.DirectAccess, "", nil)
	require.NoError(t, err)
	defer d.Close()
	assert.Equal(t, rf2data.DirectAccess, d.Region(rf2data.KindScoring).Mode())
}

func TestRefresh_CountsTornRegions(t *testing.T) {
	h := shmem.NewHeap()
	scor := live(t, h, rf2data.ScoringLayout)
	tele := live(t, h, rf2data.TelemetryLayout)

	s, err := Open(h, rf2data.CopyAccess, "", nil)
	require.NoError(t, err)
	defer s.Close()

	scor.SetVersion(1, 1)
	tele.SetVersion(1, 1)
	assert.Equal(t, 0, s.Refresh())
	assert.Equal(t, uint32(1), s.Scoring().VersionEnd())

	scor.SetVersion(2, 1)
	tele.SetVersion(3, 2)
	assert.Equal(t, 2, s.Refresh())
	assert.Equal(t, uint32(1), s.Scoring().VersionEnd(), "torn scoring keeps previous")
	assert.Equal(t, uint32(1), s.Telemetry().VersionEnd())
	assert.Equal(t, [4]uint64{1, 1, 0, 0}, s.Misses())

	scor.SetVersion(2, 2)
	assert.Equal(t, 1, s.Refresh())
	assert.Equal(t, uint32(2), s.Scoring().VersionEnd())
}

func TestOpen_FailureClosesOpenedRegions(t *testing.T) {
	h := shmem.NewHeap()
	closes := 0
	opener := shmem.OpenerFunc(func(name string, size int) (shmem.Mapping, error) {
		if strings.Contains(name, "Extended") {
			return nil, errors.New("no such file")
		}
		m, err := h.Open(name, size)
		if err != nil {
			return nil, err
		}
		return countingMapping{Mapping: m, closes: &closes}, nil
	})

	_, err := Open(opener, rf2data.CopyAccess, "", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, shmem.ErrMapping)
	assert.Contains(t, err.Error(), "extended")
	assert.Equal(t, 2, closes, "scoring and telemetry are released")
}

func TestClose_Idempotent(t *testing.T) {
	h := shmem.NewHeap()
	ffb := live(t, h, rf2data.ForceFeedbackLayout)
	ffb.PutForceFeedback(rf2data.ForceFeedback{ForceValue: 0.5})

	s, err := Open(h, rf2data.CopyAccess, "", nil)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	ffb.PutForceFeedback(rf2data.ForceFeedback{ForceValue: -1})
	assert.Equal(t, 0.5, rf2data.DecodeForceFeedback(s.ForceFeedback()).ForceValue)
	assert.Equal(t, 4, s.Refresh(), "closed regions never refresh")
}
