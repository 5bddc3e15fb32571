package geo

import (
	"testing"

	"github.com/rf2tools/rf2sync/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceToLineString_Valid(t *testing.T) {
	trace := []core.Position3D{{X: 0, Y: 1, Z: 0}, {X: 30, Y: 2, Z: 40}, {X: 30, Y: 3, Z: 50}}

	ls := TraceToLineString(trace)
	require.Equal(t, 3, ls.Coordinates().Length())

	back, err := LineStringToTrace(ls)
	require.NoError(t, err)
	assert.Equal(t, trace, back)
}

func TestTraceToLineString_TooFewPoints(t *testing.T) {
	ls := TraceToLineString([]core.Position3D{{X: 1}})
	assert.True(t, ls.IsEmpty())

	back, err := LineStringToTrace(ls)
	require.NoError(t, err)
	assert.Nil(t, back)
}

func TestTraceLength_IgnoresHeight(t *testing.T) {
	trace := []core.Position3D{{X: 0, Y: 0, Z: 0}, {X: 30, Y: 100, Z: 40}, {X: 30, Y: 0, Z: 50}}
	assert.InDelta(t, 60.0, TraceLength(trace), 1e-9)
	assert.Zero(t, TraceLength(nil))
}
