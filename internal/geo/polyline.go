package geo

import (
	"fmt"

	"github.com/rf2tools/rf2sync/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// TraceToLineString converts a lap trace into a 3D line string.
// Traces with fewer than 2 points yield an empty line string.
func TraceToLineString(trace []core.Position3D) geom.LineString {
	if len(trace) < 2 {
		return geom.LineString{}
	}
	flat := make([]float64, 0, len(trace)*3)
	for _, p := range trace {
		flat = append(flat, p.X, p.Z, p.Y)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXYZ))
}

// LineStringToTrace converts a stored line string back into a lap trace.
func LineStringToTrace(ls geom.LineString) ([]core.Position3D, error) {
	seq := ls.Coordinates()
	n := seq.Length()
	if n == 0 {
		return nil, nil
	}
	if n < 2 {
		return nil, fmt.Errorf("trace must have at least 2 points, got %d", n)
	}
	trace := make([]core.Position3D, n)
	for i := 0; i < n; i++ {
		c := seq.Get(i)
		trace[i] = core.Position3D{X: c.X, Y: c.Z, Z: c.Y}
	}
	return trace, nil
}

// TraceLength returns the ground distance covered by a trace in metres.
func TraceLength(trace []core.Position3D) float64 {
	if len(trace) < 2 {
		return 0
	}
	return TraceToLineString(trace).Length()
}
