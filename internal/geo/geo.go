package geo

import (
	"errors"

	"github.com/rf2tools/rf2sync/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// GEO POINTS
// The simulator publishes a left handed world frame with Y up. Geometry is
// stored with the ground plane in XY (sim X, sim Z) and height in Z, so 2D
// functions like Length work on the track layout.

// ErrInvalidPoint is returned when a point has no coordinates
var ErrInvalidPoint = errors.New("point is empty")

// PointFromPosition converts a world position to a 3D point.
func PointFromPosition(p core.Position3D) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.X, Y: p.Z},
		Z:    p.Y,
		Type: geom.DimXYZ,
	})
}

// PositionFromPoint converts a point back to a world position.
func PositionFromPoint(pt geom.Point) (core.Position3D, error) {
	c, ok := pt.Coordinates()
	if !ok {
		return core.Position3D{}, ErrInvalidPoint
	}
	return core.Position3D{X: c.X, Y: c.Z, Z: c.Y}, nil
}
