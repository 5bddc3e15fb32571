package geo

import (
	"testing"

	"github.com/rf2tools/rf2sync/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

func TestPointFromPosition_GroundPlane(t *testing.T) {
	pt := PointFromPosition(core.Position3D{X: 100.5, Y: 12, Z: -200.25})

	coords, ok := pt.Coordinates()
	if !ok {
		t.Fatal("expected valid coordinates")
	}
	if coords.X != 100.5 {
		t.Errorf("expected X=100.5, got %f", coords.X)
	}
	if coords.Y != -200.25 {
		t.Errorf("expected Y=-200.25, got %f", coords.Y)
	}
	if coords.Z != 12 {
		t.Errorf("expected Z=12, got %f", coords.Z)
	}
}

func TestPositionFromPoint_RoundTrip(t *testing.T) {
	want := core.Position3D{X: -3, Y: 4.5, Z: 1000}

	got, err := PositionFromPoint(PointFromPosition(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestPositionFromPoint_Empty(t *testing.T) {
	_, err := PositionFromPoint(geom.NewEmptyPoint(geom.DimXYZ))
	if err != ErrInvalidPoint {
		t.Errorf("expected ErrInvalidPoint, got %v", err)
	}
}
