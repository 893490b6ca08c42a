package renderer

import (
	gomath "math"
	"testing"

	"github.com/spaghettifunk/quadro/engine/renderer/metadata"
)

func TestAnimateIsPure(t *testing.T) {
	extent := metadata.Extent{Width: 800, Height: 600}
	a := Animate(1.25, extent)
	b := Animate(1.25, extent)
	if a != b {
		t.Error("Animate() is not deterministic for identical inputs")
	}
}

func TestAnimateRotationRate(t *testing.T) {
	extent := metadata.Extent{Width: 800, Height: 600}

	// A quarter turn per second means four seconds closes the circle.
	start := Animate(0, extent)
	full := Animate(4, extent)
	for i := range start.Model.Data {
		diff := gomath.Abs(float64(start.Model.Data[i] - full.Model.Data[i]))
		if diff > 1e-5 {
			t.Fatalf("model matrix element %d after a full period differs by %g", i, diff)
		}
	}

	// Halfway through the period the quad faces the other way: the X basis
	// vector is negated.
	half := Animate(2, extent)
	if got, want := half.Model.Data[0], -start.Model.Data[0]; gomath.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("half-period X basis = %g, want %g", got, want)
	}
}

func TestAnimateProjectionTracksExtent(t *testing.T) {
	wide := Animate(0, metadata.Extent{Width: 1600, Height: 600})
	tall := Animate(0, metadata.Extent{Width: 600, Height: 1600})
	if wide.Projection == tall.Projection {
		t.Error("projection does not depend on the aspect ratio")
	}

	// View is extent-independent.
	if wide.View != tall.View {
		t.Error("view matrix changed with the extent")
	}
}

func TestAnimateZeroExtentFallsBack(t *testing.T) {
	got := Animate(0, metadata.Extent{})
	square := Animate(0, metadata.Extent{Width: 512, Height: 512})
	if got.Projection != square.Projection {
		t.Error("zero extent should project with a square aspect ratio")
	}
}

func TestAnimateProjectionFlipsY(t *testing.T) {
	ubo := Animate(0, metadata.Extent{Width: 800, Height: 600})
	if ubo.Projection.Data[5] >= 0 {
		t.Errorf("projection Data[5] = %g, want negative (Y-down clip space)", ubo.Projection.Data[5])
	}
}
