package math

import (
	m "math"
	"testing"
)

func almostEqual(a, b float32) bool {
	return m.Abs(float64(a-b)) < 1e-5
}

func TestVec3Normalized(t *testing.T) {
	v := NewVec3(3, 0, 4).Normalized()
	if !almostEqual(v.Length(), 1.0) {
		t.Errorf("Normalized().Length() = %v, want 1", v.Length())
	}
	zero := NewVec3Zero().Normalized()
	if zero != (Vec3{}) {
		t.Errorf("Normalized() of zero vector = %v, want zero vector", zero)
	}
}

func TestVec3Cross(t *testing.T) {
	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)
	got := x.Cross(y)
	want := NewVec3(0, 0, 1)
	if got != want {
		t.Errorf("x.Cross(y) = %v, want %v", got, want)
	}
}

func TestMat4IdentityMul(t *testing.T) {
	id := NewMat4Identity()
	r := NewMat4EulerZ(0.7)
	got := id.Mul(r)
	if got != r {
		t.Errorf("I * R = %v, want %v", got, r)
	}
	got = r.Mul(id)
	if got != r {
		t.Errorf("R * I = %v, want %v", got, r)
	}
}

func TestMat4EulerZRotatesXToY(t *testing.T) {
	r := NewMat4EulerZ(Pi / 2)
	// Column 0 of the rotation is the image of the X basis vector.
	gotX, gotY := r.Data[0], r.Data[1]
	if !almostEqual(gotX, 0) || !almostEqual(gotY, 1) {
		t.Errorf("EulerZ(pi/2) maps X to (%v, %v), want (0, 1)", gotX, gotY)
	}
}

func TestMat4EulerZPeriodic(t *testing.T) {
	a := NewMat4EulerZ(0.3)
	b := NewMat4EulerZ(0.3 + 2*Pi)
	for i := range a.Data {
		if !almostEqual(a.Data[i], b.Data[i]) {
			t.Fatalf("EulerZ not 2*pi periodic at element %d: %v vs %v", i, a.Data[i], b.Data[i])
		}
	}
}

func TestMat4LookAtMapsEyeToOrigin(t *testing.T) {
	eye := NewVec3(2, 2, 2)
	view := NewMat4LookAt(eye, NewVec3Zero(), NewVec3Up())

	// Transform the eye position: result must be the view-space origin.
	x := view.Data[0]*eye.X + view.Data[4]*eye.Y + view.Data[8]*eye.Z + view.Data[12]
	y := view.Data[1]*eye.X + view.Data[5]*eye.Y + view.Data[9]*eye.Z + view.Data[13]
	z := view.Data[2]*eye.X + view.Data[6]*eye.Y + view.Data[10]*eye.Z + view.Data[14]
	if !almostEqual(x, 0) || !almostEqual(y, 0) || !almostEqual(z, 0) {
		t.Errorf("LookAt maps eye to (%v, %v, %v), want origin", x, y, z)
	}
}

func TestMat4PerspectiveShape(t *testing.T) {
	p := NewMat4Perspective(Pi/4, 800.0/600.0, 0.1, 10.0)
	if p.Data[11] != -1.0 {
		t.Errorf("perspective Data[11] = %v, want -1", p.Data[11])
	}
	if p.Data[15] != 0 {
		t.Errorf("perspective Data[15] = %v, want 0", p.Data[15])
	}
}

func TestMat4PerspectiveDepthRange(t *testing.T) {
	const near, far = float32(0.1), float32(10.0)
	p := NewMat4Perspective(Pi/4, 1.0, near, far)

	// Project a point on each clip plane: depth must span [0,1], the range
	// Vulkan expects, not the [-1,1] GL convention.
	project := func(z float32) float32 {
		clipZ := p.Data[10]*z + p.Data[14]
		clipW := p.Data[11] * z
		return clipZ / clipW
	}
	if got := project(-near); !almostEqual(got, 0) {
		t.Errorf("depth at near plane = %v, want 0", got)
	}
	if got := project(-far); !almostEqual(got, 1) {
		t.Errorf("depth at far plane = %v, want 1", got)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Errorf("Clamp(5, 0, 3) = %d, want 3", got)
	}
	if got := Clamp(-1, 0, 3); got != 0 {
		t.Errorf("Clamp(-1, 0, 3) = %d, want 0", got)
	}
	if got := Clamp(float32(1.5), 0, 3); got != 1.5 {
		t.Errorf("Clamp(1.5, 0, 3) = %v, want 1.5", got)
	}
}
