package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const standardTol = float32(1.0e-5)

func assertVec3(t *testing.T, want, got Vec3) {
	t.Helper()
	assert.True(t, want.Compare(got, standardTol), "want %v got %v", want, got)
}

func TestVec3Basics(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, 5, 6)
	assert.Equal(t, NewVec3(5, 7, 9), a.Add(b))
	assert.Equal(t, NewVec3(-3, -3, -3), a.Sub(b))
	assert.Equal(t, NewVec3(4, 10, 18), a.Mul(b))
	assert.Equal(t, float32(32), a.Dot(b))
	assert.Equal(t, NewVec3(-3, 6, -3), a.Cross(b))
	assert.Equal(t, NewVec3(1, 2, 3), a.Min(b))
	assert.Equal(t, NewVec3(4, 5, 6), a.Max(b))
	assert.InDelta(t, 5.0, NewVec3(3, 4, 0).Length(), 1e-6)
	assertVec3(t, NewVec3(0.6, 0.8, 0), NewVec3(3, 4, 0).Normalized())
	assert.Equal(t, NewVec3Zero(), NewVec3Zero().Normalized())
	assert.True(t, a.IsFinite())
}

func TestMat4Transforms(t *testing.T) {
	p := NewVec3(1, 0, 0)
	assert.Equal(t, p, p.Transform(NewMat4Identity()))
	assert.Equal(t, NewVec3(2, 3, 4), p.Transform(NewMat4Translation(NewVec3(1, 3, 4))))
	assert.Equal(t, p, p.TransformDirection(NewMat4Translation(NewVec3(1, 3, 4))))
	assert.Equal(t, NewVec3(3, 0, 0), p.Transform(NewMat4Scale(NewVec3(3, 3, 3))))

	assertVec3(t, NewVec3(0, 1, 0), p.Transform(NewMat4EulerZ(DegToRad(90))))
	assertVec3(t, NewVec3(0, 0, 1), NewVec3(0, 1, 0).Transform(NewMat4EulerX(DegToRad(90))))
	assertVec3(t, NewVec3(1, 0, 0), NewVec3(0, 0, 1).Transform(NewMat4EulerY(DegToRad(90))))
}

func TestMat4MulOrder(t *testing.T) {
	// a.Mul(b) applies a first
	s := NewMat4Scale(NewVec3(2, 2, 2))
	tr := NewMat4Translation(NewVec3(1, 0, 0))
	p := NewVec3(1, 0, 0)
	assertVec3(t, NewVec3(3, 0, 0), p.Transform(s.Mul(tr)))
	assertVec3(t, NewVec3(4, 0, 0), p.Transform(tr.Mul(s)))

	// x, then y, then z
	rx := DegToRad(90)
	rz := DegToRad(90)
	euler := NewMat4EulerXYZ(rx, 0, rz)
	manual := NewMat4EulerZ(rz)
	assertVec3(t, NewVec3(0, 1, 0).Transform(NewMat4EulerX(rx)).Transform(manual), NewVec3(0, 1, 0).Transform(euler))
}

func TestMat4TRS(t *testing.T) {
	m := NewMat4TRS(NewVec3(1, 2, 3), NewMat4EulerZ(DegToRad(90)), NewVec3(2, 2, 2))
	assertVec3(t, NewVec3(1, 4, 3), NewVec3(1, 0, 0).Transform(m))
}

func TestQuaternion(t *testing.T) {
	q := NewQuatFromAxisAngle(NewVec3(0, 0, 1), DegToRad(90), true)
	assertVec3(t, NewVec3(0, 1, 0), NewVec3(1, 0, 0).Transform(q.ToMat4()))
	assert.InDelta(t, 1.0, q.Normal(), 1e-6)
	assert.Equal(t, NewMat4Identity(), NewQuatIdentity().ToMat4())

	half := NewQuatFromAxisAngle(NewVec3(0, 0, 1), DegToRad(45), true)
	assertVec3(t, NewVec3(0, 1, 0), NewVec3(1, 0, 0).Transform(half.Mul(half).ToMat4()))
}

func TestDegRad(t *testing.T) {
	assert.InDelta(t, float64(K_PI), float64(DegToRad(180)), 1e-6)
	assert.InDelta(t, 90.0, float64(RadToDeg(K_HALF_PI)), 1e-4)
}
