package instancer

import (
	stdmath "math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/anima/engine/math"
)

func TestSampleTransformPinned(t *testing.T) {
	tests := []struct {
		seed, instance         uint32
		angleX, angleY, angleZ uint32
		scale                  uint32
	}{
		{1, 0, 0x42cf440a, 0x439dd428, 0x438f9c73, 0x3eecf39a},
		{1, 1, 0x43abb963, 0x438c1934, 0x43084b61, 0x3f0c2ea7},
		{1, 4, 0x42bac44d, 0x438ee9ec, 0x42825466, 0x3ed613d6},
		{100, 0, 0x4371b8b9, 0x439acd44, 0x42b3fc65, 0x3e5db670},
		{100, 7, 0x428a8bcd, 0x42c1c4a2, 0x4363e082, 0x3f1f5c5a},
	}
	point := math.NewVec3(1, 2, 3)
	for _, tt := range tests {
		got := SampleTransform(tt.seed, tt.instance, point, 0.2, 1.0, 1.0)
		assert.Equal(t, stdmath.Float32frombits(tt.angleX), got.Rotation.X, "seed %d instance %d", tt.seed, tt.instance)
		assert.Equal(t, stdmath.Float32frombits(tt.angleY), got.Rotation.Y, "seed %d instance %d", tt.seed, tt.instance)
		assert.Equal(t, stdmath.Float32frombits(tt.angleZ), got.Rotation.Z, "seed %d instance %d", tt.seed, tt.instance)
		assert.Equal(t, stdmath.Float32frombits(tt.scale), got.Scale, "seed %d instance %d", tt.seed, tt.instance)
		assert.Equal(t, point, got.Translation)
	}
}

func TestSampleTransformDeterministic(t *testing.T) {
	point := math.NewVec3(-4, 0.5, 9)
	for i := uint32(0); i < 64; i++ {
		a := SampleTransform(42, i, point, 0.5, 2, 1.5)
		b := SampleTransform(42, i, point, 0.5, 2, 1.5)
		assert.Equal(t, a, b)
		assert.Equal(t, a.Matrix(), b.Matrix())
	}
}

func TestSampleTransformSeedWraps(t *testing.T) {
	point := math.NewVec3Zero()
	assert.Equal(t,
		SampleTransform(1, 0, point, 0.2, 1, 1),
		SampleTransform(stdmath.MaxUint32, 2, point, 0.2, 1, 1),
	)
	// seed and index only matter through their sum
	assert.Equal(t,
		SampleTransform(10, 5, point, 0.2, 1, 1),
		SampleTransform(5, 10, point, 0.2, 1, 1),
	)
}

func TestSampleTransformRanges(t *testing.T) {
	for i := uint32(0); i < 2000; i++ {
		tr := SampleTransform(7, i, math.NewVec3One(), 0.25, 0.75, 1)
		for _, a := range []float32{tr.Rotation.X, tr.Rotation.Y, tr.Rotation.Z} {
			assert.GreaterOrEqual(t, a, float32(0))
			assert.Less(t, a, float32(360))
		}
		assert.GreaterOrEqual(t, tr.Scale, float32(0.25))
		assert.LessOrEqual(t, tr.Scale, float32(0.75))
	}
}

func TestSampleTransformGlobalScale(t *testing.T) {
	point := math.NewVec3(1, 2, 3)
	base := SampleTransform(1, 0, point, 0.2, 1, 1)
	scaled := SampleTransform(1, 0, point, 0.2, 1, 2)

	assert.Equal(t, base.Rotation, scaled.Rotation)
	assert.Equal(t, base.Scale*2, scaled.Scale)
	assert.Equal(t, math.NewVec3(2, 4, 6), scaled.Translation)
}

func TestInstanceTransformMatrix(t *testing.T) {
	tr := InstanceTransform{
		Translation: math.NewVec3(1, 2, 3),
		Scale:       2,
	}
	// scale, then translate
	assert.True(t, math.NewVec3(3, 2, 3).Compare(math.NewVec3(1, 0, 0).Transform(tr.Matrix()), 1e-6))

	tr.Rotation = math.NewVec3(0, 0, 90)
	got := math.NewVec3(1, 0, 0).Transform(tr.Matrix())
	assert.True(t, math.NewVec3(1, 4, 3).Compare(got, 1e-5), "got %v", got)

	// directions ignore the translation
	dir := math.NewVec3(1, 0, 0).TransformDirection(tr.Matrix()).Normalized()
	assert.True(t, math.NewVec3(0, 1, 0).Compare(dir, 1e-5), "got %v", dir)
}

func TestSamplerUsesGlobalIndexForPoints(t *testing.T) {
	points := linePoints(10)
	s := &Sampler{Seed: 3, Points: points, MinSize: 1, MaxSize: 1, GlobalScale: 1}
	for i := uint32(0); i < 10; i++ {
		got := s.Sample(i)
		assert.Equal(t, SampleTransform(3, i, points[i], 1, 1, 1), got)
		assert.Equal(t, points[i], got.Translation)
	}
}
