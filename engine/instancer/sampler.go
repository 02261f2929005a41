package instancer

import (
	"golang.org/x/exp/rand"

	"github.com/spaghettifunk/anima/engine/math"
)

/**
 * @brief The transform of one instance. Never stored, it is rebuilt from
 * the seed whenever the instance's vertices are produced.
 */
type InstanceTransform struct {
	/** @brief Spawn point multiplied by the global scale. */
	Translation math.Vec3
	/** @brief Euler angles in degrees, each in [0, 360). */
	Rotation math.Vec3
	/** @brief Uniform scale, already multiplied by the global scale. */
	Scale float32
}

/**
 * @brief Composes the transform into a matrix: scale, then rotation about
 * x, y and z, then translation.
 */
func (t InstanceTransform) Matrix() math.Mat4 {
	rotation := math.NewMat4EulerXYZ(
		math.DegToRad(t.Rotation.X),
		math.DegToRad(t.Rotation.Y),
		math.DegToRad(t.Rotation.Z),
	)
	return math.NewMat4TRS(t.Translation, rotation, math.NewVec3(t.Scale, t.Scale, t.Scale))
}

/**
 * @brief Draws the transform of one instance. The generator is seeded with
 * seed+instance (wrapping at 32 bits) and always draws the x, y and z angles
 * first, then the scale factor.
 */
func SampleTransform(seed, instance uint32, point math.Vec3, minSize, maxSize, globalScale float32) InstanceTransform {
	rng := rand.New(rand.NewSource(uint64(seed + instance)))

	rotation := math.Vec3{
		X: drawAngle(rng),
		Y: drawAngle(rng),
		Z: drawAngle(rng),
	}
	t := rng.Float32()

	return InstanceTransform{
		Translation: point.MulScalar(globalScale),
		Rotation:    rotation,
		Scale:       math.Lerp(minSize, maxSize, t) * globalScale,
	}
}

func drawAngle(rng *rand.Rand) float32 {
	a := rng.Float32() * 360
	// rounding can push the product up to 360
	if a >= 360 {
		a = 0
	}
	return a
}

/**
 * @brief Binds the per-job inputs of SampleTransform. Instance indices are
 * global spawn indices and also index the spawn points.
 */
type Sampler struct {
	Seed        uint32
	Points      []math.Vec3
	MinSize     float32
	MaxSize     float32
	GlobalScale float32
}

func (s *Sampler) Sample(instance uint32) InstanceTransform {
	return SampleTransform(s.Seed, instance, s.Points[instance], s.MinSize, s.MaxSize, s.GlobalScale)
}
