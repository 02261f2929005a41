package instancer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/systems"
)

func unitTriangle(t *testing.T) *metadata.PrototypeMesh {
	t.Helper()
	proto, err := metadata.NewPrototypeMesh("triangle",
		[]math.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
		[]math.Vec3{{X: 0, Y: 0, Z: 1}, {X: 0, Y: 0, Z: 1}, {X: 0, Y: 0, Z: 1}},
		[]uint32{0, 1, 2},
	)
	require.NoError(t, err)
	return proto
}

func linePoints(n int) []math.Vec3 {
	points := make([]math.Vec3, n)
	for i := range points {
		points[i] = math.NewVec3(float32(i), 0, float32(-i))
	}
	return points
}

func testSettings(total, rate, capacity int) Settings {
	s := DefaultSettings()
	s.TotalCount = total
	s.RatePerTick = rate
	s.MaxInstancesPerSegment = capacity
	s.Seed = 1
	s.ParallelBatchSize = 4
	return s
}

func newJobSystem(t *testing.T) *systems.JobSystem {
	t.Helper()
	js, err := systems.NewJobSystem(4, 16)
	require.NoError(t, err)
	t.Cleanup(func() { _ = js.Shutdown() })
	return js
}

func runToCompletion(t *testing.T, in *Instancer) int {
	t.Helper()
	ticks := 0
	for !in.IsComplete() {
		_, err := in.Tick()
		require.NoError(t, err)
		ticks++
		require.Less(t, ticks, 100000, "job never completed")
	}
	return ticks
}
