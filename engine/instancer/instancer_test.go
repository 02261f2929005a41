package instancer

import (
	stdmath "math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/systems"
)

func TestInstancerWorkedExample(t *testing.T) {
	in, err := New(unitTriangle(t), linePoints(5), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, in.State())

	require.NoError(t, in.Spawn(testSettings(5, 2, 3), nil))
	assert.Equal(t, StateRunning, in.State())
	segments := in.Segments()
	require.Len(t, segments, 2)

	n, err := in.Tick()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, segments[0].InstanceCount())
	assert.Equal(t, 0, segments[1].InstanceCount())

	n, err = in.Tick()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, segments[0].InstanceCount())
	assert.Equal(t, 1, segments[1].InstanceCount())
	assert.Equal(t, 1, in.ActiveSegment())

	n, err = in.Tick()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, segments[1].InstanceCount())

	assert.True(t, in.IsComplete())
	assert.Equal(t, 5, in.Spawned())
	assert.Equal(t, uint32(9), segments[0].VertexCount())
	assert.Equal(t, uint32(9), segments[0].IndexCount())
	assert.Equal(t, uint32(6), segments[1].VertexCount())
	assert.Equal(t, uint32(6), segments[1].IndexCount())
}

func TestInstancerInvariants(t *testing.T) {
	proto, err := systems.GeometrySystemGenerateCube(1, 1, 1, "cube")
	require.NoError(t, err)

	tests := []struct {
		total, rate, capacity int
	}{
		{1, 1, 1},
		{10, 3, 4},
		{17, 5, 5},
		{20, 20, 7},
		{33, 100, 4},
		{64, 7, 64},
	}
	for _, tt := range tests {
		in, err := New(proto, linePoints(tt.total), newJobSystem(t), nil)
		require.NoError(t, err)
		require.NoError(t, in.Spawn(testSettings(tt.total, tt.rate, tt.capacity), nil))

		ticks := runToCompletion(t, in)
		assert.Equal(t, (tt.total+tt.rate-1)/tt.rate, ticks, "%+v", tt)

		totalVertices := uint32(0)
		for _, s := range in.Segments() {
			assert.LessOrEqual(t, s.InstanceCount(), tt.capacity)
			totalVertices += s.VertexCount()

			// every index points into its own instance's vertices
			indices := s.Indices()
			for i, idx := range indices {
				instance := uint32(i / proto.IndexCount())
				assert.GreaterOrEqual(t, idx, instance*uint32(proto.VertexCount()))
				assert.Less(t, idx, (instance+1)*uint32(proto.VertexCount()))
				assert.Less(t, idx, s.VertexCount())
			}
		}
		assert.Equal(t, uint32(tt.total*proto.VertexCount()), totalVertices, "%+v", tt)
	}
}

func TestInstancerSplitAssociativity(t *testing.T) {
	proto := unitTriangle(t)
	points := linePoints(12)

	contents := func(rate int) ([][]uint32, [][]float32) {
		in, err := New(proto, points, newJobSystem(t), nil)
		require.NoError(t, err)
		require.NoError(t, in.Spawn(testSettings(12, rate, 5), nil))
		runToCompletion(t, in)

		indices := [][]uint32{}
		positions := [][]float32{}
		for _, s := range in.Segments() {
			indices = append(indices, s.Indices())
			flat := []float32{}
			for _, v := range s.Vertices() {
				flat = append(flat, v.Position.X, v.Position.Y, v.Position.Z, v.Normal.X, v.Normal.Y, v.Normal.Z)
			}
			positions = append(positions, flat)
		}
		return indices, positions
	}

	// one instance per tick never splits; the others cross boundaries
	wantIndices, wantVertices := contents(1)
	for _, rate := range []int{2, 3, 7, 12} {
		gotIndices, gotVertices := contents(rate)
		assert.Equal(t, wantIndices, gotIndices, "rate %d", rate)
		assert.Equal(t, wantVertices, gotVertices, "rate %d", rate)
	}
}

func TestInstancerRateAboveCapacity(t *testing.T) {
	in, err := New(unitTriangle(t), linePoints(10), nil, nil)
	require.NoError(t, err)
	require.NoError(t, in.Spawn(testSettings(10, 7, 2), nil))

	n, err := in.Tick()
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	counts := []int{}
	for _, s := range in.Segments() {
		counts = append(counts, s.InstanceCount())
	}
	assert.Equal(t, []int{2, 2, 2, 1, 0}, counts)
	assert.Equal(t, 3, in.ActiveSegment())

	n, err = in.Tick()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, in.IsComplete())
}

func TestInstancerTickWhenCompleteIsNoop(t *testing.T) {
	in, err := New(unitTriangle(t), linePoints(4), nil, nil)
	require.NoError(t, err)
	require.NoError(t, in.Spawn(testSettings(4, 4, 4), nil))
	runToCompletion(t, in)

	segment := in.Segments()[0]
	vertices := segment.Vertices()
	generation := segment.Generation()

	for i := 0; i < 3; i++ {
		n, err := in.Tick()
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	}
	assert.Equal(t, vertices, segment.Vertices())
	assert.Equal(t, generation, segment.Generation())
	assert.Equal(t, 4, in.Spawned())
	assert.True(t, in.IsComplete())
}

func TestInstancerTickWithoutJob(t *testing.T) {
	in, err := New(unitTriangle(t), linePoints(4), nil, nil)
	require.NoError(t, err)

	n, err := in.Tick()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, in.Spawn(testSettings(4, 1, 2), nil))
	_, err = in.Tick()
	require.NoError(t, err)
	segments := in.Segments()
	in.Dispose()

	assert.Equal(t, StateIdle, in.State())
	assert.Empty(t, in.Segments())
	for _, s := range segments {
		assert.True(t, s.IsReleased())
	}
	n, err = in.Tick()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// disposing twice is harmless
	in.Dispose()
}

func TestInstancerZeroTotal(t *testing.T) {
	in, err := New(unitTriangle(t), nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, in.Spawn(testSettings(0, 0, 3), nil))
	assert.True(t, in.IsComplete())
	assert.Empty(t, in.Segments())
}

func TestInstancerConfigurationErrors(t *testing.T) {
	nan := float32(stdmath.NaN())
	tests := []struct {
		name   string
		modify func(s *Settings)
		points int
	}{
		{"zero capacity", func(s *Settings) { s.MaxInstancesPerSegment = 0 }, 10},
		{"negative capacity", func(s *Settings) { s.MaxInstancesPerSegment = -1 }, 10},
		{"negative total", func(s *Settings) { s.TotalCount = -1 }, 10},
		{"zero rate", func(s *Settings) { s.RatePerTick = 0 }, 10},
		{"too few points", func(s *Settings) {}, 9},
		{"index overflow", func(s *Settings) { s.MaxInstancesPerSegment = stdmath.MaxUint32/3 + 1 }, 10},
		{"nan size", func(s *Settings) { s.MinSize = nan }, 10},
		{"infinite scale", func(s *Settings) { s.GlobalScale = float32(stdmath.Inf(1)) }, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := New(unitTriangle(t), linePoints(tt.points), nil, nil)
			require.NoError(t, err)

			// a running job is dropped even when the new settings are rejected
			require.NoError(t, in.Spawn(testSettings(2, 1, 2), nil))
			require.Equal(t, StateRunning, in.State())

			settings := testSettings(10, 2, 4)
			tt.modify(&settings)
			err = in.Spawn(settings, nil)
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.Equal(t, StateIdle, in.State())
			assert.Empty(t, in.Segments())
		})
	}
}

func TestSettingsValidateIndexOverflow(t *testing.T) {
	s := testSettings(10, 1, 1<<62)
	// capacity * 8 wraps to zero in 64 bits
	assert.ErrorIs(t, s.Validate(10, 8), ErrConfiguration)

	s.MaxInstancesPerSegment = stdmath.MaxUint32 / 8
	assert.NoError(t, s.Validate(10, 8))
	s.MaxInstancesPerSegment++
	assert.ErrorIs(t, s.Validate(10, 8), ErrConfiguration)
}

func TestInstancerSmallJobInLargeSegment(t *testing.T) {
	in, err := New(unitTriangle(t), linePoints(1), nil, nil)
	require.NoError(t, err)
	require.NoError(t, in.Spawn(testSettings(1, 1, 2_000_000), nil))
	runToCompletion(t, in)

	segments := in.Segments()
	require.Len(t, segments, 1)
	assert.Equal(t, 1, segments[0].InstanceCount())
	assert.Len(t, segments[0].vertices, 3)
	assert.Len(t, segments[0].indices, 3)
}

func TestInstancerInvalidPrototype(t *testing.T) {
	proto := unitTriangle(t)
	proto.Indices = []uint32{0, 1, 3}
	_, err := New(proto, linePoints(1), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidPrototype)

	_, err = New(nil, linePoints(1), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidPrototype)
}

func TestInstancerParallelBatchSizeDefault(t *testing.T) {
	in, err := New(unitTriangle(t), linePoints(3), newJobSystem(t), nil)
	require.NoError(t, err)
	settings := testSettings(3, 3, 3)
	settings.ParallelBatchSize = 0
	require.NoError(t, in.Spawn(settings, nil))
	runToCompletion(t, in)
	assert.Equal(t, 3, in.Spawned())
}

func TestInstancerRandomizedSeedIsReproducible(t *testing.T) {
	proto := unitTriangle(t)
	points := linePoints(6)

	in, err := New(proto, points, nil, nil)
	require.NoError(t, err)
	settings := testSettings(6, 6, 6)
	settings.RandomizeSeed = true
	require.NoError(t, in.Spawn(settings, nil))
	runToCompletion(t, in)
	randomized := in.Segments()[0].Vertices()

	settings.RandomizeSeed = false
	settings.Seed = in.Seed()
	replay, err := New(proto, points, nil, nil)
	require.NoError(t, err)
	require.NoError(t, replay.Spawn(settings, nil))
	runToCompletion(t, replay)

	assert.Equal(t, randomized, replay.Segments()[0].Vertices())
}

func TestInstancerRespawnRestarts(t *testing.T) {
	in, err := New(unitTriangle(t), linePoints(8), nil, nil)
	require.NoError(t, err)
	require.NoError(t, in.Spawn(testSettings(8, 3, 4), nil))
	_, err = in.Tick()
	require.NoError(t, err)
	old := in.Segments()

	origin := math.TransformFromPosition(math.NewVec3(0, 5, 0))
	require.NoError(t, in.Spawn(testSettings(4, 4, 4), origin))
	assert.Equal(t, 0, in.Spawned())
	assert.Equal(t, 4, in.Target())
	for _, s := range old {
		assert.True(t, s.IsReleased())
	}
	runToCompletion(t, in)
	md := in.Segments()[0].MeshData()
	require.NotNil(t, md.Transform)
	assert.Equal(t, origin.Position, md.Transform.Position)
}

func TestInstancerEvents(t *testing.T) {
	events := core.NewEventSystem()
	counts := map[core.SystemEventCode]int{}
	var mutex sync.Mutex
	listener := func(code core.SystemEventCode, sender interface{}, _ interface{}, data core.EventContext) bool {
		mutex.Lock()
		defer mutex.Unlock()
		counts[code]++
		// listeners may query the instancer while it fires
		_ = sender.(*Instancer).Spawned()
		return false
	}
	for _, code := range []core.SystemEventCode{
		core.EVENT_CODE_JOB_SPAWNED,
		core.EVENT_CODE_SEGMENT_FILLED,
		core.EVENT_CODE_JOB_COMPLETE,
		core.EVENT_CODE_JOB_DISPOSED,
	} {
		require.True(t, events.Register(code, t, listener))
	}

	in, err := New(unitTriangle(t), linePoints(5), nil, events)
	require.NoError(t, err)
	require.NoError(t, in.Spawn(testSettings(5, 2, 3), nil))
	runToCompletion(t, in)
	in.Dispose()

	assert.Equal(t, 1, counts[core.EVENT_CODE_JOB_SPAWNED])
	assert.Equal(t, 1, counts[core.EVENT_CODE_SEGMENT_FILLED])
	assert.Equal(t, 1, counts[core.EVENT_CODE_JOB_COMPLETE])
	assert.Equal(t, 1, counts[core.EVENT_CODE_JOB_DISPOSED])
}

func TestInstancerDisposeWhileTicking(t *testing.T) {
	in, err := New(unitTriangle(t), linePoints(1000), newJobSystem(t), nil)
	require.NoError(t, err)
	require.NoError(t, in.Spawn(testSettings(1000, 10, 64), nil))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if _, err := in.Tick(); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	in.Dispose()
	wg.Wait()

	assert.Equal(t, StateIdle, in.State())
}
