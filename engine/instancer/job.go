package instancer

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

/**
 * @brief The progress of one spawn request: how many instances are written
 * and which segment receives the next ones.
 */
type BatchJob struct {
	name      string
	settings  Settings
	target    int
	rate      int
	spawned   int
	active    int
	segments  []*Segment
	sampler   *Sampler
	prototype *metadata.PrototypeMesh
	origin    *math.Transform
}

func newBatchJob(settings Settings, seed uint32, proto *metadata.PrototypeMesh, points []math.Vec3, origin *math.Transform) *BatchJob {
	job := &BatchJob{
		name:     core.IdentifierNew("job"),
		settings: settings,
		target:   settings.TotalCount,
		rate:     settings.RatePerTick,
		sampler: &Sampler{
			Seed:        seed,
			Points:      points,
			MinSize:     settings.MinSize,
			MaxSize:     settings.MaxSize,
			GlobalScale: settings.GlobalScale,
		},
		prototype: proto,
		origin:    origin,
	}

	segmentCount := 0
	if job.target > 0 {
		segmentCount = math.CeilDiv(job.target, settings.MaxInstancesPerSegment)
	}
	job.segments = make([]*Segment, segmentCount)
	for i := range job.segments {
		name := core.IdentifierNew(fmt.Sprintf("%s-%03d", proto.Name, i))
		// the last segment only receives what is left of the target
		planned := min(settings.MaxInstancesPerSegment, job.target-i*settings.MaxInstancesPerSegment)
		job.segments[i] = newSegment(name, i, settings.MaxInstancesPerSegment, planned, proto, origin)
	}
	return job
}

func (j *BatchJob) isComplete() bool {
	return j.spawned == j.target
}

/**
 * @brief Spawns up to the rate of instances, splitting them over as many
 * segments as needed. spawned only advances by appends that succeeded.
 * @returns the number of instances written and the segments filled by them.
 */
func (j *BatchJob) tick(exec Executor) (int, []*Segment, error) {
	want := min(j.rate, j.target-j.spawned)
	written := 0
	filled := []*Segment{}

	for want > 0 {
		if j.active >= len(j.segments) {
			return written, filled, fmt.Errorf("%w: no segment left for %d instances", ErrCapacityExceeded, want)
		}
		segment := j.segments[j.active]
		n := min(want, segment.Remaining())
		if n > 0 {
			if err := j.appendInstances(exec, segment, n); err != nil {
				return written, filled, err
			}
			j.spawned += n
			written += n
			want -= n
		}
		if segment.IsFull() {
			filled = append(filled, segment)
			j.active++
		}
	}
	return written, filled, nil
}

// appendInstances produces the next n instances and writes them to segment.
func (j *BatchJob) appendInstances(exec Executor, segment *Segment, n int) error {
	batchSize := j.settings.ParallelBatchSize
	first := uint32(j.spawned)

	vertices, err := TransformVertices(exec, j.prototype, j.sampler, first, n, batchSize)
	if err != nil {
		return fmt.Errorf("vertex stage failed for instances [%d, %d): %w", first, int(first)+n, err)
	}
	indices, err := RemapIndices(exec, j.prototype.Indices, n, uint32(j.prototype.VertexCount()), segment.VertexCount(), batchSize)
	if err != nil {
		return fmt.Errorf("index stage failed for instances [%d, %d): %w", first, int(first)+n, err)
	}
	return segment.Append(vertices, indices, n)
}

func (j *BatchJob) release() {
	for _, s := range j.segments {
		s.Release()
	}
	j.segments = nil
	j.sampler = nil
}
