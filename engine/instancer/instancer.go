package instancer

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/rand"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

type State int

const (
	// No job.
	StateIdle State = iota
	// A job is spawning instances.
	StateRunning
	// Every requested instance has been written.
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

/**
 * @brief Owns at most one batch job over a fixed prototype and point
 * sequence, and advances it one tick at a time. All methods are safe to call
 * from different goroutines; Spawn and Dispose wait for a running tick.
 */
type Instancer struct {
	mutex sync.Mutex

	prototype *metadata.PrototypeMesh
	points    []math.Vec3
	executor  Executor
	events    *core.EventSystem
	seeds     *rand.Rand

	job   *BatchJob
	state State
}

/**
 * @brief Creates an instancer.
 * @param prototype The mesh to instance. Must be valid.
 * @param points The spawn point sequence, indexed by global instance index.
 * @param executor Runs the vertex and index stages. Nil runs them serially.
 * @param events Receives job lifecycle events. Can be nil.
 */
func New(prototype *metadata.PrototypeMesh, points []math.Vec3, executor Executor, events *core.EventSystem) (*Instancer, error) {
	if err := prototype.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	if executor == nil {
		executor = SerialExecutor{}
	}
	return &Instancer{
		prototype: prototype,
		points:    points,
		executor:  executor,
		events:    events,
		seeds:     rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		state:     StateIdle,
	}, nil
}

/**
 * @brief Starts a new job, disposing the current one first. On a
 * configuration error the instancer is left idle.
 * @param settings The job parameters.
 * @param origin Where the host places the output. Can be nil.
 */
func (in *Instancer) Spawn(settings Settings, origin *math.Transform) error {
	in.mutex.Lock()
	pending := in.disposeLocked()

	if err := settings.Validate(len(in.points), in.prototype.VertexCount()); err != nil {
		in.mutex.Unlock()
		in.fire(pending)
		core.LogError(err.Error())
		return err
	}
	if settings.ParallelBatchSize <= 0 {
		core.LogWarn("parallel batch size must be a positive number. Defaulting to %d.", DefaultParallelBatchSize)
		settings.ParallelBatchSize = DefaultParallelBatchSize
	}

	seed := settings.Seed
	if settings.RandomizeSeed {
		seed = in.seeds.Uint32()
	}

	in.job = newBatchJob(settings, seed, in.prototype, in.points, origin.Clone())
	in.state = StateRunning
	if in.job.isComplete() {
		in.state = StateComplete
	}
	core.LogInfo("spawned job '%s': %d instances of '%s' at %d per tick into %d segments (seed %d)",
		in.job.name, in.job.target, in.prototype.Name, in.job.rate, len(in.job.segments), seed)

	pending = append(pending, event{code: core.EVENT_CODE_JOB_SPAWNED, context: core.EventContext{Name: in.job.name, Target: in.job.target}})
	if in.state == StateComplete {
		pending = append(pending, event{code: core.EVENT_CODE_JOB_COMPLETE, context: core.EventContext{Name: in.job.name}})
	}
	in.mutex.Unlock()

	in.fire(pending)
	return nil
}

/**
 * @brief Advances the running job by one tick. Does nothing when idle or
 * complete.
 * @returns the number of instances written by this tick.
 */
func (in *Instancer) Tick() (int, error) {
	in.mutex.Lock()
	if in.state != StateRunning {
		in.mutex.Unlock()
		return 0, nil
	}

	job := in.job
	written, filled, err := job.tick(in.executor)

	pending := []event{}
	for _, s := range filled {
		core.LogDebug("segment '%s' filled with %d instances", s.Name(), s.Capacity())
		pending = append(pending, event{code: core.EVENT_CODE_SEGMENT_FILLED, context: core.EventContext{
			Name: s.Name(), Segment: s.Index(), Spawned: job.spawned, Target: job.target,
		}})
	}
	if err == nil && job.isComplete() {
		in.state = StateComplete
		core.LogInfo("job '%s' complete: %d instances in %d segments", job.name, job.spawned, len(job.segments))
		pending = append(pending, event{code: core.EVENT_CODE_JOB_COMPLETE, context: core.EventContext{
			Name: job.name, Spawned: job.spawned, Target: job.target,
		}})
	}
	in.mutex.Unlock()

	in.fire(pending)
	if err != nil {
		core.LogError("job '%s' tick failed: %s", job.name, err.Error())
		return written, err
	}
	return written, nil
}

func (in *Instancer) IsComplete() bool {
	in.mutex.Lock()
	defer in.mutex.Unlock()
	return in.state == StateComplete
}

// Dispose releases the current job, if any, and returns to idle.
func (in *Instancer) Dispose() {
	in.mutex.Lock()
	pending := in.disposeLocked()
	in.mutex.Unlock()
	in.fire(pending)
}

func (in *Instancer) disposeLocked() []event {
	if in.job == nil {
		in.state = StateIdle
		return nil
	}
	job := in.job
	core.LogDebug("disposing job '%s' at %d of %d instances", job.name, job.spawned, job.target)
	job.release()
	in.job = nil
	in.state = StateIdle
	return []event{{code: core.EVENT_CODE_JOB_DISPOSED, context: core.EventContext{Name: job.name, Spawned: job.spawned, Target: job.target}}}
}

func (in *Instancer) State() State {
	in.mutex.Lock()
	defer in.mutex.Unlock()
	return in.state
}

// JobName returns the name of the current job, empty when idle.
func (in *Instancer) JobName() string {
	in.mutex.Lock()
	defer in.mutex.Unlock()
	if in.job == nil {
		return ""
	}
	return in.job.name
}

// Spawned returns the instances written by the current job.
func (in *Instancer) Spawned() int {
	in.mutex.Lock()
	defer in.mutex.Unlock()
	if in.job == nil {
		return 0
	}
	return in.job.spawned
}

// Target returns the instance count requested by the current job.
func (in *Instancer) Target() int {
	in.mutex.Lock()
	defer in.mutex.Unlock()
	if in.job == nil {
		return 0
	}
	return in.job.target
}

// Seed returns the effective seed of the current job, which differs from
// the configured one when the seed is randomized.
func (in *Instancer) Seed() uint32 {
	in.mutex.Lock()
	defer in.mutex.Unlock()
	if in.job == nil {
		return 0
	}
	return in.job.sampler.Seed
}

// Segments returns the segments of the current job in fill order.
func (in *Instancer) Segments() []*Segment {
	in.mutex.Lock()
	defer in.mutex.Unlock()
	if in.job == nil {
		return []*Segment{}
	}
	return append([]*Segment(nil), in.job.segments...)
}

// ActiveSegment returns the index of the segment receiving the next instances.
func (in *Instancer) ActiveSegment() int {
	in.mutex.Lock()
	defer in.mutex.Unlock()
	if in.job == nil {
		return 0
	}
	return in.job.active
}

func (in *Instancer) Prototype() *metadata.PrototypeMesh {
	return in.prototype
}

type event struct {
	code    core.SystemEventCode
	context core.EventContext
}

// fire runs outside the lock so listeners can query the instancer.
func (in *Instancer) fire(events []event) {
	for _, e := range events {
		in.events.Fire(e.code, in, e.context)
	}
}
