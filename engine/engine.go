package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/export"
	"github.com/spaghettifunk/anima/engine/instancer"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/preview"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

var ErrAlreadyRunning = errors.New("engine is already running")

// PreviewName is the file stem of the rendered preview inside the output dir.
const PreviewName = "preview"

/**
 * @brief Owns the worker pool, the instancer and the output of one run.
 * The instancer is ticked from the goroutine calling Run.
 */
type Engine struct {
	mutex        sync.Mutex
	currentStage Stage

	config     *ApplicationConfig
	configPath string

	jobSystem *systems.JobSystem
	events    *core.EventSystem
	instancer *instancer.Instancer
	metrics   *core.Metrics
	clock     *core.Clock
	watcher   *ConfigWatcher
	origin    *math.Transform

	// set by the job complete event, consumed by the run loop
	pendingOutput atomic.Bool

	reload       chan *ApplicationConfig
	quit         chan struct{}
	quitOnce     sync.Once
	stopped      chan struct{}
	teardownOnce sync.Once
}

/**
 * @brief Creates an engine for config. configPath is only used to reload the
 * config in watch mode and may be empty.
 */
func New(config *ApplicationConfig, configPath string) (*Engine, error) {
	if config == nil {
		config = DefaultApplicationConfig()
	}
	if err := config.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       config,
		configPath:   configPath,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(core.AVG_COUNT),
		origin:       config.Origin.Transform(),
		reload:       make(chan *ApplicationConfig, 1),
		quit:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}, nil
}

func (e *Engine) Initialize() error {
	e.mutex.Lock()
	if e.currentStage != EngineStageUninitialized {
		e.mutex.Unlock()
		return fmt.Errorf("engine already initialized")
	}
	e.currentStage = EngineStageInitializing
	e.mutex.Unlock()

	app := e.config.Application
	if err := core.LogSetLevel(app.LogLevel); err != nil {
		return err
	}

	workers := app.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	js, err := systems.NewJobSystem(workers, app.QueueSize)
	if err != nil {
		return err
	}
	e.jobSystem = js

	// initialize events
	e.events = core.NewEventSystem()
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_JOB_SPAWNED, e, e.onJobEvent)
	e.events.Register(core.EVENT_CODE_SEGMENT_FILLED, e, e.onJobEvent)
	e.events.Register(core.EVENT_CODE_JOB_COMPLETE, e, e.onJobEvent)
	e.events.Register(core.EVENT_CODE_CONFIG_CHANGED, e, e.onConfigChanged)

	if err := e.spawn(e.config, e.origin); err != nil {
		return err
	}

	if app.Watch && e.configPath != "" {
		w, err := NewConfigWatcher(e.configPath, e.events, DefaultWatchDebounce)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		e.watcher = w
	}

	e.mutex.Lock()
	e.currentStage = EngineStageInitialized
	e.mutex.Unlock()
	core.LogInfo("%s initialized with %d workers", app.Name, workers)
	return nil
}

// spawn builds the prototype and points of config and starts a new job on
// a fresh instancer. The current instancer is only replaced once the new job
// is running.
func (e *Engine) spawn(config *ApplicationConfig, origin *math.Transform) error {
	prototype, err := systems.GeometrySystemGeneratePrototype(config.Prototype)
	if err != nil {
		return err
	}
	points, err := systems.PointsGenerate(config.Points, config.Instancer.TotalCount)
	if err != nil {
		return err
	}
	inst, err := instancer.New(prototype, points, e.jobSystem, e.events)
	if err != nil {
		return err
	}

	e.pendingOutput.Store(false)
	if err := inst.Spawn(config.Instancer, origin); err != nil {
		return err
	}
	if e.instancer != nil {
		e.instancer.Dispose()
	}
	e.instancer = inst
	return nil
}

// respawn restarts the job with a reloaded config. A rejected config leaves
// the current config and job in place.
func (e *Engine) respawn(config *ApplicationConfig) error {
	origin := config.Origin.Transform()
	if err := e.spawn(config, origin); err != nil {
		return err
	}
	if config.Application.Workers != e.config.Application.Workers {
		core.LogWarn("worker count changes take effect on restart")
	}
	if err := core.LogSetLevel(config.Application.LogLevel); err != nil {
		core.LogWarn("keeping the current log level: %s", err.Error())
	}
	e.config = config
	e.origin = origin
	return nil
}

/**
 * @brief Ticks the instancer at the configured rate until the job completes,
 * writes the output, then returns. In watch mode it keeps waiting for config
 * changes instead. Returns nil when ctx is done or Shutdown is called.
 */
func (e *Engine) Run(ctx context.Context) error {
	e.mutex.Lock()
	switch e.currentStage {
	case EngineStageInitialized:
	case EngineStageRunning:
		e.mutex.Unlock()
		return ErrAlreadyRunning
	default:
		e.mutex.Unlock()
		return core.ErrNotInitialized
	}
	e.currentStage = EngineStageRunning
	e.mutex.Unlock()

	defer close(e.stopped)
	defer e.teardown()

	// a closed channel is always ready, so an unpaced loop never blocks
	unpaced := make(chan time.Time)
	close(unpaced)
	var pace <-chan time.Time = unpaced
	if rate := e.config.Application.TickRate; rate > 0 {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
		defer ticker.Stop()
		pace = ticker.C
	}

	e.clock.Start()
	tick := pace
	for {
		if e.pendingOutput.Swap(false) {
			if err := e.writeOutput(); err != nil {
				return err
			}
			if !e.config.Application.Watch {
				return nil
			}
			tick = nil
			core.LogInfo("waiting for config changes")
		}

		select {
		case <-ctx.Done():
			core.LogInfo("context done, stopping")
			return nil

		case <-e.quit:
			return nil

		case config := <-e.reload:
			if err := e.respawn(config); err != nil {
				core.LogError("failed to apply reloaded config: %s", err.Error())
				continue
			}
			tick = pace

		case <-tick:
			if err := e.tick(); err != nil {
				return err
			}
		}
	}
}

func (e *Engine) tick() error {
	e.clock.Update()
	start := e.clock.Elapsed()

	written, err := e.instancer.Tick()

	e.clock.Update()
	e.metrics.Update(e.clock.Elapsed()-start, written)
	if err != nil {
		err = fmt.Errorf("instancer tick failed: %w", err)
		core.LogError(err.Error())
		return err
	}
	core.LogDebug("tick: %d instances (%d/%d), %.3fms avg",
		written, e.instancer.Spawned(), e.instancer.Target(), e.metrics.TickTimeMS())
	return nil
}

// writeOutput exports the segments of the finished job and renders the preview.
func (e *Engine) writeOutput() error {
	segments := e.instancer.Segments()
	meshes := make([]*metadata.MeshData, len(segments))
	counts := make([]int, len(segments))
	for i, s := range segments {
		meshes[i] = s.MeshData()
		counts[i] = s.InstanceCount()
	}

	ticks, instances, seconds := e.metrics.Totals()
	rate := 0.0
	if seconds > 0 {
		rate = float64(instances) / seconds
	}
	core.LogInfo("job finished in %d ticks: %d instances, %.3fs spent ticking (%.0f instances/s)", ticks, instances, seconds, rate)

	output := e.config.Output
	if output.Export {
		job := export.JobInfo{
			Name:           e.instancer.JobName(),
			Prototype:      e.instancer.Prototype().Name,
			Seed:           e.instancer.Seed(),
			InstanceCounts: counts,
		}
		if _, err := export.WriteSegments(output.Dir, output.ManifestFormat, job, meshes); err != nil {
			return err
		}
	}

	if output.WritePreview {
		img, err := preview.Render(meshes, output.Preview)
		if errors.Is(err, preview.ErrNothingToDraw) {
			core.LogWarn("nothing to preview, skipping")
			return nil
		}
		if err != nil {
			core.LogError(err.Error())
			return err
		}
		path := filepath.Join(output.Dir, PreviewName+preview.Extension(output.Preview.Format))
		if err := preview.Write(path, img, output.Preview.Format); err != nil {
			return err
		}
		core.LogInfo("preview written to '%s'", path)
	}
	return nil
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.quitOnce.Do(func() { close(e.quit) })
		return true
	}
	return false
}

func (e *Engine) onJobEvent(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_JOB_SPAWNED:
		e.metrics.Reset()
	case core.EVENT_CODE_SEGMENT_FILLED:
		core.LogInfo("segment %d filled (%d/%d instances)", data.Segment, data.Spawned, data.Target)
	case core.EVENT_CODE_JOB_COMPLETE:
		e.pendingOutput.Store(true)
	}
	return false
}

// onConfigChanged runs on the watcher goroutine. The new config is handed to
// the run loop, replacing any reload that was not picked up yet.
func (e *Engine) onConfigChanged(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	config, err := LoadConfig(e.configPath)
	if err != nil {
		core.LogWarn("keeping the current config: %s", err.Error())
		return true
	}
	select {
	case <-e.reload:
	default:
	}
	select {
	case e.reload <- config:
	default:
	}
	return true
}

/**
 * @brief Stops the engine. A running loop is asked to quit and waited for.
 */
func (e *Engine) Shutdown() error {
	e.mutex.Lock()
	stage := e.currentStage
	e.mutex.Unlock()

	if stage == EngineStageRunning {
		e.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
		<-e.stopped
		return nil
	}
	e.teardown()
	return nil
}

func (e *Engine) teardown() {
	e.teardownOnce.Do(func() {
		e.mutex.Lock()
		e.currentStage = EngineStageShuttingDown
		e.mutex.Unlock()

		if e.watcher != nil {
			if err := e.watcher.Close(); err != nil {
				core.LogError(err.Error())
			}
		}
		if e.instancer != nil {
			e.instancer.Dispose()
		}
		if e.jobSystem != nil {
			if err := e.jobSystem.Shutdown(); err != nil {
				core.LogError(err.Error())
			}
		}
		if e.events != nil {
			if err := e.events.Shutdown(); err != nil {
				core.LogError(err.Error())
			}
		}
		core.LogInfo("engine shut down")
	})
}

func (e *Engine) Stage() Stage {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.currentStage
}

func (e *Engine) Instancer() *instancer.Instancer {
	return e.instancer
}

func (e *Engine) Metrics() *core.Metrics {
	return e.metrics
}
