package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

type JobSystem struct {
	numWorkers int
	jobQueue   chan metadata.JobTask
	wg         sync.WaitGroup
	// guards jobQueue against sends after close
	mutex  sync.RWMutex
	closed bool
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")
var ErrInvalidBatchSize = fmt.Errorf("parallel batch size must be at least 1")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	jq := make(chan metadata.JobTask, channelSize)
	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   jq,
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				// Run the job and handle potential errors
				err := runJob(job)
				if err != nil {
					core.LogError("job '%s' failed: %s", job.Name, err.Error())
					if job.OnFailure != nil {
						job.OnFailure(err)
					}
				} else {
					if job.OnComplete != nil {
						job.OnComplete()
					}
				}

				// Call the completion callback if set
				if job.OnCompletionCallback != nil {
					job.OnCompletionCallback()
				}
			}
		}()
	}
}

func runJob(job metadata.JobTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job '%s' panicked: %v", job.Name, r)
		}
	}()
	if job.OnStart == nil {
		return nil
	}
	return job.OnStart()
}

// NumWorkers returns the size of the worker pool.
func (js *JobSystem) NumWorkers() int {
	return js.numWorkers
}

/**
 * @brief Shuts the job system down. Queued jobs are drained before this returns.
 */
func (js *JobSystem) Shutdown() error {
	js.mutex.Lock()
	if js.closed {
		js.mutex.Unlock()
		return nil
	}
	js.closed = true
	close(js.jobQueue)
	js.mutex.Unlock()

	js.wg.Wait()
	return nil
}

// AddWorkNonBlocking queues the job and returns immediately
func (js *JobSystem) AddWorkNonBlocking(jt metadata.JobTask) {
	go func() {
		if err := js.Submit(jt); err != nil {
			core.LogWarn("dropped job '%s': %s", jt.Name, err.Error())
		}
	}()
}

/**
 * @brief Submits the provided job to be queued for execution.
 * @param info The description of the job to be executed.
 * @returns core.ErrShuttingDown once Shutdown has been called.
 */
func (js *JobSystem) Submit(jt metadata.JobTask) error {
	js.mutex.RLock()
	defer js.mutex.RUnlock()
	if js.closed {
		return core.ErrShuttingDown
	}
	js.jobQueue <- jt
	return nil
}

/**
 * @brief Runs fn for every index in [0, count), split into batches of
 * batchSize indices that are executed on the worker pool. Blocks until every
 * batch has finished. Batches must not depend on each other.
 * @returns the first error raised by a batch (a recovered panic), or
 * core.ErrShuttingDown if the pool is closed.
 */
func (js *JobSystem) ParallelFor(count, batchSize int, fn func(index int)) error {
	if count <= 0 {
		return nil
	}
	if batchSize <= 0 {
		return ErrInvalidBatchSize
	}

	batches := math.CeilDiv(count, batchSize)
	if batches == 1 {
		// not worth a round trip through the queue
		return runJob(metadata.JobTask{
			Name: "parallel-for",
			OnStart: func() error {
				for i := 0; i < count; i++ {
					fn(i)
				}
				return nil
			},
		})
	}

	var (
		wg       sync.WaitGroup
		errMutex sync.Mutex
		firstErr error
	)
	for b := 0; b < batches; b++ {
		start := b * batchSize
		end := min(start+batchSize, count)
		wg.Add(1)
		err := js.Submit(metadata.JobTask{
			Name: fmt.Sprintf("parallel-for[%d:%d]", start, end),
			OnStart: func() error {
				for i := start; i < end; i++ {
					fn(i)
				}
				return nil
			},
			OnFailure: func(err error) {
				errMutex.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMutex.Unlock()
			},
			OnCompletionCallback: wg.Done,
		})
		if err != nil {
			wg.Done()
			// join what was already queued before reporting
			wg.Wait()
			return err
		}
	}
	wg.Wait()
	return firstErr
}
