package instancer

// Executor runs fn for every index in [0, count) and returns once all calls
// have finished. systems.JobSystem satisfies it.
type Executor interface {
	ParallelFor(count, batchSize int, fn func(index int)) error
}

// SerialExecutor runs every index on the calling goroutine.
type SerialExecutor struct{}

func (SerialExecutor) ParallelFor(count, _ int, fn func(index int)) error {
	for i := 0; i < count; i++ {
		fn(i)
	}
	return nil
}
