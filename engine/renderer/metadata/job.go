package metadata

/** @brief Entry point of a job. A returned error routes to OnFailure. */
type JobStart func() error

/** @brief Called when a job finishes successfully. */
type JobOnComplete func()

/** @brief Called with the error returned by a failed job. */
type JobOnFailure func(err error)

/**
 * @brief Describes a job to be run on the job system.
 */
type JobTask struct {
	/** @brief Used in log lines only. */
	Name string
	/** @brief Invoked when the job starts. Required. */
	OnStart JobStart
	/** @brief Invoked when the job successfully completes. Optional. */
	OnComplete JobOnComplete
	/** @brief Invoked when the job fails. Optional. */
	OnFailure JobOnFailure
	/** @brief Invoked after either outcome. Optional. */
	OnCompletionCallback func()
}
