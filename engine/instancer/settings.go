package instancer

import (
	"fmt"
	stdmath "math"

	"github.com/chewxy/math32"
)

/** @brief The default number of slots handed to one worker at a time. */
const DefaultParallelBatchSize int = 64

/**
 * @brief The parameters of one batch job.
 */
type Settings struct {
	/** @brief Number of instances to spawn in total. */
	TotalCount int `toml:"total_count" yaml:"total_count"`
	/** @brief Maximum number of instances spawned per tick. */
	RatePerTick int `toml:"rate_per_tick" yaml:"rate_per_tick"`
	/** @brief Capacity of each output segment, in instances. */
	MaxInstancesPerSegment int `toml:"max_instances_per_segment" yaml:"max_instances_per_segment"`
	/** @brief Base seed. Instance i is drawn from Seed+i. */
	Seed uint32 `toml:"seed" yaml:"seed"`
	/** @brief Ignore Seed and draw a fresh one on every spawn. */
	RandomizeSeed bool `toml:"randomize_seed" yaml:"randomize_seed"`
	/** @brief Multiplies both spawn positions and instance sizes. */
	GlobalScale float32 `toml:"global_scale" yaml:"global_scale"`
	MinSize     float32 `toml:"min_size" yaml:"min_size"`
	MaxSize     float32 `toml:"max_size" yaml:"max_size"`
	/** @brief Slots per worker batch in the vertex and index stages. */
	ParallelBatchSize int `toml:"parallel_batch_size" yaml:"parallel_batch_size"`
}

func DefaultSettings() Settings {
	return Settings{
		TotalCount:             1000,
		RatePerTick:            100,
		MaxInstancesPerSegment: 250,
		Seed:                   1,
		GlobalScale:            1.0,
		MinSize:                0.2,
		MaxSize:                1.0,
		ParallelBatchSize:      DefaultParallelBatchSize,
	}
}

/**
 * @brief Checks the settings against the inputs of a job.
 * @param pointCount The length of the spawn point sequence.
 * @param vertexCount The vertex count of the prototype.
 * @returns an error wrapping ErrConfiguration.
 */
func (s Settings) Validate(pointCount, vertexCount int) error {
	if s.MaxInstancesPerSegment <= 0 {
		return fmt.Errorf("%w: max instances per segment must be > 0, got %d", ErrConfiguration, s.MaxInstancesPerSegment)
	}
	if s.TotalCount < 0 {
		return fmt.Errorf("%w: total count must be >= 0, got %d", ErrConfiguration, s.TotalCount)
	}
	if s.TotalCount > 0 && s.RatePerTick <= 0 {
		return fmt.Errorf("%w: rate per tick must be > 0, got %d", ErrConfiguration, s.RatePerTick)
	}
	if uint64(s.TotalCount) > stdmath.MaxUint32 {
		return fmt.Errorf("%w: total count %d exceeds 32-bit instance indices", ErrConfiguration, s.TotalCount)
	}
	if pointCount < s.TotalCount {
		return fmt.Errorf("%w: %d spawn points cannot cover %d instances", ErrConfiguration, pointCount, s.TotalCount)
	}
	if vertexCount > 0 && uint64(s.MaxInstancesPerSegment) > stdmath.MaxUint32/uint64(vertexCount) {
		return fmt.Errorf("%w: %d instances of %d vertices overflow 32-bit indices", ErrConfiguration, s.MaxInstancesPerSegment, vertexCount)
	}
	for name, v := range map[string]float32{"min size": s.MinSize, "max size": s.MaxSize, "global scale": s.GlobalScale} {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrConfiguration, name)
		}
	}
	return nil
}
