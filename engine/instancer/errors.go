package instancer

import (
	"errors"

	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

var (
	// ErrConfiguration is returned by Spawn for settings that cannot produce a job.
	ErrConfiguration = errors.New("invalid instancer configuration")
	// ErrInvalidPrototype is returned by New for a malformed prototype mesh.
	ErrInvalidPrototype = metadata.ErrInvalidPrototype
	// ErrCapacityExceeded means an append would overflow a segment. The
	// scheduler never produces one; seeing it is a bug.
	ErrCapacityExceeded = errors.New("segment capacity exceeded")
	// ErrSpanLength means an appended span does not match its instance count.
	ErrSpanLength = errors.New("span length does not match instance count")
	// ErrSegmentReleased is returned when appending to a disposed segment.
	ErrSegmentReleased = errors.New("segment has been released")
)
