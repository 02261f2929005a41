package core

import (
	"sync"

	"github.com/spaghettifunk/anima/engine/containers"
)

const AVG_COUNT int = 30

type tickSample struct {
	seconds   float64
	instances int
}

// Metrics keeps a rolling window of tick timings for the instancing loop.
type Metrics struct {
	mutex sync.Mutex

	window       *containers.RingQueue[tickSample]
	windowTime   float64
	windowCount  int
	ticks        uint64
	instances    uint64
	totalSeconds float64
}

func NewMetrics(windowSize int) *Metrics {
	if windowSize <= 0 {
		windowSize = AVG_COUNT
	}
	return &Metrics{
		window: containers.NewRingQueue[tickSample](windowSize),
	}
}

// Update records one tick that took elapsed seconds and produced the given
// number of instances.
func (m *Metrics) Update(elapsed float64, instances int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if old, evicted := m.window.Push(tickSample{seconds: elapsed, instances: instances}); evicted {
		m.windowTime -= old.seconds
		m.windowCount -= old.instances
	}
	m.windowTime += elapsed
	m.windowCount += instances

	m.ticks++
	m.instances += uint64(instances)
	m.totalSeconds += elapsed
}

// Totals returns the lifetime tick count, instance count and seconds spent.
func (m *Metrics) Totals() (uint64, uint64, float64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.ticks, m.instances, m.totalSeconds
}

// TickTimeMS returns the average tick duration over the window in milliseconds.
func (m *Metrics) TickTimeMS() float64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.window.Len() == 0 {
		return 0
	}
	return (m.windowTime / float64(m.window.Len())) * 1000.0
}

// InstancesPerSecond returns the throughput over the window.
func (m *Metrics) InstancesPerSecond() float64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.windowTime <= 0 {
		return 0
	}
	return float64(m.windowCount) / m.windowTime
}

func (m *Metrics) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.window.Reset()
	m.windowTime = 0
	m.windowCount = 0
	m.ticks = 0
	m.instances = 0
	m.totalSeconds = 0
}
