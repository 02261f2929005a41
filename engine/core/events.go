package core

import "sync"

/**
 * @brief Data carried by a fired event. Only the fields relevant to the
 * event code are populated.
 */
type EventContext struct {
	// Name of the segment or job the event is about.
	Name string
	// Segment index, when applicable.
	Segment int
	// Instances spawned so far.
	Spawned int
	// Target instance count of the job.
	Target int
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next tick.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// A batch job was (re)started.
	/* Context usage:
	 * Target = requested instance count
	 */
	EVENT_CODE_JOB_SPAWNED SystemEventCode = 0x02

	// A segment reached its capacity.
	/* Context usage:
	 * Name = segment name, Segment = segment index, Spawned = running count
	 */
	EVENT_CODE_SEGMENT_FILLED SystemEventCode = 0x03

	// Every requested instance has been written.
	/* Context usage:
	 * Spawned = Target = instance count
	 */
	EVENT_CODE_JOB_COMPLETE SystemEventCode = 0x04

	// The current job was released, by cancel, restart or teardown.
	EVENT_CODE_JOB_DISPOSED SystemEventCode = 0x05

	// The configuration file changed on disk.
	/* Context usage:
	 * Name = path of the changed file
	 */
	EVENT_CODE_CONFIG_CHANGED SystemEventCode = 0x06

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listener interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// EventSystem dispatches events synchronously on the goroutine that fires them.
type EventSystem struct {
	mutex      sync.RWMutex
	registered map[SystemEventCode][]*registeredEvent
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[SystemEventCode][]*registeredEvent),
	}
}

/**
 * Register to listen for when events are sent with the provided code. Events with duplicate
 * listener/callback combos will not be registered again and will cause this to return false.
 * @param code The event code to listen for.
 * @param listener A listener instance. Can be nil.
 * @param onEvent The callback to be invoked when the event code is fired.
 * @returns true if the event is successfully registered; otherwise false.
 */
func (es *EventSystem) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if es == nil || onEvent == nil || code < 0 || code >= MAX_MESSAGE_CODES {
		return false
	}
	es.mutex.Lock()
	defer es.mutex.Unlock()

	for _, e := range es.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	es.registered[code] = append(es.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

/**
 * Unregister from listening for when events are sent with the provided code. If no matching
 * registration is found, this function returns false.
 */
func (es *EventSystem) Unregister(code SystemEventCode, listener interface{}) bool {
	if es == nil {
		return false
	}
	es.mutex.Lock()
	defer es.mutex.Unlock()

	events := es.registered[code]
	for i, e := range events {
		if e.listener == listener {
			es.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 * @returns true if handled, otherwise false.
 */
func (es *EventSystem) Fire(code SystemEventCode, sender interface{}, context EventContext) bool {
	if es == nil {
		return false
	}
	es.mutex.RLock()
	// copy so callbacks may (un)register without deadlocking
	events := append([]*registeredEvent(nil), es.registered[code]...)
	es.mutex.RUnlock()

	for _, e := range events {
		if e.callback(code, sender, e.listener, context) {
			return true
		}
	}
	return false
}

func (es *EventSystem) Shutdown() error {
	es.mutex.Lock()
	defer es.mutex.Unlock()
	clear(es.registered)
	return nil
}
