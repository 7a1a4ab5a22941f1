package core

type EventContext struct {
	Data struct {
		I64 [2]int64
		U64 [2]uint64
		F64 [2]float64

		I32 [4]int32
		F32 [4]float32

		C [4]string
	}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// A directive was added, removed, moved or edited.
	/* Context usage:
	 * string id = data.Data.C[0];
	 */
	EVENT_CODE_DIRECTIVE_CHANGED SystemEventCode = 0x01

	// A synthesized group regenerated its segments.
	/* Context usage:
	 * string id = data.Data.C[0];
	 * i32 segments = data.Data.I32[0];
	 */
	EVENT_CODE_GROUP_SYNTHESIZED SystemEventCode = 0x02

	// A synthesized group could not be synthesized.
	/* Context usage:
	 * string id = data.Data.C[0];
	 * string reason = data.Data.C[1];
	 */
	EVENT_CODE_GROUP_SYNTHESIS_FAILED SystemEventCode = 0x03

	// The vertex buffer of a document was rebuilt.
	/* Context usage:
	 * i64 vertices = data.Data.I64[0];
	 * f64 elapsed_ms = data.Data.F64[0];
	 */
	EVENT_CODE_VERTEX_BUFFER_REBUILT SystemEventCode = 0x04

	// A file in the part library changed on disk.
	/* Context usage:
	 * string part_name = data.Data.C[0];
	 */
	EVENT_CODE_LIBRARY_CHANGED SystemEventCode = 0x05

	// A per-line diagnostic was recorded while loading.
	/* Context usage:
	 * string file = data.Data.C[0];
	 * string message = data.Data.C[1];
	 * i64 line = data.Data.I64[0];
	 */
	EVENT_CODE_DIAGNOSTIC SystemEventCode = 0x06

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// State structure.
type eventSystemState struct {
	registered map[SystemEventCode][]*registeredEvent
}

/**
 * Event system internal state.
 */
var isInitialized bool = false
var eventState *eventSystemState = nil

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listener_inst interface{}, data EventContext) bool

func EventInitialize() bool {
	if isInitialized {
		return false
	}
	eventState = &eventSystemState{
		registered: make(map[SystemEventCode][]*registeredEvent),
	}
	isInitialized = true
	return true
}

func EventShutdown() error {
	// Listeners are owned elsewhere, only the registrations go.
	eventState = nil
	isInitialized = false
	return nil
}

/**
 * Register to listen for when events are sent with the provided code. A listener
 * can only be registered once per code; a duplicate makes this return false.
 * @param code The event code to listen for.
 * @param listener A pointer to a listener instance. Can be nil.
 * @param onEvent The callback invoked when the event code is fired.
 * @returns true if the event is successfully registered; otherwise false.
 */
func EventRegister(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if !isInitialized || onEvent == nil {
		return false
	}
	for _, e := range eventState.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	eventState.registered[code] = append(eventState.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

/**
 * Unregister from listening for when events are sent with the provided code.
 * @param code The event code to stop listening for.
 * @param listener The listener passed to EventRegister.
 * @returns true if the event is successfully unregistered; otherwise false.
 */
func EventUnregister(code SystemEventCode, listener interface{}) bool {
	if !isInitialized {
		return false
	}
	events := eventState.registered[code]
	for i, e := range events {
		if e.listener == listener {
			eventState.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code in registration order. If a
 * handler returns true the event is considered handled and is not passed on.
 * @param code The event code to fire.
 * @param sender The sender. Can be nil.
 * @param context The event data.
 * @returns true if handled, otherwise false.
 */
func EventFire(code SystemEventCode, sender interface{}, context EventContext) bool {
	if !isInitialized {
		return false
	}
	for _, e := range eventState.registered[code] {
		if e.callback(code, sender, e.listener, context) {
			return true
		}
	}
	return false
}
