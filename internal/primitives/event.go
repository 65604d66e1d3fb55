// Event provides the immutable event primitive for countdown transitions.
//
// Events are value types. Once created they should not be mutated; use NewEvent or one
// of the typed constructors.
//
// Example:
//
//	evt := SetEvent("90")
//	evt = NewEvent(EventStart, nil)
package primitives

// EventType names a trigger understood by the countdown chart.
type EventType string

const (
	// EventSet carries the raw duration input as a string in Data.
	EventSet EventType = "set"
	// EventStart starts an idle countdown or resumes a paused one.
	EventStart EventType = "start"
	EventPause EventType = "pause"
	// EventStop resets the countdown to zero.
	EventStop EventType = "stop"
	// EventTick is one firing of the live periodic handle.
	EventTick EventType = "tick"
	// EventExpire is raised internally when remaining time reaches zero.
	EventExpire EventType = "expire"
	// EventTeardown is sent by the host when the widget goes away.
	EventTeardown EventType = "teardown"
)

// Event is a single trigger with an optional payload.
type Event struct {
	Type EventType
	Data any
}

// NewEvent creates and returns a new immutable Event.
func NewEvent(eventType EventType, data any) Event {
	return Event{
		Type: eventType,
		Data: data,
	}
}

// SetEvent wraps raw user input for the set operation.
func SetEvent(input string) Event {
	return NewEvent(EventSet, input)
}

// Input returns the string payload of the event, if any.
func (e Event) Input() (string, bool) {
	s, ok := e.Data.(string)
	return s, ok
}

func (t EventType) String() string {
	return string(t)
}
