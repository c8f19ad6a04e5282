package window

// EventType identifies the kind of input event carried by an Event.
type EventType int

const (
	// EventKeyDown is sent on key press and key repeat.
	EventKeyDown EventType = iota
	// EventKeyUp is sent on key release.
	EventKeyUp
	// EventMouseButtonDown is sent when a mouse button is pressed.
	EventMouseButtonDown
	// EventMouseButtonUp is sent when a mouse button is released.
	EventMouseButtonUp
	// EventMouseMove is sent when the cursor moves. X and Y hold the new cursor position.
	EventMouseMove
	// EventScroll is sent on mouse wheel movement. Scroll holds the vertical offset.
	EventScroll
)

// Event is a platform-neutral input event delivered to the event callback.
// Only the fields relevant to Type are set.
type Event struct {
	Type EventType
	// Key is the key code for key events (see common.Key* constants).
	Key uint32
	// Button is the mouse button for button events (see common.MouseButton* constants).
	Button int
	// X and Y are the cursor position in window pixels for mouse events.
	X, Y float64
	// Scroll is the vertical wheel offset for scroll events.
	Scroll float32
}

// KeyDown builds an EventKeyDown event.
func KeyDown(key uint32) Event { return Event{Type: EventKeyDown, Key: key} }

// KeyUp builds an EventKeyUp event.
func KeyUp(key uint32) Event { return Event{Type: EventKeyUp, Key: key} }

// MouseButtonDown builds an EventMouseButtonDown event.
func MouseButtonDown(button int, x, y float64) Event {
	return Event{Type: EventMouseButtonDown, Button: button, X: x, Y: y}
}

// MouseButtonUp builds an EventMouseButtonUp event.
func MouseButtonUp(button int, x, y float64) Event {
	return Event{Type: EventMouseButtonUp, Button: button, X: x, Y: y}
}

// MouseMove builds an EventMouseMove event.
func MouseMove(x, y float64) Event { return Event{Type: EventMouseMove, X: x, Y: y} }
