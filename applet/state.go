package applet

// State is the session state of the applet.
type State int

const (
	// Locked means no data file is open and the menu holds no entries.
	Locked State = iota
	// Unlocked means a data file is open and its entries are in the menu.
	Unlocked
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// Event drives session state transitions.
type Event int

const (
	// EventOpened is raised after a data file was loaded.
	EventOpened Event = iota
	// EventClosed is raised when the user locks or the file is closed.
	EventClosed
	// EventAutolockFired is raised when the inactivity timer expires.
	EventAutolockFired
	// EventReloadFailed is raised when reloading a changed file fails with
	// a password error.
	EventReloadFailed
)

// String returns the string representation of the event.
func (e Event) String() string {
	switch e {
	case EventOpened:
		return "opened"
	case EventClosed:
		return "closed"
	case EventAutolockFired:
		return "autolock"
	case EventReloadFailed:
		return "reload-failed"
	default:
		return "unknown"
	}
}

// Next returns the state that follows s after ev.
func Next(s State, ev Event) State {
	switch ev {
	case EventOpened:
		return Unlocked
	case EventClosed, EventAutolockFired, EventReloadFailed:
		return Locked
	}
	return s
}
