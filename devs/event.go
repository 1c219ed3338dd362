package devs

// VTime is the logical simulation time. It is commonly a floating-point
// value; Infinity is the canonical "no future autonomous event" marker
// used as a time-advance result.
type VTime = float64

// Action is a thunk scheduled to run at an Event's time. It captures any
// state it needs by reference to its owning model; it takes no arguments
// and returns nothing.
type Action func()

// A CancelHandle is a callable that cancels the Event it was obtained
// from. Multiple handles may refer to the same underlying flag; calling
// any of them marks the Event cancelled. Cancelling an Event that has
// already fired is a no-op.
type CancelHandle func()

// An Event is a scheduled action: a point in logical time, the action to
// run there, the name of the model that owns it (used by the Calendar to
// tie-break concurrent firings), and a free-form description for traces.
//
// Event is immutable except for cancellation, which is lazy: setting the
// shared flag does not remove the Event from the Calendar's heap, it is
// skipped when it surfaces at the top.
type Event struct {
	time        VTime
	action      Action
	model       string
	description string
	cancelled   *bool
}

// NewEvent creates an Event scheduled to fire at t, running action, owned
// by the model named model, labeled description for traces.
func NewEvent(t VTime, action Action, model, description string) Event {
	cancelled := false
	return Event{
		time:        t,
		action:      action,
		model:       model,
		description: description,
		cancelled:   &cancelled,
	}
}

// Time returns the Event's scheduled logical time.
func (e Event) Time() VTime { return e.time }

// Model returns the name of the component the Event belongs to.
func (e Event) Model() string { return e.model }

// Description returns the Event's free-form trace label.
func (e Event) Description() string { return e.description }

// IsCancelled reports whether the Event has been cancelled through any of
// its cancellation handles.
func (e Event) IsCancelled() bool {
	return *e.cancelled
}

// CancelHandle returns a callable that cancels this Event. The handle
// remains valid after the Event is copied or moved; all handles derived
// from the same Event (and its copies) share one logical flag.
func (e Event) CancelHandle() CancelHandle {
	cancelled := e.cancelled
	return func() { *cancelled = true }
}

// Fire invokes the Event's action. Firing a cancelled Event is a program
// error: callers (the Calendar) must check IsCancelled first.
func (e Event) Fire() error {
	if e.IsCancelled() {
		return ErrInvariantViolation
	}

	e.action()

	return nil
}
