package devs

import "errors"

// Sentinel errors for the kernel's fatal conditions. Each is wrapped with
// source/target/name detail via fmt.Errorf("%w: ...", ...) at the call
// site and can be matched with errors.Is.
var (
	// ErrPastSchedule is returned by Calendar.Schedule when the event's
	// time is strictly less than the calendar's current time.
	ErrPastSchedule = errors.New("devs: event scheduled in the past")

	// ErrBadSelect is returned when a select function returns a name that
	// is not among the candidates it was given.
	ErrBadSelect = errors.New("devs: select function returned an unknown name")

	// ErrSelfLoop is returned when an influencer edge names the same
	// component as both source and target, or when a component attempts
	// to deliver input to itself.
	ErrSelfLoop = errors.New("devs: self-loop is not allowed")

	// ErrEmptyComponents is returned when a compound model is constructed
	// with no components.
	ErrEmptyComponents = errors.New("devs: compound model has no components")

	// ErrNameCollision is returned when a component's name equals the
	// name of the compound that owns it.
	ErrNameCollision = errors.New("devs: component name collides with compound name")

	// ErrUnknownComponent is returned when an influencer edge references
	// a component that does not exist in the compound.
	ErrUnknownComponent = errors.New("devs: influencer edge references an unknown component")

	// ErrTypeMismatch is returned when a Dynamic value cannot be
	// downcast to the type an input listener or transformer expects.
	ErrTypeMismatch = errors.New("devs: dynamic value type mismatch")

	// ErrInvariantViolation marks a condition the kernel never expects to
	// reach in a correct program, e.g. firing an already-cancelled event.
	ErrInvariantViolation = errors.New("devs: invariant violation")
)
