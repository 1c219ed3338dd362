package devs

import "fmt"

// Named is implemented by anything with a stable, human-readable name.
type Named interface {
	Name() string
}

// An OutputListener observes values a model emits through its output
// function. Compound wiring attaches these to route a source's output to
// a sibling's input or to the compound's own output.
type OutputListener func(now VTime, value Dynamic)

// A StateTransitionListener observes a model's state changing. now is the
// time of the transition; prev and next are the pretty-printed
// representations of the state before and after.
type StateTransitionListener func(now VTime, prev, next string)

// A LifecycleListener observes the start or end of the simulation for a
// given model. stateStr is the model's pretty-printed state at the time
// of the call.
type LifecycleListener func(now VTime, stateStr string)

// A Model is the common surface implemented by both atomic and compound
// DEVS models. A systems-language implementation exposes one capability
// interface for both variants rather than a closed sum type, so that
// compound models can hold heterogeneous components uniformly.
type Model interface {
	Named
	Hookable

	// ScheduleExternalInput schedules value to be delivered to this model
	// at time now, labeled description for traces. For an atomic model
	// this drives its external transition; for a compound model it
	// synchronously fans the value out to every component wired to the
	// compound's input.
	ScheduleExternalInput(now VTime, value Dynamic, description string) error

	// AddOutputListener registers l to be invoked, synchronously and in
	// registration order, every time this model emits output.
	AddOutputListener(l OutputListener)

	// AddStateTransitionListener registers l to be invoked whenever this
	// model's state changes to a pretty-printed representation different
	// from its previous one.
	AddStateTransitionListener(l StateTransitionListener)

	// AddSimStartedListener registers l to be invoked once, when the
	// driver starts the simulation.
	AddSimStartedListener(l LifecycleListener)

	// AddSimEndedListener registers l to be invoked once, when the driver
	// finishes the simulation.
	AddSimEndedListener(l LifecycleListener)

	// Components returns this model's named components. It is only
	// meaningful for compound models; atomic models return nil.
	Components() map[string]Model

	// State returns this model's current state, pretty-printed. It is
	// only meaningful for atomic models; compound models return "".
	State() string

	// Select returns the SelectFunc this model uses to break ties among
	// its own concurrent Events.
	Select() SelectFunc

	// simStart and simEnd recurse the lifecycle notifications down a
	// model tree; unexported because only the driver and compound
	// wiring invoke them.
	simStart(now VTime)
	simEnd(now VTime)

	// deliverInput is the internal entry point an Event's action calls to
	// hand a value to this model. sourceName is the name of the
	// component the value came from, or "" when it originated outside
	// the simulation; it is used both for self-loop detection and for
	// TypeMismatch messages.
	deliverInput(now VTime, sourceName string, value Dynamic) error
}

// modelBase holds the state and listener bookkeeping shared by the atomic
// and compound simulators: a name, the Calendar the model schedules into,
// and the four listener lists every Model exposes.
type modelBase struct {
	*HookableBase

	name     string
	calendar *Calendar
	selector SelectFunc

	outputListeners []OutputListener
	stateListeners  []StateTransitionListener
	startListeners  []LifecycleListener
	endListeners    []LifecycleListener
}

func newModelBase(name string, calendar *Calendar, selector SelectFunc) *modelBase {
	if selector == nil {
		selector = FirstNameSelector
	}

	return &modelBase{
		HookableBase: NewHookableBase(),
		name:         name,
		calendar:     calendar,
		selector:     selector,
	}
}

func (m *modelBase) Name() string { return m.name }

func (m *modelBase) Select() SelectFunc { return m.selector }

func (m *modelBase) AddOutputListener(l OutputListener) {
	m.outputListeners = append(m.outputListeners, l)
}

func (m *modelBase) AddStateTransitionListener(l StateTransitionListener) {
	m.stateListeners = append(m.stateListeners, l)
}

func (m *modelBase) AddSimStartedListener(l LifecycleListener) {
	m.startListeners = append(m.startListeners, l)
}

func (m *modelBase) AddSimEndedListener(l LifecycleListener) {
	m.endListeners = append(m.endListeners, l)
}

// emitOutput fires every registered output listener, in registration
// order, synchronously. No Event is scheduled here: output delivery is
// modeled entirely by the listeners, which typically schedule an input
// Event on the receiving side.
func (m *modelBase) emitOutput(now VTime, value Dynamic) {
	listeners := m.outputListeners
	for _, l := range listeners {
		l(now, value)
	}
}

// notifyStateTransition invokes the state-transition listeners only when
// the pretty-printed state actually changed, resolving the "is prev ==
// next suppressed" ambiguity in favor of suppression-on-equal-string.
func (m *modelBase) notifyStateTransition(now VTime, prev, next string) {
	if prev == next {
		return
	}

	m.InvokeHook(HookCtx{
		Domain: m,
		Pos:    HookPosStateTransition,
		Item:   m.name,
		Detail: [2]string{prev, next},
	})

	for _, l := range m.stateListeners {
		l(now, prev, next)
	}
}

func (m *modelBase) fireSimStarted(now VTime, stateStr string) {
	for _, l := range m.startListeners {
		l(now, stateStr)
	}
}

func (m *modelBase) fireSimEnded(now VTime, stateStr string) {
	for _, l := range m.endListeners {
		l(now, stateStr)
	}
}

// selfLoopMustNotBe returns ErrSelfLoop when source equals target. Input
// delivery uses it; compound construction makes the same check in
// wireEdge.
func selfLoopMustNotBe(source, target string) error {
	if source == target {
		return fmt.Errorf("%w: %s -> %s", ErrSelfLoop, source, target)
	}

	return nil
}
