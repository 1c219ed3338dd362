package devs

import (
	"fmt"
	"math"
)

// AtomicSpec is the ⟨S₀, δ_ext, δ_int, λ, ta⟩ tuple that defines an
// atomic DEVS model: S is the state space, X the type of values it
// accepts as external input, Initial the starting state, DeltaExternal
// and DeltaInternal the external and internal transition functions,
// Output the output function λ, and TimeAdvance the ta function.
//
// TimeAdvance must return Infinity when the model has no future
// autonomous event; the Calendar never pops an Event scheduled at
// Infinity before EndTime.
type AtomicSpec[S, X any] struct {
	Initial       S
	DeltaExternal func(state S, elapsed VTime, input X) S
	DeltaInternal func(state S) S
	Output        func(state S) Dynamic
	TimeAdvance   func(state S) VTime

	// FormatState renders a state for logs and for the
	// pretty-printed-equality state-transition suppression rule. Defaults
	// to fmt.Sprintf("%v", state) when nil.
	FormatState func(state S) string
}

func (spec AtomicSpec[S, X]) formatState(s S) string {
	if spec.FormatState != nil {
		return spec.FormatState(s)
	}

	return fmt.Sprintf("%v", s)
}

// AtomicSimulator is the per-atomic-model state machine implementing the
// DEVS internal/external transition protocol: it schedules its own next
// internal transition, reschedules it upon external input, and produces
// output with correct elapsed-time bookkeeping.
type AtomicSimulator[S, X any] struct {
	*modelBase

	spec               AtomicSpec[S, X]
	state              S
	lastTransitionTime VTime

	pendingInternalCancel CancelHandle
}

// NewAtomicSimulator constructs an AtomicSimulator named name, bound to
// calendar, and schedules its first internal transition at
// calendar.Time() + spec.TimeAdvance(spec.Initial).
func NewAtomicSimulator[S, X any](
	name string,
	calendar *Calendar,
	spec AtomicSpec[S, X],
) (*AtomicSimulator[S, X], error) {
	a := &AtomicSimulator[S, X]{
		modelBase:          newModelBase(name, calendar, nil),
		spec:               spec,
		state:              spec.Initial,
		lastTransitionTime: calendar.Time(),
	}

	if err := a.scheduleNextInternal(); err != nil {
		return nil, err
	}

	return a, nil
}

// State returns the atomic model's current state, pretty-printed.
func (a *AtomicSimulator[S, X]) State() string {
	return a.spec.formatState(a.state)
}

// Components returns nil: Components is not meaningful for an atomic
// model.
func (a *AtomicSimulator[S, X]) Components() map[string]Model { return nil }

func (a *AtomicSimulator[S, X]) scheduleNextInternal() error {
	now := a.calendar.Time()
	delay := a.spec.TimeAdvance(a.state)

	if math.IsInf(delay, 1) {
		a.pendingInternalCancel = nil
		return nil
	}

	evt := NewEvent(now+delay, a.fireInternal, a.name, "internal transition")

	if err := a.calendar.Schedule(evt); err != nil {
		return err
	}

	a.pendingInternalCancel = evt.CancelHandle()

	return nil
}

// fireInternal is the Action of the scheduled internal-transition Event.
func (a *AtomicSimulator[S, X]) fireInternal() {
	now := a.calendar.Time()

	y := a.spec.Output(a.state)
	next := a.spec.DeltaInternal(a.state)

	prevStr := a.State()
	a.state = next
	a.lastTransitionTime = now
	a.notifyStateTransition(now, prevStr, a.State())

	a.emitOutput(now, y)

	if err := a.scheduleNextInternal(); err != nil {
		panic(err)
	}
}

// deliverInput implements the external-transition protocol: it cancels
// the pending internal transition, if any, computes the external
// transition from the elapsed time since the last transition, and
// reschedules the next internal transition from the new state.
func (a *AtomicSimulator[S, X]) deliverInput(now VTime, sourceName string, value Dynamic) error {
	if err := selfLoopMustNotBe(sourceName, a.name); err != nil {
		return err
	}

	x, err := Get[X](value, sourceName, a.name)
	if err != nil {
		return err
	}

	if a.pendingInternalCancel != nil {
		a.pendingInternalCancel()
		a.pendingInternalCancel = nil
	}

	elapsed := now - a.lastTransitionTime
	next := a.spec.DeltaExternal(a.state, elapsed, x)

	prevStr := a.State()
	a.state = next
	a.lastTransitionTime = now
	a.notifyStateTransition(now, prevStr, a.State())

	return a.scheduleNextInternal()
}

// ScheduleExternalInput schedules value to be delivered to this atomic
// model at time now via the external-transition protocol.
func (a *AtomicSimulator[S, X]) ScheduleExternalInput(
	now VTime, value Dynamic, description string,
) error {
	evt := NewEvent(now, func() {
		if err := a.deliverInput(now, "", value); err != nil {
			panic(err)
		}
	}, a.name, description)

	return a.calendar.Schedule(evt)
}

func (a *AtomicSimulator[S, X]) simStart(now VTime) {
	a.fireSimStarted(now, a.State())
}

func (a *AtomicSimulator[S, X]) simEnd(now VTime) {
	a.fireSimEnded(now, a.State())
}

var _ Model = (*AtomicSimulator[int, int])(nil)
