package devs

import (
	"errors"
	"fmt"

	"github.com/rs/xid"
)

// A StepListener observes one completed advance_and_fire round.
type StepListener func(now VTime, step int)

// Simulator is the top-level driver: it owns one Calendar and one root
// Model and repeatedly advances the Calendar until no Events remain
// before EndTime.
type Simulator struct {
	*HookableBase

	id       string
	calendar *Calendar
	root     Model

	step          int
	stepListeners []StepListener
}

// NewSimulator constructs a Simulator whose root model is built by
// rootFactory, running from startTime to endTime with the given
// concurrency tolerance. rootName labels the root in construction
// errors; the root's Name() is whatever rootFactory gives it. A nil
// printer attaches no default
// trace; pass one obtained from NewPrinter to get the reference trace
// output.
func NewSimulator(
	rootName string,
	rootFactory ComponentFactory,
	startTime, endTime, epsilon VTime,
	printer *Printer,
) (*Simulator, error) {
	if rootFactory == nil {
		return nil, errors.New("devs: root factory must not be nil")
	}

	calendar := NewCalendar(startTime, endTime, epsilon)

	root, err := rootFactory(calendar)
	if err != nil {
		return nil, fmt.Errorf("devs: building root model %q: %w", rootName, err)
	}

	s := &Simulator{
		HookableBase: NewHookableBase(),
		id:           xid.New().String(),
		calendar:     calendar,
		root:         root,
	}

	if printer != nil {
		printer.AttachTo(s)
	}

	return s, nil
}

// RunID returns the Simulator's unique run identifier, stamped at
// construction time for correlating trace lines across a run.
func (s *Simulator) RunID() string { return s.id }

// CurrentTime returns the Calendar's current logical time.
func (s *Simulator) CurrentTime() VTime { return s.calendar.Time() }

// EndTime returns the Calendar's configured end time.
func (s *Simulator) EndTime() VTime { return s.calendar.EndTime() }

// Root returns the Simulator's root model.
func (s *Simulator) Root() Model { return s.root }

// ScheduleExternalInput schedules value to be delivered to the root model
// at time now.
func (s *Simulator) ScheduleExternalInput(now VTime, value Dynamic, description string) error {
	return s.root.ScheduleExternalInput(now, value, description)
}

// AddOutputListener registers fn to observe every value the root model
// emits across the simulation's outer boundary.
func (s *Simulator) AddOutputListener(fn func(modelName string, now VTime, value Dynamic)) {
	s.root.AddOutputListener(func(now VTime, value Dynamic) {
		fn(s.root.Name(), now, value)
	})
}

// AddStepListener registers fn to be invoked after each completed
// advance_and_fire round, with the new current time and the step count.
func (s *Simulator) AddStepListener(fn StepListener) {
	s.stepListeners = append(s.stepListeners, fn)
}

// Run invokes sim-started listeners, then repeatedly advances the
// Calendar until it returns false, invoking the per-step listeners after
// each advance, then invokes sim-ended listeners.
func (s *Simulator) Run() error {
	now := s.calendar.Time()

	s.InvokeHook(HookCtx{Domain: s, Pos: HookPosSimStart, Item: now})
	s.root.simStart(now)

	for {
		fired, err := s.calendar.AdvanceAndFire(s.root.Select())
		if err != nil {
			return err
		}

		if !fired {
			break
		}

		s.step++
		now = s.calendar.Time()

		s.InvokeHook(HookCtx{Domain: s, Pos: HookPosSimStep, Item: now, Detail: s.step})

		for _, l := range s.stepListeners {
			l(now, s.step)
		}
	}

	now = s.calendar.Time()
	s.InvokeHook(HookCtx{Domain: s, Pos: HookPosSimEnd, Item: now})
	s.root.simEnd(now)

	return nil
}

// Builder constructs a Simulator through named, chainable options.
type Builder struct {
	startTime   VTime
	endTime     VTime
	epsilon     VTime
	rootName    string
	rootFactory ComponentFactory
	printer     *Printer
}

// NewBuilder creates a Builder defaulted to start time 0 and
// DefaultEpsilon.
func NewBuilder() Builder {
	return Builder{epsilon: DefaultEpsilon}
}

// WithStartTime sets the simulation's start time.
func (b Builder) WithStartTime(t VTime) Builder {
	b.startTime = t
	return b
}

// WithEndTime sets the simulation's end time.
func (b Builder) WithEndTime(t VTime) Builder {
	b.endTime = t
	return b
}

// WithEpsilon sets the Calendar's concurrency tolerance.
func (b Builder) WithEpsilon(e VTime) Builder {
	b.epsilon = e
	return b
}

// WithRoot sets the root model's name and factory.
func (b Builder) WithRoot(name string, factory ComponentFactory) Builder {
	b.rootName = name
	b.rootFactory = factory
	return b
}

// WithPrinter attaches a default trace printer to the built Simulator.
func (b Builder) WithPrinter(p *Printer) Builder {
	b.printer = p
	return b
}

func (b Builder) parametersMustBeValid() error {
	if b.rootFactory == nil {
		return errors.New("devs: builder root must be set with WithRoot")
	}

	if b.endTime <= b.startTime {
		return fmt.Errorf(
			"devs: end time %v must be after start time %v", b.endTime, b.startTime)
	}

	return nil
}

// Build validates the builder's parameters and constructs the Simulator.
func (b Builder) Build() (*Simulator, error) {
	if err := b.parametersMustBeValid(); err != nil {
		return nil, err
	}

	return NewSimulator(
		b.rootName, b.rootFactory, b.startTime, b.endTime, b.epsilon, b.printer)
}
