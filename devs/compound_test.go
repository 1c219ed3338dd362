package devs_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/devskernel/devs"
)

// counterFactory builds the same s+1-per-tick atomic used across the
// kernel's unit tests, as a ComponentFactory.
func counterFactory(name string, period devs.VTime) devs.ComponentFactory {
	return func(cal *devs.Calendar) (devs.Model, error) {
		return devs.NewAtomicSimulator(name, cal, devs.AtomicSpec[int, int]{
			Initial:       0,
			DeltaInternal: func(s int) int { return s + 1 },
			Output:        func(s int) devs.Dynamic { return devs.Wrap(s) },
			TimeAdvance:   func(s int) devs.VTime { return period },
			DeltaExternal: func(s int, elapsed devs.VTime, x int) int { return s + x },
		})
	}
}

// relayState is a passthrough model's state: the last value received,
// and whether it is still owed an immediate re-emission of that value.
type relayState struct {
	value  int
	active bool
}

// passThroughFactory builds an atomic that re-emits whatever it last
// received at the same instant it received it, via a zero-delay internal
// transition, used to build a zero-delay relay chain.
func passThroughFactory(name string) devs.ComponentFactory {
	return func(cal *devs.Calendar) (devs.Model, error) {
		return devs.NewAtomicSimulator(name, cal, devs.AtomicSpec[relayState, int]{
			Initial: relayState{},
			DeltaInternal: func(s relayState) relayState {
				return relayState{value: s.value, active: false}
			},
			Output: func(s relayState) devs.Dynamic { return devs.Wrap(s.value) },
			TimeAdvance: func(s relayState) devs.VTime {
				if s.active {
					return 0
				}

				return devs.Infinity
			},
			DeltaExternal: func(s relayState, elapsed devs.VTime, x int) relayState {
				return relayState{value: x, active: true}
			},
		})
	}
}

func drain(cal *devs.Calendar, selectFn devs.SelectFunc) {
	for {
		fired, err := cal.AdvanceAndFire(selectFn)
		Expect(err).NotTo(HaveOccurred())

		if !fired {
			return
		}
	}
}

var _ = Describe("CompoundSimulator construction", func() {
	var cal *devs.Calendar

	BeforeEach(func() {
		cal = devs.NewCalendar(0, 10, devs.DefaultEpsilon)
	})

	It("rejects an empty component set", func() {
		_, err := devs.NewCompoundSimulator("Top", cal, devs.CompoundSpec{})
		Expect(err).To(MatchError(devs.ErrEmptyComponents))
	})

	It("rejects a component named the same as the compound", func() {
		_, err := devs.NewCompoundSimulator("Top", cal, devs.CompoundSpec{
			Components: map[string]devs.ComponentFactory{
				"Top": counterFactory("Top", 1),
			},
		})
		Expect(err).To(MatchError(devs.ErrNameCollision))
	})

	It("rejects an edge naming an unknown component", func() {
		_, err := devs.NewCompoundSimulator("Top", cal, devs.CompoundSpec{
			Components: map[string]devs.ComponentFactory{
				"A": counterFactory("A", 1),
			},
			Edges: []devs.Edge{
				{Source: "A", Target: "Ghost"},
			},
		})
		Expect(err).To(MatchError(devs.ErrUnknownComponent))
	})

	It("rejects an edge whose source and target are the same component", func() {
		_, err := devs.NewCompoundSimulator("Top", cal, devs.CompoundSpec{
			Components: map[string]devs.ComponentFactory{
				"A": counterFactory("A", 1),
			},
			Edges: []devs.Edge{
				{Source: "A", Target: "A"},
			},
		})
		Expect(err).To(MatchError(devs.ErrSelfLoop))
	})
})

var _ = Describe("CompoundSimulator concurrent tie-break", func() {
	// Two sibling counters both tick every 1 time unit, so they reach
	// t=1 concurrently.
	var (
		cal   *devs.Calendar
		order []string
	)

	build := func(selectFn devs.SelectFunc) *devs.CompoundSimulator {
		top, err := devs.NewCompoundSimulator("Top", cal, devs.CompoundSpec{
			Components: map[string]devs.ComponentFactory{
				"A": counterFactory("A", 1),
				"B": counterFactory("B", 1),
			},
			Select: selectFn,
		})
		Expect(err).NotTo(HaveOccurred())

		for _, name := range []string{"A", "B"} {
			name := name
			top.Components()[name].AddOutputListener(func(now devs.VTime, v devs.Dynamic) {
				order = append(order, name)
			})
		}

		return top
	}

	BeforeEach(func() {
		cal = devs.NewCalendar(0, 1, devs.DefaultEpsilon)
		order = nil
	})

	It("fires the concurrent group in the compound's select order", func() {
		top := build(func(names []string) (string, error) { return "B", nil })

		fired, err := cal.AdvanceAndFire(top.Select())
		Expect(err).NotTo(HaveOccurred())
		Expect(fired).To(BeTrue())
		Expect(order).To(Equal([]string{"B", "A"}))
	})

	It("fires the concurrent group FIFO under the default selector", func() {
		top := build(nil)

		fired, err := cal.AdvanceAndFire(top.Select())
		Expect(err).NotTo(HaveOccurred())
		Expect(fired).To(BeTrue())
		Expect(order).To(Equal([]string{"A", "B"}))
	})
})

var _ = Describe("CompoundSimulator zero-delay relay chain", func() {
	// Source fires at t=1 with value 0; Relay receives it, reschedules
	// its own internal transition at the same instant, and re-emits the
	// value within the same Calendar round.
	It("delivers a value through two hops in a single concurrent round", func() {
		cal := devs.NewCalendar(0, 5, devs.DefaultEpsilon)

		var relayOutputs []int
		var relayTimes []devs.VTime

		top, err := devs.NewCompoundSimulator("Top", cal, devs.CompoundSpec{
			Components: map[string]devs.ComponentFactory{
				"Source": counterFactory("Source", 1),
				"Relay":  passThroughFactory("Relay"),
			},
			Edges: []devs.Edge{
				{Source: "Source", Target: "Relay"},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		top.Components()["Relay"].AddOutputListener(func(now devs.VTime, v devs.Dynamic) {
			y, err := devs.Get[int](v, "Relay", "observer")
			Expect(err).NotTo(HaveOccurred())

			relayOutputs = append(relayOutputs, y)
			relayTimes = append(relayTimes, now)
		})

		drain(cal, top.Select())

		Expect(relayOutputs).NotTo(BeEmpty())
		Expect(relayOutputs[0]).To(Equal(0))
		Expect(relayTimes[0]).To(BeNumerically("==", 1))
	})

	It("applies the edge transformer on the way through", func() {
		cal := devs.NewCalendar(0, 1, devs.DefaultEpsilon)

		var relayOutputs []int

		top, err := devs.NewCompoundSimulator("Top", cal, devs.CompoundSpec{
			Components: map[string]devs.ComponentFactory{
				"Source": counterFactory("Source", 1),
				"Relay":  passThroughFactory("Relay"),
			},
			Edges: []devs.Edge{
				{Source: "Source", Target: "Relay", Transformer: func(d devs.Dynamic) devs.Dynamic {
					y, err := devs.Get[int](d, "Source", "Relay")
					Expect(err).NotTo(HaveOccurred())

					return devs.Wrap(y + 100)
				}},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		top.Components()["Relay"].AddOutputListener(func(now devs.VTime, v devs.Dynamic) {
			y, err := devs.Get[int](v, "Relay", "observer")
			Expect(err).NotTo(HaveOccurred())

			relayOutputs = append(relayOutputs, y)
		})

		drain(cal, top.Select())

		Expect(relayOutputs).To(Equal([]int{100}))
	})
})

var _ = Describe("CompoundSimulator boundary routing", func() {
	It("fans a compound-input delivery out in edge registration order", func() {
		cal := devs.NewCalendar(0, 5, devs.DefaultEpsilon)

		var order []string

		top, err := devs.NewCompoundSimulator("Top", cal, devs.CompoundSpec{
			Components: map[string]devs.ComponentFactory{
				"A": passThroughFactory("A"),
				"B": passThroughFactory("B"),
			},
			Edges: []devs.Edge{
				{Source: "", Target: "A"},
				{Source: "", Target: "B"},
			},
			Select: devs.FirstNameSelector,
		})
		Expect(err).NotTo(HaveOccurred())

		top.Components()["A"].AddOutputListener(func(now devs.VTime, v devs.Dynamic) {
			order = append(order, "A")
		})
		top.Components()["B"].AddOutputListener(func(now devs.VTime, v devs.Dynamic) {
			order = append(order, "B")
		})

		Expect(top.ScheduleExternalInput(1, devs.Wrap(3), "boundary in")).To(Succeed())

		drain(cal, top.Select())

		Expect(order).To(Equal([]string{"A", "B"}))
	})

	It("passes a component's output through to the compound's own output", func() {
		cal := devs.NewCalendar(0, 1, devs.DefaultEpsilon)

		var outputs []int

		top, err := devs.NewCompoundSimulator("Top", cal, devs.CompoundSpec{
			Components: map[string]devs.ComponentFactory{
				"Source": counterFactory("Source", 1),
			},
			Edges: []devs.Edge{
				{Source: "Source", Target: ""},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		top.AddOutputListener(func(now devs.VTime, v devs.Dynamic) {
			y, err := devs.Get[int](v, "Top", "observer")
			Expect(err).NotTo(HaveOccurred())

			outputs = append(outputs, y)
		})

		drain(cal, top.Select())

		Expect(outputs).To(Equal([]int{0}))
	})

	It("treats a nested compound as an ordinary component", func() {
		cal := devs.NewCalendar(0, 1, devs.DefaultEpsilon)

		var outputs []int

		innerFactory := func(cal *devs.Calendar) (devs.Model, error) {
			return devs.NewCompoundSimulator("Inner", cal, devs.CompoundSpec{
				Components: map[string]devs.ComponentFactory{
					"Source": counterFactory("Source", 1),
				},
				Edges: []devs.Edge{
					{Source: "Source", Target: ""},
				},
			})
		}

		top, err := devs.NewCompoundSimulator("Top", cal, devs.CompoundSpec{
			Components: map[string]devs.ComponentFactory{
				"Inner": innerFactory,
				"Sink":  passThroughFactory("Sink"),
			},
			Edges: []devs.Edge{
				{Source: "Inner", Target: "Sink"},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		top.Components()["Sink"].AddOutputListener(func(now devs.VTime, v devs.Dynamic) {
			y, err := devs.Get[int](v, "Sink", "observer")
			Expect(err).NotTo(HaveOccurred())

			outputs = append(outputs, y)
		})

		drain(cal, top.Select())

		Expect(outputs).To(Equal([]int{0}))
	})

	It("supports a cycle across components without reentrancy", func() {
		// A -> B -> A is legal: each hop is an event delivery through
		// the Calendar, and positive time advances break the cycle.
		cal := devs.NewCalendar(0, 2, devs.DefaultEpsilon)

		top, err := devs.NewCompoundSimulator("Top", cal, devs.CompoundSpec{
			Components: map[string]devs.ComponentFactory{
				"A": counterFactory("A", 1),
				"B": counterFactory("B", 1),
			},
			Edges: []devs.Edge{
				{Source: "A", Target: "B"},
				{Source: "B", Target: "A"},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		drain(cal, top.Select())

		Expect(cal.Time()).To(BeNumerically("==", 2))
	})
})
