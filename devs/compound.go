package devs

import (
	"fmt"
	"sort"
)

// A ComponentFactory constructs a component Model bound to calendar. It
// is invoked once per component when a CompoundSimulator is built.
type ComponentFactory func(calendar *Calendar) (Model, error)

// compoundSelf is the sentinel name used in an Edge's Source or Target to
// mean "the compound itself": an Edge with Source == compoundSelf is a
// compound-input edge, and one with Target == compoundSelf is a
// compound-output edge.
const compoundSelf = ""

// An Edge is a directed influencer connection from a source component's
// output to a target component's input, optionally transformed. Source
// or Target may be compoundSelf to denote the compound's own input or
// output.
type Edge struct {
	Source      string
	Target      string
	Transformer Transformer
}

// CompoundSpec is the {components, influencers, select} record that
// defines a compound DEVS model: a named set of components, the edges
// wiring their outputs to inputs, and the SelectFunc used to break ties
// among this compound's own concurrent Events.
type CompoundSpec struct {
	Components map[string]ComponentFactory
	Edges      []Edge
	Select     SelectFunc
}

// CompoundSimulator is the recursive wiring layer: it constructs its
// components, wires influencer → transformer → target edges (including
// the compound's own boundary input and output), and exposes the
// aggregate as another Model.
type CompoundSimulator struct {
	*modelBase

	components     map[string]Model
	componentNames []string

	// inputEdges are the compound-input edges (Source == compoundSelf),
	// kept in registration order: deliveries through them are routed
	// synchronously, in that order, and do not re-enter the Calendar.
	inputEdges []Edge
}

// NewCompoundSimulator constructs each component in spec.Components, then
// wires spec.Edges. It fails with ErrEmptyComponents when there are no
// components, ErrNameCollision when a component's name equals name,
// ErrUnknownComponent when an edge names a nonexistent component, and
// ErrSelfLoop when an edge's source and target are the same component.
func NewCompoundSimulator(
	name string,
	calendar *Calendar,
	spec CompoundSpec,
) (*CompoundSimulator, error) {
	if len(spec.Components) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyComponents, name)
	}

	c := &CompoundSimulator{
		modelBase:  newModelBase(name, calendar, spec.Select),
		components: make(map[string]Model, len(spec.Components)),
	}

	for compName := range spec.Components {
		c.componentNames = append(c.componentNames, compName)
	}
	sort.Strings(c.componentNames)

	// Components are constructed in name order so that their initial
	// internal transitions enter the Calendar in a deterministic order,
	// which the default FIFO selector depends on for equal-time ticks.
	for _, compName := range c.componentNames {
		if compName == name {
			return nil, fmt.Errorf("%w: %s", ErrNameCollision, compName)
		}

		comp, err := spec.Components[compName](calendar)
		if err != nil {
			return nil, err
		}

		c.components[compName] = comp
	}

	for _, edge := range spec.Edges {
		if err := c.wireEdge(edge); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *CompoundSimulator) wireEdge(edge Edge) error {
	if edge.Source == edge.Target {
		return fmt.Errorf("%w: %s -> %s", ErrSelfLoop, edge.Source, edge.Target)
	}

	if edge.Source != compoundSelf {
		if _, ok := c.components[edge.Source]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownComponent, edge.Source)
		}
	}

	if edge.Target != compoundSelf {
		if _, ok := c.components[edge.Target]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownComponent, edge.Target)
		}
	}

	switch {
	case edge.Source == compoundSelf:
		c.inputEdges = append(c.inputEdges, edge)
	case edge.Target == compoundSelf:
		c.wireToCompoundOutput(edge)
	default:
		c.wireComponentToComponent(edge)
	}

	return nil
}

// wireToCompoundOutput subscribes the compound's own output to a
// component's output listener, through the edge's transformer.
func (c *CompoundSimulator) wireToCompoundOutput(edge Edge) {
	source := c.components[edge.Source]

	source.AddOutputListener(func(now VTime, value Dynamic) {
		if edge.Transformer != nil {
			value = edge.Transformer(value)
		}

		c.emitOutput(now, value)
	})
}

// wireComponentToComponent subscribes the target's input to the source's
// output listener. Delivery is scheduled as a new Event at the output
// time rather than delivered in place, so that a zero-delay chain
// converges through the Calendar's concurrent-group replenishment instead
// of recursing through Go call stacks.
func (c *CompoundSimulator) wireComponentToComponent(edge Edge) {
	source := c.components[edge.Source]
	target := c.components[edge.Target]

	source.AddOutputListener(func(now VTime, value Dynamic) {
		value = value.Clone()
		if edge.Transformer != nil {
			value = edge.Transformer(value)
		}

		evt := NewEvent(now, func() {
			if err := target.deliverInput(now, edge.Source, value); err != nil {
				panic(err)
			}
		}, edge.Target, fmt.Sprintf("route %s -> %s", edge.Source, edge.Target))

		if err := c.calendar.Schedule(evt); err != nil {
			panic(err)
		}
	})
}

// State returns "": State is not meaningful for a compound model.
func (c *CompoundSimulator) State() string { return "" }

// Components returns a copy of this compound's named components.
func (c *CompoundSimulator) Components() map[string]Model {
	out := make(map[string]Model, len(c.components))
	for k, v := range c.components {
		out[k] = v
	}

	return out
}

// deliverInput fans value out, synchronously and in registration order,
// to every component wired to this compound's input. These deliveries do
// not re-enter the Calendar: the Event that carried the value to the
// compound is already firing.
func (c *CompoundSimulator) deliverInput(now VTime, sourceName string, value Dynamic) error {
	if err := selfLoopMustNotBe(sourceName, c.name); err != nil {
		return err
	}

	for _, edge := range c.inputEdges {
		v := value.Clone()
		if edge.Transformer != nil {
			v = edge.Transformer(value)
		}

		target := c.components[edge.Target]
		if err := target.deliverInput(now, c.name, v); err != nil {
			return err
		}
	}

	return nil
}

// ScheduleExternalInput schedules value to be delivered to this compound
// at time now: at fire time, the value is fanned out to every
// compound-input-wired component via deliverInput.
func (c *CompoundSimulator) ScheduleExternalInput(
	now VTime, value Dynamic, description string,
) error {
	evt := NewEvent(now, func() {
		if err := c.deliverInput(now, compoundSelf, value); err != nil {
			panic(err)
		}
	}, c.name, description)

	return c.calendar.Schedule(evt)
}

func (c *CompoundSimulator) simStart(now VTime) {
	c.fireSimStarted(now, c.State())

	for _, name := range c.componentNames {
		c.components[name].simStart(now)
	}
}

func (c *CompoundSimulator) simEnd(now VTime) {
	c.fireSimEnded(now, c.State())

	for _, name := range c.componentNames {
		c.components[name].simEnd(now)
	}
}

var _ Model = (*CompoundSimulator)(nil)
