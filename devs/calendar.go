package devs

import (
	"container/heap"
	"fmt"
	"math"
)

// A SelectFunc breaks ties among Events scheduled within epsilon of each
// other. Given the model names of the candidate Events it must return one
// of those names; returning anything else is a fatal ErrBadSelect.
type SelectFunc func(names []string) (string, error)

// FirstNameSelector is the default SelectFunc: FIFO among the candidates
// in the order the Calendar presents them.
func FirstNameSelector(names []string) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrBadSelect)
	}

	return names[0], nil
}

// DefaultEpsilon is the default tolerance used to consider two Event
// times concurrent.
const DefaultEpsilon VTime = 1e-3

// Infinity is the kernel's representation of "no future autonomous
// event" for a time-advance function: IEEE-754 positive infinity.
var Infinity VTime = math.Inf(1)

// A Calendar is a min-heap of Events ordered by time. It owns all pending
// Events, knows the current logical time, the end time, and the epsilon
// tolerance used to group concurrent Events into one firing round.
//
// Calendar is not safe for concurrent use from multiple goroutines; the
// kernel's execution model is single-threaded and cooperative, so no
// internal locking is used.
type Calendar struct {
	*HookableBase

	heap    eventHeap
	time    VTime
	endTime VTime
	epsilon VTime
}

// NewCalendar creates a Calendar starting at startTime, running until
// endTime, treating Events within epsilon of each other as concurrent.
func NewCalendar(startTime, endTime, epsilon VTime) *Calendar {
	c := &Calendar{
		HookableBase: NewHookableBase(),
		time:         startTime,
		endTime:      endTime,
		epsilon:      epsilon,
	}
	heap.Init(&c.heap)

	return c
}

// Time returns the Calendar's current logical time.
func (c *Calendar) Time() VTime { return c.time }

// EndTime returns the Calendar's configured end time.
func (c *Calendar) EndTime() VTime { return c.endTime }

// Epsilon returns the Calendar's concurrency tolerance.
func (c *Calendar) Epsilon() VTime { return c.epsilon }

// Len returns the number of Events currently held by the Calendar,
// including ones that have been cancelled but not yet surfaced.
func (c *Calendar) Len() int { return c.heap.Len() }

// Schedule accepts e into the Calendar. It fails with ErrPastSchedule
// when e.Time() is strictly less than the Calendar's current time.
func (c *Calendar) Schedule(e Event) error {
	if e.Time() < c.time {
		return fmt.Errorf(
			"%w: %s %q at %v, now %v",
			ErrPastSchedule, e.Model(), e.Description(), e.Time(), c.time,
		)
	}

	heap.Push(&c.heap, e)

	c.InvokeHook(HookCtx{
		Domain: c,
		Pos:    HookPosEventScheduled,
		Item:   e,
	})

	return nil
}

// AdvanceAndFire runs one logical tick of the Calendar: it drops any
// cancelled Events from the top, advances time to the next live Event
// (or to EndTime if none remains before it), and fires every Event whose
// time falls within Epsilon of that time, using selectFn to break ties
// and dynamically absorbing zero-delay successors scheduled during
// firing into the same round. It returns false once no more live Events
// exist and the Calendar has reached EndTime.
func (c *Calendar) AdvanceAndFire(selectFn SelectFunc) (bool, error) {
	c.dropCancelledTop()

	if c.heap.Len() == 0 {
		c.advanceTime(c.endTime)
		return false, nil
	}

	t := c.heap[0].Time()
	if t > c.endTime {
		c.advanceTime(c.endTime)
		return false, nil
	}

	c.advanceTime(t)

	group := c.extractConcurrentGroup(t)

	for len(group) > 0 {
		idx, err := c.pickFromGroup(group, selectFn)
		if err != nil {
			return false, err
		}

		chosen := group[idx]
		group = append(group[:idx], group[idx+1:]...)

		if !chosen.IsCancelled() {
			c.InvokeHook(HookCtx{
				Domain: c,
				Pos:    HookPosEventAboutToFire,
				Item:   chosen,
			})

			if err := chosen.Fire(); err != nil {
				return false, err
			}

			group = c.absorbZeroDelaySuccessors(group, t)
		}
	}

	return true, nil
}

func (c *Calendar) dropCancelledTop() {
	for c.heap.Len() > 0 && c.heap[0].IsCancelled() {
		heap.Pop(&c.heap)
	}
}

func (c *Calendar) advanceTime(t VTime) {
	prev := c.time
	if math.Abs(t-prev) > c.epsilon {
		c.InvokeHook(HookCtx{
			Domain: c,
			Pos:    HookPosTimeAdvanced,
			Item:   t,
			Detail: prev,
		})
	}

	c.time = t
}

// extractConcurrentGroup pops the top Event (already known to be at time
// t) and every subsequent live-or-cancelled Event within epsilon of t.
func (c *Calendar) extractConcurrentGroup(t VTime) []Event {
	group := make([]Event, 0, 1)
	group = append(group, heap.Pop(&c.heap).(Event))

	for c.heap.Len() > 0 && math.Abs(c.heap[0].Time()-t) <= c.epsilon {
		group = append(group, heap.Pop(&c.heap).(Event))
	}

	return group
}

// absorbZeroDelaySuccessors moves any Event newly scheduled within
// epsilon of t from the heap into the in-progress concurrent group, so
// that zero-delay chains converge within a single tick.
func (c *Calendar) absorbZeroDelaySuccessors(group []Event, t VTime) []Event {
	for c.heap.Len() > 0 && math.Abs(c.heap[0].Time()-t) <= c.epsilon {
		group = append(group, heap.Pop(&c.heap).(Event))
	}

	return group
}

func (c *Calendar) pickFromGroup(group []Event, selectFn SelectFunc) (int, error) {
	if len(group) == 1 {
		return 0, nil
	}

	names := make([]string, len(group))
	for i, e := range group {
		names[i] = e.Model()
	}

	if selectFn == nil {
		selectFn = FirstNameSelector
	}

	chosen, err := selectFn(names)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadSelect, err)
	}

	for i, name := range names {
		if name == chosen {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: %q not among %v", ErrBadSelect, chosen, names)
}

// eventHeap is a container/heap.Interface over Events ordered by time.
type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool { return h[i].Time() < h[j].Time() }

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]

	return e
}
