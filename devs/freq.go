package devs

import "math"

// Freq is a clock frequency, used to align an atomic model's TimeAdvance
// results to a fixed tick grid. It has no effect on the kernel's own
// scheduling: a concrete atomic model's TimeAdvance function may ignore
// it entirely and return arbitrary non-negative delays.
type Freq float64

// Common frequency units.
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// Period returns the time between two consecutive ticks of f.
func (f Freq) Period() VTime {
	if f == 0 {
		panic("devs: frequency cannot be 0")
	}

	return 1.0 / float64(f)
}

// Cycle converts a time to the number of cycles passed since time 0.
func (f Freq) Cycle(now VTime) uint64 {
	return uint64(math.Round(now * float64(f)))
}

// ThisTick returns the tick time at now, rounding up to the next tick
// when now is off the grid.
func (f Freq) ThisTick(now VTime) VTime {
	count := math.Ceil(math.Round(now*10*float64(f)) / 10)
	return count / float64(f)
}

// NextTick returns the tick time immediately after now.
func (f Freq) NextTick(now VTime) VTime {
	count := math.Floor(math.Round(now*10*float64(f)) / 10)
	return (count + 1) / float64(f)
}

// NCyclesLater returns the tick-aligned time n cycles after now.
func (f Freq) NCyclesLater(n int, now VTime) VTime {
	return f.ThisTick(now + float64(n)/float64(f))
}

// NoEarlierThan returns the tick time at or right after t.
func (f Freq) NoEarlierThan(t VTime) VTime {
	count := t / f.Period()
	return math.Ceil(count) * f.Period()
}
