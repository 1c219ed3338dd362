package devs

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// A LogHook is a Hook responsible for recording information from the
// simulation. LogHookBase provides the logger every concrete LogHook
// writes through.
type LogHook interface {
	Hook
}

// LogHookBase carries the logrus entry a LogHook writes its lines
// through.
type LogHookBase struct {
	Log *logrus.Entry
}

// Printer is the kernel's default trace hook: it renders Calendar and
// Model HookCtx events to a logrus entry. It is not on the hot path of
// any invariant the kernel enforces; a caller may use their own Hook
// instead, or none.
type Printer struct {
	LogHookBase

	// Color enables ANSI SGR decoration of the printed lines.
	Color bool
}

// NewPrinter creates a Printer writing through logger. A nil logger uses
// logrus's standard logger.
func NewPrinter(logger *logrus.Logger) *Printer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Printer{LogHookBase: LogHookBase{Log: logrus.NewEntry(logger)}}
}

// WithColor returns a copy of p with ANSI decoration enabled.
func (p Printer) WithColor() *Printer {
	p.Color = true
	return &p
}

const (
	sgrReset  = "\x1b[0m"
	sgrDim    = "\x1b[2m"
	sgrGreen  = "\x1b[32m"
	sgrYellow = "\x1b[33m"
	sgrCyan   = "\x1b[36m"
)

func (p *Printer) colorize(code, s string) string {
	if !p.Color {
		return s
	}

	return code + s + sgrReset
}

// Func renders one HookCtx from the Calendar, a Model, or the Simulator.
func (p *Printer) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosTimeAdvanced:
		next, _ := ctx.Item.(VTime)
		prev, _ := ctx.Detail.(VTime)
		p.Log.Info(p.colorize(sgrDim, fmt.Sprintf("time %v -> %v", prev, next)))
	case HookPosEventScheduled:
		evt, _ := ctx.Item.(Event)
		p.Log.Info(p.colorize(sgrCyan, fmt.Sprintf(
			"scheduled %s @ %v (%s)", evt.Model(), evt.Time(), evt.Description())))
	case HookPosEventAboutToFire:
		evt, _ := ctx.Item.(Event)
		p.Log.Info(p.colorize(sgrYellow, fmt.Sprintf(
			"firing %s @ %v (%s)", evt.Model(), evt.Time(), evt.Description())))
	case HookPosStateTransition:
		name, _ := ctx.Item.(string)
		detail, _ := ctx.Detail.([2]string)
		p.Log.Info(p.colorize(sgrGreen, fmt.Sprintf(
			"%s: %s -> %s", name, detail[0], detail[1])))
	case HookPosSimStart:
		p.Log.Info(p.colorize(sgrGreen, fmt.Sprintf("simulation started at %v", ctx.Item)))
	case HookPosSimStep:
		p.Log.Info(fmt.Sprintf("step %v at t=%v", ctx.Detail, ctx.Item))
	case HookPosSimEnd:
		p.Log.Info(p.colorize(sgrGreen, fmt.Sprintf("simulation ended at %v", ctx.Item)))
	}
}

// AttachTo registers p on every Hookable the Simulator exposes: the
// Calendar, the Simulator's own sim-start/step/end hook, and recursively
// every compound and atomic component's state-transition hook. It is a
// convenience for wiring a default trace without threading the printer
// through every constructor.
func (p *Printer) AttachTo(s *Simulator) {
	s.calendar.AcceptHook(p)
	s.AcceptHook(p)
	attachRecursive(p, s.root)
}

func attachRecursive(h Hook, m Model) {
	m.AcceptHook(h)

	for _, c := range m.Components() {
		attachRecursive(h, c)
	}
}
