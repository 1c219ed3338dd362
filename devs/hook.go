package devs

// A HookPos names a site at which a Hookable object invokes its
// registered Hooks.
type HookPos struct {
	Name string
}

// HookPosTimeAdvanced marks the Calendar advancing its current time.
var HookPosTimeAdvanced = &HookPos{Name: "TimeAdvanced"}

// HookPosEventScheduled marks an Event being accepted into the Calendar.
var HookPosEventScheduled = &HookPos{Name: "EventScheduled"}

// HookPosEventAboutToFire marks an Event about to be fired.
var HookPosEventAboutToFire = &HookPos{Name: "EventAboutToFire"}

// HookPosStateTransition marks a model's state changing.
var HookPosStateTransition = &HookPos{Name: "StateTransition"}

// HookPosSimStart marks the driver invoking its start listeners.
var HookPosSimStart = &HookPos{Name: "SimStart"}

// HookPosSimStep marks the driver completing one advance_and_fire step.
var HookPosSimStep = &HookPos{Name: "SimStep"}

// HookPosSimEnd marks the driver invoking its end listeners.
var HookPosSimEnd = &HookPos{Name: "SimEnd"}

// HookCtx carries the information describing a single hook invocation.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   any
	Detail any
}

// Hookable is implemented by any object that accepts Hooks.
type Hookable interface {
	AcceptHook(hook Hook)
}

// A Hook is invoked synchronously by a Hookable at each of its HookPos
// sites. Hooks added while a delivery is in progress observe only
// subsequent events: HookableBase appends to its list without
// snapshotting, but InvokeHook iterates the slice it reads at call time,
// so a Hook registered mid-callback is not retroactively invoked for the
// callback that registered it.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func implements Hook.
func (f HookFunc) Func(ctx HookCtx) { f(ctx) }

// HookableBase provides the append-only, synchronously-invoked hook list
// shared by the Calendar, models and the driver.
type HookableBase struct {
	hooks []Hook
}

// NewHookableBase creates an empty HookableBase.
func NewHookableBase() *HookableBase {
	return &HookableBase{}
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

// InvokeHook synchronously runs every currently-registered hook with ctx.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	hooks := h.hooks
	for _, hook := range hooks {
		hook.Func(ctx)
	}
}

// NumHooks returns the number of hooks currently registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}
