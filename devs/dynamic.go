package devs

import (
	"fmt"
	"reflect"
)

// A Dynamic is the opaque, typed carrier used for messages that cross
// model boundaries. Components on either side of a boundary may use
// unrelated concrete types; Dynamic lets the kernel move a value between
// them without knowing either type, and performs a checked downcast on
// consumption instead of a silent reinterpretation.
//
// A Dynamic is immutable once wrapped. Transformers produce a new Dynamic
// from an input Dynamic; they never mutate the one they were given.
type Dynamic struct {
	value any
	typ   reflect.Type
}

// Wrap boxes a value of any type T into a Dynamic.
func Wrap[T any](v T) Dynamic {
	return Dynamic{value: v, typ: reflect.TypeOf(v)}
}

// IsZero reports whether d carries no value, as with the zero Dynamic{}.
func (d Dynamic) IsZero() bool {
	return d.typ == nil
}

// TypeName returns the name of the concrete type carried by d, for use in
// log lines and error messages. Returns "<nil>" for the zero Dynamic.
func (d Dynamic) TypeName() string {
	if d.typ == nil {
		return "<nil>"
	}

	return d.typ.String()
}

// Get attempts to downcast d to T. It fails with ErrTypeMismatch, wrapping
// source and target names, when d does not carry a T.
func Get[T any](d Dynamic, sourceName, targetName string) (T, error) {
	v, ok := d.value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf(
			"%w: %s -> %s: expected %s, got %s",
			ErrTypeMismatch, sourceName, targetName,
			reflect.TypeOf(zero), d.TypeName(),
		)
	}

	return v, nil
}

// Clone returns an independently owned copy of d. Because the boxed value
// is carried by interface value (never by pointer contract within the
// kernel), copying the Dynamic struct already yields independent
// ownership of the wrapper; Clone exists so call sites that move a
// Dynamic across a boundary can do so without reasoning about whether the
// original will be reused afterwards.
func (d Dynamic) Clone() Dynamic {
	return Dynamic{value: d.value, typ: d.typ}
}

// A Transformer adapts an output Dynamic to the shape a target input
// expects. Most transformers either pass the value through unchanged or
// re-wrap a field extracted from it.
type Transformer func(Dynamic) Dynamic
