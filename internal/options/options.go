// Package options mirrors compositor-owned option values locally.
//
// Each Option has a fixed kind. The compositor may report a value of any type
// for the option's key; only values matching the kind are applied, the rest
// are dropped without error.
package options

import (
	"fmt"

	"github.com/bnema/waytile/internal/logger"
)

// Option keys requested for every output.
const (
	MainAmount   = "main_amount"
	MainFactor   = "main_factor"
	ViewPadding  = "view_padding"
	OuterPadding = "outer_padding"
)

// Kind is the value type an option accepts.
type Kind int

const (
	KindUint Kind = iota
	KindFixed
)

func (k Kind) String() string {
	switch k {
	case KindUint:
		return "uint"
	case KindFixed:
		return "fixed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a tagged option value.
type Value struct {
	kind  Kind
	u     uint32
	fixed float64
}

// Uint returns an unsigned integer value.
func Uint(v uint32) Value {
	return Value{kind: KindUint, u: v}
}

// Fixed returns a fractional value.
func Fixed(v float64) Value {
	return Value{kind: KindFixed, fixed: v}
}

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// Uint returns the payload of a KindUint value, zero otherwise.
func (v Value) Uint() uint32 {
	if v.kind != KindUint {
		return 0
	}
	return v.u
}

// Fixed returns the payload of a KindFixed value, zero otherwise.
func (v Value) Fixed() float64 {
	if v.kind != KindFixed {
		return 0
	}
	return v.fixed
}

func (v Value) String() string {
	switch v.kind {
	case KindUint:
		return fmt.Sprintf("%d", v.u)
	case KindFixed:
		return fmt.Sprintf("%g", v.fixed)
	default:
		return "<invalid>"
	}
}

// Handle is the live binding of an option on the compositor side.
type Handle interface {
	SetUintValue(v uint32) error
	SetFixedValue(v float64) error
	Destroy() error
}

// Owner is notified when an option changes.
type Owner interface {
	// ParametersChanged is called after every applied value event.
	ParametersChanged()
	// OptionFailed reports a request that could not be sent.
	OptionFailed(name string, err error)
}

// Option is the local mirror of one compositor option.
type Option struct {
	name   string
	def    Value
	value  Value
	handle Handle
	owner  Owner
}

// New creates an option holding def until the compositor reports a value.
func New(name string, def Value) *Option {
	return &Option{name: name, def: def, value: def}
}

// Name returns the option key.
func (o *Option) Name() string { return o.name }

// Kind returns the kind fixed at creation.
func (o *Option) Kind() Kind { return o.def.kind }

// Default returns the value asserted on unset.
func (o *Option) Default() Value { return o.def }

// Value returns the current mirrored value.
func (o *Option) Value() Value { return o.value }

// Bound reports whether a compositor handle is attached.
func (o *Option) Bound() bool { return o.handle != nil }

// Attach binds the option to its compositor handle and owner.
func (o *Option) Attach(h Handle, owner Owner) {
	o.handle = h
	o.owner = owner
}

// Release destroys the compositor handle, if any.
func (o *Option) Release() error {
	if o.handle == nil {
		return nil
	}
	h := o.handle
	o.handle = nil
	o.owner = nil
	return h.Destroy()
}

// HandleUnset re-asserts the default as the authoritative value.
func (o *Option) HandleUnset() {
	o.value = o.def
	if o.handle == nil {
		return
	}

	var err error
	switch o.def.kind {
	case KindUint:
		err = o.handle.SetUintValue(o.def.u)
	case KindFixed:
		err = o.handle.SetFixedValue(o.def.fixed)
	}
	logger.Debug("Option unset, asserting default", "option", o.name, "value", o.def)
	if err != nil && o.owner != nil {
		o.owner.OptionFailed(o.name, err)
	}
}

// HandleUintValue applies v if the option is unsigned.
func (o *Option) HandleUintValue(v uint32) {
	o.apply(Uint(v))
}

// HandleFixedValue applies v if the option is fractional.
func (o *Option) HandleFixedValue(v float64) {
	o.apply(Fixed(v))
}

// HandleIntValue is ignored; no option here is a signed integer.
func (o *Option) HandleIntValue(int32) {
	logger.Debug("Ignoring int value", "option", o.name)
}

// HandleStringValue is ignored; no option here is a string.
func (o *Option) HandleStringValue(string) {
	logger.Debug("Ignoring string value", "option", o.name)
}

func (o *Option) apply(v Value) {
	if v.kind != o.def.kind {
		logger.Debug("Ignoring option value of wrong type", "option", o.name, "want", o.def.kind, "got", v.kind)
		return
	}
	o.value = v
	if o.owner != nil {
		o.owner.ParametersChanged()
	}
}
