package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Protocol interface names for river-options-unstable-v1
const (
	OptionsManagerInterface = "zriver_options_manager_v1"
	OptionHandleInterface   = "zriver_option_handle_v1"
)

// OptionsManager hands out option handles
type OptionsManager struct {
	wl.BaseProxy
}

// NewOptionsManager creates a new options manager
func NewOptionsManager(ctx *wl.Context) *OptionsManager {
	manager := &OptionsManager{}
	manager.SetContext(ctx)
	return manager
}

// GetOptionHandle requests a handle for key scoped to output. A nil output
// selects the global value.
func (m *OptionsManager) GetOptionHandle(key string, output *Output, handler OptionHandler) (*OptionHandle, error) {
	handle := NewOptionHandle(m.Context(), handler)

	// Opcode 1: get_option_handle
	const opcode = 1

	var outputProxy wl.Proxy
	if output != nil {
		outputProxy = output
	}

	err := m.Context().SendRequest(m, opcode, key, outputProxy, handle)
	if err != nil {
		m.Context().Unregister(handle)
		return nil, err
	}

	return handle, nil
}

// Destroy destroys the options manager
func (m *OptionsManager) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := m.Context().SendRequest(m, opcode)
	m.Context().Unregister(m)
	return err
}

// Dispatch handles incoming events (options manager has no events)
func (m *OptionsManager) Dispatch(_ *wl.Event) {}

// OptionHandler handles option value events
type OptionHandler interface {
	HandleUnset()
	HandleIntValue(v int32)
	HandleUintValue(v uint32)
	HandleFixedValue(v float64)
	HandleStringValue(v string)
}

// OptionHandle is a live binding to one option value
type OptionHandle struct {
	wl.BaseProxy
	handler OptionHandler
}

// NewOptionHandle allocates and registers an option handle
func NewOptionHandle(ctx *wl.Context, handler OptionHandler) *OptionHandle {
	handle := &OptionHandle{handler: handler}
	handle.SetContext(ctx)
	handle.SetID(ctx.AllocateID())
	ctx.Register(handle)
	return handle
}

// SetIntValue sets a signed value
func (h *OptionHandle) SetIntValue(v int32) error {
	// Opcode 1: set_int_value
	const opcode = 1
	return h.Context().SendRequest(h, opcode, v)
}

// SetUintValue sets an unsigned value
func (h *OptionHandle) SetUintValue(v uint32) error {
	// Opcode 2: set_uint_value
	const opcode = 2
	return h.Context().SendRequest(h, opcode, v)
}

// SetFixedValue sets a fixed-point value
func (h *OptionHandle) SetFixedValue(v float64) error {
	// Opcode 3: set_fixed_value
	const opcode = 3
	return h.Context().SendRequest(h, opcode, wl.NewFixed(v))
}

// SetStringValue sets a string value
func (h *OptionHandle) SetStringValue(v string) error {
	// Opcode 4: set_string_value
	const opcode = 4
	return h.Context().SendRequest(h, opcode, v)
}

// Destroy destroys the option handle
func (h *OptionHandle) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := h.Context().SendRequest(h, opcode)
	h.Context().Unregister(h)
	return err
}

// Dispatch handles incoming events
func (h *OptionHandle) Dispatch(event *wl.Event) {
	if h.handler == nil {
		return
	}

	switch event.Opcode {
	case 0: // unset
		h.handler.HandleUnset()
	case 1: // int_value
		h.handler.HandleIntValue(event.Int32())
	case 2: // uint_value
		h.handler.HandleUintValue(event.Uint32())
	case 3: // fixed_value
		h.handler.HandleFixedValue(FixedToFloat(event.Int32()))
	case 4: // string_value
		h.handler.HandleStringValue(event.String())
	}
}

// FixedToFloat converts a 24.8 wire value to float64
func FixedToFloat(raw int32) float64 {
	return wl.Fixed(raw).Float64()
}
