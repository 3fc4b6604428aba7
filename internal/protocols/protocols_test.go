package protocols

import (
	"testing"

	"github.com/bnema/wlturbo/wl"
)

// Test interface names match the protocol XML
func TestInterfaceNames(t *testing.T) {
	names := map[string]string{
		LayoutManagerInterface:  "zriver_layout_manager_v1",
		LayoutInterface:         "zriver_layout_v1",
		OptionsManagerInterface: "zriver_options_manager_v1",
		OptionHandleInterface:   "zriver_option_handle_v1",
		OutputInterface:         "wl_output",
	}
	for got, want := range names {
		if got != want {
			t.Errorf("Expected interface name %q, got %q", want, got)
		}
	}
}

// Test fixed-point conversion
func TestFixedToFloat(t *testing.T) {
	tests := []struct {
		raw  int32
		want float64
	}{
		{raw: 0, want: 0},
		{raw: 256, want: 1},
		{raw: 128, want: 0.5},
		{raw: -384, want: -1.5},
		{raw: 154, want: 154.0 / 256.0},
	}

	for _, tt := range tests {
		if got := FixedToFloat(tt.raw); got != tt.want {
			t.Errorf("FixedToFloat(%d) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

type recordingOptionHandler struct {
	unset int
}

func (r *recordingOptionHandler) HandleUnset() { r.unset++ }
func (r *recordingOptionHandler) HandleIntValue(int32) {}
func (r *recordingOptionHandler) HandleUintValue(uint32) {}
func (r *recordingOptionHandler) HandleFixedValue(float64) {}
func (r *recordingOptionHandler) HandleStringValue(string) {}

// Test unset is routed to the handler
func TestOptionHandleDispatchUnset(t *testing.T) {
	handler := &recordingOptionHandler{}
	handle := &OptionHandle{handler: handler}

	handle.Dispatch(&wl.Event{Opcode: 0})

	if handler.unset != 1 {
		t.Errorf("Expected 1 unset event, got %d", handler.unset)
	}
}

type recordingLayoutHandler struct {
	conflicts int
}

func (r *recordingLayoutHandler) HandleNamespaceInUse() { r.conflicts++ }
func (r *recordingLayoutHandler) HandleLayoutDemand(_, _, _, _ uint32) {}
func (r *recordingLayoutHandler) HandleAdvertiseView(uint32, string, uint32) {}
func (r *recordingLayoutHandler) HandleAdvertiseDone(uint32) {}

// Test namespace_in_use is routed to the handler
func TestLayoutDispatchNamespaceInUse(t *testing.T) {
	handler := &recordingLayoutHandler{}
	layout := &Layout{handler: handler}

	layout.Dispatch(&wl.Event{Opcode: 0})

	if handler.conflicts != 1 {
		t.Errorf("Expected 1 namespace_in_use event, got %d", handler.conflicts)
	}
}

// Test proxies without a handler drop events
func TestDispatchWithoutHandler(t *testing.T) {
	(&Layout{}).Dispatch(&wl.Event{Opcode: 1})
	(&OptionHandle{}).Dispatch(&wl.Event{Opcode: 2})
}

// Test output name placeholder before the name event
func TestOutputNamePlaceholder(t *testing.T) {
	output := &Output{version: 4}
	if output.Name() != "wl_output@0" {
		t.Errorf("Expected placeholder name, got %q", output.Name())
	}

	output.name = "DP-1"
	if output.Name() != "DP-1" {
		t.Errorf("Expected DP-1, got %q", output.Name())
	}
	if output.Version() != 4 {
		t.Errorf("Expected version 4, got %d", output.Version())
	}
}
