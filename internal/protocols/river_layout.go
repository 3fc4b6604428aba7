package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Protocol interface names for river-layout-unstable-v1
const (
	LayoutManagerInterface = "zriver_layout_manager_v1"
	LayoutInterface        = "zriver_layout_v1"
)

// Layout error codes
const (
	LayoutErrorCountMismatch    = 0
	LayoutErrorAlreadyCommitted = 1
)

// LayoutManager creates layout objects for outputs
type LayoutManager struct {
	wl.BaseProxy
}

// NewLayoutManager creates a new layout manager
func NewLayoutManager(ctx *wl.Context) *LayoutManager {
	manager := &LayoutManager{}
	manager.SetContext(ctx)
	// Note: Manager ID will be set by Registry.Bind
	return manager
}

// GetLayout requests a layout object for output under namespace
func (m *LayoutManager) GetLayout(output *Output, namespace string, handler LayoutHandler) (*Layout, error) {
	layout := NewLayout(m.Context(), handler)

	// Opcode 1: get_river_layout
	const opcode = 1

	err := m.Context().SendRequest(m, opcode, layout, output, namespace)
	if err != nil {
		m.Context().Unregister(layout)
		return nil, err
	}

	return layout, nil
}

// Destroy destroys the layout manager
func (m *LayoutManager) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := m.Context().SendRequest(m, opcode)
	m.Context().Unregister(m)
	return err
}

// Dispatch handles incoming events (layout manager has no events)
func (m *LayoutManager) Dispatch(_ *wl.Event) {}

// LayoutHandler handles layout events
type LayoutHandler interface {
	HandleNamespaceInUse()
	HandleLayoutDemand(views, width, height, serial uint32)
	HandleAdvertiseView(tags uint32, appID string, serial uint32)
	HandleAdvertiseDone(serial uint32)
}

// Layout is the per-output layout negotiation object
type Layout struct {
	wl.BaseProxy
	handler LayoutHandler
}

// NewLayout allocates and registers a layout object
func NewLayout(ctx *wl.Context, handler LayoutHandler) *Layout {
	layout := &Layout{handler: handler}
	layout.SetContext(ctx)
	layout.SetID(ctx.AllocateID())
	ctx.Register(layout)
	return layout
}

// SetHandler sets the event handler
func (l *Layout) SetHandler(handler LayoutHandler) {
	l.handler = handler
}

// PushViewDimensions proposes the geometry of one view for the demand serial
func (l *Layout) PushViewDimensions(serial uint32, x, y int32, width, height uint32) error {
	// Opcode 1: push_view_dimensions
	const opcode = 1
	return l.Context().SendRequest(l, opcode, serial, x, y, width, height)
}

// Commit ends the list of proposed dimensions for serial
func (l *Layout) Commit(serial uint32) error {
	// Opcode 2: commit
	const opcode = 2
	return l.Context().SendRequest(l, opcode, serial)
}

// ParametersChanged hints that a new layout demand would give a different result
func (l *Layout) ParametersChanged() error {
	// Opcode 3: parameters_changed
	const opcode = 3
	return l.Context().SendRequest(l, opcode)
}

// Destroy destroys the layout object
func (l *Layout) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := l.Context().SendRequest(l, opcode)
	l.Context().Unregister(l)
	return err
}

// Dispatch handles incoming events
func (l *Layout) Dispatch(event *wl.Event) {
	if l.handler == nil {
		return
	}

	switch event.Opcode {
	case 0: // namespace_in_use
		l.handler.HandleNamespaceInUse()
	case 1: // layout_demand
		views := event.Uint32()
		width := event.Uint32()
		height := event.Uint32()
		serial := event.Uint32()
		l.handler.HandleLayoutDemand(views, width, height, serial)
	case 2: // advertise_view
		tags := event.Uint32()
		appID := event.String()
		serial := event.Uint32()
		l.handler.HandleAdvertiseView(tags, appID, serial)
	case 3: // advertise_done
		l.handler.HandleAdvertiseDone(event.Uint32())
	}
}
