// Package wayland connects the layout client to the compositor: it owns the
// socket, feeds registry events to the client, runs the discovery barrier and
// the dispatch loop, and tears everything down again.
package wayland

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/waytile/internal/logger"
	"github.com/bnema/waytile/internal/options"
	"github.com/bnema/waytile/internal/protocols"
	"github.com/bnema/waytile/internal/registry"
	"github.com/bnema/waytile/internal/session"
	"github.com/bnema/wlturbo/wl"
)

var (
	// ErrNoDisplay is returned when no socket name is configured. Unlike
	// libwayland there is no fallback to wayland-0.
	ErrNoDisplay = errors.New("WAYLAND_DISPLAY is not set")

	// ErrConnectionLost wraps dispatch failures.
	ErrConnectionLost = errors.New("wayland connection lost")
)

// wl_registry.global_remove
const registryGlobalRemove = 1

// stopTimeout bounds how long an interrupt waits for the compositor to wake
// the dispatch goroutine.
var stopTimeout = 2 * time.Second

// SocketName resolves the compositor socket from override or the
// environment.
func SocketName(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if name := os.Getenv("WAYLAND_DISPLAY"); name != "" {
		return name, nil
	}
	return "", ErrNoDisplay
}

// GlobalHandler receives registry events.
type GlobalHandler interface {
	HandleGlobal(name uint32, iface string, version uint32)
	HandleGlobalRemove(name uint32)
}

// Driver owns the Wayland connection.
type Driver struct {
	display  *wl.Display
	registry *wl.Registry
	context  *wl.Context
	handler  GlobalHandler

	// Published by the dispatch goroutine after every event batch
	status atomic.Pointer[registry.Status]

	// Checked by the dispatch goroutine between batches
	stopping atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

// Connect opens the compositor socket.
func Connect(socket string) (*Driver, error) {
	name, err := SocketName(socket)
	if err != nil {
		return nil, err
	}

	display, err := wl.Connect(name)
	if err != nil {
		return nil, fmt.Errorf("can not connect to Wayland server: %w", err)
	}
	logger.Debug("Connected to compositor", "socket", name)

	return &Driver{
		display:  display,
		registry: display.GetRegistry(),
		context:  display.Context(),
	}, nil
}

// Status returns the latest client snapshot. Safe for concurrent use.
func (d *Driver) Status() registry.Status {
	if st := d.status.Load(); st != nil {
		return *st
	}
	return registry.Status{}
}

func (d *Driver) publish(c *registry.Client) {
	st := c.Status()
	d.status.Store(&st)
}

// Binder returns a registry.Binder bound to this connection.
func (d *Driver) Binder() registry.Binder {
	return &binder{registry: d.registry, context: d.context}
}

// HandleRegistryGlobal implements wl.RegistryGlobalHandler
func (d *Driver) HandleRegistryGlobal(event wl.RegistryGlobalEvent) {
	logger.Debug("Global announced", "interface", event.Interface, "version", event.Version, "name", event.Name)
	if d.handler != nil {
		d.handler.HandleGlobal(event.Name, event.Interface, event.Version)
	}
}

// handleGlobalRemove decodes wl_registry.global_remove. The registry's own
// remove handler hook is never called by the transport.
func (d *Driver) handleGlobalRemove(data []byte) {
	if len(data) < 4 {
		logger.Warn("Short global_remove event", "len", len(data))
		return
	}
	name := binary.LittleEndian.Uint32(data)
	logger.Debug("Global removed", "name", name)
	if d.handler != nil {
		d.handler.HandleGlobalRemove(name)
	}
}

// Run performs discovery and dispatches events until the client stops, the
// connection fails, or ctx is cancelled. Shutdown of the client always runs
// before Run returns, on the still open connection. Cancellation counts as
// an intentional shutdown and returns nil. Closing the connection is left to
// the caller.
func (d *Driver) Run(ctx context.Context, c *registry.Client) error {
	d.handler = c
	d.registry.AddGlobalHandler(d)
	d.display.AddListener(d.registry.ID(), registryGlobalRemove, d.handleGlobalRemove)

	// Every global advertised so far has been handled once this returns
	if err := d.display.Roundtrip(); err != nil {
		c.Stop(fmt.Errorf("%w: initial roundtrip: %v", ErrConnectionLost, err))
		c.Shutdown()
		return c.Err()
	}
	c.Sync()
	if !c.Running() {
		c.Shutdown()
		d.publish(c)
		return c.Err()
	}
	d.publish(c)

	done := make(chan error, 1)
	go func() {
		for c.Running() && !d.stopping.Load() {
			if err := d.display.Dispatch(); err != nil {
				done <- err
				return
			}
			d.publish(c)
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			c.Stop(fmt.Errorf("%w: %v", ErrConnectionLost, err))
		}
		c.Shutdown()
		d.publish(c)
		return c.Err()

	case <-ctx.Done():
		logger.Info("Shutting down")
		if err := d.wake(); err != nil {
			logger.Debug("Failed to wake dispatch", "err", err)
		}

		select {
		case err := <-done:
			if err != nil {
				logger.Debug("Dispatch ended during shutdown", "err", err)
			}
		case <-time.After(stopTimeout):
			// The dispatch goroutine still owns the client state
			logger.Warn("Compositor did not answer, skipping teardown", "timeout", stopTimeout)
			return nil
		}

		c.Shutdown()
		d.publish(c)
		return nil
	}
}

// wake flags the dispatch goroutine to stop and asks the compositor for a
// callback, so the blocked read returns and the flag is seen.
func (d *Driver) wake() error {
	d.stopping.Store(true)
	_, err := d.display.Sync()
	return err
}

// Close closes the connection. Later calls return the first result.
func (d *Driver) Close() error {
	d.closeOnce.Do(func() {
		if d.context != nil {
			d.closeErr = d.context.Close()
		}
	})
	return d.closeErr
}

type binder struct {
	registry *wl.Registry
	context  *wl.Context
}

func (b *binder) BindLayoutManager(name, version uint32) (session.LayoutManager, error) {
	m := protocols.NewLayoutManager(b.context)
	if err := b.registry.Bind(name, protocols.LayoutManagerInterface, version, m); err != nil {
		return nil, err
	}
	return &layoutManager{manager: m}, nil
}

func (b *binder) BindOptionsManager(name, version uint32) (session.OptionsManager, error) {
	m := protocols.NewOptionsManager(b.context)
	if err := b.registry.Bind(name, protocols.OptionsManagerInterface, version, m); err != nil {
		return nil, err
	}
	return &optionsManager{manager: m}, nil
}

func (b *binder) BindOutput(name, version uint32) (session.Output, error) {
	o := protocols.NewOutput(b.context, version)
	if err := b.registry.Bind(name, protocols.OutputInterface, version, o); err != nil {
		return nil, err
	}
	return o, nil
}

type layoutManager struct {
	manager *protocols.LayoutManager
}

func (m *layoutManager) GetLayout(output session.Output, namespace string, events session.LayoutEvents) (session.LayoutChannel, error) {
	o, ok := output.(*protocols.Output)
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", output)
	}
	layout, err := m.manager.GetLayout(o, namespace, events)
	if err != nil {
		return nil, err
	}
	return layout, nil
}

func (m *layoutManager) Destroy() error {
	return m.manager.Destroy()
}

type optionsManager struct {
	manager *protocols.OptionsManager
}

func (m *optionsManager) GetOptionHandle(key string, output session.Output, events session.OptionEvents) (options.Handle, error) {
	o, ok := output.(*protocols.Output)
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", output)
	}
	handle, err := m.manager.GetOptionHandle(key, o, events)
	if err != nil {
		return nil, err
	}
	return handle, nil
}

func (m *optionsManager) Destroy() error {
	return m.manager.Destroy()
}
