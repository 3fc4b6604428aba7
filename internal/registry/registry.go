// Package registry discovers the compositor globals the layout client needs,
// binds them, and owns the set of output sessions and the process run state.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bnema/waytile/internal/layout"
	"github.com/bnema/waytile/internal/logger"
	"github.com/bnema/waytile/internal/session"
)

// Interface names the client binds.
const (
	LayoutManagerInterface  = "zriver_layout_manager_v1"
	OptionsManagerInterface = "zriver_options_manager_v1"
	OutputInterface         = "wl_output"
)

var (
	ErrLayoutUnsupported   = errors.New("compositor does not support river-layout-unstable-v1")
	ErrOptionsUnsupported  = errors.New("compositor does not support river-options-unstable-v1")
	ErrCapabilityWithdrawn = errors.New("compositor withdrew a required global")
)

// ConflictPolicy selects the reaction to a namespace conflict.
type ConflictPolicy string

const (
	// ConflictExit stops the whole client.
	ConflictExit ConflictPolicy = "exit"
	// ConflictDrop destroys only the affected output session.
	ConflictDrop ConflictPolicy = "drop"
)

// Binder binds advertised globals.
type Binder interface {
	BindLayoutManager(name, version uint32) (session.LayoutManager, error)
	BindOptionsManager(name, version uint32) (session.OptionsManager, error)
	BindOutput(name, version uint32) (session.Output, error)
}

// Settings tune the client.
type Settings struct {
	Namespace string
	Conflict  ConflictPolicy
	Defaults  layout.Params
}

// Client is the process-wide layout client state. All methods must be called
// from the goroutine that dispatches Wayland events.
type Client struct {
	binder   Binder
	settings Settings

	layoutManager  session.LayoutManager
	layoutName     uint32
	optionsManager session.OptionsManager
	optionsName    uint32

	sessions map[uint32]*session.Session

	synced  bool
	running bool
	err     error
	closed  bool
}

// New creates a running client.
func New(b Binder, s Settings) *Client {
	if s.Namespace == "" {
		s.Namespace = "tile"
	}
	if s.Conflict == "" {
		s.Conflict = ConflictExit
	}
	return &Client{
		binder:   b,
		settings: s,
		sessions: make(map[uint32]*session.Session),
		running:  true,
	}
}

// Running reports whether the dispatch loop should keep going.
func (c *Client) Running() bool { return c.running }

// Err returns the error that stopped the client, if any.
func (c *Client) Err() error { return c.err }

// Synced reports whether the discovery barrier has completed.
func (c *Client) Synced() bool { return c.synced }

// HasLayoutManager reports whether the layout global is bound.
func (c *Client) HasLayoutManager() bool { return c.layoutManager != nil }

// HasOptionsManager reports whether the options global is bound.
func (c *Client) HasOptionsManager() bool { return c.optionsManager != nil }

// Stop ends the dispatch loop. The first non-nil error is kept as the exit
// status.
func (c *Client) Stop(err error) {
	if err != nil {
		if c.err == nil {
			c.err = err
		}
		logger.Error("Stopping layout client", "err", err)
	}
	c.running = false
}

// Sessions returns the live sessions ordered by global name.
func (c *Client) Sessions() []*session.Session {
	out := make([]*session.Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Global() < out[j].Global() })
	return out
}

// HandleGlobal reacts to an advertised global.
func (c *Client) HandleGlobal(name uint32, iface string, version uint32) {
	if c.closed {
		return
	}

	switch iface {
	case LayoutManagerInterface:
		if c.layoutManager != nil {
			logger.Warn("Ignoring duplicate global", "interface", iface, "name", name)
			return
		}
		m, err := c.binder.BindLayoutManager(name, 1)
		if err != nil {
			c.Stop(fmt.Errorf("bind %s: %w", iface, err))
			return
		}
		c.layoutManager, c.layoutName = m, name
		logger.Debug("Bound global", "interface", iface, "name", name)

	case OptionsManagerInterface:
		if c.optionsManager != nil {
			logger.Warn("Ignoring duplicate global", "interface", iface, "name", name)
			return
		}
		m, err := c.binder.BindOptionsManager(name, 1)
		if err != nil {
			c.Stop(fmt.Errorf("bind %s: %w", iface, err))
			return
		}
		c.optionsManager, c.optionsName = m, name
		logger.Debug("Bound global", "interface", iface, "name", name)

	case OutputInterface:
		c.addOutput(name, version)
	}
}

func (c *Client) addOutput(name, version uint32) {
	out, err := c.binder.BindOutput(name, min(version, 4))
	if err != nil {
		c.Stop(fmt.Errorf("bind output %d: %w", name, err))
		return
	}

	s := session.New(name, out, c.settings.Defaults, c)
	c.sessions[name] = s
	logger.Debug("Output added", "output", name)

	if c.layoutManager != nil && c.optionsManager != nil {
		c.configure(s)
	}
}

func (c *Client) configure(s *session.Session) {
	if err := s.Configure(c.layoutManager, c.optionsManager, c.settings.Namespace); err != nil {
		c.Stop(fmt.Errorf("configure output %d: %w", s.Global(), err))
	}
}

// HandleGlobalRemove reacts to a withdrawn global.
func (c *Client) HandleGlobalRemove(name uint32) {
	if s, ok := c.sessions[name]; ok {
		logger.Info("Output removed", "output", name)
		c.destroy(s)
		return
	}

	switch {
	case c.layoutManager != nil && name == c.layoutName:
		c.Stop(fmt.Errorf("%s: %w", LayoutManagerInterface, ErrCapabilityWithdrawn))
	case c.optionsManager != nil && name == c.optionsName:
		c.Stop(fmt.Errorf("%s: %w", OptionsManagerInterface, ErrCapabilityWithdrawn))
	}
}

// Sync runs once every global advertised before the barrier was handled. It
// checks the required globals and configures outputs that showed up before
// them.
func (c *Client) Sync() {
	c.synced = true

	if c.layoutManager == nil {
		c.Stop(ErrLayoutUnsupported)
		return
	}
	if c.optionsManager == nil {
		c.Stop(ErrOptionsUnsupported)
		return
	}

	for _, s := range c.Sessions() {
		if !s.Configured() {
			c.configure(s)
			if !c.running {
				return
			}
		}
	}
	logger.Info("Layout client ready", "namespace", c.settings.Namespace, "outputs", len(c.sessions))
}

// NamespaceInUse applies the conflict policy for s.
func (c *Client) NamespaceInUse(s *session.Session) {
	if c.settings.Conflict == ConflictDrop {
		logger.Warn("Namespace in use, dropping output", "output", s.Global(), "namespace", c.settings.Namespace)
		c.destroy(s)
		return
	}
	c.Stop(fmt.Errorf("output %d: %q: %w", s.Global(), c.settings.Namespace, session.ErrNamespaceInUse))
}

func (c *Client) destroy(s *session.Session) {
	if err := s.Destroy(); err != nil {
		logger.Warn("Output teardown incomplete", "output", s.Global(), "err", err)
	}
	delete(c.sessions, s.Global())
}

// Shutdown destroys every session and then the bound globals. It is safe to
// call more than once.
func (c *Client) Shutdown() {
	if c.closed {
		return
	}
	c.closed = true
	c.running = false

	for _, s := range c.sessions {
		c.destroy(s)
	}
	if c.layoutManager != nil {
		if err := c.layoutManager.Destroy(); err != nil {
			logger.Warn("Destroy layout manager", "err", err)
		}
		c.layoutManager = nil
	}
	if c.optionsManager != nil {
		if err := c.optionsManager.Destroy(); err != nil {
			logger.Warn("Destroy options manager", "err", err)
		}
		c.optionsManager = nil
	}
}
