package wayland

import (
	"fmt"
	"sort"

	"github.com/bnema/waytile/internal/logger"
	"github.com/bnema/waytile/internal/protocols"
	"github.com/rajveermalviya/go-wayland/wayland/client"
)

// Global is one advertised registry entry.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// Report is the result of a probe.
type Report struct {
	Socket  string
	Globals []Global
}

// Has reports whether iface is advertised.
func (r *Report) Has(iface string) bool {
	for _, g := range r.Globals {
		if g.Interface == iface {
			return true
		}
	}
	return false
}

// Count returns how many globals advertise iface.
func (r *Report) Count(iface string) int {
	n := 0
	for _, g := range r.Globals {
		if g.Interface == iface {
			n++
		}
	}
	return n
}

// Missing lists the river capabilities the compositor does not advertise.
func (r *Report) Missing() []string {
	var missing []string
	for _, iface := range []string{protocols.LayoutManagerInterface, protocols.OptionsManagerInterface} {
		if !r.Has(iface) {
			missing = append(missing, iface)
		}
	}
	return missing
}

// Probe lists the compositor's globals without binding any of them.
func Probe(socket string) (*Report, error) {
	name, err := SocketName(socket)
	if err != nil {
		return nil, err
	}

	display, err := client.Connect(name)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Wayland display: %w", err)
	}
	defer func() {
		if err := display.Context().Close(); err != nil {
			logger.Debugf("Failed to close probe connection: %v", err)
		}
	}()

	registry, err := display.GetRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to get registry: %w", err)
	}

	report := &Report{Socket: name}
	registry.SetGlobalHandler(func(e client.RegistryGlobalEvent) {
		report.Globals = append(report.Globals, Global{
			Name:      e.Name,
			Interface: e.Interface,
			Version:   e.Version,
		})
	})

	callback, err := display.Sync()
	if err != nil {
		return nil, fmt.Errorf("failed to sync display: %w", err)
	}
	done := false
	callback.SetDoneHandler(func(client.CallbackDoneEvent) {
		done = true
	})
	for !done {
		if err := display.Context().Dispatch(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnectionLost, err)
		}
	}

	sort.Slice(report.Globals, func(i, j int) bool {
		return report.Globals[i].Name < report.Globals[j].Name
	})
	return report, nil
}
