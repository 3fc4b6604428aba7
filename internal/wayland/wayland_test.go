package wayland

import (
	"testing"

	"github.com/bnema/waytile/internal/options"
	"github.com/bnema/waytile/internal/protocols"
	"github.com/bnema/waytile/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocketName(t *testing.T) {
	t.Run("override wins", func(t *testing.T) {
		t.Setenv("WAYLAND_DISPLAY", "wayland-1")
		name, err := SocketName("wayland-9")
		require.NoError(t, err)
		assert.Equal(t, "wayland-9", name)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("WAYLAND_DISPLAY", "wayland-1")
		name, err := SocketName("")
		require.NoError(t, err)
		assert.Equal(t, "wayland-1", name)
	})

	t.Run("no fallback", func(t *testing.T) {
		t.Setenv("WAYLAND_DISPLAY", "")
		_, err := SocketName("")
		assert.ErrorIs(t, err, ErrNoDisplay)
	})
}

func TestConnectWithoutDisplay(t *testing.T) {
	t.Setenv("WAYLAND_DISPLAY", "")
	_, err := Connect("")
	assert.ErrorIs(t, err, ErrNoDisplay)

	_, err = Probe("")
	assert.ErrorIs(t, err, ErrNoDisplay)
}

type foreignOutput struct{}

func (foreignOutput) Name() string { return "fake" }
func (foreignOutput) Release() error { return nil }

type nopEvents struct{}

func (nopEvents) HandleNamespaceInUse() {}
func (nopEvents) HandleLayoutDemand(_, _, _, _ uint32) {}
func (nopEvents) HandleAdvertiseView(uint32, string, uint32) {}
func (nopEvents) HandleAdvertiseDone(uint32) {}
func (nopEvents) HandleUnset() {}
func (nopEvents) HandleIntValue(int32) {}
func (nopEvents) HandleUintValue(uint32) {}
func (nopEvents) HandleFixedValue(float64) {}
func (nopEvents) HandleStringValue(string) {}

func TestAdaptersRejectForeignOutputs(t *testing.T) {
	var lm session.LayoutManager = &layoutManager{manager: &protocols.LayoutManager{}}
	channel, err := lm.GetLayout(foreignOutput{}, "tile", nopEvents{})
	require.Error(t, err)
	assert.Nil(t, channel)

	var om session.OptionsManager = &optionsManager{manager: &protocols.OptionsManager{}}
	handle, err := om.GetOptionHandle(options.MainAmount, foreignOutput{}, nopEvents{})
	require.Error(t, err)
	assert.Nil(t, handle)
}

func TestReport(t *testing.T) {
	report := &Report{Globals: []Global{
		{Name: 1, Interface: "wl_compositor", Version: 6},
		{Name: 2, Interface: protocols.OutputInterface, Version: 4},
		{Name: 3, Interface: protocols.OutputInterface, Version: 4},
		{Name: 4, Interface: protocols.LayoutManagerInterface, Version: 2},
	}}

	assert.True(t, report.Has(protocols.LayoutManagerInterface))
	assert.False(t, report.Has(protocols.OptionsManagerInterface))
	assert.Equal(t, 2, report.Count(protocols.OutputInterface))
	assert.Equal(t, []string{protocols.OptionsManagerInterface}, report.Missing())

	report.Globals = append(report.Globals, Global{Name: 5, Interface: protocols.OptionsManagerInterface, Version: 1})
	assert.Empty(t, report.Missing())
}
