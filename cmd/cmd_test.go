package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bnema/waytile/internal/ipc"
	"github.com/bnema/waytile/internal/layout"
	"github.com/bnema/waytile/internal/logger"
	"github.com/bnema/waytile/internal/protocols"
	"github.com/bnema/waytile/internal/registry"
	"github.com/bnema/waytile/internal/wayland"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup isolates config lookup in a temp dir and resets command state left
// over from earlier executions
func setup(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("WAYLAND_DISPLAY", "")
	t.Chdir(tmpDir)

	viper.Reset()
	require.NoError(t, bindRunFlags())
	resetFlags(rootCmd)
	t.Cleanup(func() {
		viper.Reset()
		_ = logger.SetLevel("info")
	})
	return tmpDir
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersion(t *testing.T) {
	setup(t)

	out, err := executeCommand("version")
	require.NoError(t, err)
	assert.Contains(t, out, "waytile "+Version)
}

func TestPreview(t *testing.T) {
	t.Run("default demand", func(t *testing.T) {
		setup(t)

		out, err := executeCommand("preview", "--no-map")
		require.NoError(t, err)
		for _, want := range []string{"568", "760", "608", "410", "372", "370"} {
			assert.Contains(t, out, want)
		}
	})

	t.Run("map", func(t *testing.T) {
		setup(t)

		out, err := executeCommand("preview", "--views", "2", "--cols", "20", "--lines", "4")
		require.NoError(t, err)
		assert.Contains(t, out, "0")
		assert.Contains(t, out, "1")
	})

	t.Run("no views", func(t *testing.T) {
		setup(t)

		out, err := executeCommand("preview", "--views", "0")
		require.NoError(t, err)
		assert.Contains(t, out, "No views to lay out")
	})

	t.Run("flags override config defaults", func(t *testing.T) {
		setup(t)

		_, err := executeCommand("preview", "--main-factor", "0.5", "--view-padding", "0", "--no-map")
		require.NoError(t, err)

		p := previewParams(previewCmd)
		assert.Equal(t, uint32(1), p.MainAmount)
		assert.Equal(t, 0.5, p.MainFactor)
		assert.Equal(t, uint32(0), p.ViewPadding)
		assert.Equal(t, uint32(10), p.OuterPadding)
	})
}

func TestRunWithoutDisplay(t *testing.T) {
	setup(t)

	_, err := executeCommand("run")
	assert.ErrorIs(t, err, wayland.ErrNoDisplay)
}

func TestLogLevelFlag(t *testing.T) {
	setup(t)

	_, err := executeCommand("--log-level", "loud", "version")
	assert.Error(t, err)

	_, err = executeCommand("--log-level", "debug", "version")
	require.NoError(t, err)
	assert.Equal(t, "debug", logger.Logger.GetLevel().String())
}

func TestConfigCommands(t *testing.T) {
	t.Run("init writes defaults", func(t *testing.T) {
		tmpDir := setup(t)

		out, err := executeCommand("config", "init", "--defaults")
		require.NoError(t, err)

		configPath := filepath.Join(tmpDir, "xdg", "waytile", "waytile.toml")
		assert.Contains(t, out, configPath)
		data, err := os.ReadFile(configPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), "namespace")
		assert.Contains(t, string(data), "tile")

		resetFlags(rootCmd)
		out, err = executeCommand("config", "init", "--defaults")
		require.NoError(t, err)
		assert.Contains(t, out, "already exists")
	})

	t.Run("show", func(t *testing.T) {
		tmpDir := setup(t)

		dir := filepath.Join(tmpDir, "xdg", "waytile")
		require.NoError(t, os.MkdirAll(dir, 0750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "waytile.toml"), []byte("[layout]\nnamespace = \"wide\"\n"), 0600))

		out, err := executeCommand("config", "show")
		require.NoError(t, err)
		assert.Contains(t, out, "wide")
		assert.Contains(t, out, "main_factor")
	})

	t.Run("path honours --config", func(t *testing.T) {
		tmpDir := setup(t)
		custom := filepath.Join(tmpDir, "custom.toml")

		out, err := executeCommand("--config", custom, "config", "path")
		require.NoError(t, err)
		assert.Equal(t, custom, strings.TrimSpace(out))
	})

	t.Run("invalid config fails every command", func(t *testing.T) {
		tmpDir := setup(t)
		custom := filepath.Join(tmpDir, "bad.toml")
		require.NoError(t, os.WriteFile(custom, []byte("[defaults]\nmain_factor = -1\n"), 0600))

		_, err := executeCommand("--config", custom, "preview")
		assert.ErrorContains(t, err, "failed to load config")
	})
}

func TestProbeReport(t *testing.T) {
	report := &wayland.Report{
		Socket: "wayland-1",
		Globals: []wayland.Global{
			{Name: 1, Interface: "wl_compositor", Version: 6},
			{Name: 2, Interface: protocols.OutputInterface, Version: 4},
		},
	}

	err := probeError(report)
	assert.ErrorIs(t, err, registry.ErrLayoutUnsupported)
	assert.ErrorIs(t, err, registry.ErrOptionsUnsupported)

	out := formatProbe(report, false)
	assert.NotContains(t, out, "wl_compositor")
	assert.Contains(t, out, "1 output(s)")
	assert.Contains(t, formatProbe(report, true), "wl_compositor")

	report.Globals = append(report.Globals,
		wayland.Global{Name: 3, Interface: protocols.LayoutManagerInterface, Version: 2},
		wayland.Global{Name: 4, Interface: protocols.OptionsManagerInterface, Version: 1},
	)
	assert.NoError(t, probeError(report))
}

func TestParseFormValues(t *testing.T) {
	v, err := parseUint32(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, uint32(12), v)

	for _, bad := range []string{"", "-1", "4294967296", "x"} {
		_, err := parseUint32(bad)
		assert.Error(t, err, bad)
	}

	f, err := parseFactor("0.55")
	require.NoError(t, err)
	assert.Equal(t, 0.55, f)

	for _, bad := range []string{"", "-0.1", "NaN", "Inf", "abc"} {
		_, err := parseFactor(bad)
		assert.Error(t, err, bad)
	}
}

type fixedStatus registry.Status

func (s fixedStatus) Status() registry.Status { return registry.Status(s) }

func TestStatusCommand(t *testing.T) {
	tmpDir := setup(t)
	t.Setenv("XDG_RUNTIME_DIR", tmpDir)

	server := ipc.NewSocketServer(ipc.SocketPath("wayland-test"), fixedStatus{
		Namespace:     "tile",
		LayoutManager: true,
		Sessions: []registry.SessionStatus{
			{Global: 10, Output: "DP-1", Configured: true, State: "idle", LastSerial: 9, Rounds: 2, Params: layout.DefaultParams()},
		},
	})
	require.NoError(t, server.Start())
	defer server.Stop()

	out, err := executeCommand("status", "--display", "wayland-test")
	require.NoError(t, err)
	assert.Contains(t, out, "DP-1")
	assert.Contains(t, out, "idle")

	resetFlags(rootCmd)
	_, err = executeCommand("status", "--display", "wayland-other")
	assert.ErrorContains(t, err, "is it running")

	resetFlags(rootCmd)
	_, err = executeCommand("status", "--display", "wayland-test", "--watch", "--interval", "0s")
	assert.ErrorContains(t, err, "interval must be positive")
}
