package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/waytile/internal/layout"
	"github.com/bnema/waytile/internal/registry"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every search location at an empty temp dir
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Chdir(tmpDir)

	viper.Reset()
	SetConfigPath("")
	cfg = nil
	t.Cleanup(func() {
		viper.Reset()
		SetConfigPath("")
		cfg = nil
	})
	return tmpDir
}

func TestInit(t *testing.T) {
	t.Run("initializes with defaults when no config exists", func(t *testing.T) {
		isolate(t)

		require.NoError(t, Init())

		c := Get()
		assert.Equal(t, "tile", c.Layout.Namespace)
		assert.Equal(t, "exit", c.Layout.NamespaceConflict)
		assert.Equal(t, layout.DefaultParams(), c.Params())
		assert.Empty(t, c.Wayland.Display)
	})

	t.Run("reads overrides from the user config", func(t *testing.T) {
		tmpDir := isolate(t)

		dir := filepath.Join(tmpDir, "xdg", "waytile")
		require.NoError(t, os.MkdirAll(dir, 0750))
		content := `[layout]
namespace = "wide"
namespace_conflict = "drop"

[defaults]
main_amount = 2
main_factor = 0.5
view_padding = 4
outer_padding = 0

[wayland]
display = "wayland-3"
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "waytile.toml"), []byte(content), 0600))

		require.NoError(t, Init())

		c := Get()
		assert.Equal(t, "wide", c.Layout.Namespace)
		assert.Equal(t, layout.Params{MainAmount: 2, MainFactor: 0.5, ViewPadding: 4, OuterPadding: 0}, c.Params())
		assert.Equal(t, "wayland-3", c.Wayland.Display)

		s := c.Settings()
		assert.Equal(t, registry.ConflictDrop, s.Conflict)
		assert.Equal(t, "wide", s.Namespace)
		assert.Equal(t, filepath.Join(dir, "waytile.toml"), GetConfigPath())
	})

	t.Run("handles invalid TOML", func(t *testing.T) {
		tmpDir := isolate(t)

		path := filepath.Join(tmpDir, "broken.toml")
		require.NoError(t, os.WriteFile(path, []byte("[layout\nnamespace = 1"), 0600))
		SetConfigPath(path)

		assert.Error(t, Init())
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		tmpDir := isolate(t)

		path := filepath.Join(tmpDir, "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("[layout]\nnamespace_conflict = \"retry\"\n"), 0600))
		SetConfigPath(path)

		assert.ErrorContains(t, Init(), "namespace_conflict")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "drop policy", mutate: func(c *Config) { c.Layout.NamespaceConflict = "drop" }},
		{name: "factor above range is clamped later", mutate: func(c *Config) { c.Defaults.MainFactor = 3 }},
		{name: "empty namespace", mutate: func(c *Config) { c.Layout.Namespace = "" }, wantErr: true},
		{name: "unknown policy", mutate: func(c *Config) { c.Layout.NamespaceConflict = "ignore" }, wantErr: true},
		{name: "negative factor", mutate: func(c *Config) { c.Defaults.MainFactor = -0.1 }, wantErr: true},
		{name: "NaN factor", mutate: func(c *Config) { c.Defaults.MainFactor = math.NaN() }, wantErr: true},
		{name: "infinite factor", mutate: func(c *Config) { c.Defaults.MainFactor = math.Inf(1) }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigPathResolution(t *testing.T) {
	t.Run("override", func(t *testing.T) {
		isolate(t)
		SetConfigPath("/tmp/custom.toml")
		assert.Equal(t, "/tmp/custom.toml", GetConfigPath())
	})

	t.Run("XDG config home", func(t *testing.T) {
		tmpDir := isolate(t)
		assert.Equal(t, filepath.Join(tmpDir, "xdg", "waytile", "waytile.toml"), GetConfigPath())
	})

	t.Run("home fallback", func(t *testing.T) {
		tmpDir := isolate(t)
		t.Setenv("XDG_CONFIG_HOME", "")
		assert.Equal(t, filepath.Join(tmpDir, ".config", "waytile", "waytile.toml"), GetConfigPath())
	})
}

func TestConfigPrecedence(t *testing.T) {
	tmpDir := isolate(t)

	write := func(dir, namespace string) {
		require.NoError(t, os.MkdirAll(dir, 0750))
		content := "[layout]\nnamespace = \"" + namespace + "\"\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "waytile.toml"), []byte(content), 0600))
	}
	write(tmpDir, "current-dir")
	write(filepath.Join(tmpDir, ".config", "waytile"), "home")
	write(filepath.Join(tmpDir, "xdg", "waytile"), "xdg")

	require.NoError(t, Init())
	assert.Equal(t, "xdg", Get().Layout.Namespace)
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := isolate(t)
	path := filepath.Join(tmpDir, "out", "waytile.toml")
	SetConfigPath(path)

	c := DefaultConfig
	c.Layout.Namespace = "saved"
	c.Defaults.ViewPadding = 2
	Set(&c)
	require.NoError(t, Save())

	viper.Reset()
	cfg = nil
	require.NoError(t, Init())
	assert.Equal(t, "saved", Get().Layout.Namespace)
	assert.Equal(t, uint32(2), Get().Defaults.ViewPadding)
}
