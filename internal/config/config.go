// Package config handles configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/bnema/waytile/internal/layout"
	"github.com/bnema/waytile/internal/registry"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Layout client settings
	Layout LayoutConfig `mapstructure:"layout"`

	// Option defaults pushed when the compositor reports a value as unset
	Defaults DefaultsConfig `mapstructure:"defaults"`

	// Compositor connection
	Wayland WaylandConfig `mapstructure:"wayland"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// LayoutConfig contains layout client settings
type LayoutConfig struct {
	Namespace         string `mapstructure:"namespace"`
	NamespaceConflict string `mapstructure:"namespace_conflict"` // "exit" or "drop"
}

// DefaultsConfig contains the option defaults
type DefaultsConfig struct {
	MainAmount   uint32  `mapstructure:"main_amount"`
	MainFactor   float64 `mapstructure:"main_factor"`
	ViewPadding  uint32  `mapstructure:"view_padding"`
	OuterPadding uint32  `mapstructure:"outer_padding"`
}

// WaylandConfig contains connection settings
type WaylandConfig struct {
	Display string `mapstructure:"display"` // Empty means use WAYLAND_DISPLAY
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Layout: LayoutConfig{
			Namespace:         "tile",
			NamespaceConflict: string(registry.ConflictExit),
		},
		Defaults: DefaultsConfig{
			MainAmount:   1,
			MainFactor:   0.6,
			ViewPadding:  10,
			OuterPadding: 10,
		},
		Logging: LoggingConfig{
			LogLevel: "", // Empty means use LOG_LEVEL env var
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("waytile")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		for _, dir := range searchDirs() {
			viper.AddConfigPath(dir)
		}
	}

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file, searched for or given with --config, means defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	return nil
}

// setDefaults registers every key so that Unmarshal and WriteConfig see the
// full schema even without a config file.
func setDefaults() {
	viper.SetDefault("layout.namespace", DefaultConfig.Layout.Namespace)
	viper.SetDefault("layout.namespace_conflict", DefaultConfig.Layout.NamespaceConflict)

	viper.SetDefault("defaults.main_amount", DefaultConfig.Defaults.MainAmount)
	viper.SetDefault("defaults.main_factor", DefaultConfig.Defaults.MainFactor)
	viper.SetDefault("defaults.view_padding", DefaultConfig.Defaults.ViewPadding)
	viper.SetDefault("defaults.outer_padding", DefaultConfig.Defaults.OuterPadding)

	viper.SetDefault("wayland.display", DefaultConfig.Wayland.Display)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)
}

// searchDirs lists config directories in order of precedence
func searchDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "waytile"))
	}
	if home := os.Getenv("HOME"); home != "" {
		dirs = append(dirs, filepath.Join(home, ".config", "waytile"))
	}
	return append(dirs, ".")
}

// Validate checks values the layout client can not work with
func (c *Config) Validate() error {
	if c.Layout.Namespace == "" {
		return errors.New("layout.namespace must not be empty")
	}
	switch registry.ConflictPolicy(c.Layout.NamespaceConflict) {
	case registry.ConflictExit, registry.ConflictDrop:
	default:
		return fmt.Errorf("layout.namespace_conflict must be %q or %q, got %q",
			registry.ConflictExit, registry.ConflictDrop, c.Layout.NamespaceConflict)
	}
	f := c.Defaults.MainFactor
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return fmt.Errorf("defaults.main_factor must be a non-negative number, got %v", f)
	}
	return nil
}

// Params returns the option defaults as layout parameters
func (c *Config) Params() layout.Params {
	return layout.Params{
		MainAmount:   c.Defaults.MainAmount,
		MainFactor:   c.Defaults.MainFactor,
		ViewPadding:  c.Defaults.ViewPadding,
		OuterPadding: c.Defaults.OuterPadding,
	}
}

// Settings converts the configuration for the registry client
func (c *Config) Settings() registry.Settings {
	return registry.Settings{
		Namespace: c.Layout.Namespace,
		Conflict:  registry.ConflictPolicy(c.Layout.NamespaceConflict),
		Defaults:  c.Params(),
	}
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		d := DefaultConfig
		return &d
	}
	return cfg
}

// Set sets the current configuration and mirrors it into viper so Save
// writes it out.
func Set(c *Config) {
	cfg = c
	viper.Set("layout.namespace", c.Layout.Namespace)
	viper.Set("layout.namespace_conflict", c.Layout.NamespaceConflict)
	viper.Set("defaults.main_amount", c.Defaults.MainAmount)
	viper.Set("defaults.main_factor", c.Defaults.MainFactor)
	viper.Set("defaults.view_padding", c.Defaults.ViewPadding)
	viper.Set("defaults.outer_padding", c.Defaults.OuterPadding)
	viper.Set("wayland.display", c.Wayland.Display)
	viper.Set("logging.log_level", c.Logging.LogLevel)
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}

	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "waytile", "waytile.toml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "waytile.toml"
	}

	return filepath.Join(home, ".config", "waytile", "waytile.toml")
}
