package cmd

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/bnema/waytile/internal/config"
	"github.com/bnema/waytile/internal/registry"
	"github.com/bnema/waytile/internal/ui"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage waytile configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), formatConfig(config.Get(), config.GetConfigPath()))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), config.GetConfigPath())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration file",
	Long: `Write a configuration file. Without --defaults an interactive form asks
for the namespace, the conflict policy and the option defaults.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.GetConfigPath()
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(configPath); err == nil && !force {
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file already exists at: %s\nUse --force to overwrite\n", configPath)
			return nil
		}

		c := *config.Get()
		if useDefaults, _ := cmd.Flags().GetBool("defaults"); !useDefaults {
			if err := runConfigForm(&c); err != nil {
				return err
			}
		}
		if err := c.Validate(); err != nil {
			return err
		}

		config.Set(&c)
		if err := config.Save(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration initialized at: %s\n", configPath)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolP("force", "f", false, "overwrite an existing file")
	configInitCmd.Flags().Bool("defaults", false, "write the current values without asking")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func formatConfig(c *config.Config, path string) string {
	lines := []string{
		ui.FormatAppHeader("WAYTILE CONFIG", path),
		"",
		ui.HeaderStyle.Render("[layout]"),
		"  " + ui.FormatKeyValue("namespace", c.Layout.Namespace),
		"  " + ui.FormatKeyValue("namespace_conflict", c.Layout.NamespaceConflict),
		"",
		ui.HeaderStyle.Render("[defaults]"),
		"  " + ui.FormatKeyValue("main_amount", strconv.FormatUint(uint64(c.Defaults.MainAmount), 10)),
		"  " + ui.FormatKeyValue("main_factor", strconv.FormatFloat(c.Defaults.MainFactor, 'g', -1, 64)),
		"  " + ui.FormatKeyValue("view_padding", strconv.FormatUint(uint64(c.Defaults.ViewPadding), 10)),
		"  " + ui.FormatKeyValue("outer_padding", strconv.FormatUint(uint64(c.Defaults.OuterPadding), 10)),
		"",
		ui.HeaderStyle.Render("[wayland]"),
		"  " + ui.FormatKeyValue("display", orDefault(c.Wayland.Display, "$WAYLAND_DISPLAY")),
		"",
		ui.HeaderStyle.Render("[logging]"),
		"  " + ui.FormatKeyValue("log_level", orDefault(c.Logging.LogLevel, "$LOG_LEVEL")),
	}
	return strings.Join(lines, "\n")
}

func orDefault(v, fallback string) string {
	if v == "" {
		return ui.SubtleStyle.Render(fallback)
	}
	return v
}

func runConfigForm(c *config.Config) error {
	mainAmount := strconv.FormatUint(uint64(c.Defaults.MainAmount), 10)
	mainFactor := strconv.FormatFloat(c.Defaults.MainFactor, 'g', -1, 64)
	viewPadding := strconv.FormatUint(uint64(c.Defaults.ViewPadding), 10)
	outerPadding := strconv.FormatUint(uint64(c.Defaults.OuterPadding), 10)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Layout namespace").
				Description("Name the compositor shows for this layout generator").
				Value(&c.Layout.Namespace).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("namespace must not be empty")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("When the namespace is taken").
				Options(
					huh.NewOption("Exit with an error", string(registry.ConflictExit)),
					huh.NewOption("Skip that output and keep running", string(registry.ConflictDrop)),
				).
				Value(&c.Layout.NamespaceConflict),
		),
		huh.NewGroup(
			huh.NewInput().Title("main_amount").Value(&mainAmount).Validate(validateUint32),
			huh.NewInput().Title("main_factor").Description("Share of the width given to the main area (0.1 - 0.9)").Value(&mainFactor).Validate(validateFactor),
			huh.NewInput().Title("view_padding").Value(&viewPadding).Validate(validateUint32),
			huh.NewInput().Title("outer_padding").Value(&outerPadding).Validate(validateUint32),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	var err error
	if c.Defaults.MainAmount, err = parseUint32(mainAmount); err != nil {
		return err
	}
	if c.Defaults.MainFactor, err = parseFactor(mainFactor); err != nil {
		return err
	}
	if c.Defaults.ViewPadding, err = parseUint32(viewPadding); err != nil {
		return err
	}
	if c.Defaults.OuterPadding, err = parseUint32(outerPadding); err != nil {
		return err
	}
	return nil
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid unsigned value %q", s)
	}
	return uint32(v), nil
}

func parseFactor(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("invalid factor %q", s)
	}
	return v, nil
}

func validateUint32(s string) error {
	_, err := parseUint32(s)
	return err
}

func validateFactor(s string) error {
	_, err := parseFactor(s)
	return err
}
