package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/waytile/internal/config"
	"github.com/bnema/waytile/internal/protocols"
	"github.com/bnema/waytile/internal/registry"
	"github.com/bnema/waytile/internal/ui"
	"github.com/bnema/waytile/internal/wayland"
	"github.com/spf13/cobra"
)

var probeAll bool

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that the compositor offers what waytile needs",
	Long: `List the compositor's globals and check for river-layout-v1 and
river-options-v1. Nothing is bound; the command fails when a capability is
missing.`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().String("display", "", "Wayland socket name (default $WAYLAND_DISPLAY)")
	probeCmd.Flags().BoolVarP(&probeAll, "all", "a", false, "list every global, not only the ones waytile uses")
	rootCmd.AddCommand(probeCmd)
}

// usedInterfaces are the globals the layout client binds
var usedInterfaces = map[string]bool{
	protocols.LayoutManagerInterface:  true,
	protocols.OptionsManagerInterface: true,
	protocols.OutputInterface:         true,
}

func runProbe(cmd *cobra.Command, args []string) error {
	display, _ := cmd.Flags().GetString("display")
	if display == "" {
		display = config.Get().Wayland.Display
	}

	report, err := wayland.Probe(display)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), formatProbe(report, probeAll))
	return probeError(report)
}

func formatProbe(report *wayland.Report, all bool) string {
	var globals []ui.Global
	for _, g := range report.Globals {
		used := usedInterfaces[g.Interface]
		if !used && !all {
			continue
		}
		globals = append(globals, ui.Global{Name: g.Name, Interface: g.Interface, Version: g.Version, Used: used})
	}

	var output strings.Builder
	output.WriteString(ui.FormatAppHeader("WAYTILE PROBE", "socket "+report.Socket))
	output.WriteString("\n\n")
	output.WriteString(ui.RenderGlobals(globals))
	output.WriteString("\n\n")
	output.WriteString(ui.FormatCheck(report.Has(protocols.LayoutManagerInterface), "river-layout-v1", protocols.LayoutManagerInterface))
	output.WriteString("\n")
	output.WriteString(ui.FormatCheck(report.Has(protocols.OptionsManagerInterface), "river-options-v1", protocols.OptionsManagerInterface))
	output.WriteString("\n")
	output.WriteString(ui.SubtleStyle.Render(fmt.Sprintf("%d output(s)", report.Count(protocols.OutputInterface))))
	return output.String()
}

// probeError mirrors the startup check of the run command
func probeError(report *wayland.Report) error {
	var errs []error
	for _, iface := range report.Missing() {
		switch iface {
		case protocols.LayoutManagerInterface:
			errs = append(errs, registry.ErrLayoutUnsupported)
		case protocols.OptionsManagerInterface:
			errs = append(errs, registry.ErrOptionsUnsupported)
		}
	}
	return errors.Join(errs...)
}
