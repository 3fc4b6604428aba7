package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/waytile/internal/config"
	"github.com/bnema/waytile/internal/layout"
	"github.com/bnema/waytile/internal/ui"
	"github.com/spf13/cobra"
)

var previewFlags struct {
	views        uint32
	width        uint32
	height       uint32
	mainAmount   uint32
	mainFactor   float64
	viewPadding  uint32
	outerPadding uint32
	cols         int
	lines        int
	noMap        bool
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the layout for a given demand without a compositor",
	Long: `Compute the layout the generator would propose for a layout demand and
print the view dimensions with a scaled map. Parameters default to the
[defaults] section of the configuration.`,
	Args: cobra.NoArgs,
	RunE: runPreview,
}

func init() {
	f := previewCmd.Flags()
	f.Uint32Var(&previewFlags.views, "views", 3, "number of views")
	f.Uint32Var(&previewFlags.width, "width", 1000, "usable output width")
	f.Uint32Var(&previewFlags.height, "height", 800, "usable output height")
	f.Uint32Var(&previewFlags.mainAmount, "main-amount", 0, "views in the main area")
	f.Float64Var(&previewFlags.mainFactor, "main-factor", 0, "main area share of the width")
	f.Uint32Var(&previewFlags.viewPadding, "view-padding", 0, "padding around each view")
	f.Uint32Var(&previewFlags.outerPadding, "outer-padding", 0, "padding around the layout")
	f.IntVar(&previewFlags.cols, "cols", 60, "map width in characters")
	f.IntVar(&previewFlags.lines, "lines", 16, "map height in characters")
	f.BoolVar(&previewFlags.noMap, "no-map", false, "only print the table")

	rootCmd.AddCommand(previewCmd)
}

// previewParams starts from the configured defaults and applies the flags
// that were set explicitly
func previewParams(cmd *cobra.Command) layout.Params {
	p := config.Get().Params()
	f := cmd.Flags()
	if f.Changed("main-amount") {
		p.MainAmount = previewFlags.mainAmount
	}
	if f.Changed("main-factor") {
		p.MainFactor = previewFlags.mainFactor
	}
	if f.Changed("view-padding") {
		p.ViewPadding = previewFlags.viewPadding
	}
	if f.Changed("outer-padding") {
		p.OuterPadding = previewFlags.outerPadding
	}
	return p
}

func runPreview(cmd *cobra.Command, args []string) error {
	p := previewParams(cmd)
	d := layout.Demand{
		Views:  previewFlags.views,
		Width:  previewFlags.width,
		Height: previewFlags.height,
	}
	rects := layout.Tile(p, d)

	var output strings.Builder
	output.WriteString(ui.FormatAppHeader("WAYTILE PREVIEW",
		fmt.Sprintf("%d views on %dx%d", d.Views, d.Width, d.Height)))
	output.WriteString("\n\n")
	output.WriteString(ui.FormatKeyValue("main_amount", fmt.Sprintf("%d", p.MainAmount)))
	output.WriteString("  ")
	output.WriteString(ui.FormatKeyValue("main_factor", fmt.Sprintf("%.2f", layout.ClampFactor(p.MainFactor))))
	output.WriteString("  ")
	output.WriteString(ui.FormatKeyValue("view_padding", fmt.Sprintf("%d", p.ViewPadding)))
	output.WriteString("  ")
	output.WriteString(ui.FormatKeyValue("outer_padding", fmt.Sprintf("%d", p.OuterPadding)))
	output.WriteString("\n\n")

	if len(rects) == 0 {
		output.WriteString(ui.SubtleStyle.Render("No views to lay out"))
		fmt.Fprintln(cmd.OutOrStdout(), output.String())
		return nil
	}

	output.WriteString(ui.RenderRects(rects))
	if !previewFlags.noMap {
		output.WriteString("\n\n")
		output.WriteString(ui.BoxStyle.Render(ui.RenderMap(rects, d.Width, d.Height, previewFlags.cols, previewFlags.lines)))
	}

	fmt.Fprintln(cmd.OutOrStdout(), output.String())
	return nil
}
