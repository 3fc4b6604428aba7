package ui

import (
	"fmt"
	"strings"

	"github.com/bnema/waytile/internal/layout"
	"github.com/bnema/waytile/internal/registry"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Global is one registry entry as shown by the probe command
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
	Used      bool
}

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorSubtle))
}

func headerCell() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 1)
}

// RenderRects renders the proposed view dimensions as a table
func RenderRects(rects []layout.Rect) string {
	rows := make([][]string, 0, len(rects))
	for i, r := range rects {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", r.X),
			fmt.Sprintf("%d", r.Y),
			fmt.Sprintf("%d", r.Width),
			fmt.Sprintf("%d", r.Height),
		})
	}

	t := newTable().
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerCell()
			case col == 0:
				return lipgloss.NewStyle().
					Foreground(ColorInfo).
					Bold(true).
					Padding(0, 1)
			default:
				return lipgloss.NewStyle().
					Foreground(ColorText).
					Padding(0, 1).
					Align(lipgloss.Right)
			}
		}).
		Headers("VIEW", "X", "Y", "WIDTH", "HEIGHT").
		Rows(rows...)

	return t.String()
}

// RenderGlobals renders registry globals, highlighting the ones waytile binds
func RenderGlobals(globals []Global) string {
	rows := make([][]string, 0, len(globals))
	for _, g := range globals {
		marker := ""
		if g.Used {
			marker = "●"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", g.Name),
			g.Interface,
			fmt.Sprintf("%d", g.Version),
			marker,
		})
	}

	t := newTable().
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerCell()
			case rows[row][3] != "":
				return lipgloss.NewStyle().
					Foreground(ColorSuccess).
					Padding(0, 1)
			default:
				return lipgloss.NewStyle().
					Foreground(ColorSubtle).
					Padding(0, 1)
			}
		}).
		Headers("NAME", "INTERFACE", "VERSION", "USED").
		Rows(rows...)

	return t.String()
}

// mapGlyphs labels views on the ASCII map; views past the end reuse '#'
const mapGlyphs = "0123456789abcdefghijklmnopqrstuvwxyz"

// RenderMap draws rects scaled from a width x height output onto a cols x
// lines character grid. Cells not covered by any view are '.'; later views
// are drawn over earlier ones.
func RenderMap(rects []layout.Rect, width, height uint32, cols, lines int) string {
	if cols <= 0 || lines <= 0 {
		return ""
	}

	grid := make([][]byte, lines)
	for i := range grid {
		grid[i] = []byte(strings.Repeat(".", cols))
	}

	if width > 0 && height > 0 {
		for i, r := range rects {
			glyph := byte('#')
			if i < len(mapGlyphs) {
				glyph = mapGlyphs[i]
			}

			x0 := scale(int64(r.X), width, cols)
			y0 := scale(int64(r.Y), height, lines)
			x1 := scale(int64(r.X)+int64(r.Width), width, cols)
			y1 := scale(int64(r.Y)+int64(r.Height), height, lines)
			// Keep tiny views visible
			if x1 <= x0 && x0 < cols {
				x1 = x0 + 1
			}
			if y1 <= y0 && y0 < lines {
				y1 = y0 + 1
			}

			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					grid[y][x] = glyph
				}
			}
		}
	}

	out := make([]string, lines)
	for i, line := range grid {
		out[i] = string(line)
	}
	return strings.Join(out, "\n")
}

// scale maps v in [0, total] onto [0, cells], clamped
func scale(v int64, total uint32, cells int) int {
	if v <= 0 {
		return 0
	}
	s := int(v * int64(cells) / int64(total))
	if s > cells {
		return cells
	}
	return s
}

// RenderSessions renders the output sessions of a running instance
func RenderSessions(sessions []registry.SessionStatus) string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.Global),
			s.Output,
			s.State,
			fmt.Sprintf("%d", s.LastSerial),
			fmt.Sprintf("%d", s.Rounds),
			fmt.Sprintf("%d", s.Params.MainAmount),
			fmt.Sprintf("%.2f", s.Params.MainFactor),
			fmt.Sprintf("%d/%d", s.Params.ViewPadding, s.Params.OuterPadding),
		})
	}

	t := newTable().
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerCell()
			case col == 2 && !sessions[row].Configured:
				return lipgloss.NewStyle().
					Foreground(ColorWarning).
					Padding(0, 1)
			case col == 1:
				return lipgloss.NewStyle().
					Foreground(ColorInfo).
					Bold(true).
					Padding(0, 1)
			default:
				return lipgloss.NewStyle().
					Foreground(ColorText).
					Padding(0, 1)
			}
		}).
		Headers("GLOBAL", "OUTPUT", "STATE", "SERIAL", "ROUNDS", "MAIN", "FACTOR", "PADDING").
		Rows(rows...)

	return t.String()
}
