package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"keyscope/theme"
)

// cell is one terminal character with its colors. A zero alpha color is
// left to the terminal default.
type cell struct {
	ch rune
	fg theme.Packed
	bg theme.Packed
}

func colorOf(c theme.Packed) lipgloss.TerminalColor {
	if c.Alpha() == 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(c.Hex())
}

// renderGrid writes the grid row by row, one styled run per stretch of
// cells sharing colors.
func renderGrid(grid [][]cell) string {
	lines := make([]string, len(grid))
	for r, row := range grid {
		var line strings.Builder
		start := 0
		for i := 1; i <= len(row); i++ {
			if i < len(row) && row[i].fg == row[start].fg && row[i].bg == row[start].bg {
				continue
			}
			var run strings.Builder
			for _, c := range row[start:i] {
				run.WriteRune(c.ch)
			}
			style := lipgloss.NewStyle().
				Foreground(colorOf(row[start].fg)).
				Background(colorOf(row[start].bg))
			line.WriteString(style.Render(run.String()))
			start = i
		}
		lines[r] = line.String()
	}
	return strings.Join(lines, "\n")
}

func newGrid(cols, rows int) [][]cell {
	grid := make([][]cell, rows)
	for r := range grid {
		grid[r] = make([]cell, cols)
		for c := range grid[r] {
			grid[r][c].ch = ' '
		}
	}
	return grid
}

// sample maps cell i of n onto a pixel coordinate in [0, size).
func sample(i, n, size int) int {
	return (2*i + 1) * size / (2 * n)
}
