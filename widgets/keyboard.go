package widgets

import (
	"keyscope/keyboard"
	"keyscope/theme"
)

var gapColor = theme.Pack(0x33, 0x33, 0x33).Opaque()

// RenderKeyboard draws the keyboard shapes scaled to cols x rows cells.
// Octave labels (the C keys) are written into the bottom row.
func RenderKeyboard(kb *keyboard.Keyboard, cols, rows int) string {
	if cols < 1 || rows < 1 {
		return ""
	}
	grid := newGrid(cols, rows)
	for r := 0; r < rows; r++ {
		y := sample(r, rows, kb.Height)
		for c := 0; c < cols; c++ {
			x := sample(c, cols, kb.Width)
			bg := gapColor
			if i := kb.KeyAt(x, y); i >= 0 {
				bg = kb.Keys[i].Fill.Opaque()
			}
			grid[r][c].bg = bg
		}
	}

	bottom := grid[rows-1]
	for _, l := range kb.Labels {
		if l == nil || l.Text == "" || l.Text[0] != 'C' {
			continue
		}
		col := kb.Keys[l.Key].X * cols / kb.Width
		for i, ch := range l.Text {
			if col+i >= cols {
				break
			}
			bottom[col+i].ch = ch
			bottom[col+i].fg = l.Fill.Opaque()
		}
	}
	return renderGrid(grid)
}
