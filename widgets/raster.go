package widgets

import (
	"keyscope/theme"
)

// RenderRaster draws a width x height pixel buffer into cols x rows cells.
// Each cell shows two pixel rows with an upper half block.
func RenderRaster(pix []theme.Packed, width, height, cols, rows int) string {
	if cols < 1 || rows < 1 || width < 1 || height < 1 || len(pix) < width*height {
		return ""
	}
	grid := newGrid(cols, rows)
	for r := 0; r < rows; r++ {
		top := sample(2*r, 2*rows, height)
		low := sample(2*r+1, 2*rows, height)
		for c := 0; c < cols; c++ {
			x := sample(c, cols, width)
			grid[r][c] = cell{
				ch: '▀',
				fg: pix[top*width+x],
				bg: pix[low*width+x],
			}
		}
	}
	return renderGrid(grid)
}
