// SPDX-License-Identifier: EPL-2.0

package tui

import "strings"

const (
	traceRune = '•'
	axisRune  = '─'
	blankRune = ' '
)

// Plot draws frame as a width × height character grid, one line per row.
// Sample values map from +1 on the top row to -1 on the bottom one and are
// clamped to that range.
func Plot(frame []float32, width, height int) []string {
	if width <= 0 || height <= 0 {
		return nil
	}

	grid := make([][]rune, height)
	mid := (height - 1) / 2
	for y := range grid {
		fill := blankRune
		if y == mid && height > 2 {
			fill = axisRune
		}
		grid[y] = []rune(strings.Repeat(string(fill), width))
	}

	if len(frame) > 0 {
		prev := -1
		for x := range width {
			i := x * len(frame) / width
			y := row(frame[i], height)
			grid[y][x] = traceRune

			// join steep segments so the trace stays continuous
			if prev >= 0 {
				lo, hi := min(prev, y), max(prev, y)
				for j := lo + 1; j < hi; j++ {
					grid[j][x] = traceRune
				}
			}
			prev = y
		}
	}

	lines := make([]string, height)
	for y := range grid {
		lines[y] = string(grid[y])
	}
	return lines
}

func row(v float32, height int) int {
	v = min(max(v, -1), 1)
	return int((1 - v) / 2 * float32(height-1) + 0.5)
}
