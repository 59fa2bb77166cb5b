package console

import (
	"math"
	"strings"

	"github.com/Versifine/laneshift/internal/motion"
)

const minTrackWidth = 3

// RenderTrack draws lane centres as '.' and pos as '@' on a width-cell track
// spanning bounds. Positions outside bounds are pinned to the nearest edge.
func RenderTrack(positions []float64, bounds motion.Bounds, pos float64, width int) string {
	if width < minTrackWidth {
		width = minTrackWidth
	}
	cells := []byte(strings.Repeat(" ", width))
	for _, x := range positions {
		cells[cellFor(x, bounds, width)] = '.'
	}
	cells[cellFor(pos, bounds, width)] = '@'
	return "|" + string(cells) + "|"
}

func cellFor(x float64, b motion.Bounds, width int) int {
	span := b.Max - b.Min
	if span <= 0 || math.IsNaN(x) {
		return width / 2
	}
	f := (b.Clamp(x) - b.Min) / span
	return int(math.Round(f * float64(width-1)))
}
