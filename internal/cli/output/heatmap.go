package output

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/plotlogic/pkg/geom"
	"github.com/leapstack-labs/plotlogic/pkg/surface"
)

// asciiRamp maps normalized height to characters, low to high.
const asciiRamp = " .:-=+*#%@"

// Heatmap draws the mesh height grid as a cols × rows block, +y at the
// top. Colored output paints cells with the surface color ramp; plain
// output uses a character ramp.
func Heatmap(m *surface.Mesh, cols, rows int, color bool) string {
	if m == nil || len(m.Heights) == 0 {
		return ""
	}
	steps := len(m.Heights)
	cols = min(max(cols, 1), steps)
	rows = min(max(rows, 1), steps)

	var b strings.Builder
	for r := range rows {
		// Top row is the largest y.
		j := sampleIndex(rows-1-r, rows, steps)
		for c := range cols {
			i := sampleIndex(c, cols, steps)
			t := m.Normalized(i, j)
			if color {
				b.WriteString(lipgloss.NewStyle().
					Background(lipgloss.Color(geom.Ramp(t).Hex())).
					Render("  "))
				continue
			}
			k := int(t * float64(len(asciiRamp)-1))
			k = min(max(k, 0), len(asciiRamp)-1)
			b.WriteByte(asciiRamp[k])
		}
		if r < rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func sampleIndex(k, n, steps int) int {
	if n <= 1 {
		return 0
	}
	return k * (steps - 1) / (n - 1)
}
