package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/gapview/pkg/model"
)

const helpMarkdown = `# gv

Three linked views of the same joined dataset.

| Key | Action |
|-----|--------|
| ` + "`[` `]`" + ` | previous / next year |
| ` + "`x` `y` `r`" + ` | cycle the scatter x, y and radius metrics |
| ` + "`b` `l`" + ` | cycle the bar and line metrics |
| ` + "`tab`" + ` | focus bar, scatter or line |
| ` + "`←` `→`" + ` | move the cursor in the focused view |
| ` + "`enter`" + ` | click: highlight a region, or select a country |
| ` + "`esc`" + ` | clear the region highlight |
| ` + "`/`" + ` | find a country by name and select it |
| ` + "`e`" + ` | export SVG/PNG snapshots |
| ` + "`c`" + ` | copy the line series as CSV |
| ` + "`q`" + ` | quit |

## Reading the views

- **Bar**: mean of the bar metric per region. A highlighted region stays
  solid, the others are dimmed.
- **Scatter**: one circle per country. With a region highlighted only its
  countries are shown. The selected country is drawn as ◉.
- **Line**: the selected country's line metric over all years.

Blank cells are missing data; a region with any missing value has no bar.
`

func metricList() string {
	var b strings.Builder
	b.WriteString("\n## Metrics\n\n")
	for _, m := range model.AllMetrics {
		b.WriteString("- `" + string(m) + "`: " + m.Label() + "\n")
	}
	return b.String()
}

// renderHelp renders the help overlay with glamour, falling back to the
// raw markdown if the renderer fails.
func renderHelp(width int) string {
	md := helpMarkdown + metricList()
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
