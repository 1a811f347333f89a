package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Terminal draws a View as a text month grid. Cells are 7 columns wide on
// regular views and 4 on compact ones. Today is bracketed so it survives
// colourless output.
func Terminal(v View) string {
	cellWidth := 7
	if v.Compact {
		cellWidth = 4
	}

	base := lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Center)

	var b strings.Builder
	title := lipgloss.NewStyle().
		Bold(true).
		Width(cellWidth * v.Columns).
		Align(lipgloss.Center)
	b.WriteString(title.Render(v.Label))
	b.WriteString("\n")

	header := base.Bold(true)
	for _, wd := range v.Weekdays {
		b.WriteString(header.Render(truncate(wd, cellWidth-1)))
	}
	b.WriteString("\n")

	for i, c := range v.Cells {
		style := base.
			Foreground(lipgloss.Color(c.Style.Foreground)).
			Background(lipgloss.Color(c.Style.Background))
		if c.Style.FontWeight >= 700 {
			style = style.Bold(true)
		}

		content := fmt.Sprintf("%2d", c.Day)
		switch {
		case c.State == StateToday:
			content = "[" + strings.TrimSpace(content) + "]"
		case c.Style.Marker != "":
			content += c.Style.Marker
		}
		b.WriteString(style.Render(content))
		if (i+1)%v.Columns == 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}
