package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	appLog "agendacal/internal/log"
	"agendacal/internal/model"
	"agendacal/internal/render"
)

// pxPerColumn maps terminal columns onto a viewport width so that an
// 80-column terminal gets the regular layout and narrow panes the compact one.
const pxPerColumn = 10

var (
	renderYear   int
	renderMonth  int
	renderWidth  int
	renderFormat string
	renderOut    string
	renderEvents bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a month of the agenda",
	Long: `Render one month of the agenda without starting the server.

Formats:
  text  lipgloss month grid (default)
  json  the render description served by /api/calendar
  png   raster image written to --out

Examples:
  agendacal render
  agendacal render --year 2025 --month 7 --events
  agendacal render --format png --width 375 --out julho.png`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().IntVar(&renderYear, "year", 0, "Year (defaults to the current year)")
	renderCmd.Flags().IntVar(&renderMonth, "month", 0, "Month 1-12 (defaults to the current month)")
	renderCmd.Flags().IntVar(&renderWidth, "width", -1, "Viewport width in px (defaults to the terminal width)")
	renderCmd.Flags().StringVar(&renderFormat, "format", "text", "Output format: text, json or png")
	renderCmd.Flags().StringVar(&renderOut, "out", "calendar.png", "Output file for --format png")
	renderCmd.Flags().BoolVar(&renderEvents, "events", false, "List the month's events below the grid (text only)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	if err := a.store.Refresh(cmd.Context()); err != nil {
		appLog.Warn("some sources failed to load", "err", err)
	}

	today := model.DateOf(time.Now().In(a.loc))
	year, month := today.Year, today.Month
	if renderYear != 0 {
		year = renderYear
	}
	if renderMonth != 0 {
		month = time.Month(renderMonth)
	}

	g, err := a.builder.Build(year, month, a.store.Index(), today)
	if err != nil {
		return err
	}

	width := renderWidth
	if width < 0 {
		width = terminalViewport()
	}
	view := a.renderer.Render(g, width)
	out := cmd.OutOrStdout()

	switch strings.ToLower(renderFormat) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case "png":
		f, err := os.Create(renderOut)
		if err != nil {
			return err
		}
		if err := render.PNG(f, view, width); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", renderOut)
		return nil
	case "text":
		fmt.Fprint(out, render.Terminal(view))
		if renderEvents {
			first := model.NewDate(year, month, 1)
			last := model.NewDate(year, month, model.DaysIn(year, month))
			evs := a.store.Index().Between(first, last)
			if len(evs) == 0 {
				fmt.Fprintln(out, a.renderer.Locale.NoEvents)
			}
			for _, ev := range evs {
				line := ev.Date.Key()
				if ev.Time != "" {
					line += " " + ev.Time
				}
				line += "  " + ev.Title
				if ev.Location != "" {
					line += " (" + ev.Location + ")"
				}
				fmt.Fprintln(out, line)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or png)", renderFormat)
	}
}

// terminalViewport returns a viewport width derived from stdout's columns,
// or 0 (unknown) when stdout is not a terminal.
func terminalViewport() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	cols, _, err := term.GetSize(fd)
	if err != nil || cols <= 0 {
		return 0
	}
	return cols * pxPerColumn
}
