package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fogleman/gg"
)

// PNG draws a View as an image. The canvas width is the viewport width the
// view was rendered for (clamped to something drawable); the height follows
// from the sizing.
func PNG(w io.Writer, v View, viewportWidth int) error {
	width := viewportWidth
	if width <= 0 {
		width = 800
	}
	if width < 140 {
		width = 140
	}

	gap := float64(v.Sizing.Gap)
	cellH := float64(v.Sizing.CellHeight)
	titleH := cellH * 0.8
	headerH := float64(v.Sizing.FontSize) * 2
	cellW := (float64(width) - gap*float64(v.Columns+1)) / float64(v.Columns)
	height := int(titleH + headerH + gap*float64(v.Rows+1) + cellH*float64(v.Rows))

	dc := gg.NewContext(width, height)
	dc.SetHexColor("#ffffff")
	dc.Clear()

	dc.SetHexColor("#111827")
	dc.DrawStringAnchored(v.Label, float64(width)/2, titleH/2, 0.5, 0.5)

	dc.SetHexColor("#6b7280")
	for i, wd := range v.Weekdays {
		x := gap + float64(i)*(cellW+gap) + cellW/2
		dc.DrawStringAnchored(wd, x, titleH+headerH/2, 0.5, 0.5)
	}

	top := titleH + headerH
	radius := gap * 1.5
	for _, c := range v.Cells {
		x := gap + float64(c.Col)*(cellW+gap)
		y := top + gap + float64(c.Row)*(cellH+gap)

		dc.SetHexColor(c.Style.Background)
		dc.DrawRoundedRectangle(x, y, cellW, cellH, radius)
		dc.Fill()
		if c.Style.Border != "" && c.Style.Border != c.Style.Background {
			dc.SetHexColor(c.Style.Border)
			dc.SetLineWidth(1)
			dc.DrawRoundedRectangle(x+0.5, y+0.5, cellW-1, cellH-1, radius)
			dc.Stroke()
		}

		dc.SetHexColor(c.Style.Foreground)
		dc.DrawStringAnchored(strconv.Itoa(c.Day), x+cellW/2, y+cellH/2, 0.5, 0.5)
		if c.Style.Marker != "" {
			// The default face has no bullet glyph; draw the dot.
			dc.DrawCircle(x+cellW-gap-2, y+gap+2, 2.5)
			dc.Fill()
		}
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}
	return nil
}
