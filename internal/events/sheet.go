package events

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	appLog "agendacal/internal/log"
	"agendacal/internal/model"
)

// SheetSource reads an agenda spreadsheet (.xlsx or legacy .xls) kept by the
// office staff. The first row is a header; recognised columns are
// data/date, titulo/title/evento, hora/time and local/location.
type SheetSource struct {
	Path string
}

func (s SheetSource) Name() string {
	return "sheet:" + filepath.Base(s.Path)
}

func (s SheetSource) Load(_ context.Context, _ Window) ([]model.Event, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	rows, err := readSheetRows(data, s.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}
	return eventsFromRows(s.Name(), rows)
}

func readSheetRows(data []byte, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows := workbook.ReadAllCells(100000)
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found")
		}
		// Raw values keep date cells as serial numbers instead of a
		// locale-formatted string.
		rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	}
}

func eventsFromRows(source string, rows [][]string) ([]model.Event, error) {
	col := map[string]int{"date": -1, "title": -1, "time": -1, "location": -1}
	for i, h := range rows[0] {
		switch normalizeHeader(h) {
		case "data", "date", "dia":
			col["date"] = i
		case "titulo", "título", "title", "evento":
			col["title"] = i
		case "hora", "horario", "horário", "time":
			col["time"] = i
		case "local", "location":
			col["location"] = i
		}
	}
	if col["date"] < 0 || col["title"] < 0 {
		return nil, fmt.Errorf("header must name a date and a title column, got %q", rows[0])
	}

	var out []model.Event
	for n, row := range rows[1:] {
		raw := cellValue(row, col["date"])
		title := cellValue(row, col["title"])
		if raw == "" && title == "" {
			continue
		}
		d, err := parseSheetDate(raw)
		if err != nil {
			appLog.Warn("agenda row skipped", "source", source, "row", n+2, "date", raw, "err", err)
			continue
		}
		out = append(out, model.Event{
			Date:     d,
			Title:    title,
			Time:     normalizeTime(cellValue(row, col["time"])),
			Location: cellValue(row, col["location"]),
			Source:   source,
		})
	}
	return out, nil
}

// parseSheetDate accepts text dates and Excel serial numbers.
func parseSheetDate(value string) (model.Date, error) {
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return model.Date{}, err
		}
		return model.DateOf(t), nil
	}
	return model.ParseDate(value)
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
