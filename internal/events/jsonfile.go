package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	appLog "agendacal/internal/log"
	"agendacal/internal/model"
)

// JSONFileSource reads the site's flat-file agenda store. A list layout and a
// date-keyed layout are accepted:
//
//	[{"date": "2025-07-02", "title": "...", "time": "10:00"}]
//	{"2025-07-02": "Sessão Ordinária"}
//	{"2025-07-02": ["Sessão Ordinária", "Audiência"]}
//	{"2025-07-02": {"title": "...", "time": "10:00"}}
//	{"2025-07-02": [{"title": "...", "time": "10:00"}]}
//
// Keys and dates go through model.ParseDate; entries whose date cannot be
// resolved (including bare day-of-month keys) and values of any other shape
// are skipped with a warning.
type JSONFileSource struct {
	Path string
}

type jsonEntry struct {
	Date     string `json:"date"`
	Title    string `json:"title"`
	Time     string `json:"time"`
	Location string `json:"location"`
	RRule    string `json:"rrule"`
	UID      string `json:"id"`
}

func (s JSONFileSource) Name() string {
	return "json:" + filepath.Base(s.Path)
}

// Load reads the file. A missing file is an empty agenda, not an error.
func (s JSONFileSource) Load(_ context.Context, _ Window) ([]model.Event, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Warn("agenda file missing; treating as empty", "path", s.Path)
			return nil, nil
		}
		return nil, err
	}
	return DecodeJSON(s.Name(), data)
}

// DecodeJSON decodes either supported layout.
func DecodeJSON(source string, data []byte) ([]model.Event, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var entries []jsonEntry
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
	case '{':
		var byKey map[string]json.RawMessage
		if err := json.Unmarshal(data, &byKey); err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		for key, raw := range byKey {
			list, err := decodeKeyed(raw)
			if err != nil {
				appLog.Warn("agenda value skipped", "source", source, "key", key, "err", err)
				continue
			}
			for _, e := range list {
				if e.Date == "" {
					e.Date = key
				}
				entries = append(entries, e)
			}
		}
	default:
		return nil, fmt.Errorf("%s: expected a JSON array or object", source)
	}

	out := make([]model.Event, 0, len(entries))
	for _, e := range entries {
		d, err := model.ParseDate(e.Date)
		if err != nil {
			appLog.Warn("agenda entry skipped", "source", source, "date", e.Date, "title", e.Title, "err", err)
			continue
		}
		out = append(out, model.Event{
			Date:     d,
			Title:    e.Title,
			Time:     normalizeTime(e.Time),
			Location: e.Location,
			RRule:    e.RRule,
			Source:   source,
			UID:      e.UID,
		})
	}
	return out, nil
}

// decodeKeyed reads the value under a date key: a title, an entry, or a list
// mixing either.
func decodeKeyed(raw json.RawMessage) ([]jsonEntry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty value")
	}
	switch raw[0] {
	case '"':
		var title string
		if err := json.Unmarshal(raw, &title); err != nil {
			return nil, err
		}
		return []jsonEntry{{Title: title}}, nil
	case '{':
		var e jsonEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return []jsonEntry{e}, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		var out []jsonEntry
		for _, item := range items {
			list, err := decodeKeyed(item)
			if err != nil {
				return nil, err
			}
			out = append(out, list...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value %.20s", raw)
}
