package events

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	appLog "agendacal/internal/log"
	"agendacal/internal/model"
)

const createAgendaTable = `CREATE TABLE IF NOT EXISTS agenda_events (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	date     TEXT NOT NULL,
	title    TEXT NOT NULL,
	time     TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	rrule    TEXT NOT NULL DEFAULT ''
);`

// SQLiteSource reads the agenda_events table of the panel's database.
type SQLiteSource struct {
	Path string
}

func (s SQLiteSource) Name() string {
	return "sqlite:" + filepath.Base(s.Path)
}

// Load opens the database, creating the table on first use, and reads all
// rows. Rows with an unreadable date are skipped.
func (s SQLiteSource) Load(ctx context.Context, _ Window) ([]model.Event, error) {
	db, err := OpenAgendaDB(s.Path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT id, date, title, time, location, rrule FROM agenda_events")
	if err != nil {
		return nil, fmt.Errorf("'SELECT FROM agenda_events' failed: %w", err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var (
			id                                  int64
			date, title, tm, location, ruleText string
		)
		if err := rows.Scan(&id, &date, &title, &tm, &location, &ruleText); err != nil {
			return nil, err
		}
		d, err := model.ParseDate(date)
		if err != nil {
			appLog.Warn("agenda row skipped", "source", s.Name(), "id", id, "date", date, "err", err)
			continue
		}
		out = append(out, model.Event{
			Date:     d,
			Title:    title,
			Time:     normalizeTime(tm),
			Location: location,
			RRule:    ruleText,
			Source:   s.Name(),
			UID:      fmt.Sprintf("sqlite-%d", id),
		})
	}
	return out, rows.Err()
}

// OpenAgendaDB opens (or creates) the agenda database in WAL mode.
func OpenAgendaDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("sql.Open() failed: %w", err)
	}
	if _, err := db.Exec(createAgendaTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("'CREATE TABLE' failed: %w", err)
	}
	return db, nil
}

// InsertEvent stores one event. Used by the panel and by tests.
func InsertEvent(ctx context.Context, db *sql.DB, ev model.Event) (int64, error) {
	res, err := db.ExecContext(ctx,
		"INSERT INTO agenda_events (date, title, time, location, rrule) VALUES (?, ?, ?, ?, ?)",
		ev.Date.Key(), ev.Title, ev.Time, ev.Location, ev.RRule)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
