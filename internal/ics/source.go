package ics

import (
	"context"
	"time"

	"agendacal/internal/events"
	"agendacal/internal/model"
)

// FeedSource adapts one subscribed feed to events.Source.
type FeedSource struct {
	Feed     Feed
	Fetcher  *Fetcher
	Location *time.Location
}

func (s FeedSource) Name() string {
	return "ics:" + s.Feed.ID
}

// Load fetches, parses and expands the feed over the window.
func (s FeedSource) Load(ctx context.Context, w events.Window) ([]model.Event, error) {
	res, err := s.Fetcher.Fetch(ctx, s.Feed)
	if err != nil {
		return nil, err
	}
	vevents, err := ParseFeed(s.Feed, res.Body)
	if err != nil {
		return nil, err
	}

	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	return Expand(vevents, ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      w.From.Time(loc),
		RangeEnd:        w.To.Time(loc).AddDate(0, 0, 1),
	})
}
