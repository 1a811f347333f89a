package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "agendacal/internal/log"
	"agendacal/internal/model"
)

// StoreOptions configures a Store.
type StoreOptions struct {
	Sources []Source

	// MonthsBack/MonthsAhead size the recurrence window around today.
	MonthsBack  int
	MonthsAhead int

	Now      func() time.Time
	Location *time.Location
}

// Store owns the current Index. Readers never block on a refresh and never
// see an error: before the first successful load the index is empty.
type Store struct {
	opts StoreOptions

	mu        sync.RWMutex
	index     *Index
	updatedAt time.Time

	// lastGood remembers each source's previous result, by position in
	// Sources, so a failing store keeps contributing its last known events.
	// Names are for logs only and may repeat (two agenda.json files).
	lastGood map[int][]model.Event

	refreshMu sync.Mutex
	cron      *cron.Cron
}

func NewStore(opts StoreOptions) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.MonthsBack <= 0 {
		opts.MonthsBack = 12
	}
	if opts.MonthsAhead <= 0 {
		opts.MonthsAhead = 24
	}
	return &Store{
		opts:     opts,
		index:    NewIndex(nil),
		lastGood: make(map[int][]model.Event),
	}
}

// Index returns the current index. It is never nil.
func (s *Store) Index() *Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// UpdatedAt reports when the index was last rebuilt.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Window returns the recurrence window for the current day.
func (s *Store) Window() Window {
	today := model.DateOf(s.opts.Now().In(s.opts.Location))
	return WindowAround(today, s.opts.MonthsBack, s.opts.MonthsAhead)
}

// Refresh reloads every source and swaps in a new index. Per-source failures
// are joined into the returned error; the index is rebuilt regardless.
func (s *Store) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	w := s.Window()
	var (
		all  []model.Event
		errs []error
	)
	for i, src := range s.opts.Sources {
		name := src.Name()
		evs, err := src.Load(ctx, w)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			prev, ok := s.lastGood[i]
			appLog.Error("event source failed", err, "source", name, "fallback_events", len(prev), "has_fallback", ok)
			all = append(all, prev...)
			continue
		}
		expanded := Expand(evs, w)
		s.lastGood[i] = expanded
		all = append(all, expanded...)
		appLog.Debug("event source loaded", "source", name, "events", len(expanded))
	}

	idx := NewIndex(all)
	s.mu.Lock()
	s.index = idx
	s.updatedAt = s.opts.Now()
	s.mu.Unlock()

	appLog.Info("event index refreshed", "sources", len(s.opts.Sources), "events", idx.Len(), "failed", len(errs))
	return errors.Join(errs...)
}

// Schedule runs Refresh on the given cron spec until Stop is called.
func (s *Store) Schedule(ctx context.Context, spec string) error {
	c := cron.New(cron.WithLocation(s.opts.Location))
	if _, err := c.AddFunc(spec, func() {
		if err := s.Refresh(ctx); err != nil {
			appLog.Warn("scheduled refresh incomplete", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("events: invalid refresh schedule %q: %w", spec, err)
	}

	s.mu.Lock()
	if s.cron != nil {
		s.cron.Stop()
	}
	s.cron = c
	s.mu.Unlock()

	c.Start()
	appLog.Info("event refresh scheduled", "cron", spec)
	return nil
}

// Stop halts the refresh schedule and waits for a running refresh.
func (s *Store) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
