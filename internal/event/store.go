package event

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mwieland/terminus/internal/model"
)

// Persister is the slice of the persistence gateway the store needs: the
// whole collection is rewritten after every successful mutation.
type Persister interface {
	SaveEvents(events []model.Event) error
	LoadEvents() []model.Event
}

// Store is the authoritative in-memory event collection. It owns validation
// and id/timestamp stamping; every query hands out copies, so callers can
// never mutate store state around the validation rules.
type Store struct {
	mu     sync.RWMutex
	events []model.Event
	gw     Persister
	logger *slog.Logger

	// Overridable in tests.
	now   func() time.Time
	newID func() string
}

// NewStore loads the persisted collection once and returns a ready store.
func NewStore(gw Persister, logger *slog.Logger) *Store {
	return &Store{
		events: gw.LoadEvents(),
		gw:     gw,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Create validates the draft and, on success, stamps a fresh id and
// created/modified timestamps, appends the event, and persists the
// collection. On failure nothing changes and the violated rule is returned.
func (s *Store) Create(draft model.Draft) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if err := validate(draft, now); err != nil {
		return model.Event{}, err
	}

	e := model.Event{
		ID:          s.newID(),
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
		StartDate:   draft.StartDate,
		Reminder:    model.Reminder{Enabled: false, MinutesBefore: model.DefaultReminderMinutes},
		Created:     now,
		Modified:    now,
	}
	if draft.EndDate != nil {
		end := *draft.EndDate
		e.EndDate = &end
	}
	if draft.Reminder != nil {
		e.Reminder = *draft.Reminder
	}

	s.events = append(s.events, e)
	s.persistLocked()
	return e.Clone(), nil
}

// Update validates the draft and replaces the stored record's fields,
// preserving ID and Created and stamping a new Modified. Reminder settings
// are kept when the draft carries none. Returns model.ErrNotFound for an
// unknown id, with no side effects.
func (s *Store) Update(id string, draft model.Draft) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return model.Event{}, fmt.Errorf("update event %s: %w", id, model.ErrNotFound)
	}

	now := s.now()
	if err := validate(draft, now); err != nil {
		return model.Event{}, err
	}

	e := s.events[idx]
	e.Title = strings.TrimSpace(draft.Title)
	e.Description = strings.TrimSpace(draft.Description)
	e.StartDate = draft.StartDate
	e.EndDate = nil
	if draft.EndDate != nil {
		end := *draft.EndDate
		e.EndDate = &end
	}
	if draft.Reminder != nil {
		e.Reminder = *draft.Reminder
	}
	e.Modified = now

	s.events[idx] = e
	s.persistLocked()
	return e.Clone(), nil
}

// Delete removes the event with the given id. It reports whether a removal
// occurred and persists only in that case.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}

	s.events = append(s.events[:idx], s.events[idx+1:]...)
	s.persistLocked()
	return true
}

// GetByID returns a copy of the event, or nil if no event has that id.
func (s *Store) GetByID(id string) *model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil
	}
	e := s.events[idx].Clone()
	return &e
}

// ListByDateRange returns copies of every event whose StartDate falls in
// [start, end), ordered by StartDate. Only the start instant counts: an
// event that begins before the window but overlaps it is excluded. That
// mirrors how the calendar grids bucket events by their start day.
func (s *Store) ListByDateRange(start, end time.Time) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Event
	for _, e := range s.events {
		if !e.StartDate.Before(start) && e.StartDate.Before(end) {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

// All returns a snapshot copy of the whole collection.
func (s *Store) All() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Clone())
	}
	return out
}

func (s *Store) indexLocked(id string) int {
	for i, e := range s.events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the collection through the gateway. A failed write
// keeps the in-memory mutation; the gateway has already surfaced the
// actionable warning and the next successful write reconciles.
func (s *Store) persistLocked() {
	if err := s.gw.SaveEvents(s.events); err != nil {
		s.logger.Warn("event collection not persisted", "error", err)
	}
}
