package service

import (
	"fmt"

	"github.com/planwise/calendar-server/internal/models"
	"github.com/planwise/calendar-server/internal/store"
	"github.com/planwise/calendar-server/internal/utils"
)

// EventService owns the event and recurrence tables and implements event
// CRUD, recurrence expansion and statistics.
type EventService struct {
	events *store.EventStore
	rules  *store.RuleStore
	logger *utils.Logger
}

// NewEventService creates an EventService over the given stores.
func NewEventService(events *store.EventStore, rules *store.RuleStore, logger *utils.Logger) *EventService {
	return &EventService{events: events, rules: rules, logger: logger}
}

// LoadEvents returns all persisted events in file order.
func (s *EventService) LoadEvents() []models.Event {
	return s.events.LoadAll()
}

// SaveEvent validates and persists a new event. When the event carries a
// supported recurrence interval the whole series is generated and saved;
// otherwise a single row is appended. The assigned id is written back into
// the event.
func (s *EventService) SaveEvent(ev *models.Event) ([]models.Event, error) {
	if err := validateEvent(ev); err != nil {
		return nil, err
	}
	if IsRecurring(ev.RecurrentInterval) {
		return s.GenerateAndSaveRecurringEvents(ev)
	}
	if err := s.events.Append(ev); err != nil {
		return nil, fmt.Errorf("error saving event: %w", err)
	}
	return []models.Event{*ev}, nil
}

// GenerateAndSaveRecurringEvents persists the base event together with its
// derived instances in one table rewrite, then records the recurrence rule
// against the base event's id. An unrecognized interval yields just the
// base event.
func (s *EventService) GenerateAndSaveRecurringEvents(base *models.Event) ([]models.Event, error) {
	if err := validateEvent(base); err != nil {
		return nil, err
	}

	instances := expandInstances(*base)
	batch := make([]*models.Event, 0, len(instances)+1)
	batch = append(batch, base)
	for i := range instances {
		batch = append(batch, &instances[i])
	}
	if err := s.events.AppendBatch(batch); err != nil {
		return nil, fmt.Errorf("error saving recurring events: %w", err)
	}

	rule := models.RecurrenceRule{
		EventID:           base.ID,
		RecurrentInterval: base.RecurrentInterval,
		RecurrentTimes:    base.RecurrentTimes,
		RecurrentEndDate:  base.RecurrentEndDate,
	}
	if err := s.rules.Append(rule); err != nil {
		return nil, fmt.Errorf("error saving recurrence rule: %w", err)
	}

	saved := make([]models.Event, 0, len(batch))
	for _, ev := range batch {
		saved = append(saved, *ev)
	}
	return saved, nil
}

// UpdateEvent replaces the event with the given id. Strict: a missing id
// is ErrNotFound, never an insert, and an event owned by a different user
// than ev.UserID is ErrForbidden. The event's recurrence rule follows the
// update: a non-empty interval upserts the rule, an empty one removes it.
func (s *EventService) UpdateEvent(id int, ev models.Event) error {
	if err := validateEvent(&ev); err != nil {
		return err
	}
	existing := s.events.FindByID(id)
	if existing == nil {
		return fmt.Errorf("%w: event %d", ErrNotFound, id)
	}
	if existing.UserID != ev.UserID {
		return fmt.Errorf("%w: event %d", ErrForbidden, id)
	}
	found, err := s.events.UpdateByID(id, ev)
	if err != nil {
		return fmt.Errorf("error updating event: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: event %d", ErrNotFound, id)
	}
	if ev.RecurrentInterval != "" {
		rule := models.RecurrenceRule{
			EventID:           id,
			RecurrentInterval: ev.RecurrentInterval,
			RecurrentTimes:    ev.RecurrentTimes,
			RecurrentEndDate:  ev.RecurrentEndDate,
		}
		if err := s.rules.Upsert(id, rule); err != nil {
			return fmt.Errorf("error updating recurrence rule: %w", err)
		}
	} else if _, err := s.rules.DeleteByEventID(id); err != nil {
		return fmt.Errorf("error removing recurrence rule: %w", err)
	}
	return nil
}

// DeleteEvent removes the user's event and any recurrence rule it owns.
// Deleting an event owned by a different user is ErrForbidden.
func (s *EventService) DeleteEvent(id, userID int) error {
	existing := s.events.FindByID(id)
	if existing == nil {
		return fmt.Errorf("%w: event %d", ErrNotFound, id)
	}
	if existing.UserID != userID {
		return fmt.Errorf("%w: event %d", ErrForbidden, id)
	}
	removed, err := s.events.DeleteByID(id)
	if err != nil {
		return fmt.Errorf("error deleting event: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: event %d", ErrNotFound, id)
	}
	if _, err := s.rules.DeleteByEventID(id); err != nil {
		return fmt.Errorf("error deleting recurrence rule: %w", err)
	}
	return nil
}

// DeleteEventsByUserID removes every event owned by the user and returns
// the number of removed rows.
func (s *EventService) DeleteEventsByUserID(userID int) (int, error) {
	return s.events.DeleteByUserID(userID)
}

// GetEventIDsByUserID lists the ids of the user's events.
func (s *EventService) GetEventIDsByUserID(userID int) []int {
	return s.events.IDsByUserID(userID)
}

// EventsByUserID returns the user's events, optionally merged with
// synthesized holiday events for the given year. Holidays are in-memory
// only and carry the reserved owner id; they are never persisted.
func (s *EventService) EventsByUserID(userID int, includeHolidays bool, year int) []models.Event {
	var out []models.Event
	for _, ev := range s.events.LoadAll() {
		if ev.UserID == userID {
			out = append(out, ev)
		}
	}
	if includeHolidays {
		out = append(out, HolidaysForYear(year)...)
	}
	return out
}

// Recurrence rule operations

// LoadRecurrentRules returns all persisted rules in file order.
func (s *EventService) LoadRecurrentRules() []models.RecurrenceRule {
	return s.rules.LoadAll()
}

// SaveRecurrentRule appends a rule row for an existing event.
func (s *EventService) SaveRecurrentRule(rule models.RecurrenceRule) error {
	if rule.RecurrentInterval == "" {
		return fmt.Errorf("%w: recurrence interval is required", ErrValidation)
	}
	return s.rules.Append(rule)
}

// UpsertRecurrentRule updates the rule for eventID, creating it when
// missing and the interval is non-empty. Unlike UpdateEvent, a missing
// row is not an error.
func (s *EventService) UpsertRecurrentRule(eventID int, rule models.RecurrenceRule) error {
	return s.rules.Upsert(eventID, rule)
}

// DeleteRecurrentRule removes the rule owned by eventID, if any.
func (s *EventService) DeleteRecurrentRule(eventID int) error {
	_, err := s.rules.DeleteByEventID(eventID)
	return err
}

// DeleteRecurrentRulesByEventIDs bulk-removes rules for the given events.
func (s *EventService) DeleteRecurrentRulesByEventIDs(eventIDs []int) error {
	_, err := s.rules.DeleteByEventIDs(eventIDs)
	return err
}

// EventStats summarizes a user's events.
type EventStats struct {
	Total      int
	ByCategory map[string]int
	ByMonth    map[string]int
}

// Stats counts the user's events grouped by category and by month of the
// start date-time (key format "2006-01").
func (s *EventService) Stats(userID int) EventStats {
	stats := EventStats{
		ByCategory: make(map[string]int),
		ByMonth:    make(map[string]int),
	}
	for _, ev := range s.events.LoadAll() {
		if ev.UserID != userID {
			continue
		}
		stats.Total++
		stats.ByCategory[ev.Category]++
		stats.ByMonth[ev.StartDateTime.Format("2006-01")]++
	}
	return stats
}

func validateEvent(ev *models.Event) error {
	if ev.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if ev.StartDateTime.IsZero() {
		return fmt.Errorf("%w: startDateTime is required", ErrValidation)
	}
	if ev.EndDateTime.IsZero() {
		return fmt.Errorf("%w: endDateTime is required", ErrValidation)
	}
	if ev.EndDateTime.Before(ev.StartDateTime.Time) {
		return fmt.Errorf("%w: endDateTime precedes startDateTime", ErrValidation)
	}
	if ev.UserID == 0 {
		return fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if ev.Category == "" {
		ev.Category = models.DefaultCategory
	}
	return nil
}
