package store

import (
	"path/filepath"
	"strconv"

	"github.com/planwise/calendar-server/internal/models"
	"github.com/planwise/calendar-server/internal/utils"
)

// EventHeader is the canonical header of the events table.
const EventHeader = "id,userId,title,description,startDateTime,endDateTime,category"

const eventFieldCount = 7

// EventStore owns events.csv and provides CRUD operations over its rows.
type EventStore struct {
	table
}

// NewEventStore creates an event store backed by events.csv under dataDir.
func NewEventStore(dataDir string, logger *utils.Logger) *EventStore {
	return &EventStore{table: newTable(filepath.Join(dataDir, "events.csv"), EventHeader, logger)}
}

// Initialize ensures the backing file exists with its header.
func (s *EventStore) Initialize() error {
	return s.initialize()
}

// LoadAll returns every decodable event row in file order. Rows with too
// few fields, unparseable ids or unparseable date-times are skipped.
func (s *EventStore) LoadAll() []models.Event {
	return s.decodeAll(s.dataLines())
}

func (s *EventStore) decodeAll(lines []string) []models.Event {
	events := make([]models.Event, 0, len(lines))
	for _, line := range lines {
		ev, ok := s.decodeEvent(line)
		if !ok {
			s.logger.Warn("skipping malformed event row: %q", line)
			continue
		}
		events = append(events, ev)
	}
	return events
}

func (s *EventStore) decodeEvent(line string) (models.Event, bool) {
	fields, err := decodeRow(line)
	if err != nil || len(fields) < eventFieldCount {
		return models.Event{}, false
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return models.Event{}, false
	}
	userID, err := strconv.Atoi(fields[1])
	if err != nil {
		return models.Event{}, false
	}
	start, err := models.ParseLocalDateTime(fields[4])
	if err != nil {
		return models.Event{}, false
	}
	end, err := models.ParseLocalDateTime(fields[5])
	if err != nil {
		return models.Event{}, false
	}
	return models.Event{
		ID:            id,
		UserID:        userID,
		Title:         fields[2],
		Description:   fields[3],
		StartDateTime: start,
		EndDateTime:   end,
		Category:      fields[6],
	}, true
}

func encodeEvent(ev models.Event) string {
	return encodeRow([]string{
		strconv.Itoa(ev.ID),
		strconv.Itoa(ev.UserID),
		ev.Title,
		ev.Description,
		ev.StartDateTime.String(),
		ev.EndDateTime.String(),
		ev.Category,
	})
}

// NextID returns max(id)+1 over the current rows, or 1 for an empty or
// unreadable table. Computed fresh from disk on every call.
func (s *EventStore) NextID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextIDLocked()
}

func (s *EventStore) nextIDLocked() int {
	maxID := 0
	for _, line := range s.dataLines() {
		fields, err := decodeRow(line)
		if err != nil || len(fields) == 0 {
			continue
		}
		if id, err := strconv.Atoi(fields[0]); err == nil && id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

// Append assigns the event a fresh id and writes it as one new line.
func (s *EventStore) Append(ev *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.ID = s.nextIDLocked()
	return s.appendLine(encodeEvent(*ev))
}

// AppendBatch assigns sequential fresh ids to every event and writes the
// whole table once: current valid rows followed by the new instances. Used
// by recurrence expansion so an N-instance series costs a single rewrite.
func (s *EventStore) AppendBatch(events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.decodeAll(s.dataLines())
	nextID := s.nextIDLocked()

	lines := make([]string, 0, len(existing)+len(events))
	for _, ev := range existing {
		lines = append(lines, encodeEvent(ev))
	}
	for _, ev := range events {
		ev.ID = nextID
		nextID++
		lines = append(lines, encodeEvent(*ev))
	}
	return s.rewrite(lines)
}

// UpdateByID replaces the first row whose id matches, preserving the id.
// Returns false without touching the file when no row matches.
func (s *EventStore) UpdateByID(id int, ev models.Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.decodeAll(s.dataLines())
	found := false
	for i := range events {
		if events[i].ID == id {
			ev.ID = id
			events[i] = ev
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}
	return true, s.rewriteEvents(events)
}

// DeleteByID removes the row with the given id. Returns false when no row
// matched; the file is rewritten only if something was removed.
func (s *EventStore) DeleteByID(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.decodeAll(s.dataLines())
	kept := events[:0]
	for _, ev := range events {
		if ev.ID != id {
			kept = append(kept, ev)
		}
	}
	if len(kept) == len(events) {
		return false, nil
	}
	return true, s.rewriteEvents(kept)
}

// DeleteByUserID removes every row owned by userID and reports how many
// rows were removed. The file is rewritten only when at least one matched.
func (s *EventStore) DeleteByUserID(userID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.decodeAll(s.dataLines())
	kept := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if ev.UserID != userID {
			kept = append(kept, ev)
		}
	}
	removed := len(events) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, s.rewriteEvents(kept)
}

// FindByID returns the event with the given id, or nil.
func (s *EventStore) FindByID(id int) *models.Event {
	for _, ev := range s.LoadAll() {
		if ev.ID == id {
			e := ev
			return &e
		}
	}
	return nil
}

// IDsByUserID returns the ids of every event owned by userID.
func (s *EventStore) IDsByUserID(userID int) []int {
	var ids []int
	for _, ev := range s.LoadAll() {
		if ev.UserID == userID {
			ids = append(ids, ev.ID)
		}
	}
	return ids
}

func (s *EventStore) rewriteEvents(events []models.Event) error {
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, encodeEvent(ev))
	}
	return s.rewrite(lines)
}

// RawLines exposes the table's data lines verbatim for the backup codec.
func (s *EventStore) RawLines() []string {
	return s.dataLines()
}

// Restore overwrites or extends the table with raw backup lines.
func (s *EventStore) Restore(lines []string, appendMode bool) error {
	return s.restore(lines, appendMode)
}
