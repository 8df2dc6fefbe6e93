package store

import (
	"path/filepath"
	"strconv"

	"github.com/planwise/calendar-server/internal/models"
	"github.com/planwise/calendar-server/internal/utils"
)

// RuleHeader is the canonical header of the recurrence table.
const RuleHeader = "eventId,recurrentInterval,recurrentTimes,recurrentEndDate"

const ruleFieldCount = 4

// RuleStore owns recurrent.csv, one row per recurring event.
type RuleStore struct {
	table
}

// NewRuleStore creates a rule store backed by recurrent.csv under dataDir.
func NewRuleStore(dataDir string, logger *utils.Logger) *RuleStore {
	return &RuleStore{table: newTable(filepath.Join(dataDir, "recurrent.csv"), RuleHeader, logger)}
}

// Initialize ensures the backing file exists with its header.
func (s *RuleStore) Initialize() error {
	return s.initialize()
}

// LoadAll returns every decodable rule row in file order.
func (s *RuleStore) LoadAll() []models.RecurrenceRule {
	return s.decodeAll(s.dataLines())
}

func (s *RuleStore) decodeAll(lines []string) []models.RecurrenceRule {
	rules := make([]models.RecurrenceRule, 0, len(lines))
	for _, line := range lines {
		rule, ok := decodeRule(line)
		if !ok {
			s.logger.Warn("skipping malformed recurrence row: %q", line)
			continue
		}
		rules = append(rules, rule)
	}
	return rules
}

func decodeRule(line string) (models.RecurrenceRule, bool) {
	fields, err := decodeRow(line)
	if err != nil || len(fields) < ruleFieldCount {
		return models.RecurrenceRule{}, false
	}
	eventID, err := strconv.Atoi(fields[0])
	if err != nil {
		return models.RecurrenceRule{}, false
	}
	return models.RecurrenceRule{
		EventID:           eventID,
		RecurrentInterval: fields[1],
		RecurrentTimes:    fields[2],
		RecurrentEndDate:  fields[3],
	}, true
}

func encodeRule(rule models.RecurrenceRule) string {
	return encodeRow([]string{
		strconv.Itoa(rule.EventID),
		rule.RecurrentInterval,
		rule.RecurrentTimes,
		rule.RecurrentEndDate,
	})
}

// FindByEventID returns the rule owned by eventID, or nil.
func (s *RuleStore) FindByEventID(eventID int) *models.RecurrenceRule {
	for _, rule := range s.LoadAll() {
		if rule.EventID == eventID {
			r := rule
			return &r
		}
	}
	return nil
}

// Append writes one rule row. The event id comes from the caller; rules
// have no id allocation of their own.
func (s *RuleStore) Append(rule models.RecurrenceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLine(encodeRule(rule))
}

// Upsert replaces the rule for eventID when one exists. When none does and
// the incoming rule carries a non-empty interval, a new row is appended
// instead; an empty interval never creates a row.
func (s *RuleStore) Upsert(eventID int, rule models.RecurrenceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules := s.decodeAll(s.dataLines())
	for i := range rules {
		if rules[i].EventID == eventID {
			rule.EventID = eventID
			rules[i] = rule
			return s.rewriteRules(rules)
		}
	}
	if rule.RecurrentInterval == "" {
		return nil
	}
	rule.EventID = eventID
	return s.appendLine(encodeRule(rule))
}

// DeleteByEventID removes the rule owned by eventID. The file is rewritten
// only when a row was removed.
func (s *RuleStore) DeleteByEventID(eventID int) (bool, error) {
	removed, err := s.DeleteByEventIDs([]int{eventID})
	return removed > 0, err
}

// DeleteByEventIDs bulk-removes the rules owned by any of the given event
// ids. No-ops on an empty id set; rewrites only when at least one row was
// removed. Used by cascade deletion.
func (s *RuleStore) DeleteByEventIDs(eventIDs []int) (int, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}
	doomed := make(map[int]bool, len(eventIDs))
	for _, id := range eventIDs {
		doomed[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rules := s.decodeAll(s.dataLines())
	kept := make([]models.RecurrenceRule, 0, len(rules))
	for _, rule := range rules {
		if !doomed[rule.EventID] {
			kept = append(kept, rule)
		}
	}
	removed := len(rules) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, s.rewriteRules(kept)
}

func (s *RuleStore) rewriteRules(rules []models.RecurrenceRule) error {
	lines := make([]string, 0, len(rules))
	for _, rule := range rules {
		lines = append(lines, encodeRule(rule))
	}
	return s.rewrite(lines)
}

// RawLines exposes the table's data lines verbatim for the backup codec.
func (s *RuleStore) RawLines() []string {
	return s.dataLines()
}

// Restore overwrites or extends the table with raw backup lines.
func (s *RuleStore) Restore(lines []string, appendMode bool) error {
	return s.restore(lines, appendMode)
}
