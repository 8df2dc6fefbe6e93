package models

import (
	"fmt"
	"strings"
	"time"
)

// DateTimeLayout is the wire and file format for event times: ISO-8601
// local date-time without a timezone offset.
const DateTimeLayout = "2006-01-02T15:04:05"

// DateLayout is the format for recurrence end dates.
const DateLayout = "2006-01-02"

// HolidayUserID is the reserved owner id for synthesized holiday events.
// Holiday events are built in memory and never written to the events table.
const HolidayUserID = -1

// DefaultCategory is assigned to events saved without a category.
const DefaultCategory = "PERSONAL"

// LocalDateTime is a time.Time that marshals to and from DateTimeLayout,
// with no timezone component.
type LocalDateTime struct {
	time.Time
}

// NewLocalDateTime builds a LocalDateTime from a time.Time.
func NewLocalDateTime(t time.Time) LocalDateTime {
	return LocalDateTime{Time: t}
}

// ParseLocalDateTime parses a DateTimeLayout string.
func ParseLocalDateTime(s string) (LocalDateTime, error) {
	t, err := time.Parse(DateTimeLayout, s)
	if err != nil {
		return LocalDateTime{}, err
	}
	return LocalDateTime{Time: t}, nil
}

// String renders the time in DateTimeLayout.
func (t LocalDateTime) String() string {
	return t.Format(DateTimeLayout)
}

// MarshalJSON renders the time as a DateTimeLayout string.
func (t LocalDateTime) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", t.Format(DateTimeLayout))), nil
}

// UnmarshalJSON parses a DateTimeLayout string.
func (t *LocalDateTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := time.Parse(DateTimeLayout, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Event represents one calendar event row
type Event struct {
	ID            int           `json:"id"`
	UserID        int           `json:"userId"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	StartDateTime LocalDateTime `json:"startDateTime"`
	EndDateTime   LocalDateTime `json:"endDateTime"`
	Category      string        `json:"category"`

	// Recurrence fields travel with the event on save requests but are
	// persisted in the recurrence table, not the events table.
	RecurrentInterval string `json:"recurrentInterval,omitempty"`
	RecurrentTimes    string `json:"recurrentTimes,omitempty"`
	RecurrentEndDate  string `json:"recurrentEndDate,omitempty"`
}

// RecurrenceRule links an event to its recurrence specification
type RecurrenceRule struct {
	EventID           int    `json:"eventId"`
	RecurrentInterval string `json:"recurrentInterval"`
	RecurrentTimes    string `json:"recurrentTimes"`
	RecurrentEndDate  string `json:"recurrentEndDate"`
}

// AppUser represents a registered user
type AppUser struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"` // never returned in JSON
}

// BackupInfo describes one backup file on disk
type BackupInfo struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	Path         string    `json:"path"`
}
