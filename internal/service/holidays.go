package service

import (
	"time"

	"github.com/planwise/calendar-server/internal/models"
)

type fixedHoliday struct {
	month time.Month
	day   int
	title string
}

var fixedHolidays = []fixedHoliday{
	{time.January, 1, "New Year's Day"},
	{time.May, 1, "Labour Day"},
	{time.December, 24, "Christmas Eve"},
	{time.December, 25, "Christmas Day"},
	{time.December, 31, "New Year's Eve"},
}

// HolidaysForYear synthesizes the fixed-date holiday events of one year.
// The events live only in memory: they carry the reserved holiday owner
// id, a zero event id, and are never written to the events table.
func HolidaysForYear(year int) []models.Event {
	out := make([]models.Event, 0, len(fixedHolidays))
	for _, h := range fixedHolidays {
		start := time.Date(year, h.month, h.day, 0, 0, 0, 0, time.UTC)
		end := time.Date(year, h.month, h.day, 23, 59, 59, 0, time.UTC)
		out = append(out, models.Event{
			UserID:        models.HolidayUserID,
			Title:         h.title,
			StartDateTime: models.NewLocalDateTime(start),
			EndDateTime:   models.NewLocalDateTime(end),
			Category:      "HOLIDAY",
		})
	}
	return out
}
