package service

import (
	"strconv"
	"time"

	"github.com/planwise/calendar-server/internal/models"
)

// maxInstances caps an expansion when neither a repeat count nor an end
// date is given.
const maxInstances = 50

// Supported interval codes.
const (
	IntervalDaily   = "1d"
	IntervalWeekly  = "1w"
	IntervalMonthly = "1m"
	IntervalYearly  = "1y"
)

// IsRecurring reports whether the interval code triggers expansion. Any
// other value, including empty, means the event is saved as a single row.
func IsRecurring(interval string) bool {
	switch interval {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return true
	}
	return false
}

// stepFunc advances a timestamp by one interval unit.
type stepFunc func(time.Time) time.Time

func stepFor(interval string) (stepFunc, bool) {
	switch interval {
	case IntervalDaily:
		return func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }, true
	case IntervalWeekly:
		return func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }, true
	case IntervalMonthly:
		return func(t time.Time) time.Time { return addMonthsClamped(t, 1) }, true
	case IntervalYearly:
		return func(t time.Time) time.Time { return addMonthsClamped(t, 12) }, true
	}
	return nil, false
}

// addMonthsClamped advances by whole months, clamping the day-of-month to
// the last valid day of the target month. time.AddDate would normalize
// Jan 31 + 1 month into Mar 2/3; the calendar contract is Feb 28/29, and a
// Feb 29 start advanced by one year lands on Feb 28.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// expandInstances derives the recurring instances of a base event, not
// including the base itself. Instance events copy the base's owner, title,
// description and category, carry the advanced times, and have no
// recurrence fields of their own.
//
// The stop condition is resolved in priority order: a parseable end date
// wins (stop once the next start passes 23:59:59 of that date, any repeat
// count is ignored), then a positive repeat count (total instances
// including the base), then the hard cap of maxInstances.
func expandInstances(base models.Event) []models.Event {
	step, ok := stepFor(base.RecurrentInterval)
	if !ok {
		return nil
	}

	var until time.Time
	haveUntil := false
	if d, err := time.Parse(models.DateLayout, base.RecurrentEndDate); err == nil {
		until = d.Add(24*time.Hour - time.Second)
		haveUntil = true
	}

	limit := maxInstances
	if !haveUntil {
		if n, err := strconv.Atoi(base.RecurrentTimes); err == nil && n > 0 {
			limit = n
		}
	}

	var out []models.Event
	total := 1 // the base event counts as the first instance
	currentStart := base.StartDateTime.Time
	currentEnd := base.EndDateTime.Time
	for {
		currentStart = step(currentStart)
		currentEnd = step(currentEnd)
		if haveUntil {
			if currentStart.After(until) {
				return out
			}
		} else if total >= limit {
			return out
		}
		out = append(out, models.Event{
			UserID:        base.UserID,
			Title:         base.Title,
			Description:   base.Description,
			StartDateTime: models.NewLocalDateTime(currentStart),
			EndDateTime:   models.NewLocalDateTime(currentEnd),
			Category:      base.Category,
		})
		total++
	}
}
