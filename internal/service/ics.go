package service

import (
	"fmt"
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/planwise/calendar-server/internal/models"
	"github.com/teambition/rrule-go"
)

// Event times are exported as floating local times, matching the
// no-timezone file format.
const icsTimeLayout = "20060102T150405"

// ExportICS renders a user's events as a VCALENDAR. Events that own a
// recurrence rule additionally carry an RRULE derived from the stored
// interval code, so consuming calendars see the series definition and not
// just the expanded rows.
func (s *EventService) ExportICS(userID int) (string, error) {
	rules := make(map[int]models.RecurrenceRule)
	for _, rule := range s.rules.LoadAll() {
		rules[rule.EventID] = rule
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	for _, ev := range s.events.LoadAll() {
		if ev.UserID != userID {
			continue
		}
		ve := cal.AddEvent(fmt.Sprintf("event-%d@calendar-server", ev.ID))
		ve.SetDtStampTime(time.Now())
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		ve.SetProperty(ics.ComponentPropertyDtStart, ev.StartDateTime.Format(icsTimeLayout))
		ve.SetProperty(ics.ComponentPropertyDtEnd, ev.EndDateTime.Format(icsTimeLayout))
		ve.SetProperty(ics.ComponentPropertyCategories, ev.Category)
		if rule, ok := rules[ev.ID]; ok {
			if str, err := ruleToRRule(rule); err == nil {
				ve.SetProperty(ics.ComponentPropertyRrule, str)
			} else {
				s.logger.Warn("not exporting rule for event %d: %v", ev.ID, err)
			}
		}
	}
	return cal.Serialize(), nil
}

// ruleToRRule maps an interval code onto an RFC 5545 RRULE string. The
// end date wins over the repeat count, mirroring the expander's stop
// condition priority.
func ruleToRRule(rule models.RecurrenceRule) (string, error) {
	var freq rrule.Frequency
	switch rule.RecurrentInterval {
	case IntervalDaily:
		freq = rrule.DAILY
	case IntervalWeekly:
		freq = rrule.WEEKLY
	case IntervalMonthly:
		freq = rrule.MONTHLY
	case IntervalYearly:
		freq = rrule.YEARLY
	default:
		return "", fmt.Errorf("unsupported interval %q", rule.RecurrentInterval)
	}

	opt := rrule.ROption{Freq: freq}
	if d, err := time.Parse(models.DateLayout, rule.RecurrentEndDate); err == nil {
		opt.Until = d.Add(24*time.Hour - time.Second).UTC()
	} else if n, err := strconv.Atoi(rule.RecurrentTimes); err == nil && n > 0 {
		opt.Count = n
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return "", err
	}
	return r.String(), nil
}
