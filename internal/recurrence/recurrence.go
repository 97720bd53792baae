// Package recurrence computes due dates of regenerated repeating tasks.
package recurrence

import (
	"log"
	"time"
	_ "time/tzdata"

	"protaskinate/internal/model"
)

// Location resolves an IANA zone name. Unknown or empty names resolve to UTC
// and ok is false.
func Location(zone string) (loc *time.Location, ok bool) {
	if zone == "" {
		return time.UTC, false
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.UTC, false
	}
	return loc, true
}

// NextDueDate returns the calendar date quantity units after completedAt,
// as seen from zone. Month steps clamp to the last day of the target month,
// so January 31st plus one month is February 28th or 29th.
//
// An unknown unit yields the local date of completedAt itself. An unusable
// zone is logged and treated as UTC.
func NextDueDate(completedAt time.Time, quantity int, unit model.RepeatUnit, zone string) model.Date {
	loc, ok := Location(zone)
	if !ok {
		log.Printf("[warn] recurrence: time zone %q unavailable, using UTC", zone)
	}
	local := model.DateOf(completedAt.In(loc))

	switch unit {
	case model.RepeatDay:
		return local.AddDays(quantity)
	case model.RepeatWeek:
		return local.AddDays(quantity * 7)
	case model.RepeatMonth:
		return AddMonths(local, quantity)
	default:
		log.Printf("[warn] recurrence: unknown repeat unit %q, due date kept at %s", unit, local)
		return local
	}
}

// AddMonths adds n calendar months to d, clamping the day to the length of
// the resulting month.
func AddMonths(d model.Date, n int) model.Date {
	first := model.NewDate(d.Year, d.Month+time.Month(n), 1)
	day := d.Day
	if last := DaysInMonth(first.Year, first.Month); day > last {
		day = last
	}
	return model.Date{Year: first.Year, Month: first.Month, Day: day}
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
