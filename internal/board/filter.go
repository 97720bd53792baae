package board

import (
	"fmt"
	"strings"
	"time"

	"protaskinate/internal/model"
)

// All disables a criterion.
const All = "all"

// DateRange is a relative due-date predicate.
type DateRange string

const (
	AnyDate   DateRange = All
	Today     DateRange = "today"
	Tomorrow  DateRange = "tomorrow"
	ThisWeek  DateRange = "thisWeek"
	NextWeek  DateRange = "nextWeek"
	ThisMonth DateRange = "thisMonth"
	NextMonth DateRange = "nextMonth"
	PastDue   DateRange = "pastDue"
)

var dateRangeAliases = map[string]DateRange{
	"":            AnyDate,
	"all":         AnyDate,
	"today":       Today,
	"istoday":     Today,
	"tomorrow":    Tomorrow,
	"istomorrow":  Tomorrow,
	"thisweek":    ThisWeek,
	"isthisweek":  ThisWeek,
	"nextweek":    NextWeek,
	"isnextweek":  NextWeek,
	"thismonth":   ThisMonth,
	"isthismonth": ThisMonth,
	"nextmonth":   NextMonth,
	"isnextmonth": NextMonth,
	"pastdue":     PastDue,
	"ispast":      PastDue,
}

// ParseDateRange accepts the canonical names case-insensitively, plus the
// "isToday"-style names older clients send.
func ParseDateRange(s string) (DateRange, error) {
	r, ok := dateRangeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown date filter %q", s)
	}
	return r, nil
}

// Criteria narrows a task collection. Empty fields and "all" match everything.
type Criteria struct {
	Category string
	Priority model.Priority
	Date     DateRange
}

// ParseCriteria builds criteria from raw query values.
func ParseCriteria(category, priority, date string) (Criteria, error) {
	c := Criteria{Category: strings.TrimSpace(category)}

	p := strings.ToLower(strings.TrimSpace(priority))
	if p != "" && p != All {
		if !model.Priority(p).Valid() {
			return Criteria{}, fmt.Errorf("unknown priority %q", priority)
		}
		c.Priority = model.Priority(p)
	}

	r, err := ParseDateRange(date)
	if err != nil {
		return Criteria{}, err
	}
	c.Date = r
	return c, nil
}

// Filter returns the tasks matching every criterion, in input order. Relative
// date ranges are anchored to the calendar date of now in now's location;
// now is read once so every task sees the same boundaries.
func Filter(tasks []model.Task, c Criteria, now time.Time) []model.Task {
	match := c.dateMatcher(model.DateOf(now))
	out := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if c.Category != "" && c.Category != All && !task.HasCategory(c.Category) {
			continue
		}
		if c.Priority != "" && c.Priority != All && task.Priority != c.Priority {
			continue
		}
		if !match(task) {
			continue
		}
		out = append(out, task)
	}
	return out
}

func (c Criteria) dateMatcher(today model.Date) func(model.Task) bool {
	if c.Date == "" || c.Date == AnyDate {
		return func(model.Task) bool { return true }
	}

	var in func(model.Date) bool
	switch c.Date {
	case Today:
		in = func(d model.Date) bool { return d == today }
	case Tomorrow:
		tomorrow := today.AddDays(1)
		in = func(d model.Date) bool { return d == tomorrow }
	case ThisWeek:
		start := StartOfWeek(today)
		in = between(start, start.AddDays(6))
	case NextWeek:
		start := StartOfWeek(today).AddDays(7)
		in = between(start, start.AddDays(6))
	case ThisMonth:
		in = sameMonth(today.Year, today.Month)
	case NextMonth:
		next := model.NewDate(today.Year, today.Month+1, 1)
		in = sameMonth(next.Year, next.Month)
	case PastDue:
		return func(t model.Task) bool { return IsPastDue(t, today) }
	default:
		return func(model.Task) bool { return false }
	}

	return func(t model.Task) bool {
		return t.DueDate != nil && in(*t.DueDate)
	}
}

// StartOfWeek returns the Sunday on or before d.
func StartOfWeek(d model.Date) model.Date {
	return d.AddDays(-int(d.Weekday()))
}

func between(start, end model.Date) func(model.Date) bool {
	return func(d model.Date) bool {
		return !d.Before(start) && !d.After(end)
	}
}

func sameMonth(year int, month time.Month) func(model.Date) bool {
	return func(d model.Date) bool {
		return d.Year == year && d.Month == month
	}
}
