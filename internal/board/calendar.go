package board

import (
	"slices"
	"time"

	"protaskinate/internal/model"
)

// CalendarTask is a task as shown inside a calendar cell.
type CalendarTask struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Priority     model.Priority `json:"priority"`
	Status       model.Status   `json:"status"`
	RepeatNumber int            `json:"repeatNumber"`
	PastDue      bool           `json:"pastDue"`
}

// CalendarDay is one cell of the month grid.
type CalendarDay struct {
	Date         model.Date     `json:"date"`
	CurrentMonth bool           `json:"currentMonth"`
	Tasks        []CalendarTask `json:"tasks"`
}

// Month is a grid of whole weeks, Sunday first, covering one month.
type Month struct {
	Year  int           `json:"year"`
	Month time.Month    `json:"month"`
	Days  []CalendarDay `json:"days"`
}

// CalendarMonth lays out the month grid and places every dated task on its
// due day. Days of the neighbouring months pad the first and last week.
func CalendarMonth(tasks []model.Task, year int, month time.Month, today model.Date) Month {
	first := model.NewDate(year, month, 1)
	start := StartOfWeek(first)
	last := model.NewDate(year, month+1, 0)
	end := last.AddDays(6 - int(last.Weekday()))

	byDay := make(map[model.Date][]CalendarTask)
	for _, task := range tasks {
		if task.DueDate == nil || task.DueDate.Before(start) || task.DueDate.After(end) {
			continue
		}
		byDay[*task.DueDate] = append(byDay[*task.DueDate], CalendarTask{
			ID:           task.ID,
			Title:        task.Title,
			Priority:     task.Priority,
			Status:       task.Status,
			RepeatNumber: task.RepeatNumber,
			PastDue:      IsPastDue(task, today),
		})
	}

	m := Month{Year: first.Year, Month: first.Month}
	for d := start; !d.After(end); d = d.AddDays(1) {
		cell := byDay[d]
		if cell == nil {
			cell = []CalendarTask{}
		}
		slices.SortStableFunc(cell, func(a, b CalendarTask) int {
			return a.Priority.Weight() - b.Priority.Weight()
		})
		m.Days = append(m.Days, CalendarDay{
			Date:         d,
			CurrentMonth: d.Month == first.Month && d.Year == first.Year,
			Tasks:        cell,
		})
	}
	return m
}

// IsPastDue reports whether a to-do task's due date is before today.
func IsPastDue(task model.Task, today model.Date) bool {
	return task.Status == model.StatusToDo && task.DueDate != nil && task.DueDate.Before(today)
}
