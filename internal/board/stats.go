package board

import (
	"time"

	"protaskinate/internal/model"
)

// Stats summarizes a task collection for the dashboard.
type Stats struct {
	Total               int                    `json:"total"`
	ByStatus            map[model.Status]int   `json:"byStatus"`
	CompletedToday      int                    `json:"completedToday"`
	CompletedThisWeek   int                    `json:"completedThisWeek"`
	CompletedThisMonth  int                    `json:"completedThisMonth"`
	CompletedThisYear   int                    `json:"completedThisYear"`
	CompletedTotal      int                    `json:"completedTotal"`
	CompletedByPriority map[model.Priority]int `json:"completedByPriority"`
}

// Summarize counts tasks by status and completed tasks by period and
// priority. Periods are calendar periods of now in now's location.
func Summarize(tasks []model.Task, now time.Time) Stats {
	today := model.DateOf(now)
	weekStart := StartOfWeek(today)

	s := Stats{
		Total: len(tasks),
		ByStatus: map[model.Status]int{
			model.StatusToDo:       0,
			model.StatusInProgress: 0,
			model.StatusCompleted:  0,
		},
		CompletedByPriority: map[model.Priority]int{
			model.PriorityLow:    0,
			model.PriorityMedium: 0,
			model.PriorityHigh:   0,
		},
	}

	for _, task := range tasks {
		if task.Status.Valid() {
			s.ByStatus[task.Status]++
		}
		if task.Status != model.StatusCompleted {
			continue
		}
		s.CompletedTotal++
		if task.Priority.Valid() {
			s.CompletedByPriority[task.Priority]++
		}
		if task.CompletedAt == nil {
			continue
		}
		done := model.DateOf(task.CompletedAt.In(now.Location()))
		if done == today {
			s.CompletedToday++
		}
		if !done.Before(weekStart) && !done.After(weekStart.AddDays(6)) {
			s.CompletedThisWeek++
		}
		if done.Year == today.Year {
			s.CompletedThisYear++
			if done.Month == today.Month {
				s.CompletedThisMonth++
			}
		}
	}
	return s
}
