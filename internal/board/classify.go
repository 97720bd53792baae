// Package board turns a user's task collection into the kanban columns and
// calendar grid. Everything here is pure: the same input always produces the
// same output, and "now" only enters through Filter's argument.
package board

import (
	"log"
	"slices"

	"protaskinate/internal/model"
)

// Buckets holds the three board columns.
type Buckets struct {
	ToDo       []model.Task `json:"toDo"`
	InProgress []model.Task `json:"inProgress"`
	Completed  []model.Task `json:"completed"`
}

// Len returns the number of tasks across all columns.
func (b Buckets) Len() int {
	return len(b.ToDo) + len(b.InProgress) + len(b.Completed)
}

// Classify partitions tasks by status and orders every column.
//
// To-do and in-progress are ordered by priority (high first), then by due
// date with undated tasks trailing. Completed is ordered by completion time,
// newest first, with tasks missing a completion time last. Ties keep their
// input order. Tasks with an unknown status are logged and left out.
func Classify(tasks []model.Task) Buckets {
	b := Buckets{
		ToDo:       []model.Task{},
		InProgress: []model.Task{},
		Completed:  []model.Task{},
	}
	for _, task := range tasks {
		switch task.Status {
		case model.StatusToDo:
			b.ToDo = append(b.ToDo, task)
		case model.StatusInProgress:
			b.InProgress = append(b.InProgress, task)
		case model.StatusCompleted:
			b.Completed = append(b.Completed, task)
		default:
			log.Printf("[warn] board: task %s has unknown status %q, skipped", task.ID, task.Status)
		}
	}

	slices.SortStableFunc(b.ToDo, compareOpen)
	slices.SortStableFunc(b.InProgress, compareOpen)
	slices.SortStableFunc(b.Completed, compareCompleted)
	return b
}

func compareOpen(a, b model.Task) int {
	if d := a.Priority.Weight() - b.Priority.Weight(); d != 0 {
		return d
	}
	return compareDue(a.DueDate, b.DueDate)
}

// compareDue orders dated before undated; two undated tasks tie.
func compareDue(a, b *model.Date) int {
	switch {
	case a != nil && b != nil:
		return a.Compare(*b)
	case a != nil:
		return -1
	case b != nil:
		return 1
	}
	return 0
}

func compareCompleted(a, b model.Task) int {
	switch {
	case a.CompletedAt != nil && b.CompletedAt != nil:
		return b.CompletedAt.Compare(*a.CompletedAt)
	case a.CompletedAt != nil:
		return -1
	case b.CompletedAt != nil:
		return 1
	}
	return 0
}
