package board

import (
	"testing"
	"time"

	"protaskinate/internal/model"
)

func TestCalendarMonthGrid(t *testing.T) {
	// June 2024 starts on a Saturday and ends on a Sunday.
	m := CalendarMonth(nil, 2024, time.June, model.NewDate(2024, 6, 12))

	if len(m.Days)%7 != 0 {
		t.Fatalf("grid must be whole weeks, got %d days", len(m.Days))
	}
	if first := m.Days[0].Date.String(); first != "2024-05-26" {
		t.Fatalf("grid starts %s, want 2024-05-26", first)
	}
	if last := m.Days[len(m.Days)-1].Date.String(); last != "2024-07-06" {
		t.Fatalf("grid ends %s, want 2024-07-06", last)
	}
	current := 0
	for _, d := range m.Days {
		if d.CurrentMonth {
			current++
		}
		if d.Tasks == nil {
			t.Fatalf("day %s has nil tasks", d.Date)
		}
	}
	if current != 30 {
		t.Fatalf("expected 30 days of June, got %d", current)
	}
}

func TestCalendarMonthPlacesTasks(t *testing.T) {
	tasks := []model.Task{
		{ID: "late", Title: "late", Status: model.StatusToDo, Priority: model.PriorityLow, DueDate: date("2024-06-03")},
		{ID: "done", Title: "done", Status: model.StatusCompleted, Priority: model.PriorityHigh, DueDate: date("2024-06-03")},
		{ID: "padding", Title: "padding", Status: model.StatusToDo, DueDate: date("2024-07-02")},
		{ID: "outside", Title: "outside", Status: model.StatusToDo, DueDate: date("2024-08-02")},
		{ID: "undated", Title: "undated", Status: model.StatusToDo},
	}

	m := CalendarMonth(tasks, 2024, time.June, model.NewDate(2024, 6, 12))

	placed := map[string]CalendarTask{}
	for _, d := range m.Days {
		for _, ct := range d.Tasks {
			placed[ct.ID] = ct
		}
		if d.Date.String() == "2024-06-03" {
			if len(d.Tasks) != 2 || d.Tasks[0].ID != "done" {
				t.Fatalf("expected high priority first on June 3rd, got %+v", d.Tasks)
			}
		}
	}
	if len(placed) != 3 {
		t.Fatalf("expected 3 tasks on the grid, got %v", placed)
	}
	if !placed["late"].PastDue {
		t.Fatal("late to-do should be past due")
	}
	if placed["done"].PastDue {
		t.Fatal("completed task is never past due")
	}
	if placed["padding"].PastDue {
		t.Fatal("future task is not past due")
	}
}
