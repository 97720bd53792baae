package bot

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"protaskinate/internal/board"
	"protaskinate/internal/model"
	"protaskinate/internal/service"
)

const sampleID = "3f2b9c1e-8d4a-4e7b-9a61-0c5d2e7f8a90"

func TestParseMoveDataRoundTrip(t *testing.T) {
	task := model.Task{ID: sampleID, Title: "Write a very long report title", Status: model.StatusToDo}
	row := moveButtons(task)
	if len(row) != 3 {
		t.Fatalf("expected two move buttons and delete, got %d", len(row))
	}

	var moved []model.Status
	for _, button := range row[:2] {
		data := *button.CallbackData
		if len(data) > 64 {
			t.Fatalf("callback data too long: %d bytes", len(data))
		}
		status, id, ok := parseMoveData(data)
		if !ok || id != sampleID {
			t.Fatalf("parseMoveData(%q) = %v, %q, %v", data, status, id, ok)
		}
		moved = append(moved, status)
	}
	if moved[0] != model.StatusInProgress || moved[1] != model.StatusCompleted {
		t.Fatalf("unexpected targets %v", moved)
	}
	if *row[2].CallbackData != cbDeletePrefix+sampleID {
		t.Fatalf("delete data = %q", *row[2].CallbackData)
	}

	for _, bad := range []string{"mv:x:" + sampleID, "mv:t:", "mv:t"} {
		if _, _, ok := parseMoveData(bad); ok {
			t.Fatalf("parseMoveData(%q) accepted", bad)
		}
	}
}

func TestParseBoardArgs(t *testing.T) {
	c, err := parseBoardArgs("high thisWeek Work")
	if err != nil {
		t.Fatal(err)
	}
	if c.Priority != model.PriorityHigh || c.Date != board.ThisWeek || c.Category != "Work" {
		t.Fatalf("unexpected criteria %+v", c)
	}

	c, err = parseBoardArgs("isPast")
	if err != nil {
		t.Fatal(err)
	}
	if c.Date != board.PastDue || c.Priority != "" {
		t.Fatalf("unexpected criteria %+v", c)
	}

	c, err = parseBoardArgs("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Category != "" || c.Priority != "" {
		t.Fatalf("empty args should match everything: %+v", c)
	}
}

func TestParseRepeat(t *testing.T) {
	cases := []struct {
		in     string
		number int
		unit   model.RepeatUnit
		err    string
	}{
		{"never", 0, model.RepeatNever, ""},
		{"", 0, model.RepeatNever, ""},
		{"2 weeks", 2, model.RepeatWeek, ""},
		{"1 Month", 1, model.RepeatMonth, ""},
		{"3 day", 3, model.RepeatDay, ""},
		{"0 day", 0, "", "please choose a REPEAT FREQUENCY"},
		{"2 years", 0, "", "please choose a REPEAT UNIT"},
		{"weekly", 0, "", "send never"},
	}
	for _, tc := range cases {
		number, unit, err := parseRepeat(tc.in)
		if tc.err != "" {
			if err == nil || !strings.Contains(err.Error(), tc.err) {
				t.Fatalf("parseRepeat(%q) error = %v, want %q", tc.in, err, tc.err)
			}
			continue
		}
		if err != nil || number != tc.number || unit != tc.unit {
			t.Fatalf("parseRepeat(%q) = %d, %q, %v", tc.in, number, unit, err)
		}
	}
}

func TestParseStatusAndPriority(t *testing.T) {
	if s, ok := parseStatus("Done"); !ok || s != model.StatusCompleted {
		t.Fatalf("done -> %v %v", s, ok)
	}
	if s, ok := parseStatus("todo"); !ok || s != model.StatusToDo {
		t.Fatalf("todo -> %v %v", s, ok)
	}
	if _, ok := parseStatus("archived"); ok {
		t.Fatal("archived accepted")
	}
	if p, ok := parsePriority(priorityLabel(model.PriorityMedium)); !ok || p != model.PriorityMedium {
		t.Fatalf("keyboard label -> %v %v", p, ok)
	}
	if p, ok := parsePriority("HIGH"); !ok || p != model.PriorityHigh {
		t.Fatalf("HIGH -> %v %v", p, ok)
	}
}

func TestParseDueArg(t *testing.T) {
	due, err := parseDueArg("2025-11-30")
	if err != nil || due == nil || due.String() != "2025-11-30" {
		t.Fatalf("parseDueArg = %v, %v", due, err)
	}
	if due, err := parseDueArg("none"); err != nil || due != nil {
		t.Fatalf("none = %v, %v", due, err)
	}
	if _, err := parseDueArg("30/11/2025"); err == nil {
		t.Fatal("expected error")
	}
}

func TestMatchTask(t *testing.T) {
	tasks := []model.Task{
		{ID: "abc12345-0000"},
		{ID: "abc99999-0000"},
		{ID: "def00000-0000"},
	}
	if task, err := matchTask(tasks, "DEF"); err != nil || task.ID != "def00000-0000" {
		t.Fatalf("prefix match = %v, %v", task, err)
	}
	if _, err := matchTask(tasks, "abc"); !errors.Is(err, errAmbiguousID) {
		t.Fatalf("expected ambiguity, got %v", err)
	}
	if _, err := matchTask(tasks, "zzz"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := matchTask(tasks, " "); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected not found for empty ref, got %v", err)
	}
}

func TestRenderBoard(t *testing.T) {
	now := time.Date(2024, time.June, 12, 9, 0, 0, 0, time.UTC)
	late := model.NewDate(2024, time.June, 1)
	var completed []model.Task
	for i := 0; i < completedShown+2; i++ {
		completed = append(completed, model.Task{ID: fmt.Sprintf("c%d", i), Title: "Done", Status: model.StatusCompleted})
	}
	buckets := board.Buckets{
		ToDo: []model.Task{{
			ID: sampleID, Title: "Pay <rent>", Status: model.StatusToDo, Priority: model.PriorityHigh,
			DueDate: &late, RepeatNumber: 1, RepeatUnit: model.RepeatMonth, Categories: []string{"Personal", "OldJob"},
		}},
		Completed: completed,
	}

	categories := []model.Category{{ID: "Personal", Name: "Personal"}, {ID: "DayJob", Name: "Day Job"}}
	text, buttons := renderBoard(buckets, categories, now)
	for _, want := range []string{"Pay &lt;rent&gt;", "past due", shortID(sampleID), iconRecurring, "Personal", "… and 2 more", "In progress</b> (0)"} {
		if !strings.Contains(text, want) {
			t.Fatalf("board text missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "OldJob") {
		t.Fatalf("deleted category still rendered:\n%s", text)
	}
	if len(buttons) != 1+completedShown {
		t.Fatalf("expected %d button rows, got %d", 1+completedShown, len(buttons))
	}
}

func TestUserMessage(t *testing.T) {
	verr := &service.ValidationError{Field: "title", Message: "title is required"}
	if got := userMessage(fmt.Errorf("wrapped: %w", verr)); got != "title is required" {
		t.Fatalf("validation message = %q", got)
	}
	if got := userMessage(service.ErrForbidden); !strings.Contains(got, "someone else") {
		t.Fatalf("forbidden message = %q", got)
	}
	if got := userMessage(errors.New("disk on fire")); strings.Contains(got, "disk") {
		t.Fatalf("internal error leaked: %q", got)
	}
}

func TestFormatStats(t *testing.T) {
	text := formatStats(board.Stats{
		Total:               3,
		ByStatus:            map[model.Status]int{model.StatusCompleted: 2, model.StatusToDo: 1},
		CompletedToday:      1,
		CompletedTotal:      2,
		CompletedByPriority: map[model.Priority]int{model.PriorityHigh: 2},
	})
	for _, want := range []string{"Tasks: 3", "completed 2", "today: 1", "all time: 2", "High: 2"} {
		if !strings.Contains(text, want) {
			t.Fatalf("stats text missing %q:\n%s", want, text)
		}
	}
}
