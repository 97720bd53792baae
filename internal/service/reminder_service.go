package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"protaskinate/internal/board"
	"protaskinate/internal/model"
)

// ReminderService builds human-readable summaries for periodic notifications.
type ReminderService struct {
	tasks *TaskService
}

func NewReminderService(tasks *TaskService) *ReminderService {
	return &ReminderService{tasks: tasks}
}

// DailySummary lists what is overdue, due today and in progress for user.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	tasks, err := s.tasks.ListTasks(ctx, user.ID)
	if err != nil {
		return "", err
	}

	overdue := board.Classify(board.Filter(tasks, board.Criteria{Date: board.PastDue}, now)).ToDo
	dueToday := board.Classify(board.Filter(tasks, board.Criteria{Date: board.Today}, now))
	inProgress := board.Classify(tasks).InProgress

	today := modelToday(now)
	var builder strings.Builder
	builder.WriteString("📋 <b>Daily report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Monday, January 2")))

	builder.WriteString("⚠️ <b>Past due</b>\n")
	if len(overdue) == 0 {
		builder.WriteString("— nothing overdue\n")
	} else {
		for _, task := range overdue {
			builder.WriteString(formatReminder(task, today))
		}
	}

	builder.WriteString("\n⏳ <b>Due today</b>\n")
	if len(dueToday.ToDo) == 0 {
		builder.WriteString("— nothing due today\n")
	} else {
		for _, task := range dueToday.ToDo {
			builder.WriteString(formatReminder(task, today))
		}
	}

	builder.WriteString("\n🔥 <b>In progress</b>\n")
	if len(inProgress) == 0 {
		builder.WriteString("— nothing started\n")
	} else {
		for _, task := range inProgress {
			builder.WriteString(formatReminder(task, today))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

func formatReminder(task model.Task, today model.Date) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %s", priorityIcon(task.Priority), html.EscapeString(strings.TrimSpace(task.Title))))
	if task.Repeats() {
		sb.WriteString(" ♻️")
	}

	if task.DueDate != nil {
		if task.DueDate.Before(today) {
			days := int(today.In(time.UTC).Sub(task.DueDate.In(time.UTC)).Hours() / 24)
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · %d d. late", task.DueDate, days))
		} else {
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s", task.DueDate))
		}
	}

	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(task.Description))))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func priorityIcon(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "🔴"
	case model.PriorityMedium:
		return "🟡"
	default:
		return "🟢"
	}
}

func modelToday(now time.Time) model.Date {
	return model.DateOf(now)
}
