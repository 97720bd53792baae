package bot

import (
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"protaskinate/internal/board"
	"protaskinate/internal/model"
	"protaskinate/internal/service"
)

const (
	btnSkip          = "⏭️ Skip"
	btnConfirm       = "✅ Confirm"
	btnCancel        = "↩️ Cancel"
	btnCancelDialog  = "⏪ Stop input"
	btnNever         = "never"
	iconOverdue      = "⚠️"
	iconRecurring    = "♻️"
	menuLabelNewTask = "➕ New task"
	menuLabelBoard   = "📋 Board"
	menuLabelReport  = "📰 Report"
	menuLabelHelp    = "ℹ️ Help"
	shortIDLength    = 8
)

// statusCodes keep callback data under Telegram's 64 byte limit.
var statusCodes = map[model.Status]string{
	model.StatusToDo:       "t",
	model.StatusInProgress: "p",
	model.StatusCompleted:  "c",
}

func escape(s string) string {
	return html.EscapeString(s)
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func statusLabel(s model.Status) string {
	switch s {
	case model.StatusToDo:
		return "To do"
	case model.StatusInProgress:
		return "In progress"
	case model.StatusCompleted:
		return "Completed"
	}
	return string(s)
}

func statusIcon(s model.Status) string {
	switch s {
	case model.StatusInProgress:
		return "🔥"
	case model.StatusCompleted:
		return "✅"
	}
	return "📌"
}

func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "🔴 High"
	case model.PriorityMedium:
		return "🟡 Medium"
	}
	return "🟢 Low"
}

func priorityIcon(p model.Priority) string {
	return strings.Fields(priorityLabel(p))[0]
}

func repeatLabel(task model.Task) string {
	if task.RepeatNumber == 1 {
		return fmt.Sprintf("every %s", task.RepeatUnit)
	}
	return fmt.Sprintf("every %d %ss", task.RepeatNumber, task.RepeatUnit)
}

// renderBoard lays the three columns out as text with one row of inline
// move buttons per task.
func renderBoard(buckets board.Buckets, categories []model.Category, now time.Time) (string, [][]tgbotapi.InlineKeyboardButton) {
	today := model.DateOf(now)
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	var builder strings.Builder
	var buttons [][]tgbotapi.InlineKeyboardButton

	columns := []struct {
		status model.Status
		tasks  []model.Task
	}{
		{model.StatusToDo, buckets.ToDo},
		{model.StatusInProgress, buckets.InProgress},
		{model.StatusCompleted, buckets.Completed},
	}
	for _, column := range columns {
		tasks := column.tasks
		hidden := 0
		if column.status == model.StatusCompleted && len(tasks) > completedShown {
			hidden = len(tasks) - completedShown
			tasks = tasks[:completedShown]
		}

		builder.WriteString(fmt.Sprintf("%s <b>%s</b> (%d)\n", statusIcon(column.status), statusLabel(column.status), len(column.tasks)))
		if len(tasks) == 0 {
			builder.WriteString("   —\n")
		}
		for _, task := range tasks {
			builder.WriteString(formatTask(task, names, today))
			buttons = append(buttons, moveButtons(task))
		}
		if hidden > 0 {
			builder.WriteString(fmt.Sprintf("   … and %d more\n", hidden))
		}
		builder.WriteByte('\n')
	}
	return strings.TrimSpace(builder.String()), buttons
}

// formatTask renders one board row. Category ids missing from names belong
// to deleted categories and are left out.
func formatTask(task model.Task, names map[string]string, today model.Date) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <code>%s</code> %s", priorityIcon(task.Priority), shortID(task.ID), escape(task.Title)))
	if task.Repeats() {
		b.WriteString(" " + iconRecurring)
	}
	b.WriteByte('\n')
	if task.DueDate != nil {
		if board.IsPastDue(task, today) {
			b.WriteString(fmt.Sprintf("   %s due %s, <b>past due</b>\n", iconOverdue, task.DueDate))
		} else {
			b.WriteString(fmt.Sprintf("   ⏰ due %s\n", task.DueDate))
		}
	}
	var labels []string
	for _, id := range task.Categories {
		if name, ok := names[id]; ok {
			labels = append(labels, name)
		}
	}
	if len(labels) > 0 {
		b.WriteString(fmt.Sprintf("   🏷 %s\n", escape(strings.Join(labels, ", "))))
	}
	return b.String()
}

// moveButtons offers every column the task is not in.
func moveButtons(task model.Task) []tgbotapi.InlineKeyboardButton {
	label := shortTitle(task.Title, 12)
	var row []tgbotapi.InlineKeyboardButton
	for _, status := range []model.Status{model.StatusToDo, model.StatusInProgress, model.StatusCompleted} {
		if status == task.Status {
			continue
		}
		text := fmt.Sprintf("%s %s", statusIcon(status), label)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(text, cbMovePrefix+statusCodes[status]+":"+task.ID))
	}
	row = append(row, tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID))
	return row
}

func parseMoveData(data string) (model.Status, string, bool) {
	rest := strings.TrimPrefix(data, cbMovePrefix)
	code, taskID, ok := strings.Cut(rest, ":")
	if !ok || taskID == "" {
		return "", "", false
	}
	for status, c := range statusCodes {
		if c == code {
			return status, taskID, true
		}
	}
	return "", "", false
}

func formatStats(stats board.Stats) string {
	var b strings.Builder
	b.WriteString("📊 <b>Stats</b>\n")
	b.WriteString(fmt.Sprintf("Tasks: %d (to do %d · in progress %d · completed %d)\n\n",
		stats.Total, stats.ByStatus[model.StatusToDo], stats.ByStatus[model.StatusInProgress], stats.ByStatus[model.StatusCompleted]))
	b.WriteString("<b>Completed</b>\n")
	b.WriteString(fmt.Sprintf("• today: %d\n", stats.CompletedToday))
	b.WriteString(fmt.Sprintf("• this week: %d\n", stats.CompletedThisWeek))
	b.WriteString(fmt.Sprintf("• this month: %d\n", stats.CompletedThisMonth))
	b.WriteString(fmt.Sprintf("• this year: %d\n", stats.CompletedThisYear))
	b.WriteString(fmt.Sprintf("• all time: %d\n\n", stats.CompletedTotal))
	b.WriteString("<b>Completed by priority</b>\n")
	for _, p := range []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow} {
		b.WriteString(fmt.Sprintf("%s: %d\n", priorityLabel(p), stats.CompletedByPriority[p]))
	}
	return strings.TrimSpace(b.String())
}

// parseBoardArgs reads "/board" arguments in any order: a priority, a date
// range and a category id.
func parseBoardArgs(args string) (board.Criteria, error) {
	var priority, date, category string
	for _, field := range strings.Fields(args) {
		lower := strings.ToLower(field)
		switch {
		case model.Priority(lower).Valid():
			priority = lower
		case isDateRange(field):
			date = field
		default:
			category = field
		}
	}
	return board.ParseCriteria(category, priority, date)
}

func isDateRange(s string) bool {
	r, err := board.ParseDateRange(s)
	return err == nil && r != board.AnyDate
}

func parseStatus(s string) (model.Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "to-do", "todo", "to_do":
		return model.StatusToDo, true
	case "in-progress", "inprogress", "progress", "doing":
		return model.StatusInProgress, true
	case "completed", "complete", "done":
		return model.StatusCompleted, true
	}
	return "", false
}

// parseDueArg reads a YYYY-MM-DD date; "none" clears it.
func parseDueArg(s string) (*model.Date, error) {
	value := strings.ToLower(strings.TrimSpace(s))
	if value == "none" || value == "-" {
		return nil, nil
	}
	d, err := model.ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// userMessage turns a service error into chat text.
func userMessage(err error) string {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, service.ErrNotFound):
		return "Task not found."
	case errors.Is(err, service.ErrForbidden):
		return "That task belongs to someone else."
	case errors.Is(err, errAmbiguousID):
		return errAmbiguousID.Error()
	default:
		log.Printf("[error] bot: %v", err)
		return "Something went wrong, try again later."
	}
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelBoard),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelReport),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(priorityLabel(model.PriorityHigh)),
			tgbotapi.NewKeyboardButton(priorityLabel(model.PriorityMedium)),
			tgbotapi.NewKeyboardButton(priorityLabel(model.PriorityLow)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func repeatKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnNever),
			tgbotapi.NewKeyboardButton("1 day"),
			tgbotapi.NewKeyboardButton("1 week"),
			tgbotapi.NewKeyboardButton("1 month"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// categoryKeyboard lists the user's categories two per row.
func categoryKeyboard(categories []model.Category) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, c := range categories {
		row = append(row, tgbotapi.NewKeyboardButton(c.Name))
		if len(row) == 2 {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnSkip),
		tgbotapi.NewKeyboardButton(btnCancelDialog),
	))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "stop"
}
