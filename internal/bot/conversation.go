package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"protaskinate/internal/model"
	"protaskinate/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageCategory
	stageDueDate
	stagePriority
	stageRepeat
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	log.Printf("[info] start new task conversation user=%d", msg.From.ID)
	b.startConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title cannot be empty.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Add a short description (or tap «Skip»).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageCategory
		user, err := b.ensureUser(ctx, msg.From)
		if err != nil {
			return err
		}
		categories, err := b.svc.Categories.List(ctx, user.ID)
		if err != nil {
			return err
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Pick a category (or tap «Skip»).", categoryKeyboard(categories))
	case stageCategory:
		if !isSkipInput(text) {
			state.input.Categories = []string{service.SanitizeCategoryName(text)}
		}
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Due date as <code>2025-11-30</code> (or «Skip»).", skipKeyboard())
	case stageDueDate:
		if !isSkipInput(text) {
			due, err := parseDueArg(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I cannot read that date. Use <code>2025-11-30</code> or «Skip».", skipKeyboard())
			}
			state.input.DueDate = due
		}
		state.stage = stagePriority
		return b.sendWithReplyMarkup(msg.Chat.ID, "🚦 Priority?", priorityKeyboard())
	case stagePriority:
		priority, ok := parsePriority(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick high, medium or low.", priorityKeyboard())
		}
		state.input.Priority = priority
		state.stage = stageRepeat
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Repeat? Send <code>never</code> or e.g. <code>2 week</code>, <code>1 month</code>.", repeatKeyboard())
	case stageRepeat:
		number, unit, err := parseRepeat(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, escape(err.Error()), repeatKeyboard())
		}
		state.input.RepeatNumber = number
		state.input.RepeatUnit = unit
		err = b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
		b.resetSession(msg.From.ID)
		return err
	default:
		b.resetSession(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Conversation reset. Try /newtask again.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	input.TimeZone = b.zone
	task, err := b.svc.Tasks.CreateTask(ctx, user.ID, input)
	if err != nil {
		return b.sendError(chatID, err)
	}

	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> <code>%s</code>\n", shortID(task.ID)))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(task.Title)))
	if task.Description != "" {
		summary.WriteString(fmt.Sprintf("• <b>Description:</b> %s\n", escape(task.Description)))
	}
	if task.DueDate != nil {
		summary.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", task.DueDate))
	}
	summary.WriteString(fmt.Sprintf("• <b>Priority:</b> %s\n", task.Priority))
	if task.Repeats() {
		summary.WriteString(fmt.Sprintf("• <b>Repeats:</b> %s\n", repeatLabel(*task)))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(summary.String()))
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendBoard(ctx, chatID, user.ID, emptyCriteria)
}

// parseRepeat reads "never" or "<number> <unit>", accepting plural units.
func parseRepeat(text string) (int, model.RepeatUnit, error) {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 || (len(fields) == 1 && (fields[0] == "never" || isSkipInput(fields[0]))) {
		return 0, model.RepeatNever, nil
	}
	if len(fields) != 2 {
		return 0, "", fmt.Errorf("send never or a frequency and unit, like 2 week")
	}
	var number int
	if _, err := fmt.Sscanf(fields[0], "%d", &number); err != nil || number < 1 {
		return 0, "", fmt.Errorf("please choose a REPEAT FREQUENCY")
	}
	unit := model.RepeatUnit(strings.TrimSuffix(fields[1], "s"))
	if !unit.Valid() || unit == model.RepeatNever {
		return 0, "", fmt.Errorf("please choose a REPEAT UNIT")
	}
	return number, unit, nil
}

func parsePriority(text string) (model.Priority, bool) {
	value := strings.ToLower(strings.TrimSpace(text))
	for _, p := range []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow} {
		if value == string(p) || value == strings.ToLower(priorityLabel(p)) {
			return p, true
		}
	}
	return "", false
}
