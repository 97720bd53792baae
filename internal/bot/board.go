package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"protaskinate/internal/board"
	"protaskinate/internal/model"
	"protaskinate/internal/service"
)

const (
	cbMovePrefix   = "mv:"
	cbDeletePrefix = "del:"
)

// completedShown caps the completed column in chat.
const completedShown = 5

var emptyCriteria = board.Criteria{}

var errAmbiguousID = errors.New("several tasks start with that id, type more of it")

type confirmationAction int

const (
	actionDelete confirmationAction = iota
)

type confirmationRequest struct {
	taskID string
	action confirmationAction
}

func (b *Bot) handleBoard(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	criteria, err := parseBoardArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}
	log.Printf("[info] board for user=%s criteria=%+v", user.ID, criteria)
	return b.sendBoard(ctx, msg.Chat.ID, user.ID, criteria)
}

func (b *Bot) sendBoard(ctx context.Context, chatID int64, userID string, criteria board.Criteria) error {
	buckets, err := b.svc.Boards.Board(ctx, userID, criteria, b.now())
	if err != nil {
		return b.sendError(chatID, err)
	}
	if buckets.Len() == 0 {
		return b.sendText(chatID, "Nothing on the board. Add a task with /newtask.")
	}

	categories, err := b.svc.Categories.List(ctx, userID)
	if err != nil {
		return b.sendError(chatID, err)
	}
	text, buttons := renderBoard(buckets, categories, b.now())
	msg := tgbotapi.NewMessage(chatID, text)
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleMove(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /move &lt;id&gt; &lt;to-do|in-progress|completed&gt;")
	}
	status, ok := parseStatus(args[1])
	if !ok {
		return b.sendText(msg.Chat.ID, "Status must be to-do, in-progress or completed.")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	task, err := b.resolveTask(ctx, user.ID, args[0])
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	return b.moveAndRefresh(ctx, msg.Chat.ID, user.ID, task.ID, status)
}

func (b *Bot) moveAndRefresh(ctx context.Context, chatID int64, userID, taskID string, status model.Status) error {
	task, err := b.svc.Tasks.MoveTask(ctx, userID, taskID, status, b.zone)
	if err != nil {
		return b.sendError(chatID, err)
	}
	info := fmt.Sprintf("%s «%s» is now %s.", statusIcon(task.Status), escape(task.Title), statusLabel(task.Status))
	if task.Status == model.StatusCompleted && task.Repeats() {
		info += fmt.Sprintf("\n♻️ It repeats %s, the next one will show up shortly.", repeatLabel(*task))
	}
	if err := b.sendText(chatID, info); err != nil {
		return err
	}
	return b.sendBoard(ctx, chatID, userID, emptyCriteria)
}

func (b *Bot) handleDue(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /due &lt;id&gt; &lt;YYYY-MM-DD|none&gt;")
	}
	due, err := parseDueArg(args[1])
	if err != nil {
		return b.sendText(msg.Chat.ID, "Dates look like <code>2025-11-30</code>, or send <code>none</code>.")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	task, err := b.resolveTask(ctx, user.ID, args[0])
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	task, err = b.svc.Tasks.RescheduleTask(ctx, user.ID, task.ID, due)
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	if task.DueDate == nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("🗓 «%s» no longer has a due date.", escape(task.Title)))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗓 «%s» is now due %s.", escape(task.Title), task.DueDate))
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Usage: /delete &lt;id&gt;")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	task, err := b.resolveTask(ctx, user.ID, args)
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	return b.askDeleteConfirmation(msg.Chat.ID, msg.From, task)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("[warn] callback ack: %v", err)
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbMovePrefix):
		status, taskID, ok := parseMoveData(data)
		if !ok {
			return nil
		}
		log.Printf("[info] callback move user=%d task=%s status=%s", cb.From.ID, taskID, status)
		user, err := b.ensureUser(ctx, cb.From)
		if err != nil {
			return err
		}
		return b.moveAndRefresh(ctx, cb.Message.Chat.ID, user.ID, taskID, status)
	case strings.HasPrefix(data, cbDeletePrefix):
		taskID := strings.TrimPrefix(data, cbDeletePrefix)
		log.Printf("[info] callback delete request user=%d task=%s", cb.From.ID, taskID)
		user, err := b.ensureUser(ctx, cb.From)
		if err != nil {
			return err
		}
		task, err := b.svc.Tasks.GetTask(ctx, user.ID, taskID)
		if err != nil {
			return b.sendError(cb.Message.Chat.ID, err)
		}
		return b.askDeleteConfirmation(cb.Message.Chat.ID, cb.From, task)
	default:
		return nil
	}
}

func (b *Bot) askDeleteConfirmation(chatID int64, from *tgbotapi.User, task *model.Task) error {
	text := fmt.Sprintf("Delete «%s» (<code>%s</code>)?", escape(task.Title), shortID(task.ID))
	b.awaitConfirmation(from.ID, confirmationRequest{taskID: task.ID, action: actionDelete})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.resetSession(msg.From.ID)
		return b.deleteTaskAndRefresh(ctx, msg.Chat.ID, msg.From, req.taskID)
	case isCancelInput(text):
		b.resetSession(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel the deletion.", confirmKeyboard())
	}
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, taskID string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.svc.Tasks.GetTask(ctx, user.ID, taskID)
	if err != nil {
		return b.sendTextWithRemove(chatID, escape(userMessage(err)))
	}
	if err := b.svc.Tasks.DeleteTask(ctx, user.ID, taskID); err != nil {
		return b.sendTextWithRemove(chatID, escape(userMessage(err)))
	}

	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("🗑 «%s» deleted.", escape(task.Title))); err != nil {
		return err
	}
	return b.sendBoard(ctx, chatID, user.ID, emptyCriteria)
}

// resolveTask finds the user's task whose id starts with ref, so chat users
// can type the short id shown on the board.
func (b *Bot) resolveTask(ctx context.Context, userID, ref string) (*model.Task, error) {
	tasks, err := b.svc.Tasks.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	return matchTask(tasks, ref)
}

func matchTask(tasks []model.Task, ref string) (*model.Task, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return nil, service.ErrNotFound
	}
	var found *model.Task
	for i := range tasks {
		id := strings.ToLower(tasks[i].ID)
		if id == ref {
			return &tasks[i], nil
		}
		if strings.HasPrefix(id, ref) {
			if found != nil {
				return nil, errAmbiguousID
			}
			found = &tasks[i]
		}
	}
	if found == nil {
		return nil, service.ErrNotFound
	}
	return found, nil
}
