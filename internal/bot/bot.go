package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"protaskinate/internal/model"
	"protaskinate/internal/recurrence"
	"protaskinate/internal/service"
)

// Services are the application services the chat adapter drives.
type Services struct {
	Users      *service.UserService
	Tasks      *service.TaskService
	Boards     *service.BoardService
	Categories *service.CategoryService
	Reminders  *service.ReminderService
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api      *tgbotapi.BotAPI
	svc      Services
	zone     string
	loc      *time.Location
	sessions map[int64]*chatSession
	mu       sync.Mutex
}

// New connects to Telegram. zone is the time zone used for "today" and for
// recurrence of tasks created in chat.
func New(token string, svc Services, zone string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	loc, _ := recurrence.Location(zone)
	return &Bot{
		api:      api,
		svc:      svc,
		zone:     zone,
		loc:      loc,
		sessions: make(map[int64]*chatSession),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("[error] handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("[error] handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.resetSession(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled. Start again whenever you like.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.pendingConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if state := b.conversation(msg.From.ID); state != nil {
		log.Printf("[info] conversation step %d from %d", state.stage, msg.From.ID)
		return b.handleConversation(ctx, msg, state)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "board":
		return b.handleBoard(ctx, msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "move":
		return b.handleMove(ctx, msg)
	case "due":
		return b.handleDue(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "stats":
		return b.handleStats(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "cancel":
		b.resetSession(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your kanban board in your pocket.</b>\n\n%s", escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

const helpText = "Commands:\n" +
	"• /board [priority] [date] — show the board, e.g. <code>/board high thisWeek</code>\n" +
	"• /newtask — add a task step by step\n" +
	"• /move &lt;id&gt; &lt;to-do|in-progress|completed&gt; — move a task\n" +
	"• /due &lt;id&gt; &lt;YYYY-MM-DD|none&gt; — reschedule a task\n" +
	"• /delete &lt;id&gt; — delete a task\n" +
	"• /categories — list your categories\n" +
	"• /stats — completion counters\n" +
	"• /report — today's summary\n" +
	"• /cancel — cancel the current input"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Help</b>\n"+helpText)
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.svc.Reminders.DailySummary(ctx, *user, b.now())
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	stats, err := b.svc.Boards.Stats(ctx, user.ID, b.now())
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, formatStats(stats))
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	categories, err := b.svc.Categories.List(ctx, user.ID)
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "You have no categories yet.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	for _, cat := range categories {
		builder.WriteString(fmt.Sprintf("• %s <i>(%s)</i>\n", escape(cat.Name), escape(cat.Color)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

// SendDailyReports sends a summary to every user known to the bot.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.svc.Users.ListAll(ctx)
	if err != nil {
		return err
	}
	now := b.now()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if user.TelegramID == nil {
			continue
		}
		text, err := b.svc.Reminders.DailySummary(ctx, user, now)
		if err != nil {
			log.Printf("[error] build summary for user %s: %v", user.ID, err)
			continue
		}
		if err := b.sendText(*user.TelegramID, text); err != nil {
			log.Printf("[error] send summary to %d: %v", *user.TelegramID, err)
		}
	}
	return nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.svc.Users.EnsureTelegramUser(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) now() time.Time {
	return time.Now().In(b.loc)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

// sendError reports err to the user. Only validation messages are shown
// verbatim.
func (b *Bot) sendError(chatID int64, err error) error {
	return b.sendText(chatID, escape(userMessage(err)))
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendMenuPlaceholder(chatID)
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "🔹 Main menu")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

// chatSession is what the bot remembers about one user between messages.
type chatSession struct {
	conversation *conversationState
	confirmation *confirmationRequest
}

func (b *Bot) withSession(userID int64, fn func(*chatSession)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.sessions[userID]
	if s == nil {
		s = &chatSession{}
		b.sessions[userID] = s
	}
	fn(s)
	if s.conversation == nil && s.confirmation == nil {
		delete(b.sessions, userID)
	}
}

func (b *Bot) pendingConfirmation(userID int64) (req confirmationRequest, ok bool) {
	b.withSession(userID, func(s *chatSession) {
		if s.confirmation != nil {
			req, ok = *s.confirmation, true
		}
	})
	return req, ok
}

func (b *Bot) awaitConfirmation(userID int64, req confirmationRequest) {
	b.withSession(userID, func(s *chatSession) { s.confirmation = &req })
}

func (b *Bot) conversation(userID int64) (state *conversationState) {
	b.withSession(userID, func(s *chatSession) { state = s.conversation })
	return state
}

func (b *Bot) startConversation(userID int64, state *conversationState) {
	b.withSession(userID, func(s *chatSession) { s.conversation = state })
}

// resetSession drops any half-finished conversation or confirmation.
func (b *Bot) resetSession(userID int64) {
	b.withSession(userID, func(s *chatSession) { *s = chatSession{} })
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, msg)
	case strings.ToLower(menuLabelBoard):
		return true, b.handleBoard(ctx, msg)
	case strings.ToLower(menuLabelReport):
		return true, b.handleReport(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}
