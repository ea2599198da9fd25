package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/MahyarPz/Exam-Countdown-Bot/internal/schedule"
	"github.com/MahyarPz/Exam-Countdown-Bot/internal/store"
)

// Sender adapts the bot API to schedule.Sender so the dispatcher does not
// depend on this package's router.
type Sender struct {
	bot *tgbotapi.BotAPI
}

func NewSender(bot *tgbotapi.BotAPI) *Sender {
	return &Sender{bot: bot}
}

// Send delivers a plain text message to the user's chat.
func (s *Sender) Send(userID int64, text string) error {
	_, err := s.bot.Send(tgbotapi.NewMessage(userID, text))
	return err
}

// Router wires Telegram updates to handlers.
type Router struct {
	bot        *tgbotapi.BotAPI
	log        *zap.Logger
	repo       store.Store
	registry   *schedule.Registry
	dispatcher *schedule.Dispatcher

	adminID int64
}

func NewRouter(
	bot *tgbotapi.BotAPI,
	log *zap.Logger,
	repo store.Store,
	registry *schedule.Registry,
	dispatcher *schedule.Dispatcher,
	adminID int64,
) *Router {
	return &Router{
		bot:        bot,
		log:        log,
		repo:       repo,
		registry:   registry,
		dispatcher: dispatcher,
		adminID:    adminID,
	}
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		msg := upd.Message
		if msg.From == nil {
			return
		}
		userID := msg.From.ID
		text := strings.TrimSpace(msg.Text)
		cmd, args := splitCommand(text)

		switch cmd {
		case "/start":
			r.handleStart(ctx, userID, msg.From)
		case "/help", "/menu":
			r.reply(userID, helpText)
		case "/list":
			r.handleList(ctx, userID)
		case "/add":
			r.handleAdd(ctx, userID, args)
		case "/delete":
			r.handleDelete(ctx, userID, args)
		case "/edit":
			r.handleEdit(ctx, userID, args)
		case "/settime":
			r.handleSetTime(ctx, userID, args)
		case "/timezone":
			r.handleSetTimezone(ctx, userID, args)
		case "/notifynow":
			r.dispatcher.Dispatch(ctx, userID)
		case "/broadcast":
			r.handleBroadcast(ctx, userID, args)
		case "/stats":
			r.handleStats(ctx, userID)
		default:
			// Not a recognized command; ignore free-form text.
		}
		return
	}

	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		if cb.Message == nil || cb.From == nil {
			return
		}
		userID := cb.From.ID
		data := cb.Data

		switch {
		case data == "refresh_list":
			r.handleList(ctx, userID)
		case data == "notify_now":
			r.dispatcher.Dispatch(ctx, userID)
		case strings.HasPrefix(data, "del:"):
			r.handleDeleteCallback(ctx, userID, data)
		}
		// Always answer so the button stops showing a spinner.
		_, _ = r.bot.Request(tgbotapi.NewCallback(cb.ID, ""))
		return
	}
}

func (r *Router) reply(userID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(userID, text)); err != nil {
		r.log.Error("send failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (r *Router) replyWithKeyboard(userID int64, text string, kb any) {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ReplyMarkup = kb
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Error("send failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// splitCommand separates the leading /command (with any @botname suffix
// stripped) from the rest of the message.
func splitCommand(text string) (cmd, args string) {
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	parts := strings.SplitN(text, " ", 2)
	cmd = parts[0]
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}
	if len(parts) == 2 {
		args = strings.TrimSpace(parts[1])
	}
	return cmd, args
}

func deleteCallback(userExamID int) string {
	return "del:" + strconv.Itoa(userExamID)
}

func displayName(from *tgbotapi.User) string {
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	return name
}

func fmtUserExamLine(n int, title, phrase string) string {
	return fmt.Sprintf("%d. %s — %s", n, title, phrase)
}
