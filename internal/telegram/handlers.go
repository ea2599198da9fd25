package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/MahyarPz/Exam-Countdown-Bot/internal/domain"
)

// addArgsRe matches "<YYYY-MM-DD> [HH:MM] <title>".
var addArgsRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})(?:\s+(\d{2}:\d{2}))?\s+(.+)$`)

func (r *Router) handleStart(ctx context.Context, userID int64, from *tgbotapi.User) {
	u, err := r.repo.GetOrCreateUser(ctx, userID, displayName(from), from.UserName)
	if err != nil {
		r.log.Error("get or create user failed", zap.Int64("user_id", userID), zap.Error(err))
		r.reply(userID, "Something went wrong, please try again.")
		return
	}
	if err := r.registry.Install(userID, u.NotifyTime, u.Timezone); err != nil {
		r.log.Error("install schedule failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	r.replyWithKeyboard(userID, startText, mainMenuKeyboard())
}

func (r *Router) handleList(ctx context.Context, userID int64) {
	// Read-path reconciliation: a restart may have dropped the in-memory
	// schedule entry while the durable user record survived.
	if err := r.registry.Ensure(ctx, userID); err != nil {
		r.log.Error("ensure schedule failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	u, err := r.repo.GetOrCreateUser(ctx, userID, "", "")
	if err != nil {
		r.log.Error("get user failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	exams, err := r.repo.GetUserExams(ctx, userID)
	if err != nil {
		r.log.Error("get exams failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if len(exams) == 0 {
		r.reply(userID, noExamsText)
		return
	}

	now := time.Now()
	lines := make([]string, 0, len(exams))
	ids := make([]int, 0, len(exams))
	titles := make([]string, 0, len(exams))
	for _, e := range exams {
		phrase := ""
		if days, err := domain.DaysUntil(e.DateTime, u.Timezone, now); err == nil {
			phrase = domain.CountdownPhrase(days)
		}
		lines = append(lines, fmtUserExamLine(e.UserExamID, e.Title, phrase))
		ids = append(ids, e.UserExamID)
		titles = append(titles, e.Title)
	}
	r.replyWithKeyboard(userID, "📋 Your exams:\n"+strings.Join(lines, "\n"), listInlineKeyboard(ids, titles))
}

func (r *Router) handleAdd(ctx context.Context, userID int64, args string) {
	m := addArgsRe.FindStringSubmatch(args)
	if m == nil {
		r.reply(userID, badAddText)
		return
	}
	dateArg := m[1]
	if m[2] != "" {
		dateArg += " " + m[2]
	}
	title := strings.TrimSpace(m[3])

	u, err := r.repo.GetOrCreateUser(ctx, userID, "", "")
	if err != nil {
		r.log.Error("get user failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	iso, err := domain.ParseExamDateTime(dateArg, u.NotifyTime)
	if err != nil {
		r.reply(userID, badAddText)
		return
	}

	id, err := r.repo.AddExam(ctx, userID, title, iso)
	if err != nil {
		r.log.Error("add exam failed", zap.Int64("user_id", userID), zap.Error(err))
		r.reply(userID, "Could not add the exam, please try again.")
		return
	}
	if err := r.registry.Ensure(ctx, userID); err != nil {
		r.log.Error("ensure schedule failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	r.reply(userID, fmt.Sprintf(examAddedFmt, id, title, dateArg))
}

func (r *Router) handleDelete(ctx context.Context, userID int64, args string) {
	id, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		r.reply(userID, badDeleteText)
		return
	}
	r.deleteExam(ctx, userID, id)
}

func (r *Router) handleDeleteCallback(ctx context.Context, userID int64, data string) {
	id, err := strconv.Atoi(strings.TrimPrefix(data, "del:"))
	if err != nil {
		return
	}
	r.deleteExam(ctx, userID, id)
}

func (r *Router) deleteExam(ctx context.Context, userID int64, userExamID int) {
	ok, err := r.repo.DeleteExam(ctx, userExamID, userID)
	if err != nil {
		r.log.Error("delete exam failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if !ok {
		r.reply(userID, fmt.Sprintf(examNotFoundFmt, userExamID))
		return
	}
	r.reply(userID, fmt.Sprintf(examDeletedFmt, userExamID))
}

func (r *Router) handleEdit(ctx context.Context, userID int64, args string) {
	fields := strings.SplitN(args, " ", 3)
	if len(fields) < 3 {
		r.reply(userID, badEditText)
		return
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		r.reply(userID, badEditText)
		return
	}

	var title, iso *string
	switch fields[1] {
	case "title":
		t := strings.TrimSpace(fields[2])
		if t == "" {
			r.reply(userID, badEditText)
			return
		}
		title = &t
	case "date":
		u, err := r.repo.GetOrCreateUser(ctx, userID, "", "")
		if err != nil {
			r.log.Error("get user failed", zap.Int64("user_id", userID), zap.Error(err))
			return
		}
		parsed, err := domain.ParseExamDateTime(fields[2], u.NotifyTime)
		if err != nil {
			r.reply(userID, badEditText)
			return
		}
		iso = &parsed
	default:
		r.reply(userID, badEditText)
		return
	}

	ok, err := r.repo.UpdateExam(ctx, id, userID, title, iso)
	if err != nil {
		r.log.Error("update exam failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if !ok {
		r.reply(userID, fmt.Sprintf(examNotFoundFmt, id))
		return
	}
	r.reply(userID, fmt.Sprintf(examUpdatedFmt, id))
}

func (r *Router) handleSetTime(ctx context.Context, userID int64, args string) {
	hhmm, err := domain.ParseNotifyTime(args)
	if err != nil {
		r.reply(userID, badTimeText)
		return
	}
	u, err := r.repo.GetOrCreateUser(ctx, userID, "", "")
	if err != nil {
		r.log.Error("get user failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if err := r.repo.UpdateUserNotifyTime(ctx, userID, hhmm); err != nil {
		r.log.Error("update notify time failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	// The change must take effect on the next due reminder, not on the next
	// bootstrap.
	if err := r.registry.Install(userID, hhmm, u.Timezone); err != nil {
		r.log.Error("reschedule failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	r.reply(userID, fmt.Sprintf(timeUpdatedFmt, hhmm, u.Timezone))
}

func (r *Router) handleSetTimezone(ctx context.Context, userID int64, args string) {
	tz, err := domain.ValidateTZ(args)
	if err != nil {
		r.reply(userID, badTZText)
		return
	}
	u, err := r.repo.GetOrCreateUser(ctx, userID, "", "")
	if err != nil {
		r.log.Error("get user failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if err := r.repo.UpdateUserTimezone(ctx, userID, tz); err != nil {
		r.log.Error("update timezone failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if err := r.registry.Install(userID, u.NotifyTime, tz); err != nil {
		r.log.Error("reschedule failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	r.reply(userID, fmt.Sprintf(timezoneUpdatedFmt, tz, u.NotifyTime))
}

func (r *Router) handleBroadcast(ctx context.Context, userID int64, args string) {
	if userID != r.adminID || r.adminID == 0 {
		return
	}
	if strings.TrimSpace(args) == "" {
		r.reply(userID, "Usage: /broadcast <message>")
		return
	}
	users, err := r.repo.GetAllUsers(ctx)
	if err != nil {
		r.log.Error("broadcast: get users failed", zap.Error(err))
		return
	}
	sent := 0
	for _, u := range users {
		if _, err := r.bot.Send(tgbotapi.NewMessage(u.ID, args)); err != nil {
			r.log.Warn("broadcast send failed", zap.Int64("user_id", u.ID), zap.Error(err))
			continue
		}
		sent++
	}
	r.reply(userID, fmt.Sprintf("📢 Broadcast sent to %d/%d users.", sent, len(users)))
}

func (r *Router) handleStats(ctx context.Context, userID int64) {
	if userID != r.adminID || r.adminID == 0 {
		return
	}
	users, err := r.repo.GetAllUsers(ctx)
	if err != nil {
		r.log.Error("stats: get users failed", zap.Error(err))
		return
	}
	r.reply(userID, fmt.Sprintf("📊 Users: %d\nLive schedules: %d", len(users), r.registry.Len()))
}
