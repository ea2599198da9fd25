package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/MahyarPz/Exam-Countdown-Bot/internal/domain"
	"github.com/MahyarPz/Exam-Countdown-Bot/internal/store"
)

const emptyNoticeText = "📚 No upcoming exams. Add one with /add."

// Sender delivers a text message to a user. The telegram router implements
// this; dispatch treats it as fire-and-forget.
type Sender interface {
	Send(userID int64, text string) error
}

// Dispatcher is the callback body for a user's scheduled reminder: it reads
// current state from storage and decides whether and what to send.
type Dispatcher struct {
	store           store.Store
	sender          Sender
	log             *zap.Logger
	notifyWhenEmpty bool
	now             func() time.Time
}

func NewDispatcher(st store.Store, sender Sender, log *zap.Logger, notifyWhenEmpty bool) *Dispatcher {
	return &Dispatcher{
		store:           st,
		sender:          sender,
		log:             log,
		notifyWhenEmpty: notifyWhenEmpty,
		now:             time.Now,
	}
}

// Dispatch sends the user's daily reminder. All failures are logged and
// recovered locally: a failed delivery must not take the recurring job out of
// rotation, and one user's failure never affects another's schedule.
func (d *Dispatcher) Dispatch(ctx context.Context, userID int64) {
	u, err := d.store.GetOrCreateUser(ctx, userID, "", "")
	if err != nil {
		d.log.Error("reminder: load user failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	exams, err := d.store.GetUserExams(ctx, userID)
	if err != nil {
		d.log.Error("reminder: load exams failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	text, ok := domain.ReminderMessage(exams, u.Timezone, d.now())
	if !ok {
		if !d.notifyWhenEmpty {
			d.log.Debug("no upcoming exams, skipping reminder", zap.Int64("user_id", userID))
			return
		}
		text = emptyNoticeText
	}

	if err := d.sender.Send(userID, text); err != nil {
		d.log.Error("reminder: send failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	d.log.Info("sent daily reminder", zap.Int64("user_id", userID))
}
